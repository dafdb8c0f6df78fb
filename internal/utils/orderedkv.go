package utils

import "sort"

type OrderedKV[T any] struct {
	Value T
	Order int64
}

// OrderedKVMap is a string keyed map that remembers the order in which keys
// were first inserted. Overwriting a key keeps its original position.
type OrderedKVMap[T any] struct {
	entries map[string]OrderedKV[T]
	next    int64
}

func NewOrderedKVMap[T any]() *OrderedKVMap[T] {
	return &OrderedKVMap[T]{
		entries: make(map[string]OrderedKV[T]),
	}
}

// Set inserts or replaces the value for key and reports whether the key was new.
func (om *OrderedKVMap[T]) Set(key string, value T) bool {
	if existing, ok := om.entries[key]; ok {
		om.entries[key] = OrderedKV[T]{Value: value, Order: existing.Order}
		return false
	}
	om.entries[key] = OrderedKV[T]{Value: value, Order: om.next}
	om.next++
	return true
}

func (om *OrderedKVMap[T]) Get(key string) (T, bool) {
	kv, ok := om.entries[key]
	return kv.Value, ok
}

func (om *OrderedKVMap[T]) Delete(key string) bool {
	if _, ok := om.entries[key]; !ok {
		return false
	}
	delete(om.entries, key)
	return true
}

func (om *OrderedKVMap[T]) Len() int {
	return len(om.entries)
}

func (om *OrderedKVMap[T]) Clear() {
	om.entries = make(map[string]OrderedKV[T])
	om.next = 0
}

// Keys returns the keys in insertion order.
func (om *OrderedKVMap[T]) Keys() []string {
	type pair struct {
		key   string
		order int64
	}
	pairs := make([]pair, 0, len(om.entries))
	for k, v := range om.entries {
		pairs = append(pairs, pair{key: k, order: v.Order})
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].order < pairs[j].order
	})

	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = p.key
	}
	return keys
}

// Values returns the values in insertion order.
func (om *OrderedKVMap[T]) Values() []T {
	keys := om.Keys()
	values := make([]T, len(keys))
	for i, k := range keys {
		values[i] = om.entries[k].Value
	}
	return values
}
