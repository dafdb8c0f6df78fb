package utils

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestSequenceSerializesWork(t *testing.T) {
	seq := NewSequence()
	defer seq.Close()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := seq.Do(context.Background(), func() { counter++ }); err != nil {
				t.Errorf("do failed: %v", err)
			}
		}()
	}
	wg.Wait()

	var got int
	seq.Do(context.Background(), func() { got = counter })
	if got != 100 {
		t.Fatalf("expected 100 got %d", got)
	}
}

func TestSequenceClosed(t *testing.T) {
	seq := NewSequence()
	seq.Close()
	seq.Close()

	err := seq.Do(context.Background(), func() {})
	if !errors.Is(err, ErrSequenceClosed) {
		t.Fatalf("expected ErrSequenceClosed got %v", err)
	}
}

func TestOrderedKVMap(t *testing.T) {
	om := NewOrderedKVMap[int]()
	om.Set("b", 1)
	om.Set("a", 2)
	if om.Set("b", 3) {
		t.Fatalf("expected overwrite to report existing key")
	}

	if keys := om.Keys(); len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Fatalf("overwrite must keep the first position, got %v", keys)
	}
	if v, _ := om.Get("b"); v != 3 {
		t.Fatalf("expected overwritten value, got %d", v)
	}

	om.Delete("b")
	if keys := om.Keys(); len(keys) != 1 || keys[0] != "a" {
		t.Fatalf("unexpected keys %v", keys)
	}
}
