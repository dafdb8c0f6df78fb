package store

import (
	"github.com/sacavia/feedengine/internal/domain"
	"github.com/sacavia/feedengine/internal/utils"
)

// State is a read-only snapshot of the store.
type State struct {
	Items     []domain.FeedItem `json:"-"`
	Filter    domain.FeedFilter `json:"filter"`
	IsLoading bool              `json:"isLoading"`
	LastError string            `json:"lastError,omitempty"`
	Revision  uint64            `json:"revision"`
}

// Store is the ordered, id keyed feed cache.
//
// Store is not safe for concurrent use. It is owned by a single sequence and
// every method must be called from it.
type Store struct {
	items     *utils.OrderedKVMap[domain.FeedItem]
	pending   map[string]uint64
	filter    domain.FeedFilter
	inflight  int
	lastError string
	revision  uint64
	onChange  func(revision uint64)
}

func New() *Store {
	return &Store{
		items:   utils.NewOrderedKVMap[domain.FeedItem](),
		pending: make(map[string]uint64),
		filter:  domain.FilterAll,
	}
}

// OnChange registers fn to be called after every effective change.
func (s *Store) OnChange(fn func(revision uint64)) {
	s.onChange = fn
}

func (s *Store) changed() {
	s.revision++
	if s.onChange != nil {
		s.onChange(s.revision)
	}
}

// ReplacePage swaps the whole collection for a freshly fetched page.
// In places mode, anything that is not a public place is dropped.
// Items with an unreconciled local edit keep their local engagement.
// It returns the number of items retained.
func (s *Store) ReplacePage(items []domain.FeedItem, mode domain.FeedFilter) int {
	next := utils.NewOrderedKVMap[domain.FeedItem]()
	pending := make(map[string]uint64)

	for _, item := range items {
		if !accepts(mode, item) {
			continue
		}
		id := item.ItemID()
		if rev, ok := s.pending[id]; ok {
			item = s.overlay(item)
			pending[id] = rev
		}
		next.Set(id, item)
	}

	s.items = next
	s.pending = pending
	s.changed()
	return next.Len()
}

func accepts(mode domain.FeedFilter, item domain.FeedItem) bool {
	if mode != domain.FilterPlaces {
		return true
	}
	place, ok := item.(domain.Place)
	return ok && !place.IsPrivate()
}

// overlay carries the local engagement of the stored copy onto a fetched post.
func (s *Store) overlay(item domain.FeedItem) domain.FeedItem {
	incoming, ok := item.(domain.Post)
	if !ok {
		return item
	}
	current, ok := s.items.Get(incoming.ID)
	if !ok {
		return item
	}
	local, ok := current.(domain.Post)
	if !ok {
		return item
	}
	incoming.Engagement.IsLiked = local.Engagement.IsLiked
	incoming.Engagement.IsSaved = local.Engagement.IsSaved
	incoming.Engagement.LikeCount = local.Engagement.LikeCount
	incoming.Engagement.SaveCount = local.Engagement.SaveCount
	return incoming
}

// UpsertMany replaces items by id. Known ids keep their position, new ids
// are appended.
func (s *Store) UpsertMany(items []domain.FeedItem) {
	if len(items) == 0 {
		return
	}
	for _, item := range items {
		s.items.Set(item.ItemID(), item)
	}
	s.changed()
}

func (s *Store) RemoveByID(id string) bool {
	if !s.items.Delete(id) {
		return false
	}
	delete(s.pending, id)
	s.changed()
	return true
}

// RemoveWhere drops every item matching pred and returns how many were removed.
func (s *Store) RemoveWhere(pred func(domain.FeedItem) bool) int {
	removed := 0
	for _, id := range s.items.Keys() {
		item, _ := s.items.Get(id)
		if pred(item) {
			s.items.Delete(id)
			delete(s.pending, id)
			removed++
		}
	}
	if removed > 0 {
		s.changed()
	}
	return removed
}

// MutateEngagement applies fn to the engagement of post id. It is a no-op
// when the id is absent or does not name a post.
func (s *Store) MutateEngagement(id string, fn func(domain.Engagement) domain.Engagement) bool {
	item, ok := s.items.Get(id)
	if !ok {
		return false
	}
	post, ok := item.(domain.Post)
	if !ok {
		return false
	}
	updated := fn(post.Engagement)
	if updated == post.Engagement {
		return false
	}
	post.Engagement = updated
	s.items.Set(id, post)
	s.changed()
	return true
}

// MarkPending records that id carries a local edit made at the current revision.
func (s *Store) MarkPending(id string) {
	if _, ok := s.items.Get(id); !ok {
		return
	}
	s.pending[id] = s.revision
}

func (s *Store) PendingSince(id string) (uint64, bool) {
	rev, ok := s.pending[id]
	return rev, ok
}

func (s *Store) ClearPending(id string) {
	delete(s.pending, id)
}

func (s *Store) Get(id string) (domain.FeedItem, bool) {
	return s.items.Get(id)
}

func (s *Store) Len() int {
	return s.items.Len()
}

// Items returns the items in feed order.
func (s *Store) Items() []domain.FeedItem {
	return s.items.Values()
}

// PostIDs returns the ids of the posts in feed order.
func (s *Store) PostIDs() []string {
	ids := []string{}
	for _, item := range s.items.Values() {
		if item.Kind() == domain.KindPost {
			ids = append(ids, item.ItemID())
		}
	}
	return ids
}

func (s *Store) Clear() {
	s.items.Clear()
	s.pending = make(map[string]uint64)
	s.lastError = ""
	s.changed()
}

func (s *Store) Filter() domain.FeedFilter {
	return s.filter
}

func (s *Store) SetFilter(filter domain.FeedFilter) {
	if s.filter == filter {
		return
	}
	s.filter = filter
	s.changed()
}

// BeginLoad marks one more fetch in flight.
func (s *Store) BeginLoad() {
	s.inflight++
	if s.inflight == 1 {
		s.changed()
	}
}

// EndLoad marks one fetch finished. The store stays loading until every
// overlapping fetch has finished.
func (s *Store) EndLoad() {
	if s.inflight == 0 {
		return
	}
	s.inflight--
	if s.inflight == 0 {
		s.changed()
	}
}

func (s *Store) IsLoading() bool {
	return s.inflight > 0
}

func (s *Store) SetError(msg string) {
	if s.lastError == msg {
		return
	}
	s.lastError = msg
	s.changed()
}

func (s *Store) LastError() string {
	return s.lastError
}

func (s *Store) Revision() uint64 {
	return s.revision
}

func (s *Store) State() State {
	return State{
		Items:     s.Items(),
		Filter:    s.filter,
		IsLoading: s.IsLoading(),
		LastError: s.lastError,
		Revision:  s.revision,
	}
}
