package usecase

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sacavia/feedengine"
	"github.com/sacavia/feedengine/internal/domain"
)

type mockCreds struct {
	token string
}

func (m *mockCreds) IsAuthenticated() bool { return m.token != "" }
func (m *mockCreds) GetValidToken() (string, bool) {
	return m.token, m.token != ""
}

type mockPostGateway struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (m *mockPostGateway) record(kind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, kind+":"+id)
	return m.err
}

func (m *mockPostGateway) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockPostGateway) Like(ctx context.Context, id string) error   { return m.record("like", id) }
func (m *mockPostGateway) Unlike(ctx context.Context, id string) error { return m.record("unlike", id) }
func (m *mockPostGateway) Save(ctx context.Context, id string) error   { return m.record("save", id) }
func (m *mockPostGateway) Unsave(ctx context.Context, id string) error { return m.record("unsave", id) }
func (m *mockPostGateway) Share(ctx context.Context, id string) error  { return m.record("share", id) }
func (m *mockPostGateway) Delete(ctx context.Context, id string) error { return m.record("delete", id) }

type mockInteractionGateway struct {
	states []domain.InteractionState
	err    error
	asked  []string
	during func()
}

func (m *mockInteractionGateway) CheckInteractions(ctx context.Context, ids []string) ([]domain.InteractionState, error) {
	m.asked = ids
	if m.during != nil {
		m.during()
	}
	return m.states, m.err
}

type mockFeedGateway struct {
	mu      sync.Mutex
	pages   [][]json.RawMessage
	err     error
	filters []domain.FeedFilter
}

func (m *mockFeedGateway) FetchFeed(ctx context.Context, filter domain.FeedFilter, page, limit int) (FeedPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, filter)
	if m.err != nil {
		return FeedPage{}, m.err
	}
	if len(m.pages) == 0 {
		return FeedPage{}, nil
	}
	next := m.pages[0]
	if len(m.pages) > 1 {
		m.pages = m.pages[1:]
	}
	return FeedPage{Items: next}, nil
}

type mockSuggestionGateway struct {
	resp    *feedengine.SuggestionsResponse
	err     error
	queries []SuggestionQuery
}

func (m *mockSuggestionGateway) FetchSuggestions(ctx context.Context, q SuggestionQuery) (*feedengine.SuggestionsResponse, error) {
	m.queries = append(m.queries, q)
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

type mockFollowGateway struct {
	followErr   error
	unfollowErr error
	followed    []string
	unfollowed  []string
}

func (m *mockFollowGateway) Follow(ctx context.Context, id string) error {
	m.followed = append(m.followed, id)
	return m.followErr
}

func (m *mockFollowGateway) Unfollow(ctx context.Context, id string) error {
	m.unfollowed = append(m.unfollowed, id)
	return m.unfollowErr
}

type mockBlocklistGateway struct {
	blocked   []string
	fetches   int
	err       error
	failNext  error
	blockErr  error
	blockedBy []string
	unblocked []string
}

func (m *mockBlocklistGateway) FetchBlocked(ctx context.Context) ([]string, error) {
	m.fetches++
	if err := m.failNext; err != nil {
		m.failNext = nil
		return nil, err
	}
	return m.blocked, m.err
}

func (m *mockBlocklistGateway) Block(ctx context.Context, id, reason string) error {
	m.blockedBy = append(m.blockedBy, id)
	return m.blockErr
}

func (m *mockBlocklistGateway) Unblock(ctx context.Context, id string) error {
	m.unblocked = append(m.unblocked, id)
	return nil
}

type mockPublisher struct {
	events []domain.Event
}

func (m *mockPublisher) Publish(ctx context.Context, event domain.Event) error {
	m.events = append(m.events, event)
	return nil
}

func rawItems(items ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(items))
	for i, s := range items {
		out[i] = json.RawMessage(s)
	}
	return out
}

func testPost(id, author string, likes int, liked bool) domain.Post {
	return domain.Post{
		ID:         id,
		Author:     domain.Author{ID: author},
		Engagement: domain.Engagement{LikeCount: likes, IsLiked: liked},
	}
}

func person(id string) domain.Person {
	return domain.Person{ID: id, Name: id}
}

func intptr(i int) *int { return &i }

func strptr(s string) *string { return &s }
