package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sacavia/feedengine/internal/decoder"
	"github.com/sacavia/feedengine/internal/domain"
	"github.com/sacavia/feedengine/internal/store"
	"github.com/sacavia/feedengine/internal/utils"
)

type feedFixture struct {
	feed        *FeedUsecase
	store       *store.Store
	seq         *utils.Sequence
	gateway     *mockFeedGateway
	interaction *mockInteractionGateway
	suggestions *SuggestionUsecase
	blocklist   *mockBlocklistGateway
	creds       *mockCreds
}

func newFeedFixture(t *testing.T) *feedFixture {
	t.Helper()
	st := store.New()
	seq := utils.NewSequence()
	t.Cleanup(seq.Close)

	creds := &mockCreds{token: "t"}
	dec := decoder.New(nil)
	blocked := NewBlockedSet()
	follow := &mockFollowGateway{}
	sgw := &mockSuggestionGateway{resp: suggestionsResponse(wireCategory("nearby", "s1"))}
	suggestions := NewSuggestionUsecase(seq, sgw, follow, dec, blocked, nil, SuggestionConfig{})
	bgw := &mockBlocklistGateway{}
	blocklist := NewBlocklistUsecase(st, seq, bgw, follow, blocked, suggestions, nil, time.Hour)
	igw := &mockInteractionGateway{}
	sync := NewSyncUsecase(st, seq, igw, nil)
	fgw := &mockFeedGateway{}
	feed := NewFeedUsecase(st, seq, fgw, dec, creds, sync, blocklist, suggestions, nil, 20)

	return &feedFixture{
		feed:        feed,
		store:       st,
		seq:         seq,
		gateway:     fgw,
		interaction: igw,
		suggestions: suggestions,
		blocklist:   bgw,
		creds:       creds,
	}
}

func TestFetchFeedPlacesScenario(t *testing.T) {
	f := newFeedFixture(t)
	f.gateway.pages = append(f.gateway.pages, rawItems(
		`{"type":"post","id":"p1","author":{"id":"u1"},"engagement":{"likeCount":3,"isLiked":false}}`,
		`{"type":"place_recommendation","id":"pl1","privacy":"private"}`,
	))
	ctx := context.Background()

	if err := f.feed.FetchFeed(ctx, domain.FilterPlaces); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	state, _ := f.feed.Projection(ctx)
	if len(state.Items) != 0 {
		t.Fatalf("expected empty store, got %v", ids(state.Items))
	}
	if state.Filter != domain.FilterPlaces || state.IsLoading {
		t.Fatalf("unexpected state %+v", state)
	}
	if f.gateway.filters[0] != domain.FilterPlaces {
		t.Fatalf("expected filter passed to gateway")
	}
}

func TestFetchFeedErrorKeepsLastGoodState(t *testing.T) {
	f := newFeedFixture(t)
	f.gateway.pages = append(f.gateway.pages, rawItems(`{"type":"post","id":"p1","author":{"id":"u1"}}`))
	ctx := context.Background()

	if err := f.feed.FetchFeed(ctx, domain.FilterAll); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	f.gateway.err = errors.New("connection reset")
	if err := f.feed.FetchFeed(ctx, domain.FilterAll); err == nil {
		t.Fatalf("expected transport error")
	}

	state, _ := f.feed.Projection(ctx)
	if len(state.Items) != 1 {
		t.Fatalf("expected last good page kept")
	}
	if !strings.Contains(state.LastError, "connection reset") || state.IsLoading {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestFetchFeedWithoutTokenRequiresAuth(t *testing.T) {
	f := newFeedFixture(t)
	f.creds.token = ""
	ctx := context.Background()

	err := f.feed.FetchFeed(ctx, domain.FilterAll)
	if !errors.Is(err, domain.ErrAuthRequired) {
		t.Fatalf("expected auth required, got %v", err)
	}
	if len(f.gateway.filters) != 0 {
		t.Fatalf("no request expected without a token")
	}
	state, _ := f.feed.Projection(ctx)
	if !strings.Contains(state.LastError, "Authentication required") {
		t.Fatalf("unexpected error message %q", state.LastError)
	}
}

func TestRefreshReconcilesAfterFetch(t *testing.T) {
	f := newFeedFixture(t)
	f.gateway.pages = append(f.gateway.pages, rawItems(
		`{"type":"post","id":"p1","author":{"id":"u1"},"engagement":{"likeCount":3,"isLiked":false}}`,
		`{"type":"bogus","id":"x"}`,
	))
	f.interaction.states = []domain.InteractionState{{PostID: "p1", IsLiked: true, LikeCount: 4, SaveCount: 1, IsSaved: true}}
	ctx := context.Background()

	if err := f.feed.Refresh(ctx, domain.FilterAll); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if len(f.interaction.asked) != 1 || f.interaction.asked[0] != "p1" {
		t.Fatalf("expected reconciliation for p1, got %v", f.interaction.asked)
	}
	if f.blocklist.fetches != 1 {
		t.Fatalf("expected blocklist refresh")
	}

	e := engagementOf(t, f.seq, f.store, "p1")
	if !e.IsLiked || e.LikeCount != 4 || !e.IsSaved || e.SaveCount != 1 {
		t.Fatalf("expected reconciled engagement, got %+v", e)
	}
}

func TestRefreshIgnoresReconciliationFailure(t *testing.T) {
	f := newFeedFixture(t)
	f.gateway.pages = append(f.gateway.pages, rawItems(`{"type":"post","id":"p1","author":{"id":"u1"}}`))
	f.interaction.err = errors.New("timeout")

	if err := f.feed.Refresh(context.Background(), domain.FilterAll); err != nil {
		t.Fatalf("reconciliation failure must not surface: %v", err)
	}
	state, _ := f.feed.Projection(context.Background())
	if state.LastError != "" {
		t.Fatalf("unexpected error banner %q", state.LastError)
	}
}

func TestRenderInterleavesSuggestions(t *testing.T) {
	f := newFeedFixture(t)
	f.gateway.pages = append(f.gateway.pages, rawItems(
		`{"type":"post","id":"p1","author":{"id":"u1"}}`,
		`{"type":"post","id":"p2","author":{"id":"u1"}}`,
		`{"type":"post","id":"p3","author":{"id":"u1"}}`,
		`{"type":"post","id":"p4","author":{"id":"u1"}}`,
	))
	ctx := context.Background()
	f.feed.FetchFeed(ctx, domain.FilterAll)
	f.suggestions.Fetch(ctx, "all", 1)

	out, _, err := f.feed.Render(ctx)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if len(out) != 5 || out[2].Suggestions == nil {
		t.Fatalf("expected suggestions at index 2, got %d entries", len(out))
	}
}

func TestClearAfterLogoutAndForceRefresh(t *testing.T) {
	f := newFeedFixture(t)
	f.gateway.pages = append(f.gateway.pages, rawItems(`{"type":"post","id":"p1","author":{"id":"u1"}}`))
	ctx := context.Background()
	f.feed.FetchFeed(ctx, domain.FilterPosts)

	if err := f.feed.ClearAfterLogout(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	state, _ := f.feed.Projection(ctx)
	if len(state.Items) != 0 || state.Filter != domain.FilterAll {
		t.Fatalf("expected empty store after logout, got %+v", state)
	}

	before, _ := f.suggestions.SessionID(ctx)
	if err := f.feed.ForceRefreshAfterLogin(ctx); err != nil {
		t.Fatalf("force refresh failed: %v", err)
	}
	after, _ := f.suggestions.SessionID(ctx)
	if before == after {
		t.Fatalf("expected a new suggestion session")
	}
	state, _ = f.feed.Projection(ctx)
	if len(state.Items) != 1 {
		t.Fatalf("expected feed reloaded")
	}
	cats, _ := f.suggestions.Categories(ctx)
	if len(cats) != 1 {
		t.Fatalf("expected suggestions reloaded")
	}
}

func TestInvalidationHandlers(t *testing.T) {
	f := newFeedFixture(t)
	f.gateway.pages = append(f.gateway.pages,
		rawItems(`{"type":"post","id":"p1","author":{"id":"u1"}}`, `{"type":"post","id":"p2","author":{"id":"u1"}}`),
	)
	ctx := context.Background()
	f.feed.FetchFeed(ctx, domain.FilterAll)

	uc := NewInvalidationUsecase(f.feed, nil)
	uc.HandlePostDeleted(ctx, domain.PostDeleted{PostID: "p1"})

	state, _ := f.feed.Projection(ctx)
	if len(state.Items) != 1 || state.Items[0].ItemID() != "p2" {
		t.Fatalf("expected p1 removed, got %v", ids(state.Items))
	}

	uc.HandlePostCreated(ctx, domain.PostCreated{Success: false})
	if len(f.gateway.filters) != 1 {
		t.Fatalf("failed creation must not refresh")
	}

	uc.HandlePostCreated(ctx, domain.PostCreated{Success: true})
	if len(f.gateway.filters) != 2 {
		t.Fatalf("expected a refresh after creation")
	}
	if len(f.interaction.asked) == 0 {
		t.Fatalf("expected reconciliation after creation refresh")
	}
}
