package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/sacavia/feedengine/internal/domain"
	"github.com/sacavia/feedengine/internal/store"
	"github.com/sacavia/feedengine/internal/utils"
)

func newMutationFixture(t *testing.T, gw *mockPostGateway) (*MutationUsecase, *store.Store, *utils.Sequence, *mockPublisher) {
	t.Helper()
	st := store.New()
	seq := utils.NewSequence()
	t.Cleanup(seq.Close)
	pub := &mockPublisher{}
	st.UpsertMany([]domain.FeedItem{testPost("p1", "u1", 5, false)})
	return NewMutationUsecase(st, seq, gw, &mockCreds{token: "t"}, pub, nil), st, seq, pub
}

func engagementOf(t *testing.T, seq *utils.Sequence, st *store.Store, id string) domain.Engagement {
	t.Helper()
	var (
		item domain.FeedItem
		ok   bool
	)
	seq.Do(context.Background(), func() {
		item, ok = st.Get(id)
	})
	if !ok {
		t.Fatalf("item %s missing", id)
	}
	return item.(domain.Post).Engagement
}

func TestLikeOptimisticConfirmed(t *testing.T) {
	gw := &mockPostGateway{}
	uc, st, seq, _ := newMutationFixture(t, gw)
	ctx := context.Background()

	p, err := uc.Like(ctx, "p1")
	if err != nil {
		t.Fatalf("like failed: %v", err)
	}

	e := engagementOf(t, seq, st, "p1")
	if !e.IsLiked || e.LikeCount != 6 {
		t.Fatalf("expected optimistic like, got %+v", e)
	}

	if err := p.Wait(ctx); err != nil {
		t.Fatalf("expected confirmation, got %v", err)
	}
	if e2 := engagementOf(t, seq, st, "p1"); e2 != e {
		t.Fatalf("confirmation changed state: %+v", e2)
	}
}

func TestLikeFailureKeepsOptimisticState(t *testing.T) {
	gw := &mockPostGateway{err: errors.New("boom")}
	uc, st, seq, _ := newMutationFixture(t, gw)
	ctx := context.Background()

	p, err := uc.Like(ctx, "p1")
	if err != nil {
		t.Fatalf("like failed: %v", err)
	}
	if err := p.Wait(ctx); err == nil {
		t.Fatalf("expected confirmation error")
	}

	e := engagementOf(t, seq, st, "p1")
	if !e.IsLiked || e.LikeCount != 6 {
		t.Fatalf("expected state to stick, got %+v", e)
	}

	if err := p.Rollback(ctx); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	e = engagementOf(t, seq, st, "p1")
	if e.IsLiked || e.LikeCount != 5 {
		t.Fatalf("expected rollback, got %+v", e)
	}
}

func TestDoubleTapLikeSkipsWhenLiked(t *testing.T) {
	gw := &mockPostGateway{}
	uc, st, seq, _ := newMutationFixture(t, gw)
	ctx := context.Background()

	first, err := uc.DoubleTapLike(ctx, "p1")
	if err != nil {
		t.Fatalf("double tap failed: %v", err)
	}
	first.Wait(ctx)

	second, err := uc.DoubleTapLike(ctx, "p1")
	if err != nil {
		t.Fatalf("double tap failed: %v", err)
	}
	second.Wait(ctx)

	if second.Applied() {
		t.Fatalf("second double tap should be suppressed")
	}
	if calls := gw.Calls(); len(calls) != 1 || calls[0] != "like:p1" {
		t.Fatalf("unexpected calls %v", calls)
	}
	if e := engagementOf(t, seq, st, "p1"); e.LikeCount != 6 {
		t.Fatalf("expected single increment, got %+v", e)
	}
}

func TestToggleLikeAndSave(t *testing.T) {
	gw := &mockPostGateway{}
	uc, st, seq, _ := newMutationFixture(t, gw)
	ctx := context.Background()

	for _, op := range []func(context.Context, string) (*Pending, error){uc.ToggleLike, uc.ToggleLike, uc.ToggleSave} {
		p, err := op(ctx, "p1")
		if err != nil {
			t.Fatalf("mutation failed: %v", err)
		}
		p.Wait(ctx)
	}

	e := engagementOf(t, seq, st, "p1")
	if e.IsLiked || e.LikeCount != 5 || !e.IsSaved || e.SaveCount != 1 {
		t.Fatalf("unexpected engagement %+v", e)
	}
	want := []string{"like:p1", "unlike:p1", "save:p1"}
	calls := gw.Calls()
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("expected calls %v got %v", want, calls)
		}
	}
}

func TestShareCannotRollback(t *testing.T) {
	gw := &mockPostGateway{}
	uc, st, seq, _ := newMutationFixture(t, gw)
	ctx := context.Background()

	p, err := uc.IncrementShare(ctx, "p1")
	if err != nil {
		t.Fatalf("share failed: %v", err)
	}
	p.Wait(ctx)

	if err := p.Rollback(ctx); err == nil {
		t.Fatalf("expected share rollback to be refused")
	}
	if e := engagementOf(t, seq, st, "p1"); e.ShareCount != 1 {
		t.Fatalf("expected share count 1, got %+v", e)
	}
}

func TestMutationUnknownPostAndMissingToken(t *testing.T) {
	gw := &mockPostGateway{}
	uc, _, _, _ := newMutationFixture(t, gw)
	ctx := context.Background()

	if _, err := uc.Like(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	uc.creds = &mockCreds{}
	if _, err := uc.Like(ctx, "p1"); !errors.Is(err, domain.ErrAuthRequired) {
		t.Fatalf("expected auth required, got %v", err)
	}
	if len(gw.Calls()) != 0 {
		t.Fatalf("no call expected, got %v", gw.Calls())
	}
}

func TestDeletePostWaitsForServer(t *testing.T) {
	gw := &mockPostGateway{err: errors.New("forbidden")}
	uc, st, seq, pub := newMutationFixture(t, gw)
	ctx := context.Background()

	if err := uc.DeletePost(ctx, "p1"); err == nil {
		t.Fatalf("expected delete error")
	}
	var n int
	seq.Do(ctx, func() { n = st.Len() })
	if n != 1 || len(pub.events) != 0 {
		t.Fatalf("failed delete must not touch the store")
	}

	gw.err = nil
	if err := uc.DeletePost(ctx, "p1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	seq.Do(ctx, func() { n = st.Len() })
	if n != 0 {
		t.Fatalf("expected post removed")
	}
	if len(pub.events) != 1 || pub.events[0] != (domain.PostDeleted{PostID: "p1"}) {
		t.Fatalf("unexpected events %+v", pub.events)
	}
}
