package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/sacavia/feedengine/internal/domain"
	"github.com/sacavia/feedengine/internal/store"
	"github.com/sacavia/feedengine/internal/utils"
)

func TestSyncServerWinsOverEarlierOptimisticEdit(t *testing.T) {
	st := store.New()
	seq := utils.NewSequence()
	defer seq.Close()
	ctx := context.Background()

	st.UpsertMany([]domain.FeedItem{testPost("p1", "u1", 5, false)})
	mut := NewMutationUsecase(st, seq, &mockPostGateway{}, &mockCreds{token: "t"}, nil, nil)
	p, err := mut.Like(ctx, "p1")
	if err != nil {
		t.Fatalf("like failed: %v", err)
	}
	p.Wait(ctx)

	gw := &mockInteractionGateway{states: []domain.InteractionState{
		{PostID: "p1", IsLiked: false, LikeCount: 5},
	}}
	uc := NewSyncUsecase(st, seq, gw, nil)

	updated, err := uc.Sync(ctx)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 update got %d", updated)
	}

	e := engagementOf(t, seq, st, "p1")
	if e.IsLiked || e.LikeCount != 5 {
		t.Fatalf("expected server state, got %+v", e)
	}
}

func TestSyncKeepsEditMadeDuringPass(t *testing.T) {
	st := store.New()
	seq := utils.NewSequence()
	defer seq.Close()
	ctx := context.Background()

	st.UpsertMany([]domain.FeedItem{testPost("p1", "u1", 5, false), testPost("p2", "u2", 1, false)})
	mut := NewMutationUsecase(st, seq, &mockPostGateway{}, &mockCreds{token: "t"}, nil, nil)

	gw := &mockInteractionGateway{
		states: []domain.InteractionState{
			{PostID: "p1", IsLiked: false, LikeCount: 5},
			{PostID: "p2", IsLiked: true, LikeCount: 2},
		},
	}
	gw.during = func() {
		if _, err := mut.Like(ctx, "p1"); err != nil {
			t.Errorf("like failed: %v", err)
		}
	}
	uc := NewSyncUsecase(st, seq, gw, nil)

	updated, err := uc.Sync(ctx)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected only p2 updated, got %d", updated)
	}

	if e := engagementOf(t, seq, st, "p1"); !e.IsLiked || e.LikeCount != 6 {
		t.Fatalf("local edit was clobbered: %+v", e)
	}
	if e := engagementOf(t, seq, st, "p2"); !e.IsLiked || e.LikeCount != 2 {
		t.Fatalf("expected p2 reconciled: %+v", e)
	}
}

func TestSyncIgnoresUnknownIDsAndEqualState(t *testing.T) {
	st := store.New()
	seq := utils.NewSequence()
	defer seq.Close()
	ctx := context.Background()

	st.UpsertMany([]domain.FeedItem{testPost("p1", "u1", 3, true), domain.Place{ID: "pl1"}})

	gw := &mockInteractionGateway{states: []domain.InteractionState{
		{PostID: "p1", IsLiked: true, LikeCount: 3},
		{PostID: "gone", IsLiked: true, LikeCount: 9},
	}}
	uc := NewSyncUsecase(st, seq, gw, nil)

	var before uint64
	seq.Do(ctx, func() { before = st.Revision() })

	updated, err := uc.Sync(ctx)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if updated != 0 {
		t.Fatalf("expected no updates got %d", updated)
	}
	if len(gw.asked) != 1 || gw.asked[0] != "p1" {
		t.Fatalf("expected only post ids to be sent, got %v", gw.asked)
	}

	var (
		after uint64
		n     int
	)
	seq.Do(ctx, func() {
		after = st.Revision()
		n = st.Len()
	})
	if after != before || n != 2 {
		t.Fatalf("store changed: rev %d->%d len %d", before, after, n)
	}
}

func TestSyncFailureLeavesStore(t *testing.T) {
	st := store.New()
	seq := utils.NewSequence()
	defer seq.Close()
	ctx := context.Background()

	st.UpsertMany([]domain.FeedItem{testPost("p1", "u1", 3, true)})
	uc := NewSyncUsecase(st, seq, &mockInteractionGateway{err: errors.New("offline")}, nil)

	if _, err := uc.Sync(ctx); err == nil {
		t.Fatalf("expected error")
	}
	if e := engagementOf(t, seq, st, "p1"); !e.IsLiked || e.LikeCount != 3 {
		t.Fatalf("store changed: %+v", e)
	}
}

func TestSyncEmptyStoreSkipsRequest(t *testing.T) {
	seq := utils.NewSequence()
	defer seq.Close()

	gw := &mockInteractionGateway{}
	uc := NewSyncUsecase(store.New(), seq, gw, nil)
	if _, err := uc.Sync(context.Background()); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if gw.asked != nil {
		t.Fatalf("no request expected")
	}
}
