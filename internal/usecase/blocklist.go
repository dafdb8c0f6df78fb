package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/sacavia/feedengine/internal/domain"
	"github.com/sacavia/feedengine/internal/metrics"
	"github.com/sacavia/feedengine/internal/store"
	"github.com/sacavia/feedengine/internal/utils"
)

// BlockedSet is the set of blocked user ids. Only BlocklistUsecase changes
// it; everything else reads it from the sequence.
type BlockedSet struct {
	ids map[string]struct{}
}

func NewBlockedSet() *BlockedSet {
	return &BlockedSet{ids: make(map[string]struct{})}
}

func (b *BlockedSet) Contains(userID string) bool {
	_, ok := b.ids[userID]
	return ok
}

func (b *BlockedSet) Len() int {
	return len(b.ids)
}

func (b *BlockedSet) IDs() []string {
	ids := make([]string, 0, len(b.ids))
	for id := range b.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (b *BlockedSet) add(userID string) {
	b.ids[userID] = struct{}{}
}

func (b *BlockedSet) remove(userID string) {
	delete(b.ids, userID)
}

func (b *BlockedSet) replace(userIDs []string) {
	b.ids = make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		b.ids[id] = struct{}{}
	}
}

// Hides reports whether item is authored by or represents a blocked user.
// Places are never hidden.
func (b *BlockedSet) Hides(item domain.FeedItem) bool {
	switch v := item.(type) {
	case domain.Post:
		return b.Contains(v.Author.ID)
	case domain.Person:
		return b.Contains(v.ID)
	case domain.Place:
		return false
	}
	return false
}

// Filter returns items without anything hidden by the set.
func (b *BlockedSet) Filter(items []domain.FeedItem) []domain.FeedItem {
	if len(b.ids) == 0 {
		return items
	}
	out := make([]domain.FeedItem, 0, len(items))
	for _, item := range items {
		if !b.Hides(item) {
			out = append(out, item)
		}
	}
	return out
}

type BlocklistUsecase struct {
	store       *store.Store
	seq         *utils.Sequence
	gateway     BlocklistGateway
	follow      FollowGateway
	blocked     *BlockedSet
	suggestions *SuggestionUsecase
	metrics     *metrics.Metrics
	interval    time.Duration
	sometimes   *rate.Sometimes
	// blocks applied locally that the server has not confirmed yet
	unconfirmed map[string]struct{}
}

func NewBlocklistUsecase(
	st *store.Store,
	seq *utils.Sequence,
	gateway BlocklistGateway,
	follow FollowGateway,
	blocked *BlockedSet,
	suggestions *SuggestionUsecase,
	m *metrics.Metrics,
	refreshInterval time.Duration,
) *BlocklistUsecase {
	return &BlocklistUsecase{
		store:       st,
		seq:         seq,
		gateway:     gateway,
		follow:      follow,
		blocked:     blocked,
		suggestions: suggestions,
		metrics:     m,
		interval:    refreshInterval,
		sometimes:   &rate.Sometimes{Interval: refreshInterval},
		unconfirmed: make(map[string]struct{}),
	}
}

// Refresh replaces the local set with the server's blocklist and prunes
// the store accordingly. Local blocks the server has not confirmed survive.
func (uc *BlocklistUsecase) Refresh(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Blocklist.Usecase.Refresh")
	defer span.End()

	ids, err := uc.gateway.FetchBlocked(ctx)
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(
			ctx, "Failed to fetch blocked users",
			slog.String("error", err.Error()),
			slog.String("module", "blocklist"),
		)
		return fmt.Errorf("failed to fetch blocked users: %w", err)
	}

	return uc.seq.Do(ctx, func() {
		uc.blocked.replace(ids)
		for id := range uc.unconfirmed {
			uc.blocked.add(id)
		}
		removed := uc.store.RemoveWhere(uc.blocked.Hides)
		for _, id := range ids {
			uc.suggestions.pruneUser(id)
		}
		uc.metrics.Pruned(removed)
	})
}

// MaybeRefresh refreshes the blocklist unless it was refreshed successfully
// within the configured interval. Failures are only logged.
func (uc *BlocklistUsecase) MaybeRefresh(ctx context.Context) {
	var s *rate.Sometimes
	if err := uc.seq.Do(ctx, func() { s = uc.sometimes }); err != nil {
		return
	}
	s.Do(func() {
		if err := uc.Refresh(ctx); err != nil {
			// reopen the gate so the next call tries again
			_ = uc.seq.Do(context.WithoutCancel(ctx), func() {
				if uc.sometimes == s {
					uc.sometimes = &rate.Sometimes{Interval: uc.interval}
				}
			})
		}
	})
}

// Block hides userID everywhere right away, then tells the server. A server
// failure does not undo the local block.
func (uc *BlocklistUsecase) Block(ctx context.Context, userID, reason string) error {
	ctx, span := tracer.Start(ctx, "Blocklist.Usecase.Block")
	defer span.End()

	err := uc.seq.Do(ctx, func() {
		uc.blocked.add(userID)
		uc.unconfirmed[userID] = struct{}{}
		removed := uc.store.RemoveWhere(uc.blocked.Hides)
		uc.suggestions.pruneUser(userID)
		uc.metrics.Pruned(removed)
	})
	if err != nil {
		return err
	}

	err = uc.gateway.Block(ctx, userID, reason)
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(
			ctx, "Failed to block user on server",
			slog.String("userId", userID),
			slog.String("error", err.Error()),
			slog.String("module", "blocklist"),
		)
		return fmt.Errorf("failed to block user: %w", err)
	}

	err = uc.seq.Do(ctx, func() {
		delete(uc.unconfirmed, userID)
	})
	if err != nil {
		return err
	}

	if uc.follow != nil {
		err = uc.follow.Unfollow(ctx, userID)
		if err != nil {
			slog.DebugContext(
				ctx, "Unfollow after block failed",
				slog.String("userId", userID),
				slog.String("error", err.Error()),
				slog.String("module", "blocklist"),
			)
		}
	}

	return nil
}

// Unblock removes userID from the local set and tells the server. Items
// pruned earlier come back with the next fetch.
func (uc *BlocklistUsecase) Unblock(ctx context.Context, userID string) error {
	err := uc.seq.Do(ctx, func() {
		uc.blocked.remove(userID)
		delete(uc.unconfirmed, userID)
	})
	if err != nil {
		return err
	}

	err = uc.gateway.Unblock(ctx, userID)
	if err != nil {
		slog.WarnContext(
			ctx, "Failed to unblock user on server",
			slog.String("userId", userID),
			slog.String("error", err.Error()),
			slog.String("module", "blocklist"),
		)
		return fmt.Errorf("failed to unblock user: %w", err)
	}
	return nil
}

func (uc *BlocklistUsecase) IsBlocked(ctx context.Context, userID string) (bool, error) {
	var blocked bool
	err := uc.seq.Do(ctx, func() {
		blocked = uc.blocked.Contains(userID)
	})
	return blocked, err
}

func (uc *BlocklistUsecase) Blocked(ctx context.Context) ([]string, error) {
	var ids []string
	err := uc.seq.Do(ctx, func() {
		ids = uc.blocked.IDs()
	})
	return ids, err
}

// reset must run on the sequence.
func (uc *BlocklistUsecase) reset() {
	uc.blocked.replace(nil)
	uc.unconfirmed = make(map[string]struct{})
	uc.sometimes = &rate.Sometimes{Interval: uc.interval}
}
