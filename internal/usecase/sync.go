package usecase

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sacavia/feedengine/internal/domain"
	"github.com/sacavia/feedengine/internal/metrics"
	"github.com/sacavia/feedengine/internal/store"
	"github.com/sacavia/feedengine/internal/utils"
)

// SyncUsecase reconciles local engagement with the server.
type SyncUsecase struct {
	store   *store.Store
	seq     *utils.Sequence
	gateway InteractionGateway
	metrics *metrics.Metrics
}

func NewSyncUsecase(st *store.Store, seq *utils.Sequence, gateway InteractionGateway, m *metrics.Metrics) *SyncUsecase {
	return &SyncUsecase{
		store:   st,
		seq:     seq,
		gateway: gateway,
		metrics: m,
	}
}

// Sync pulls interaction state for every post in the store and merges it.
// It returns the number of posts that changed. Errors leave the store untouched
// and are meant to be logged, not shown.
func (uc *SyncUsecase) Sync(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "Sync.Usecase.Sync")
	defer span.End()

	var (
		ids   []string
		start uint64
	)
	err := uc.seq.Do(ctx, func() {
		ids = uc.store.PostIDs()
		start = uc.store.Revision()
	})
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	span.SetAttributes(attribute.Int("posts", len(ids)))

	states, err := uc.gateway.CheckInteractions(ctx, ids)
	if err != nil {
		span.RecordError(errors.Wrap(err, "interaction check failed"))
		uc.metrics.ReconcileFailed()
		slog.WarnContext(
			ctx, "Interaction sync failed",
			slog.String("error", err.Error()),
			slog.Int("posts", len(ids)),
			slog.String("module", "sync"),
		)
		return 0, err
	}

	var updated int
	err = uc.seq.Do(ctx, func() {
		updated = uc.merge(states, start)
	})
	if err != nil {
		return 0, err
	}

	uc.metrics.Reconciled(updated)
	slog.DebugContext(
		ctx, "Interaction sync merged",
		slog.Int("returned", len(states)),
		slog.Int("updated", updated),
		slog.String("module", "sync"),
	)
	return updated, nil
}

// merge must run on the sequence. Posts edited locally after start keep
// their local engagement until the next pass.
func (uc *SyncUsecase) merge(states []domain.InteractionState, start uint64) int {
	updated := 0
	for _, state := range states {
		item, ok := uc.store.Get(state.PostID)
		if !ok {
			continue
		}
		post, ok := item.(domain.Post)
		if !ok {
			continue
		}
		if rev, pending := uc.store.PendingSince(state.PostID); pending && rev > start {
			continue
		}
		uc.store.ClearPending(state.PostID)
		if !state.Differs(post.Engagement) {
			continue
		}
		if uc.store.MutateEngagement(state.PostID, state.ApplyTo) {
			updated++
		}
	}
	return updated
}
