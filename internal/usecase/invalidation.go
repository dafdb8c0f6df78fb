package usecase

import (
	"context"
	"log/slog"

	"github.com/sacavia/feedengine/internal/domain"
	"github.com/sacavia/feedengine/internal/metrics"
)

// InvalidationUsecase turns invalidation events into store commands.
type InvalidationUsecase struct {
	feed    *FeedUsecase
	metrics *metrics.Metrics
}

func NewInvalidationUsecase(feed *FeedUsecase, m *metrics.Metrics) *InvalidationUsecase {
	return &InvalidationUsecase{
		feed:    feed,
		metrics: m,
	}
}

func (uc *InvalidationUsecase) HandlePostDeleted(ctx context.Context, event domain.PostDeleted) {
	uc.metrics.Invalidation(event.EventType())
	removed, err := uc.feed.RemovePost(ctx, event.PostID)
	if err != nil {
		slog.WarnContext(
			ctx, "Failed to apply post deletion",
			slog.String("postId", event.PostID),
			slog.String("error", err.Error()),
			slog.String("module", "invalidation"),
		)
		return
	}
	slog.DebugContext(
		ctx, "Post deleted",
		slog.String("postId", event.PostID),
		slog.Bool("removed", removed),
		slog.String("module", "invalidation"),
	)
}

// HandlePostCreated refreshes the feed after a successful creation.
// Failed creations change nothing.
func (uc *InvalidationUsecase) HandlePostCreated(ctx context.Context, event domain.PostCreated) {
	uc.metrics.Invalidation(event.EventType())
	if !event.Success {
		return
	}
	err := uc.feed.RefreshCurrent(ctx)
	if err != nil {
		slog.WarnContext(
			ctx, "Refresh after post creation failed",
			slog.String("error", err.Error()),
			slog.String("module", "invalidation"),
		)
	}
}
