package usecase

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sacavia/feedengine/internal/decoder"
	"github.com/sacavia/feedengine/internal/domain"
	"github.com/sacavia/feedengine/internal/metrics"
	"github.com/sacavia/feedengine/internal/store"
	"github.com/sacavia/feedengine/internal/utils"
)

type FeedUsecase struct {
	store       *store.Store
	seq         *utils.Sequence
	gateway     FeedGateway
	decoder     *decoder.Decoder
	creds       Credentials
	sync        *SyncUsecase
	blocklist   *BlocklistUsecase
	suggestions *SuggestionUsecase
	metrics     *metrics.Metrics
	pageSize    int
}

func NewFeedUsecase(
	st *store.Store,
	seq *utils.Sequence,
	gateway FeedGateway,
	dec *decoder.Decoder,
	creds Credentials,
	sync *SyncUsecase,
	blocklist *BlocklistUsecase,
	suggestions *SuggestionUsecase,
	m *metrics.Metrics,
	pageSize int,
) *FeedUsecase {
	return &FeedUsecase{
		store:       st,
		seq:         seq,
		gateway:     gateway,
		decoder:     dec,
		creds:       creds,
		sync:        sync,
		blocklist:   blocklist,
		suggestions: suggestions,
		metrics:     m,
		pageSize:    pageSize,
	}
}

// FetchFeed loads the first page for filter and replaces the store with it.
// Overlapping calls are all accepted; whichever finishes last defines the
// store. On failure the store keeps its items and records the error.
func (uc *FeedUsecase) FetchFeed(ctx context.Context, filter domain.FeedFilter) error {
	ctx, span := tracer.Start(ctx, "Feed.Usecase.FetchFeed")
	defer span.End()
	span.SetAttributes(attribute.String("filter", string(filter)))

	if _, ok := uc.creds.GetValidToken(); !ok {
		err := domain.AuthRequiredError{Reason: "no valid token"}
		uc.fail(ctx, err)
		return err
	}

	if err := uc.seq.Do(ctx, uc.store.BeginLoad); err != nil {
		return err
	}
	defer func() {
		_ = uc.seq.Do(context.WithoutCancel(ctx), uc.store.EndLoad)
	}()

	page, err := uc.gateway.FetchFeed(ctx, filter, 1, uc.pageSize)
	if err != nil {
		span.RecordError(errors.Wrap(err, "feed fetch failed"))
		uc.fail(ctx, err)
		return err
	}

	items := uc.decoder.DecodeBatch(ctx, page.Items)

	var kept int
	err = uc.seq.Do(ctx, func() {
		kept = uc.store.ReplacePage(items, filter)
		uc.store.SetFilter(filter)
		uc.store.SetError("")
	})
	if err != nil {
		return err
	}

	uc.metrics.Fetch("ok")
	slog.DebugContext(
		ctx, "Feed page loaded",
		slog.String("filter", string(filter)),
		slog.Int("received", len(page.Items)),
		slog.Int("kept", kept),
		slog.String("module", "feed"),
	)
	return nil
}

func (uc *FeedUsecase) fail(ctx context.Context, err error) {
	uc.metrics.Fetch("error")
	slog.ErrorContext(
		ctx, "Failed to fetch feed",
		slog.String("error", err.Error()),
		slog.String("module", "feed"),
	)
	_ = uc.seq.Do(context.WithoutCancel(ctx), func() {
		uc.store.SetError(domain.UserMessage(err))
	})
}

// Refresh fetches the feed and, once the page is in the store, reconciles
// interaction state. Reconciliation problems are not returned.
func (uc *FeedUsecase) Refresh(ctx context.Context, filter domain.FeedFilter) error {
	ctx, span := tracer.Start(ctx, "Feed.Usecase.Refresh")
	defer span.End()

	if uc.blocklist != nil {
		uc.blocklist.MaybeRefresh(ctx)
	}

	if err := uc.FetchFeed(ctx, filter); err != nil {
		return err
	}

	if uc.sync != nil {
		_, _ = uc.sync.Sync(ctx)
	}
	return nil
}

// RefreshCurrent refreshes with the filter currently applied.
func (uc *FeedUsecase) RefreshCurrent(ctx context.Context) error {
	var filter domain.FeedFilter
	if err := uc.seq.Do(ctx, func() { filter = uc.store.Filter() }); err != nil {
		return err
	}
	return uc.Refresh(ctx, filter)
}

// ForceRefreshAfterLogin drops everything cached for the previous identity
// and loads the default feed.
func (uc *FeedUsecase) ForceRefreshAfterLogin(ctx context.Context) error {
	err := uc.seq.Do(ctx, func() {
		uc.store.Clear()
		if uc.suggestions != nil {
			uc.suggestions.reset()
		}
		if uc.blocklist != nil {
			uc.blocklist.reset()
		}
	})
	if err != nil {
		return err
	}

	if err := uc.Refresh(ctx, domain.FilterAll); err != nil {
		return err
	}

	if uc.suggestions != nil {
		_, _ = uc.suggestions.Fetch(ctx, CategoryAll, 1)
	}
	return nil
}

// ClearAfterLogout empties every cache owned by the engine.
func (uc *FeedUsecase) ClearAfterLogout(ctx context.Context) error {
	return uc.seq.Do(ctx, func() {
		uc.store.Clear()
		uc.store.SetFilter(domain.FilterAll)
		if uc.suggestions != nil {
			uc.suggestions.reset()
		}
		if uc.blocklist != nil {
			uc.blocklist.reset()
		}
	})
}

// Projection is what renderers read: the store without blocked actors.
func (uc *FeedUsecase) Projection(ctx context.Context) (store.State, error) {
	var state store.State
	err := uc.seq.Do(ctx, func() {
		state = uc.project()
	})
	return state, err
}

// project must run on the sequence.
func (uc *FeedUsecase) project() store.State {
	state := uc.store.State()
	if uc.blocklist != nil {
		state.Items = uc.blocklist.blocked.Filter(state.Items)
	}
	return state
}

// Render returns the final render sequence with suggestions mixed in.
func (uc *FeedUsecase) Render(ctx context.Context) ([]domain.RenderItem, uint64, error) {
	var (
		out      []domain.RenderItem
		revision uint64
	)
	err := uc.seq.Do(ctx, func() {
		state := uc.project()
		var categories []domain.SuggestionCategory
		if uc.suggestions != nil {
			categories = uc.suggestions.snapshot()
		}
		out = Interleave(state.Items, categories, state.Filter)
		revision = state.Revision
	})
	return out, revision, err
}

// RemovePost drops a post from the store, typically because it was
// deleted elsewhere.
func (uc *FeedUsecase) RemovePost(ctx context.Context, postID string) (bool, error) {
	var removed bool
	err := uc.seq.Do(ctx, func() {
		removed = uc.store.RemoveByID(postID)
	})
	return removed, err
}
