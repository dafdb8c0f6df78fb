package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sacavia/feedengine/internal/decoder"
	"github.com/sacavia/feedengine/internal/domain"
	"github.com/sacavia/feedengine/internal/metrics"
	"github.com/sacavia/feedengine/internal/utils"
)

const CategoryAll = "all"

type SuggestionConfig struct {
	AllLimit      int
	CategoryLimit int
	Debounce      time.Duration
}

// SuggestionUsecase owns the people suggestion cache and its session.
// The cache, counter and session id are confined to the sequence.
type SuggestionUsecase struct {
	seq     *utils.Sequence
	gateway SuggestionGateway
	follow  FollowGateway
	decoder *decoder.Decoder
	blocked *BlockedSet
	metrics *metrics.Metrics
	config  SuggestionConfig

	categories []domain.SuggestionCategory
	counter    *FrequencyCounter
	sessionID  string

	timerMu sync.Mutex
	timer   *time.Timer
}

func NewSuggestionUsecase(
	seq *utils.Sequence,
	gateway SuggestionGateway,
	follow FollowGateway,
	dec *decoder.Decoder,
	blocked *BlockedSet,
	m *metrics.Metrics,
	config SuggestionConfig,
) *SuggestionUsecase {
	if config.AllLimit <= 0 {
		config.AllLimit = 8
	}
	if config.CategoryLimit <= 0 {
		config.CategoryLimit = 30
	}
	return &SuggestionUsecase{
		seq:       seq,
		gateway:   gateway,
		follow:    follow,
		decoder:   dec,
		blocked:   blocked,
		metrics:   m,
		config:    config,
		counter:   NewFrequencyCounter(),
		sessionID: uuid.New().String(),
	}
}

// Fetch loads one page of suggestions. Page 1 replaces the cache and starts
// the frequency count over; later pages append and keep counting.
func (uc *SuggestionUsecase) Fetch(ctx context.Context, category string, page int) ([]domain.SuggestionCategory, error) {
	ctx, span := tracer.Start(ctx, "Suggestion.Usecase.Fetch")
	defer span.End()

	if category == "" {
		category = CategoryAll
	}
	if page < 1 {
		page = 1
	}

	var sessionID string
	if err := uc.seq.Do(ctx, func() { sessionID = uc.sessionID }); err != nil {
		return nil, err
	}

	query := SuggestionQuery{
		Category:        category,
		Page:            page,
		Limit:           uc.config.CategoryLimit,
		SessionID:       sessionID,
		RandomPlacement: category == CategoryAll,
	}
	if category == CategoryAll {
		query.Limit = uc.config.AllLimit
	}
	span.SetAttributes(
		attribute.String("category", category),
		attribute.Int("page", page),
	)

	resp, err := uc.gateway.FetchSuggestions(ctx, query)
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(
			ctx, "Failed to fetch suggestions",
			slog.String("category", category),
			slog.String("error", err.Error()),
			slog.String("module", "suggestion"),
		)
		return nil, fmt.Errorf("failed to fetch suggestions: %w", err)
	}

	if resp.Data.Meta != nil && resp.Data.Meta.Filtering != nil {
		f := resp.Data.Meta.Filtering
		slog.DebugContext(
			ctx, "Suggestion filtering",
			slog.Bool("excludedAlreadyFollowed", f.ExcludedAlreadyFollowed),
			slog.Int("before", f.TotalUsersBeforeFilter),
			slog.Int("after", f.TotalUsersAfterFilter),
			slog.String("module", "suggestion"),
		)
	}

	fetched := make([]domain.SuggestionCategory, 0, len(resp.Data.Suggestions))
	for _, w := range resp.Data.Suggestions {
		fetched = append(fetched, domain.SuggestionCategory{
			Category:     w.Category,
			Title:        w.Title,
			Subtitle:     w.Subtitle,
			Icon:         w.Icon,
			Users:        uc.decoder.DecodePeople(ctx, w.Users),
			Position:     w.Position,
			MaxFrequency: w.MaxFrequency,
		})
	}

	var snapshot []domain.SuggestionCategory
	err = uc.seq.Do(ctx, func() {
		if uc.sessionID != sessionID {
			// rotated while the request was in flight
			snapshot = uc.snapshot()
			return
		}
		if page == 1 {
			// page 1 replaces the cache, so nothing from it is on screen anymore
			uc.counter.Reset()
		}
		visible := withoutBlocked(fetched, uc.blocked)
		capped, dropped := uc.counter.Apply(visible)
		uc.metrics.Capped(dropped)
		if page == 1 {
			uc.categories = capped
		} else {
			uc.categories = append(uc.categories, capped...)
		}
		snapshot = uc.snapshot()
	})
	return snapshot, err
}

func withoutBlocked(categories []domain.SuggestionCategory, blocked *BlockedSet) []domain.SuggestionCategory {
	out := make([]domain.SuggestionCategory, 0, len(categories))
	for _, c := range categories {
		users := make([]domain.Person, 0, len(c.Users))
		for _, u := range c.Users {
			if !blocked.Contains(u.ID) {
				users = append(users, u)
			}
		}
		if len(users) == 0 {
			continue
		}
		c.Users = users
		out = append(out, c)
	}
	return out
}

// RotateSession starts a new suggestion session: a new id is sent to the
// server and the frequency bookkeeping starts over.
func (uc *SuggestionUsecase) RotateSession(ctx context.Context) (string, error) {
	var id string
	err := uc.seq.Do(ctx, func() {
		id = uc.rotate()
	})
	return id, err
}

func (uc *SuggestionUsecase) rotate() string {
	uc.sessionID = uuid.New().String()
	uc.counter.Reset()
	return uc.sessionID
}

func (uc *SuggestionUsecase) SessionID(ctx context.Context) (string, error) {
	var id string
	err := uc.seq.Do(ctx, func() { id = uc.sessionID })
	return id, err
}

// Refresh rotates the session and reloads the first page.
func (uc *SuggestionUsecase) Refresh(ctx context.Context, category string) ([]domain.SuggestionCategory, error) {
	if _, err := uc.RotateSession(ctx); err != nil {
		return nil, err
	}
	return uc.Fetch(ctx, category, 1)
}

// RequestRefresh schedules a Refresh after the debounce delay. A new request
// cancels the one still waiting.
func (uc *SuggestionUsecase) RequestRefresh(category string) {
	uc.timerMu.Lock()
	defer uc.timerMu.Unlock()

	if uc.timer != nil {
		uc.timer.Stop()
	}
	uc.timer = time.AfterFunc(uc.config.Debounce, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := uc.Refresh(ctx, category); err != nil {
			slog.WarnContext(
				ctx, "Debounced suggestion refresh failed",
				slog.String("error", err.Error()),
				slog.String("module", "suggestion"),
			)
		}
	})
}

// Stop cancels a pending debounced refresh.
func (uc *SuggestionUsecase) Stop() {
	uc.timerMu.Lock()
	defer uc.timerMu.Unlock()
	if uc.timer != nil {
		uc.timer.Stop()
		uc.timer = nil
	}
}

func (uc *SuggestionUsecase) Categories(ctx context.Context) ([]domain.SuggestionCategory, error) {
	var snapshot []domain.SuggestionCategory
	err := uc.seq.Do(ctx, func() {
		snapshot = uc.snapshot()
	})
	return snapshot, err
}

// snapshot must run on the sequence.
func (uc *SuggestionUsecase) snapshot() []domain.SuggestionCategory {
	out := make([]domain.SuggestionCategory, 0, len(uc.categories))
	for _, c := range withoutBlocked(uc.categories, uc.blocked) {
		out = append(out, c.Clone())
	}
	return out
}

// Follow follows userID and marks them as followed in the cache. The server
// answering 409 means the user is already followed, which counts as success.
func (uc *SuggestionUsecase) Follow(ctx context.Context, userID string) error {
	err := uc.follow.Follow(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrConflict) {
		slog.WarnContext(
			ctx, "Failed to follow user",
			slog.String("userId", userID),
			slog.String("error", err.Error()),
			slog.String("module", "suggestion"),
		)
		return fmt.Errorf("failed to follow user: %w", err)
	}
	return uc.seq.Do(ctx, func() {
		uc.setFollowing(userID, true)
	})
}

// Unfollow unfollows userID. A 409 from the server is a failure here.
func (uc *SuggestionUsecase) Unfollow(ctx context.Context, userID string) error {
	err := uc.follow.Unfollow(ctx, userID)
	if err != nil {
		slog.WarnContext(
			ctx, "Failed to unfollow user",
			slog.String("userId", userID),
			slog.String("error", err.Error()),
			slog.String("module", "suggestion"),
		)
		return fmt.Errorf("failed to unfollow user: %w", err)
	}
	return uc.seq.Do(ctx, func() {
		uc.setFollowing(userID, false)
	})
}

func (uc *SuggestionUsecase) setFollowing(userID string, following bool) {
	for i := range uc.categories {
		for j := range uc.categories[i].Users {
			if uc.categories[i].Users[j].ID == userID {
				uc.categories[i].Users[j].IsFollowing = following
			}
		}
	}
}

// pruneUser must run on the sequence.
func (uc *SuggestionUsecase) pruneUser(userID string) {
	kept := uc.categories[:0]
	for _, c := range uc.categories {
		users := c.Users[:0]
		for _, u := range c.Users {
			if u.ID != userID {
				users = append(users, u)
			}
		}
		if len(users) == 0 {
			continue
		}
		c.Users = users
		kept = append(kept, c)
	}
	uc.categories = kept
}

// reset must run on the sequence.
func (uc *SuggestionUsecase) reset() {
	uc.categories = nil
	uc.rotate()
}
