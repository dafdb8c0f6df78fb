package usecase

import (
	"context"
	"encoding/json"

	"github.com/sacavia/feedengine"
	"github.com/sacavia/feedengine/internal/domain"
)

// Credentials is the boundary to the authentication collaborator.
type Credentials interface {
	IsAuthenticated() bool
	GetValidToken() (string, bool)
}

// FeedPage is one undecoded page of the feed.
type FeedPage struct {
	Items      []json.RawMessage
	Pagination *feedengine.Pagination
}

// FeedGateway fetches feed pages.
type FeedGateway interface {
	FetchFeed(ctx context.Context, filter domain.FeedFilter, page int, limit int) (FeedPage, error)
}

// InteractionGateway fetches authoritative interaction state for posts.
type InteractionGateway interface {
	CheckInteractions(ctx context.Context, postIDs []string) ([]domain.InteractionState, error)
}

// PostGateway confirms post mutations with the server.
type PostGateway interface {
	Like(ctx context.Context, postID string) error
	Unlike(ctx context.Context, postID string) error
	Save(ctx context.Context, postID string) error
	Unsave(ctx context.Context, postID string) error
	Share(ctx context.Context, postID string) error
	Delete(ctx context.Context, postID string) error
}

// SuggestionQuery selects one page of people suggestions.
type SuggestionQuery struct {
	Category        string
	Page            int
	Limit           int
	SessionID       string
	RandomPlacement bool
}

// SuggestionGateway fetches people suggestions.
type SuggestionGateway interface {
	FetchSuggestions(ctx context.Context, query SuggestionQuery) (*feedengine.SuggestionsResponse, error)
}

// FollowGateway toggles follow relationships.
type FollowGateway interface {
	Follow(ctx context.Context, userID string) error
	Unfollow(ctx context.Context, userID string) error
}

// BlocklistGateway reads and edits the canonical blocklist.
type BlocklistGateway interface {
	FetchBlocked(ctx context.Context) ([]string, error)
	Block(ctx context.Context, userID, reason string) error
	Unblock(ctx context.Context, userID string) error
}

// EventPublisher announces invalidation events to every holder of feed data.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
