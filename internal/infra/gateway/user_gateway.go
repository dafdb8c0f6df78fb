package gateway

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/sacavia/feedengine"
	"github.com/sacavia/feedengine/client"
	"github.com/sacavia/feedengine/internal/usecase"
)

var (
	_ usecase.FollowGateway    = (*UserGateway)(nil)
	_ usecase.BlocklistGateway = (*UserGateway)(nil)
)

// UserGateway covers follow and block relationships. The blocklist read is
// cached briefly and dropped whenever this gateway edits it.
type UserGateway struct {
	client      *client.Client
	blockedTTL  time.Duration
	blockedPath string
}

func NewUserGateway(cl *client.Client, blockedTTL time.Duration) *UserGateway {
	return &UserGateway{
		client:      cl,
		blockedTTL:  blockedTTL,
		blockedPath: feedengine.ComposePath("users", "blocked"),
	}
}

func (g *UserGateway) Follow(ctx context.Context, userID string) error {
	err := g.client.HttpRequest(ctx, http.MethodPost, feedengine.ComposePath("users", userID, "follow"), nil, nil)
	return mapError(err, "follow")
}

func (g *UserGateway) Unfollow(ctx context.Context, userID string) error {
	err := g.client.HttpRequest(ctx, http.MethodDelete, feedengine.ComposePath("users", userID, "follow"), nil, nil)
	return mapError(err, "follow")
}

func (g *UserGateway) FetchBlocked(ctx context.Context) ([]string, error) {
	var resp feedengine.BlockedUsersResponse
	var err error
	if g.blockedTTL > 0 {
		err = g.client.GetCached(ctx, g.blockedPath, g.blockedTTL, &resp)
	} else {
		err = g.client.HttpRequest(ctx, http.MethodGet, g.blockedPath, nil, &resp)
	}
	if err != nil {
		return nil, mapError(err, "blocklist")
	}
	return resp.IDs(), nil
}

func (g *UserGateway) Block(ctx context.Context, userID, reason string) error {
	defer g.client.Invalidate(g.blockedPath)
	body := feedengine.BlockRequest{TargetUserID: userID, Reason: reason}
	err := g.client.HttpRequest(ctx, http.MethodPost, feedengine.ComposePath("users", "block"), body, nil)
	return mapError(err, "block")
}

func (g *UserGateway) Unblock(ctx context.Context, userID string) error {
	defer g.client.Invalidate(g.blockedPath)
	query := url.Values{}
	query.Set("targetUserId", userID)
	path := feedengine.ComposeQuery(feedengine.ComposePath("users", "block"), query)
	err := g.client.HttpRequest(ctx, http.MethodDelete, path, nil, nil)
	return mapError(err, "block")
}
