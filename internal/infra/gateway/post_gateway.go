package gateway

import (
	"context"
	"net/http"

	"github.com/sacavia/feedengine"
	"github.com/sacavia/feedengine/client"
	"github.com/sacavia/feedengine/internal/usecase"
)

var _ usecase.PostGateway = (*PostGateway)(nil)

type PostGateway struct {
	client *client.Client
}

func NewPostGateway(cl *client.Client) *PostGateway {
	return &PostGateway{client: cl}
}

func (g *PostGateway) send(ctx context.Context, method, postID, action, resource string) error {
	segments := []string{"posts", postID}
	if action != "" {
		segments = append(segments, action)
	}

	var resp feedengine.StatusResponse
	if err := g.client.HttpRequest(ctx, method, feedengine.ComposePath(segments...), nil, &resp); err != nil {
		return mapError(err, resource)
	}
	return nil
}

func (g *PostGateway) Like(ctx context.Context, postID string) error {
	return g.send(ctx, http.MethodPost, postID, "like", "like")
}

func (g *PostGateway) Unlike(ctx context.Context, postID string) error {
	return g.send(ctx, http.MethodDelete, postID, "like", "like")
}

func (g *PostGateway) Save(ctx context.Context, postID string) error {
	return g.send(ctx, http.MethodPost, postID, "save", "save")
}

func (g *PostGateway) Unsave(ctx context.Context, postID string) error {
	return g.send(ctx, http.MethodDelete, postID, "save", "save")
}

func (g *PostGateway) Share(ctx context.Context, postID string) error {
	return g.send(ctx, http.MethodPost, postID, "share", "share")
}

func (g *PostGateway) Delete(ctx context.Context, postID string) error {
	return g.send(ctx, http.MethodDelete, postID, "", "post")
}
