package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sacavia/feedengine"
	"github.com/sacavia/feedengine/client"
	"github.com/sacavia/feedengine/internal/domain"
	"github.com/sacavia/feedengine/internal/usecase"
)

var (
	_ usecase.FeedGateway        = (*FeedGateway)(nil)
	_ usecase.InteractionGateway = (*FeedGateway)(nil)
)

type FeedGateway struct {
	client *client.Client
}

func NewFeedGateway(cl *client.Client) *FeedGateway {
	return &FeedGateway{client: cl}
}

func (g *FeedGateway) FetchFeed(ctx context.Context, filter domain.FeedFilter, page, limit int) (usecase.FeedPage, error) {
	query := url.Values{}
	if types := filter.IncludeTypes(); types != "" {
		query.Set("includeTypes", types)
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var resp feedengine.FeedResponse
	path := feedengine.ComposeQuery(feedengine.ComposePath("posts", "feed"), query)
	if err := g.client.HttpRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return usecase.FeedPage{}, mapError(err, "feed")
	}
	if !resp.Success {
		return usecase.FeedPage{}, envelopeError("feed", resp.Message, resp.Error)
	}

	return usecase.FeedPage{
		Items:      resp.Data.Posts,
		Pagination: resp.Data.Pagination,
	}, nil
}

func (g *FeedGateway) CheckInteractions(ctx context.Context, postIDs []string) ([]domain.InteractionState, error) {
	var resp feedengine.InteractionStateResponse
	path := feedengine.ComposePath("posts", "interaction-state")
	body := feedengine.InteractionStateRequest{PostIDs: postIDs}
	if err := g.client.HttpRequest(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, mapError(err, "interaction state")
	}
	if !resp.Success {
		return nil, envelopeError("interaction state", nil, nil)
	}

	states := make([]domain.InteractionState, len(resp.Data.Interactions))
	for i, s := range resp.Data.Interactions {
		states[i] = domain.InteractionState{
			PostID:    s.PostID,
			IsLiked:   s.IsLiked,
			IsSaved:   s.IsSaved,
			LikeCount: s.LikeCount,
			SaveCount: s.SaveCount,
		}
	}
	return states, nil
}
