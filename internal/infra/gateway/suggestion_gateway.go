package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sacavia/feedengine"
	"github.com/sacavia/feedengine/client"
	"github.com/sacavia/feedengine/internal/usecase"
)

var _ usecase.SuggestionGateway = (*SuggestionGateway)(nil)

type SuggestionGateway struct {
	client *client.Client
}

func NewSuggestionGateway(cl *client.Client) *SuggestionGateway {
	return &SuggestionGateway{client: cl}
}

func (g *SuggestionGateway) FetchSuggestions(ctx context.Context, q usecase.SuggestionQuery) (*feedengine.SuggestionsResponse, error) {
	query := url.Values{}
	query.Set("category", q.Category)
	query.Set("page", strconv.Itoa(q.Page))
	query.Set("limit", strconv.Itoa(q.Limit))
	if q.SessionID != "" {
		query.Set("sessionId", q.SessionID)
	}
	if q.RandomPlacement {
		query.Set("randomPlacement", "true")
	}

	var resp feedengine.SuggestionsResponse
	path := feedengine.ComposeQuery(feedengine.ComposePath("people-suggestions"), query)
	if err := g.client.HttpRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, mapError(err, "suggestions")
	}
	if !resp.Success {
		return nil, envelopeError("suggestions", resp.Message, nil)
	}
	return &resp, nil
}
