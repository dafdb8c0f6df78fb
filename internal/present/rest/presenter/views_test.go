package presenter

import (
	"testing"

	"github.com/sacavia/feedengine/internal/domain"
	"github.com/sacavia/feedengine/internal/store"
)

func TestFeedViewCaption(t *testing.T) {
	view := Feed(store.State{Items: []domain.FeedItem{
		domain.Post{ID: "p1", Caption: "  sunset  "},
		domain.Post{ID: "p2", Caption: "Shared from Sacavia"},
		domain.Place{ID: "pl1"},
	}})

	if len(view.Items) != 3 {
		t.Fatalf("expected 3 items got %d", len(view.Items))
	}
	if c := view.Items[0].Caption; c == nil || *c != "sunset" {
		t.Fatalf("expected trimmed caption, got %v", c)
	}
	if view.Items[1].Caption != nil {
		t.Fatalf("share boilerplate must not be shown")
	}
	if view.Items[2].Caption != nil || view.Items[2].Type != "place_recommendation" {
		t.Fatalf("unexpected place view %+v", view.Items[2])
	}
}

func TestRenderViewCaption(t *testing.T) {
	nearby := domain.SuggestionCategory{Category: "nearby", Users: []domain.Person{{ID: "s1"}}}
	view := Render([]domain.RenderItem{
		{Item: domain.Post{ID: "p1", Caption: "hello"}},
		{Suggestions: &nearby},
	}, 7)

	if view.Type != "render" || view.Revision != 7 {
		t.Fatalf("unexpected header %+v", view)
	}
	if c := view.Items[0].Caption; c == nil || *c != "hello" {
		t.Fatalf("expected caption on the post entry, got %v", c)
	}
	if view.Items[1].Kind != "suggestions" || view.Items[1].ID != "suggestions-nearby" || view.Items[1].Caption != nil {
		t.Fatalf("unexpected suggestions entry %+v", view.Items[1])
	}
}
