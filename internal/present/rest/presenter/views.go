package presenter

import (
	"github.com/sacavia/feedengine/internal/domain"
	"github.com/sacavia/feedengine/internal/store"
)

type ItemView struct {
	Type    string          `json:"type"`
	Data    domain.FeedItem `json:"data"`
	Caption *string         `json:"displayCaption,omitempty"`
}

// displayCaption is the caption a post should show, nil when there is none.
func displayCaption(item domain.FeedItem) *string {
	if post, ok := item.(domain.Post); ok {
		return post.CleanCaption()
	}
	return nil
}

type FeedView struct {
	Items     []ItemView        `json:"items"`
	Filter    domain.FeedFilter `json:"filter"`
	IsLoading bool              `json:"isLoading"`
	LastError string            `json:"lastError,omitempty"`
	Revision  uint64            `json:"revision"`
}

func Feed(state store.State) FeedView {
	items := make([]ItemView, len(state.Items))
	for i, item := range state.Items {
		items[i] = ItemView{Type: string(item.Kind()), Data: item, Caption: displayCaption(item)}
	}
	return FeedView{
		Items:     items,
		Filter:    state.Filter,
		IsLoading: state.IsLoading,
		LastError: state.LastError,
		Revision:  state.Revision,
	}
}

// RenderEntry is either a feed item or a suggestions block.
type RenderEntry struct {
	Kind        string                     `json:"kind"`
	ID          string                     `json:"id"`
	Type        string                     `json:"type,omitempty"`
	Data        domain.FeedItem            `json:"data,omitempty"`
	Caption     *string                    `json:"displayCaption,omitempty"`
	Suggestions *domain.SuggestionCategory `json:"suggestions,omitempty"`
}

type RenderView struct {
	Type     string        `json:"type"`
	Revision uint64        `json:"revision"`
	Items    []RenderEntry `json:"items"`
}

func Render(items []domain.RenderItem, revision uint64) RenderView {
	entries := make([]RenderEntry, len(items))
	for i, r := range items {
		entry := RenderEntry{Kind: r.Kind(), ID: r.ID(), Suggestions: r.Suggestions}
		if r.Item != nil {
			entry.Type = string(r.Item.Kind())
			entry.Data = r.Item
			entry.Caption = displayCaption(r.Item)
		}
		entries[i] = entry
	}
	return RenderView{Type: "render", Revision: revision, Items: entries}
}

type MutationView struct {
	PostID  string `json:"postId"`
	Kind    string `json:"kind"`
	Applied bool   `json:"applied"`
}
