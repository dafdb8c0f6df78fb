package usecase

import (
	"github.com/sacavia/feedengine/internal/domain"
)

// Interleave merges suggestion blocks into the feed. Suggestions are only
// mixed in for the "all" filter. Categories are inserted one after another
// into the growing sequence, so later categories see earlier insertions.
func Interleave(items []domain.FeedItem, categories []domain.SuggestionCategory, filter domain.FeedFilter) []domain.RenderItem {
	out := make([]domain.RenderItem, 0, len(items)+len(categories))
	for _, item := range items {
		out = append(out, domain.RenderItem{Item: item})
	}

	if filter != domain.FilterAll {
		return out
	}

	for _, category := range categories {
		if len(category.Users) == 0 {
			continue
		}
		c := category
		idx := min(insertionIndex(c.EffectivePosition(), len(out)), len(out))
		out = append(out, domain.RenderItem{})
		copy(out[idx+1:], out[idx:])
		out[idx] = domain.RenderItem{Suggestions: &c}
	}

	return out
}

func insertionIndex(position string, n int) int {
	switch position {
	case domain.PositionTop:
		return min(2, n)
	case domain.PositionMiddle:
		return max(2, n/2)
	case domain.PositionBottom:
		return max(n-2, n)
	}
	return n
}

// FrequencyCounter remembers how often each user was shown during the
// current suggestion session.
type FrequencyCounter struct {
	shown map[string]int
}

func NewFrequencyCounter() *FrequencyCounter {
	return &FrequencyCounter{shown: make(map[string]int)}
}

// Apply walks categories in order, drops users that already reached their
// category's cap and drops categories left empty. It returns the kept
// categories and the number of users dropped.
func (c *FrequencyCounter) Apply(categories []domain.SuggestionCategory) ([]domain.SuggestionCategory, int) {
	kept := make([]domain.SuggestionCategory, 0, len(categories))
	dropped := 0
	for _, category := range categories {
		limit := category.EffectiveMaxFrequency()
		users := make([]domain.Person, 0, len(category.Users))
		for _, user := range category.Users {
			if c.shown[user.ID] >= limit {
				dropped++
				continue
			}
			c.shown[user.ID]++
			users = append(users, user)
		}
		if len(users) == 0 {
			continue
		}
		category.Users = users
		kept = append(kept, category)
	}
	return kept, dropped
}

func (c *FrequencyCounter) Count(userID string) int {
	return c.shown[userID]
}

func (c *FrequencyCounter) Reset() {
	c.shown = make(map[string]int)
}
