package domain

const (
	PositionTop    = "top"
	PositionMiddle = "middle"
	PositionBottom = "bottom"

	DefaultMaxFrequency = 2
)

// SuggestionCategory is one block of people suggestions.
type SuggestionCategory struct {
	Category     string   `json:"category"`
	Title        string   `json:"title"`
	Subtitle     string   `json:"subtitle"`
	Icon         string   `json:"icon"`
	Users        []Person `json:"users"`
	Position     *string  `json:"position,omitempty"`
	MaxFrequency *int     `json:"maxFrequency,omitempty"`
}

func (c SuggestionCategory) EffectivePosition() string {
	if c.Position == nil || *c.Position == "" {
		return PositionMiddle
	}
	return *c.Position
}

func (c SuggestionCategory) EffectiveMaxFrequency() int {
	if c.MaxFrequency == nil {
		return DefaultMaxFrequency
	}
	return *c.MaxFrequency
}

// Clone copies the users slice so the result can be mutated independently.
func (c SuggestionCategory) Clone() SuggestionCategory {
	c.Users = append([]Person(nil), c.Users...)
	return c
}

// RenderItem is one entry of the merged render sequence: either a feed item
// or a block of suggestions.
type RenderItem struct {
	Item        FeedItem            `json:"-"`
	Suggestions *SuggestionCategory `json:"-"`
}

func (r RenderItem) Kind() string {
	if r.Suggestions != nil {
		return "suggestions"
	}
	return "item"
}

// ID is stable across renders for the same underlying entry.
func (r RenderItem) ID() string {
	if r.Suggestions != nil {
		return "suggestions-" + r.Suggestions.Category
	}
	return r.Item.ItemID()
}
