package feedengine

import (
	"encoding/json"
)

// APIPrefix is prepended to every endpoint path.
const APIPrefix = "/api/mobile"

type Pagination struct {
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	Total      int     `json:"total"`
	TotalPages int     `json:"totalPages"`
	HasNext    bool    `json:"hasNext"`
	HasPrev    bool    `json:"hasPrev"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

type FeedMeta struct {
	FeedType        string          `json:"feedType"`
	AppliedFilters  json.RawMessage `json:"appliedFilters,omitempty"`
	Recommendations json.RawMessage `json:"recommendations,omitempty"`
}

// FeedResponse is the envelope of GET /posts/feed. Items are left raw so a
// single malformed entry cannot fail the whole page.
type FeedResponse struct {
	Success bool    `json:"success"`
	Message *string `json:"message,omitempty"`
	Error   *string `json:"error,omitempty"`
	Data    struct {
		Posts      []json.RawMessage `json:"posts"`
		Pagination *Pagination       `json:"pagination,omitempty"`
		Meta       *FeedMeta         `json:"meta,omitempty"`
	} `json:"data"`
}

type InteractionStateRequest struct {
	PostIDs []string `json:"postIds"`
}

type PostInteraction struct {
	PostID    string `json:"postId"`
	IsLiked   bool   `json:"isLiked"`
	IsSaved   bool   `json:"isSaved"`
	LikeCount int    `json:"likeCount"`
	SaveCount int    `json:"saveCount"`
}

type InteractionStateResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Interactions []PostInteraction `json:"interactions"`
		TotalLiked   int               `json:"totalLiked"`
		TotalSaved   int               `json:"totalSaved"`
	} `json:"data"`
}

// SuggestionCategoryWire carries users raw; they go through the item decoder.
type SuggestionCategoryWire struct {
	Category     string            `json:"category"`
	Title        string            `json:"title"`
	Subtitle     string            `json:"subtitle"`
	Icon         string            `json:"icon"`
	Users        []json.RawMessage `json:"users"`
	Position     *string           `json:"position,omitempty"`
	MaxFrequency *int              `json:"maxFrequency,omitempty"`
}

type SuggestionFiltering struct {
	ExcludedAlreadyFollowed bool `json:"excludedAlreadyFollowed"`
	TotalUsersBeforeFilter  int  `json:"totalUsersBeforeFilter"`
	TotalUsersAfterFilter   int  `json:"totalUsersAfterFilter"`
}

type SuggestionsResponse struct {
	Success bool    `json:"success"`
	Message *string `json:"message,omitempty"`
	Data    struct {
		Suggestions []SuggestionCategoryWire `json:"suggestions"`
		Pagination  *Pagination              `json:"pagination,omitempty"`
		Meta        *struct {
			Filtering *SuggestionFiltering `json:"filtering,omitempty"`
		} `json:"meta,omitempty"`
	} `json:"data"`
}

// BlockedUser accepts both `"id"` and `{"id": "..."}` list entries.
type BlockedUser struct {
	ID string `json:"id"`
}

func (b *BlockedUser) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		b.ID = id
		return nil
	}
	type plain BlockedUser
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = BlockedUser(p)
	return nil
}

type BlockedUsersResponse struct {
	Success      bool          `json:"success"`
	BlockedUsers []BlockedUser `json:"blockedUsers,omitempty"`
	Data         *struct {
		BlockedUsers []BlockedUser `json:"blockedUsers"`
	} `json:"data,omitempty"`
}

// IDs merges both envelope shapes the server has used.
func (r BlockedUsersResponse) IDs() []string {
	users := r.BlockedUsers
	if r.Data != nil {
		users = append(users, r.Data.BlockedUsers...)
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		if u.ID != "" {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

type BlockRequest struct {
	TargetUserID string `json:"targetUserId"`
	Reason       string `json:"reason,omitempty"`
}

// StatusResponse is the generic envelope of mutation endpoints.
type StatusResponse struct {
	Success bool    `json:"success"`
	Message *string `json:"message,omitempty"`
	Error   *string `json:"error,omitempty"`
}
