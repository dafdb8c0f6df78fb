package decoder

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// imageRef accepts either a bare URL string or an object with a url field.
type imageRef struct {
	URL string
}

func (r *imageRef) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.URL = s
		return nil
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.URL = obj.URL
	return nil
}

func (r *imageRef) ptr() *string {
	if r == nil || r.URL == "" {
		return nil
	}
	u := r.URL
	return &u
}

// flexTime accepts RFC3339 strings (with or without fractional seconds)
// and unix milliseconds.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	}
	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	t.Time = time.UnixMilli(ms).UTC()
	return nil
}

// flexStrings accepts ["a", "b"] as well as [{"name": "a"}, ...].
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make([]string, 0, len(raws))
	for _, raw := range raws {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			out = append(out, s)
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return err
		}
		if obj.Name != "" {
			out = append(out, obj.Name)
		}
	}
	*f = out
	return nil
}

type wireCoords struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type wireEnvelope struct {
	Type  string            `json:"type"`
	ID    string            `json:"id"`
	Users []json.RawMessage `json:"users"`
}

type wireEngagement struct {
	LikeCount    *int  `json:"likeCount"`
	CommentCount *int  `json:"commentCount"`
	ShareCount   *int  `json:"shareCount"`
	SaveCount    *int  `json:"saveCount"`
	IsLiked      *bool `json:"isLiked"`
	IsSaved      *bool `json:"isSaved"`
}

type wireAuthor struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ProfileImage *imageRef `json:"profileImage"`
	Avatar       *imageRef `json:"avatar"`
}

type wireLocation struct {
	ID          *string     `json:"id"`
	Name        *string     `json:"name"`
	Coordinates *wireCoords `json:"coordinates"`
	Privacy     *string     `json:"privacy"`
}

type wireMedia struct {
	Type      string    `json:"type"`
	URL       string    `json:"url"`
	Thumbnail *imageRef `json:"thumbnail"`
}

type wirePost struct {
	ID         string          `json:"id"`
	Caption    *string         `json:"caption"`
	Content    *string         `json:"content"`
	Author     *wireAuthor     `json:"author"`
	Location   *wireLocation   `json:"location"`
	Media      []wireMedia     `json:"media"`
	Image      *imageRef       `json:"image"`
	Video      *imageRef       `json:"video"`
	Engagement *wireEngagement `json:"engagement"`
	wireEngagement
	Categories flexStrings `json:"categories"`
	Tags       flexStrings `json:"tags"`
	CreatedAt  flexTime    `json:"createdAt"`
	UpdatedAt  flexTime    `json:"updatedAt"`
	Rating     *float64    `json:"rating"`
	IsPromoted *bool       `json:"isPromoted"`
}

type wirePlace struct {
	ID            string      `json:"id"`
	Name          *string     `json:"name"`
	Title         *string     `json:"title"`
	Description   *string     `json:"description"`
	Photo         *imageRef   `json:"photo"`
	Image         *imageRef   `json:"image"`
	FeaturedImage *imageRef   `json:"featuredImage"`
	Rating        *float64    `json:"rating"`
	Categories    flexStrings `json:"categories"`
	Coordinates   *wireCoords `json:"coordinates"`
	Location      *wireCoords `json:"location"`
	Address       *string     `json:"address"`
	Privacy       *string     `json:"privacy"`
}

type wirePerson struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Username        *string     `json:"username"`
	Bio             *string     `json:"bio"`
	ProfileImage    *imageRef   `json:"profileImage"`
	Location        *wireCoords `json:"location"`
	Distance        *float64    `json:"distance"`
	MutualFollowers *int        `json:"mutualFollowers"`
	FollowersCount  *int        `json:"followersCount"`
	FollowingCount  *int        `json:"followingCount"`
	IsFollowing     bool        `json:"isFollowing"`
	IsFollowedBy    bool        `json:"isFollowedBy"`
	IsCreator       *bool       `json:"isCreator"`
	IsVerified      *bool       `json:"isVerified"`
	SuggestionScore *float64    `json:"suggestionScore"`
}
