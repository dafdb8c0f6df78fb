package domain

import (
	"fmt"
	"strings"
	"time"
)

// ItemKind is the discriminator of a FeedItem.
type ItemKind string

const (
	KindPost   ItemKind = "post"
	KindPlace  ItemKind = "place_recommendation"
	KindPerson ItemKind = "people_suggestion"
)

// FeedItem is the closed union of everything the feed can hold.
// Only Post, Place and Person implement it.
type FeedItem interface {
	ItemID() string
	Kind() ItemKind
	feedItem()
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Author struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

type Location struct {
	ID      *string      `json:"id,omitempty"`
	Name    *string      `json:"name,omitempty"`
	Coords  *Coordinates `json:"coords,omitempty"`
	Privacy *string      `json:"privacy,omitempty"`
}

type MediaRef struct {
	Type         string  `json:"type"`
	URL          string  `json:"url"`
	ThumbnailURL *string `json:"thumbnailUrl,omitempty"`
}

// Engagement holds the interaction counters of a post.
// Counts never go below zero.
type Engagement struct {
	LikeCount    int  `json:"likeCount"`
	CommentCount int  `json:"commentCount"`
	ShareCount   int  `json:"shareCount"`
	SaveCount    int  `json:"saveCount"`
	IsLiked      bool `json:"isLiked"`
	IsSaved      bool `json:"isSaved"`
}

// Post is a user authored feed entry.
type Post struct {
	ID         string     `json:"id"`
	Caption    string     `json:"caption"`
	Author     Author     `json:"author"`
	Location   *Location  `json:"location,omitempty"`
	Media      []MediaRef `json:"media"`
	Engagement Engagement `json:"engagement"`
	Categories []string   `json:"categories"`
	Tags       []string   `json:"tags"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	Rating     *float64   `json:"rating,omitempty"`
	IsPromoted *bool      `json:"isPromoted,omitempty"`
}

func (p Post) ItemID() string { return p.ID }
func (p Post) Kind() ItemKind { return KindPost }
func (Post) feedItem()        {}

const sharedCaptionMarker = "shared from sacavia"

// CleanCaption returns the caption without surrounding whitespace, or nil
// when it is empty or only the share boilerplate.
func (p Post) CleanCaption() *string {
	trimmed := strings.TrimSpace(p.Caption)
	if trimmed == "" {
		return nil
	}
	if strings.Contains(strings.ToLower(trimmed), sharedCaptionMarker) {
		return nil
	}
	return &trimmed
}

// Place is a recommended location. It has no author.
type Place struct {
	ID          string       `json:"id"`
	Name        *string      `json:"name,omitempty"`
	Description *string      `json:"description,omitempty"`
	PhotoURL    *string      `json:"photoUrl,omitempty"`
	Rating      *float64     `json:"rating,omitempty"`
	Categories  []string     `json:"categories,omitempty"`
	Coords      *Coordinates `json:"coords,omitempty"`
	Address     *string      `json:"address,omitempty"`
	Privacy     *string      `json:"privacy,omitempty"`
}

func (p Place) ItemID() string { return p.ID }
func (p Place) Kind() ItemKind { return KindPlace }
func (Place) feedItem()        {}

// IsPrivate reports whether the place is marked private.
func (p Place) IsPrivate() bool {
	return p.Privacy != nil && strings.EqualFold(*p.Privacy, "private")
}

// Person is a suggested user.
type Person struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	Username            *string      `json:"username,omitempty"`
	Bio                 *string      `json:"bio,omitempty"`
	AvatarURL           *string      `json:"avatarUrl,omitempty"`
	Coords              *Coordinates `json:"coords,omitempty"`
	Distance            *float64     `json:"distance,omitempty"`
	MutualFollowerCount int          `json:"mutualFollowerCount"`
	FollowerCount       int          `json:"followerCount"`
	FollowingCount      int          `json:"followingCount"`
	IsFollowing         bool         `json:"isFollowing"`
	IsFollowedBy        bool         `json:"isFollowedBy"`
	IsCreator           *bool        `json:"isCreator,omitempty"`
	IsVerified          *bool        `json:"isVerified,omitempty"`
	SuggestionScore     float64      `json:"suggestionScore"`
}

func (p Person) ItemID() string { return p.ID }
func (p Person) Kind() ItemKind { return KindPerson }
func (Person) feedItem()        {}

// FeedFilter selects which variants a feed page contains.
type FeedFilter string

const (
	FilterAll    FeedFilter = "all"
	FilterPosts  FeedFilter = "posts"
	FilterPlaces FeedFilter = "places"
	FilterPeople FeedFilter = "people"
)

// ParseFeedFilter accepts the wire names of the filters. An empty string is "all".
func ParseFeedFilter(s string) (FeedFilter, error) {
	switch FeedFilter(strings.ToLower(s)) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterPosts:
		return FilterPosts, nil
	case FilterPlaces:
		return FilterPlaces, nil
	case FilterPeople:
		return FilterPeople, nil
	}
	return "", fmt.Errorf("unknown feed filter %q", s)
}

// IncludeTypes is the discriminator the server is asked to pre-filter on.
// It is empty for FilterAll.
func (f FeedFilter) IncludeTypes() string {
	switch f {
	case FilterPosts:
		return string(KindPost)
	case FilterPlaces:
		return string(KindPlace)
	case FilterPeople:
		return string(KindPerson)
	}
	return ""
}

// InteractionState is the authoritative per-post state returned by the server.
type InteractionState struct {
	PostID    string `json:"postId"`
	IsLiked   bool   `json:"isLiked"`
	IsSaved   bool   `json:"isSaved"`
	LikeCount int    `json:"likeCount"`
	SaveCount int    `json:"saveCount"`
}

// Differs reports whether applying s would change e.
func (s InteractionState) Differs(e Engagement) bool {
	return e.IsLiked != s.IsLiked ||
		e.IsSaved != s.IsSaved ||
		e.LikeCount != s.LikeCount ||
		e.SaveCount != s.SaveCount
}

// ApplyTo overwrites the four reconciled fields of e.
func (s InteractionState) ApplyTo(e Engagement) Engagement {
	e.IsLiked = s.IsLiked
	e.IsSaved = s.IsSaved
	e.LikeCount = max(0, s.LikeCount)
	e.SaveCount = max(0, s.SaveCount)
	return e
}
