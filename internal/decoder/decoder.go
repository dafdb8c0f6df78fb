package decoder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sacavia/feedengine/internal/domain"
	"github.com/sacavia/feedengine/internal/metrics"
)

// DecodeError describes one feed item that could not be decoded.
type DecodeError struct {
	Type string
	ID   string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("failed to decode %q item: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("failed to decode %q item %s: %v", e.Type, e.ID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeItem turns one raw item into a FeedItem, selecting the variant by
// its "type" field.
func DecodeItem(raw json.RawMessage) (domain.FeedItem, error) {
	var env wireEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &DecodeError{Err: err}
	}

	switch domain.ItemKind(env.Type) {
	case domain.KindPost:
		post, err := decodePost(raw)
		if err != nil {
			return nil, &DecodeError{Type: env.Type, ID: env.ID, Err: err}
		}
		return post, nil
	case domain.KindPlace:
		place, err := decodePlace(raw)
		if err != nil {
			return nil, &DecodeError{Type: env.Type, ID: env.ID, Err: err}
		}
		return place, nil
	case domain.KindPerson:
		src := raw
		if len(env.Users) > 0 {
			src = env.Users[0]
		}
		person, err := DecodePerson(src)
		if err != nil {
			return nil, &DecodeError{Type: env.Type, ID: env.ID, Err: err}
		}
		return person, nil
	case "":
		return nil, &DecodeError{ID: env.ID, Err: fmt.Errorf("missing type discriminator")}
	default:
		return nil, &DecodeError{Type: env.Type, ID: env.ID, Err: fmt.Errorf("unknown type discriminator")}
	}
}

func decodePost(raw json.RawMessage) (domain.Post, error) {
	var w wirePost
	if err := json.Unmarshal(raw, &w); err != nil {
		return domain.Post{}, err
	}
	if w.ID == "" {
		return domain.Post{}, fmt.Errorf("missing id")
	}
	if w.Author == nil || w.Author.ID == "" {
		return domain.Post{}, fmt.Errorf("missing author")
	}

	post := domain.Post{
		ID: w.ID,
		Author: domain.Author{
			ID:   w.Author.ID,
			Name: w.Author.Name,
		},
		Categories: []string(w.Categories),
		Tags:       []string(w.Tags),
		CreatedAt:  w.CreatedAt.Time,
		UpdatedAt:  w.UpdatedAt.Time,
		Rating:     w.Rating,
		IsPromoted: w.IsPromoted,
	}

	switch {
	case w.Caption != nil:
		post.Caption = *w.Caption
	case w.Content != nil:
		post.Caption = *w.Content
	}

	post.Author.AvatarURL = w.Author.ProfileImage.ptr()
	if post.Author.AvatarURL == nil {
		post.Author.AvatarURL = w.Author.Avatar.ptr()
	}

	if w.Location != nil {
		post.Location = &domain.Location{
			ID:      w.Location.ID,
			Name:    w.Location.Name,
			Coords:  coords(w.Location.Coordinates),
			Privacy: w.Location.Privacy,
		}
	}

	post.Media = make([]domain.MediaRef, 0, len(w.Media))
	for _, m := range w.Media {
		if m.URL == "" {
			continue
		}
		mediaType := m.Type
		if mediaType == "" {
			mediaType = "image"
		}
		post.Media = append(post.Media, domain.MediaRef{
			Type:         mediaType,
			URL:          m.URL,
			ThumbnailURL: m.Thumbnail.ptr(),
		})
	}
	if len(post.Media) == 0 {
		if u := w.Image.ptr(); u != nil {
			post.Media = append(post.Media, domain.MediaRef{Type: "image", URL: *u})
		}
		if u := w.Video.ptr(); u != nil {
			post.Media = append(post.Media, domain.MediaRef{Type: "video", URL: *u})
		}
	}

	eng := w.wireEngagement
	if w.Engagement != nil {
		eng = *w.Engagement
	}
	post.Engagement = domain.Engagement{
		LikeCount:    count(eng.LikeCount),
		CommentCount: count(eng.CommentCount),
		ShareCount:   count(eng.ShareCount),
		SaveCount:    count(eng.SaveCount),
		IsLiked:      eng.IsLiked != nil && *eng.IsLiked,
		IsSaved:      eng.IsSaved != nil && *eng.IsSaved,
	}

	return post, nil
}

func decodePlace(raw json.RawMessage) (domain.Place, error) {
	var w wirePlace
	if err := json.Unmarshal(raw, &w); err != nil {
		return domain.Place{}, err
	}
	if w.ID == "" {
		return domain.Place{}, fmt.Errorf("missing id")
	}

	place := domain.Place{
		ID:          w.ID,
		Name:        firstNonEmpty(w.Name, w.Title),
		Description: w.Description,
		Rating:      w.Rating,
		Address:     w.Address,
		Privacy:     w.Privacy,
	}
	if len(w.Categories) > 0 {
		place.Categories = []string(w.Categories)
	}

	place.PhotoURL = w.Photo.ptr()
	if place.PhotoURL == nil {
		place.PhotoURL = w.Image.ptr()
	}
	if place.PhotoURL == nil {
		place.PhotoURL = w.FeaturedImage.ptr()
	}

	place.Coords = coords(w.Coordinates)
	if place.Coords == nil {
		place.Coords = coords(w.Location)
	}

	return place, nil
}

// DecodePerson decodes a suggested user object.
func DecodePerson(raw json.RawMessage) (domain.Person, error) {
	var w wirePerson
	if err := json.Unmarshal(raw, &w); err != nil {
		return domain.Person{}, err
	}
	if w.ID == "" {
		return domain.Person{}, fmt.Errorf("missing id")
	}

	person := domain.Person{
		ID:                  w.ID,
		Name:                w.Name,
		Username:            w.Username,
		Bio:                 w.Bio,
		AvatarURL:           w.ProfileImage.ptr(),
		Coords:              coords(w.Location),
		Distance:            w.Distance,
		MutualFollowerCount: count(w.MutualFollowers),
		FollowerCount:       count(w.FollowersCount),
		FollowingCount:      count(w.FollowingCount),
		IsFollowing:         w.IsFollowing,
		IsFollowedBy:        w.IsFollowedBy,
		IsCreator:           w.IsCreator,
		IsVerified:          w.IsVerified,
	}
	if w.SuggestionScore != nil {
		person.SuggestionScore = *w.SuggestionScore
	}
	if person.Name == "" && person.Username != nil {
		person.Name = *person.Username
	}

	return person, nil
}

func coords(c *wireCoords) *domain.Coordinates {
	if c == nil || c.Latitude == nil || c.Longitude == nil {
		return nil
	}
	return &domain.Coordinates{Latitude: *c.Latitude, Longitude: *c.Longitude}
}

func count(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

func firstNonEmpty(values ...*string) *string {
	for _, v := range values {
		if v != nil && strings.TrimSpace(*v) != "" {
			return v
		}
	}
	return nil
}

// Decoder decodes batches, dropping and reporting bad entries.
type Decoder struct {
	metrics *metrics.Metrics
}

func New(m *metrics.Metrics) *Decoder {
	return &Decoder{metrics: m}
}

// DecodeBatch decodes every item it can. Items that fail are logged and
// skipped; the batch itself never fails.
func (d *Decoder) DecodeBatch(ctx context.Context, raws []json.RawMessage) []domain.FeedItem {
	items := make([]domain.FeedItem, 0, len(raws))
	for _, raw := range raws {
		item, err := DecodeItem(raw)
		if err != nil {
			d.drop(ctx, err)
			continue
		}
		items = append(items, item)
	}
	return items
}

// DecodePeople decodes the users of a suggestion category.
func (d *Decoder) DecodePeople(ctx context.Context, raws []json.RawMessage) []domain.Person {
	people := make([]domain.Person, 0, len(raws))
	for _, raw := range raws {
		person, err := DecodePerson(raw)
		if err != nil {
			d.drop(ctx, &DecodeError{Type: string(domain.KindPerson), Err: err})
			continue
		}
		people = append(people, person)
	}
	return people
}

func (d *Decoder) drop(ctx context.Context, err error) {
	itemType := "unknown"
	if de, ok := err.(*DecodeError); ok {
		switch domain.ItemKind(de.Type) {
		case domain.KindPost, domain.KindPlace, domain.KindPerson:
			itemType = de.Type
		}
	}
	slog.WarnContext(
		ctx, "Dropping undecodable feed item",
		slog.String("error", err.Error()),
		slog.String("type", itemType),
		slog.String("module", "decoder"),
	)
	d.metrics.DecodeDropped(itemType)
}
