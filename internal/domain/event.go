package domain

import "fmt"

const (
	EventPostDeleted = "post_deleted"
	EventPostCreated = "post_created"
)

// Event is one of the invalidation signals the engine reacts to.
// PostDeleted and PostCreated are the only implementations.
type Event interface {
	EventType() string
	event()
}

// PostDeleted announces that a post no longer exists.
type PostDeleted struct {
	PostID string
}

func (PostDeleted) EventType() string { return EventPostDeleted }
func (PostDeleted) event()            {}

// PostCreated announces the outcome of a post creation.
type PostCreated struct {
	Success bool
}

func (PostCreated) EventType() string { return EventPostCreated }
func (PostCreated) event()            {}

// Envelope is the JSON form of an Event when it leaves the process.
type Envelope struct {
	Type    string `json:"type"`
	PostID  string `json:"postId,omitempty"`
	Success *bool  `json:"success,omitempty"`
	Origin  string `json:"origin,omitempty"`
}

func EncodeEvent(e Event, origin string) Envelope {
	env := Envelope{Type: e.EventType(), Origin: origin}
	switch ev := e.(type) {
	case PostDeleted:
		env.PostID = ev.PostID
	case PostCreated:
		success := ev.Success
		env.Success = &success
	}
	return env
}

func DecodeEvent(env Envelope) (Event, error) {
	switch env.Type {
	case EventPostDeleted:
		if env.PostID == "" {
			return nil, fmt.Errorf("post_deleted without postId")
		}
		return PostDeleted{PostID: env.PostID}, nil
	case EventPostCreated:
		return PostCreated{Success: env.Success != nil && *env.Success}, nil
	}
	return nil, fmt.Errorf("unknown event type %q", env.Type)
}
