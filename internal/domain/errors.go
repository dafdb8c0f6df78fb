package domain

import (
	"errors"
	"fmt"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// AuthRequiredError is returned when no valid credential is available
// or the server rejected the one that was sent.
type AuthRequiredError struct {
	Reason string
}

func (e AuthRequiredError) Error() string {
	if e.Reason == "" {
		return "authentication required"
	}
	return fmt.Sprintf("authentication required: %s", e.Reason)
}

// Is enables errors.Is matching on AuthRequiredError.
func (e AuthRequiredError) Is(target error) bool {
	_, ok := target.(AuthRequiredError)
	if ok {
		return true
	}
	_, ok = target.(*AuthRequiredError)
	return ok
}

// ErrAuthRequired is the sentinel error for missing or rejected credentials.
var ErrAuthRequired = AuthRequiredError{}

// UserMessage converts an error surfaced to the presentation layer into
// the message shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrAuthRequired) {
		return "Authentication required. Please log in again."
	}
	return fmt.Sprintf("Failed to load feed: %v", err)
}

// ConflictError is returned when the server reports the requested state
// already exists, such as following a user twice.
type ConflictError struct {
	Resource string
}

func (e ConflictError) Error() string {
	if e.Resource == "" {
		return "conflict"
	}
	return fmt.Sprintf("%s conflict", e.Resource)
}

// Is enables errors.Is matching on ConflictError.
func (e ConflictError) Is(target error) bool {
	_, ok := target.(ConflictError)
	if ok {
		return true
	}
	_, ok = target.(*ConflictError)
	return ok
}

// ErrConflict is the sentinel error for conflicting state.
var ErrConflict = ConflictError{}
