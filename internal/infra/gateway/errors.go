package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sacavia/feedengine/client"
	"github.com/sacavia/feedengine/internal/domain"
)

// mapError translates transport failures into domain errors.
func mapError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, client.ErrNoCredential) {
		return domain.AuthRequiredError{Reason: "no valid token"}
	}
	switch client.StatusCode(err) {
	case http.StatusUnauthorized:
		return domain.AuthRequiredError{Reason: "token rejected"}
	case http.StatusNotFound:
		return domain.NotFoundError{Resource: resource}
	case http.StatusConflict:
		return domain.ConflictError{Resource: resource}
	}
	return fmt.Errorf("%s request failed: %w", resource, err)
}

// envelopeError reports a 2xx response whose body says it failed.
func envelopeError(resource string, message, detail *string) error {
	switch {
	case detail != nil && *detail != "":
		return fmt.Errorf("%s request failed: %s", resource, *detail)
	case message != nil && *message != "":
		return fmt.Errorf("%s request failed: %s", resource, *message)
	}
	return fmt.Errorf("%s request failed", resource)
}
