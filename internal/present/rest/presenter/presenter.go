package presenter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sacavia/feedengine/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func Accepted(c echo.Context, payload any) error {
	return c.JSON(http.StatusAccepted, payload)
}

func BadRequest(c echo.Context, err error) error {
	slog.Debug("Bad request", slog.String("error", err.Error()), slog.String("module", "rest"))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	slog.Debug("Bad request", slog.String("error", msg), slog.String("module", "rest"))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func Unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: msg})
}

func NotFound(c echo.Context, msg string) error {
	slog.Debug("Not found", slog.String("error", msg), slog.String("module", "rest"))
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

func BadGateway(c echo.Context, err error) error {
	slog.Warn("Upstream failure", slog.String("error", err.Error()), slog.String("module", "rest"))
	return c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
}

func InternalError(c echo.Context, err error) error {
	slog.Error("Internal error", slog.String("error", err.Error()), slog.String("module", "rest"))
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

// Error picks the response for an error returned by the engine.
func Error(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		return Unauthorized(c, domain.UserMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		return NotFound(c, err.Error())
	default:
		return BadGateway(c, err)
	}
}
