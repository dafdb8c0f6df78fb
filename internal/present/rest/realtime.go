package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/zeebo/xxh3"

	"github.com/sacavia/feedengine/internal/present/rest/presenter"
)

// suggestion changes do not touch the store, so the socket also polls
const realtimePollInterval = 2 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Request struct {
	Type string `json:"type"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx := c.Request().Context()

	changes, unsubscribe := h.engine.Changes()
	defer unsubscribe()

	quit := make(chan struct{})
	resend := make(chan struct{}, 1)

	go func() {
		defer close(quit)
		for {
			var req Request
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}
				return
			}

			switch req.Type {
			case "sync":
				select {
				case resend <- struct{}{}:
				default:
				}
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	ticker := time.NewTicker(realtimePollInterval)
	defer ticker.Stop()

	var last uint64
	push := func(force bool) bool {
		items, revision, err := h.engine.Feed.Render(ctx)
		if err != nil {
			return false
		}
		view := presenter.Render(items, revision)
		body, err := json.Marshal(view.Items)
		if err != nil {
			return false
		}
		// the revision is left out of the digest
		digest := xxh3.Hash(body)
		if !force && digest == last {
			return true
		}
		last = digest
		payload, err := json.Marshal(view)
		if err != nil {
			return false
		}
		err = ws.WriteMessage(websocket.TextMessage, payload)
		if err != nil {
			slog.ErrorContext(
				ctx, "Error writing message",
				slog.String("error", err.Error()),
				slog.String("module", "socket"),
			)
			return false
		}
		return true
	}

	if !push(true) {
		return nil
	}

	for {
		select {
		case <-quit:
			return nil
		case <-ctx.Done():
			return nil
		case <-resend:
			if !push(true) {
				return nil
			}
		case <-changes:
			if !push(false) {
				return nil
			}
		case <-ticker.C:
			if !push(false) {
				return nil
			}
		}
	}
}
