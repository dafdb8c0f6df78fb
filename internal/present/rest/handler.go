package rest

import (
	"context"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sacavia/feedengine/internal/application"
	"github.com/sacavia/feedengine/internal/domain"
	"github.com/sacavia/feedengine/internal/present/rest/presenter"
	"github.com/sacavia/feedengine/internal/usecase"
)

type Handler struct {
	engine   *application.Engine
	gatherer prometheus.Gatherer
}

func NewHandler(engine *application.Engine, gatherer prometheus.Gatherer) *Handler {
	return &Handler{
		engine:   engine,
		gatherer: gatherer,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/feed", h.handleFeed)
	e.GET("/feed/render", h.handleRender)
	e.POST("/feed/refresh", h.handleRefresh)
	e.POST("/posts/:id/like", h.handleLike)
	e.DELETE("/posts/:id/like", h.handleUnlike)
	e.POST("/posts/:id/double-tap", h.handleDoubleTap)
	e.POST("/posts/:id/save", h.handleSave)
	e.DELETE("/posts/:id/save", h.handleUnsave)
	e.POST("/posts/:id/share", h.handleShare)
	e.DELETE("/posts/:id", h.handleDelete)
	e.POST("/users/:id/block", h.handleBlock)
	e.DELETE("/users/:id/block", h.handleUnblock)
	e.POST("/users/:id/follow", h.handleFollow)
	e.DELETE("/users/:id/follow", h.handleUnfollow)
	e.GET("/suggestions", h.handleSuggestions)
	e.POST("/suggestions/refresh", h.handleSuggestionsRefresh)
	e.POST("/events", h.handleEvent)
	e.POST("/session/login", h.handleLogin)
	e.POST("/session/logout", h.handleLogout)
	e.GET("/realtime", h.handleRealtime)
	if h.gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}
}

func (h *Handler) handleFeed(c echo.Context) error {
	state, err := h.engine.Feed.Projection(c.Request().Context())
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, presenter.Feed(state))
}

func (h *Handler) handleRender(c echo.Context) error {
	items, revision, err := h.engine.Feed.Render(c.Request().Context())
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, presenter.Render(items, revision))
}

func (h *Handler) handleRefresh(c echo.Context) error {
	ctx := c.Request().Context()

	filter, err := domain.ParseFeedFilter(c.QueryParam("filter"))
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	err = h.engine.Feed.Refresh(ctx, filter)
	if err != nil {
		return presenter.Error(c, err)
	}

	state, err := h.engine.Feed.Projection(ctx)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, presenter.Feed(state))
}

type mutation func(ctx context.Context, postID string) (*usecase.Pending, error)

// mutate applies the change locally and answers right away unless the
// caller asked to wait for the server with ?wait=true.
func (h *Handler) mutate(c echo.Context, fn mutation) error {
	ctx := c.Request().Context()

	p, err := fn(ctx, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}

	if wait, _ := strconv.ParseBool(c.QueryParam("wait")); wait {
		if err := p.Wait(ctx); err != nil {
			return presenter.BadGateway(c, err)
		}
	}

	return presenter.OK(c, presenter.MutationView{
		PostID:  p.PostID,
		Kind:    string(p.Kind),
		Applied: p.Applied(),
	})
}

func (h *Handler) handleLike(c echo.Context) error {
	return h.mutate(c, h.engine.Mutations.Like)
}

func (h *Handler) handleUnlike(c echo.Context) error {
	return h.mutate(c, h.engine.Mutations.Unlike)
}

func (h *Handler) handleDoubleTap(c echo.Context) error {
	return h.mutate(c, h.engine.Mutations.DoubleTapLike)
}

func (h *Handler) handleSave(c echo.Context) error {
	return h.mutate(c, h.engine.Mutations.Save)
}

func (h *Handler) handleUnsave(c echo.Context) error {
	return h.mutate(c, h.engine.Mutations.Unsave)
}

func (h *Handler) handleShare(c echo.Context) error {
	return h.mutate(c, h.engine.Mutations.IncrementShare)
}

func (h *Handler) handleDelete(c echo.Context) error {
	err := h.engine.Mutations.DeletePost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

type blockRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleBlock(c echo.Context) error {
	var req blockRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return presenter.BadRequest(c, err)
		}
	}

	// the local block stays even when the server call fails
	err := h.engine.Blocklist.Block(c.Request().Context(), c.Param("id"), req.Reason)
	if err != nil {
		return presenter.BadGateway(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleUnblock(c echo.Context) error {
	err := h.engine.Blocklist.Unblock(c.Request().Context(), c.Param("id"))
	if err != nil {
		return presenter.BadGateway(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleFollow(c echo.Context) error {
	err := h.engine.Suggestions.Follow(c.Request().Context(), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleUnfollow(c echo.Context) error {
	err := h.engine.Suggestions.Unfollow(c.Request().Context(), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleSuggestions(c echo.Context) error {
	ctx := c.Request().Context()

	pageStr := c.QueryParam("page")
	if pageStr == "" {
		categories, err := h.engine.Suggestions.Categories(ctx)
		if err != nil {
			return presenter.InternalError(c, err)
		}
		return presenter.OK(c, categories)
	}

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		return presenter.BadRequestMessage(c, "invalid page parameter")
	}

	categories, err := h.engine.Suggestions.Fetch(ctx, categoryParam(c), page)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, categories)
}

func (h *Handler) handleSuggestionsRefresh(c echo.Context) error {
	category := categoryParam(c)

	if debounce, _ := strconv.ParseBool(c.QueryParam("debounce")); debounce {
		h.engine.Suggestions.RequestRefresh(category)
		return presenter.Accepted(c, echo.Map{"status": "scheduled"})
	}

	categories, err := h.engine.Suggestions.Refresh(c.Request().Context(), category)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, categories)
}

func categoryParam(c echo.Context) string {
	category := strings.TrimSpace(c.QueryParam("category"))
	if category == "" {
		return usecase.CategoryAll
	}
	return category
}

func (h *Handler) handleEvent(c echo.Context) error {
	var env domain.Envelope
	if err := c.Bind(&env); err != nil {
		return presenter.BadRequest(c, err)
	}

	event, err := domain.DecodeEvent(env)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	// relay failures are logged by the bus; local delivery already happened
	_ = h.engine.Bus.Publish(c.Request().Context(), event)
	return presenter.OK(c, echo.Map{"status": "ok"})
}

type loginRequest struct {
	Token string `json:"token"`
}

func (h *Handler) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if req.Token == "" {
		return presenter.BadRequestMessage(c, "token is required")
	}

	ctx := c.Request().Context()
	err := h.engine.Login(ctx, req.Token)
	if err != nil {
		return presenter.Error(c, err)
	}

	state, err := h.engine.Feed.Projection(ctx)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, presenter.Feed(state))
}

func (h *Handler) handleLogout(c echo.Context) error {
	err := h.engine.Logout(c.Request().Context())
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}
