package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "feedengine/1.0"
	maxErrorBody     = 512
)

var ErrNoCredential = errors.New("no valid credential")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.Code)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.Code, e.Body)
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var se StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// TokenSource supplies the bearer token attached to every request.
type TokenSource interface {
	GetValidToken() (string, bool)
}

type Options struct {
	Timeout   time.Duration
	UserAgent string
	Transport http.RoundTripper
}

type Client struct {
	client    *http.Client
	cache     *cache.Cache
	base      http.RoundTripper
	userAgent string
	baseURL   string
	tokens    TokenSource
}

func New(baseURL string, tokens TokenSource, opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}

	c := &Client{
		cache:     cache.New(10*time.Minute, 15*time.Minute),
		base:      opts.Transport,
		userAgent: opts.UserAgent,
		baseURL:   strings.TrimRight(baseURL, "/"),
		tokens:    tokens,
	}
	c.client = &http.Client{
		Timeout:   opts.Timeout,
		Transport: otelhttp.NewTransport(c),
	}

	slog.Info(
		"Initialize API client",
		slog.String("baseURL", c.baseURL),
		slog.String("module", "client"),
	)
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	return c.base.RoundTrip(req)
}

// HttpRequest sends body as JSON (when non-nil) and decodes the response
// into response (when non-nil). Requests are refused locally without a
// valid token.
func (c *Client) HttpRequest(ctx context.Context, method, path string, body, response any) error {
	token, ok := c.tokens.GetValidToken()
	if !ok {
		return ErrNoCredential
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		slog.DebugContext(
			ctx, "Request rejected",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("module", "client"),
		)
		return StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if response == nil {
		return nil
	}

	err = json.NewDecoder(resp.Body).Decode(response)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetCached performs a GET and keeps the decoded body for ttl. response must
// be a pointer; cached values are copied into it.
func (c *Client) GetCached(ctx context.Context, path string, ttl time.Duration, response any) error {
	if x, found := c.cache.Get(path); found {
		slog.DebugContext(ctx, "Cache hit", slog.String("path", path), slog.String("module", "client"))
		return json.Unmarshal(x.([]byte), response)
	}

	var raw json.RawMessage
	if err := c.HttpRequest(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return err
	}
	c.cache.Set(path, []byte(raw), ttl)
	return json.Unmarshal(raw, response)
}

// Invalidate drops a cached GET response.
func (c *Client) Invalidate(path string) {
	c.cache.Delete(path)
}

// Flush drops every cached response.
func (c *Client) Flush() {
	c.cache.Flush()
}
