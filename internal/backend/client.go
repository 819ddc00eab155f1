// Package backend is the client for the travel-vibes REST API.
//
// Response envelopes ({"data": {...}}) are unwrapped here, once per endpoint, so
// callers only ever see itinerary types. Failures come back as *APIError for
// non-2xx answers and as errors wrapping ErrTimeout or ErrNetwork otherwise.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultImageTimeout = 8 * time.Second
)

// TokenSource supplies the bearer token for authenticated requests.
// An empty token is sent as an empty bearer value.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// Client talks to the backend over HTTP.
type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
	images  *http.Client
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the timeout for regular requests.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithImageTimeout sets the timeout for image lookups.
func WithImageTimeout(d time.Duration) Option {
	return func(c *Client) { c.images.Timeout = d }
}

// WithLogger sets the client's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a Client for the API rooted at baseURL, e.g. "http://localhost:8080/api".
// tokens may be nil for unauthenticated use.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	if tokens == nil {
		tokens = StaticToken("")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http:    &http.Client{Timeout: defaultTimeout},
		images:  &http.Client{Timeout: defaultImageTimeout},
		log:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// resolve joins a path onto the base URL. Absolute URLs are returned unchanged.
func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// do sends a JSON request and decodes a 2xx body into dst (when dst is non-nil).
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body, dst any) error {
	rawURL := c.resolve(path)
	op := method + " " + rawURL

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding body for %s: %w", op, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("reading auth token for %s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := hc.Do(req)
	if err != nil {
		return classifyTransport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb errorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil {
			apiErr.Message = eb.Message
			apiErr.Errors = eb.Errors
		}
		c.log.Debug("backend request failed", "op", op, "status", resp.StatusCode, "message", apiErr.Message)
		return apiErr
	}

	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", op, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	return c.do(ctx, c.http, http.MethodGet, path, nil, dst)
}
