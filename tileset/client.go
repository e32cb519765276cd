package tileset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrNoEndpoint is returned when no catalogue endpoint is configured
var ErrNoEndpoint = errors.New("API endpoint base URL is not set")

// StatusError reports a non-200 catalogue response
type StatusError struct {
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return "GET " + e.URL + ": " + e.Status
}

// Client is an HTTP Source. It is safe for concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default client (10s timeout)
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit bounds outgoing requests. Completion fires on every key
// press, so the default is 5 per second with a burst of 10.
func WithRateLimit(limit rate.Limit, burst int) ClientOption {
	return func(c *Client) { c.limiter = rate.NewLimiter(limit, burst) }
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a client for the catalogue at endpoint, e.g.
// "https://tiles.example.net/api". An empty endpoint is allowed; every call
// then fails with ErrNoEndpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 10),
		userAgent:  "go-chatopt-tileset",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the configured base URL
func (c *Client) Endpoint() string { return c.endpoint }

// List fetches GET {endpoint}/list-groups/{prefix}
func (c *Client) List(ctx context.Context, prefix string) (*Listing, error) {
	var l Listing
	if err := c.get(ctx, "list-groups", prefix, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Metadata fetches GET {endpoint}/group/{path}
func (c *Client) Metadata(ctx context.Context, path string) (*Metadata, error) {
	path = NormalizePath(path)
	if path == "" {
		return nil, fmt.Errorf("tile set path is empty")
	}
	var m Metadata
	if err := c.get(ctx, "group", path, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) get(ctx context.Context, route, path string, out any) error {
	if c.endpoint == "" {
		return ErrNoEndpoint
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.endpoint + "/" + route + "/" + escapePath(NormalizePath(path))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: u, Status: resp.Status, Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", u, err)
	}
	return nil
}

// escapePath escapes each segment, keeping the separators
func escapePath(path string) string {
	if path == "" {
		return ""
	}
	segs := strings.Split(path, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
