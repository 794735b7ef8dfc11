// Package api is the HTTP client for the blog API and the wire types shared
// with the server.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ResponseError is returned when the API answers with a non-zero code.
type ResponseError struct {
	Code    int
	Message string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: response code %d", e.Code)
	}
	return fmt.Sprintf("api: response code %d: %s", e.Code, e.Message)
}

// Client talks to the blog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client (30s timeout).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient returns a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HomeData fetches the home page counters and branding.
func (c *Client) HomeData(ctx context.Context) (*Response[BlogInfo], error) {
	resp, err := get[BlogInfo](ctx, c, "/api/home")
	if err != nil {
		return nil, fmt.Errorf("home data: %w", err)
	}
	return resp, nil
}

// PageList fetches the standalone pages.
func (c *Client) PageList(ctx context.Context) (*Response[[]Page], error) {
	resp, err := get[[]Page](ctx, c, "/api/page/list")
	if err != nil {
		return nil, fmt.Errorf("page list: %w", err)
	}
	return resp, nil
}

func get[T any](ctx context.Context, c *Client, path string) (*Response[T], error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Error envelopes still carry a code; surface them instead of the status.
	var out Response[T]
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("decode: %w", err)
	}
	if resp.StatusCode != http.StatusOK && out.Code == CodeOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return &out, nil
}
