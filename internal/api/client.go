// Package api provides the HTTP client for the FunMagic task API.
//
// This package handles the two task endpoints the progress tracker depends on:
// the REST task detail and the per-task event stream. It owns authentication,
// request tagging and error decoding; callers never build requests by hand.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const (
	// DefaultTimeout is the default HTTP request timeout for REST calls.
	// Stream requests do not use it; they live until cancelled.
	DefaultTimeout = 30 * time.Second

	// SessionCookieName is the cookie the web app authenticates with.
	SessionCookieName = "better-auth.session_token"

	// userAgent identifies the client to the backend.
	userAgent = "taskwatch/1.0"
)

// Client is the FunMagic API client.
type Client struct {
	baseURL       string
	token         string
	sessionCookie string
	httpClient    *http.Client
	streamClient  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken authenticates requests with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithSessionCookie authenticates requests with a browser session cookie.
func WithSessionCookie(value string) Option {
	return func(c *Client) { c.sessionCookie = value }
}

// WithHTTPClient overrides the client used for REST calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithStreamClient overrides the client used for event streams.
// It must not set a Timeout, or long streams get cut off.
func WithStreamClient(hc *http.Client) Option {
	return func(c *Client) { c.streamClient = hc }
}

// NewClientWithBaseURL creates a new API client with a custom base URL.
//
// Parameters:
//   - baseURL: The API base URL, including any path prefix such as /api
//   - opts: Authentication and transport options
//
// Returns:
//   - *Client: A new client instance
func NewClientWithBaseURL(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		// Use a client with no timeout for streaming connections
		streamClient: &http.Client{Timeout: 0},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Detail     string
}

// Error returns a human-readable error message.
//
// Returns:
//   - string: The error message, with fallback to HTTP status if no message available
func (e *APIError) Error() string {
	if e.Message != "" && e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// newRequest builds an authenticated request.
func (c *Client) newRequest(ctx context.Context, method, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.sessionCookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: c.sessionCookie})
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())

	return req, nil
}

// parseResponse parses the response body into the target struct.
func parseResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return newAPIError(resp)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// newAPIError reads an error body. The backend answers with either
// {"error": "text"} or {"error": {"code": "...", "message": "..."}}, and
// proxies in front of it sometimes use message/detail instead.
func newAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		errField := parsed.Get("error")
		if errField.IsObject() {
			apiErr.Code = errField.Get("code").String()
			apiErr.Message = errField.Get("message").String()
		} else {
			apiErr.Message = errField.String()
		}
		if apiErr.Message == "" {
			apiErr.Message = parsed.Get("message").String()
		}
		apiErr.Detail = parsed.Get("detail").String()
		return apiErr
	}

	// Fallback to raw body if no structured error found
	bodyStr := strings.TrimSpace(string(body))
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}
	apiErr.Detail = bodyStr
	return apiErr
}
