// Package client calls a running agentplan server.
//
// Usage:
//
//	c := client.New("http://localhost:8080")
//	root, err := c.Generate(ctx, "Build a recipe recommender", nil)
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

// maxErrorBody caps how much of an error response is read
const maxErrorBody = 64 << 10

// Config tunes a Client. Zero values take defaults.
type Config struct {
	// MaxRetries is the number of retries after the first attempt for
	// transport failures and 5xx responses
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	UserAgent  string

	// HTTPClient replaces the default traced client
	HTTPClient *http.Client
}

// DefaultConfig returns the configuration used by New
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		RetryDelay: time.Second,
		Timeout:    30 * time.Second,
		UserAgent:  "agentplan-client",
	}
}

// Client talks to the agentplan HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	userAgent  string
}

// New creates a client with the default configuration
func New(baseURL string) *Client {
	return NewWithConfig(baseURL, nil)
}

// NewWithConfig creates a client; nil cfg means DefaultConfig
func NewWithConfig(baseURL string, cfg *Config) *Client {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.MaxRetries > 0 {
			c.MaxRetries = cfg.MaxRetries
		}
		if cfg.RetryDelay > 0 {
			c.RetryDelay = cfg.RetryDelay
		}
		if cfg.Timeout > 0 {
			c.Timeout = cfg.Timeout
		}
		if cfg.UserAgent != "" {
			c.UserAgent = cfg.UserAgent
		}
		c.HTTPClient = cfg.HTTPClient
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   c.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		maxRetries: c.MaxRetries,
		retryDelay: c.RetryDelay,
		userAgent:  c.UserAgent,
	}
}

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("agentplan API error (status %d): %s", e.StatusCode, e.Message)
}

// Temporary reports whether the request may succeed when retried
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500
}

// Generate requests a plan for idea. Option fields left nil in opts take
// the server's defaults.
func (c *Client) Generate(ctx context.Context, idea string, opts *types.OptionsPatch) (*types.Node, error) {
	body, err := json.Marshal(types.GenerateRequest{Idea: idea, Options: opts})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var resp types.GenerateResponse
	if err := c.do(ctx, http.MethodPost, "/api/plan", body, &resp); err != nil {
		return nil, err
	}
	if resp.Plan == nil {
		return nil, fmt.Errorf("response has no plan")
	}
	return resp.Plan, nil
}

// Health checks the server's readiness probe
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health/ready", nil, nil)
}

// do sends one request with retries and decodes a 2xx body into out
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}

		lastErr = c.attempt(ctx, method, path, body, out)
		if lastErr == nil || !retryable(ctx, lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) attempt(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body types.ErrorResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// retryable reports whether err is worth another attempt
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
