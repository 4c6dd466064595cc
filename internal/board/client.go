// Package board is the REST client for the Kanban board API. Client implements
// reconcile.Board: it handles authentication, pagination, client-side pacing
// and retries of transient failures.
package board

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL    = "https://agilezen.com/api/v1/"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultPageSize   = 100
	DefaultRate       = 5 // requests per second

	// APIKeyHeader carries the API key on every request.
	APIKeyHeader = "X-Zen-ApiKey"
)

// APIError is a non-2xx response from the board.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("board API %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, strings.TrimSpace(e.Body))
}

// Temporary reports whether retrying the request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client talks to the board REST API.
type Client struct {
	BaseURL    string
	APIKey     string
	PageSize   int
	MaxRetries int
	HTTPClient *http.Client

	// RetryInterval is the first backoff delay; later delays grow exponentially.
	RetryInterval time.Duration

	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.HTTPClient = hc } }

// WithPageSize sets the page size for list calls.
func WithPageSize(n int) Option { return func(c *Client) { c.PageSize = n } }

// WithMaxRetries sets how many times a transient failure is retried.
func WithMaxRetries(n int) Option { return func(c *Client) { c.MaxRetries = n } }

// WithRetryInterval sets the initial backoff delay.
func WithRetryInterval(d time.Duration) Option { return func(c *Client) { c.RetryInterval = d } }

// WithRateLimit paces requests; zero or less disables pacing.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.HTTPClient = &http.Client{Timeout: d} }
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	c := &Client{
		BaseURL:       baseURL,
		APIKey:        apiKey,
		PageSize:      DefaultPageSize,
		MaxRetries:    DefaultMaxRetries,
		RetryInterval: 500 * time.Millisecond,
		HTTPClient:    &http.Client{Timeout: DefaultTimeout},
		limiter:       rate.NewLimiter(rate.Limit(DefaultRate), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	return c
}

func (c *Client) newBackoff(ctx context.Context) backoff.BackOff {
	// BackOff implementations are stateful; build one per request.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.RetryInterval
	bo.MaxElapsedTime = 0
	var b backoff.BackOff = bo
	if c.MaxRetries >= 0 {
		b = backoff.WithMaxRetries(bo, uint64(c.MaxRetries))
	}
	return backoff.WithContext(b, ctx)
}

func isRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

// request sends one API call, retrying transient failures, and decodes the
// JSON response into out when out is non-nil.
func (c *Client) request(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	var respBody []byte
	err := backoff.Retry(func() error {
		var err error
		respBody, err = c.do(ctx, method, path, payload)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, c.newBackoff(ctx))
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+strings.TrimPrefix(path, "/"), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(APIKeyHeader, c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

// list fetches every page of a paginated collection.
func list[T any](ctx context.Context, c *Client, path string, params url.Values) ([]T, error) {
	if params == nil {
		params = url.Values{}
	}
	var all []T
	for page := 1; ; page++ {
		params.Set("page", strconv.Itoa(page))
		params.Set("pageSize", strconv.Itoa(c.PageSize))

		var resp pageResponse[T]
		if err := c.request(ctx, http.MethodGet, path+"?"+params.Encode(), nil, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Items...)
		if page >= resp.TotalPages || len(resp.Items) == 0 {
			return all, nil
		}
	}
}
