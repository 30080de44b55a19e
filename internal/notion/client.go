package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public Notion API endpoint.
	DefaultBaseURL = "https://api.notion.com/v1"
	// DefaultVersion is the Notion-Version header sent with every request.
	DefaultVersion = "2022-06-28"
	// DefaultTimeout is the HTTP timeout for a single request.
	DefaultTimeout = 30 * time.Second
	// PageSize is the page size used when listing block children.
	PageSize = 100

	defaultMaxRetries   = 3
	defaultRetryBackoff = 500 * time.Millisecond
	// DefaultMaxRetryWait caps a single wait between retries, including
	// waits requested by Retry-After.
	DefaultMaxRetryWait = 30 * time.Second
	// Notion allows an average of three requests per second per integration.
	defaultRequestsPerSecond = 3
)

// Config configures a Client. Zero values take defaults. MaxRetries bounds
// retries of throttled or failed requests; a negative value disables them.
type Config struct {
	APIKey            string
	BaseURL           string
	Version           string
	Timeout           time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration
	MaxRetryWait      time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            logrus.FieldLogger
}

// Client talks to the Notion API. It is safe for concurrent use and meant to
// be built once per process and passed to whatever needs it.
type Client struct {
	apiKey       string
	baseURL      string
	version      string
	maxRetries   int
	retryBackoff time.Duration
	maxRetryWait time.Duration
	httpClient   *http.Client
	limiter      *rate.Limiter
	log          logrus.FieldLogger
}

// NewClient creates a client from cfg, filling unset fields with defaults.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("notion API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	switch {
	case cfg.MaxRetries == 0:
		cfg.MaxRetries = defaultMaxRetries
	case cfg.MaxRetries < 0:
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.MaxRetryWait <= 0 {
		cfg.MaxRetryWait = DefaultMaxRetryWait
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = defaultRequestsPerSecond
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	burst := int(cfg.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}

	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		version:      cfg.Version,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		maxRetryWait: cfg.MaxRetryWait,
		httpClient:   cfg.HTTPClient,
		limiter:      rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		log:          cfg.Logger.WithField("component", "notion"),
	}, nil
}

// NormalizeID accepts a Notion ID with or without dashes and returns its
// canonical dashed form.
func NormalizeID(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return parsed.String(), nil
}

// QueryDatabase returns one page of rows matching q.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, q DatabaseQuery) (*QueryResult, error) {
	id, err := NormalizeID(databaseID)
	if err != nil {
		return nil, err
	}

	var result QueryResult
	if err := c.do(ctx, http.MethodPost, "/databases/"+id+"/query", q, &result); err != nil {
		return nil, fmt.Errorf("failed to query database %s: %w", id, err)
	}
	return &result, nil
}

// QueryAll runs q and follows continuation cursors until every row is read.
func (c *Client) QueryAll(ctx context.Context, databaseID string, q DatabaseQuery) ([]Page, error) {
	var pages []Page
	seen := make(map[string]bool)
	for {
		result, err := c.QueryDatabase(ctx, databaseID, q)
		if err != nil {
			return nil, err
		}
		pages = append(pages, result.Results...)

		if !result.HasMore || result.NextCursor == nil || *result.NextCursor == "" {
			return pages, nil
		}
		next := *result.NextCursor
		if seen[next] {
			return pages, nil
		}
		seen[next] = true
		q.StartCursor = next
	}
}

// ListBlockChildren returns one page of the children of blockID, starting
// at cursor ("" for the first page).
func (c *Client) ListBlockChildren(ctx context.Context, blockID, cursor string) (*BlockList, error) {
	id, err := NormalizeID(blockID)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("page_size", strconv.Itoa(PageSize))
	if cursor != "" {
		params.Set("start_cursor", cursor)
	}

	var list BlockList
	if err := c.do(ctx, http.MethodGet, "/blocks/"+id+"/children?"+params.Encode(), nil, &list); err != nil {
		return nil, fmt.Errorf("failed to list children of block %s: %w", id, err)
	}
	return &list, nil
}

// do sends a request, retrying rate-limited and server errors.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff(attempt, lastErr)
			c.log.WithFields(logrus.Fields{
				"path":    path,
				"attempt": attempt,
				"wait":    wait,
			}).Debug("retrying notion request")

			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = c.send(ctx, method, path, payload, out)
		if lastErr == nil {
			return nil
		}

		var apiErr *APIError
		if !errors.As(lastErr, &apiErr) || !apiErr.Retryable() {
			return lastErr
		}
	}
	return lastErr
}

// retryAfterError carries the server's Retry-After hint.
type retryAfterError struct {
	*APIError
	after time.Duration
}

func (e *retryAfterError) Unwrap() error { return e.APIError }

// backoff returns the wait before retry attempt, never more than maxRetryWait.
func (c *Client) backoff(attempt int, lastErr error) time.Duration {
	wait := c.retryBackoff * time.Duration(1<<(attempt-1))
	var ra *retryAfterError
	if errors.As(lastErr, &ra) && ra.after > 0 {
		wait = ra.after
	}
	if wait <= 0 || wait > c.maxRetryWait {
		wait = c.maxRetryWait
	}
	return wait
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", c.version)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil || apiErr.Status == 0 {
			apiErr.Status = resp.StatusCode
		}
		if seconds, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && seconds > 0 {
			return &retryAfterError{APIError: apiErr, after: time.Duration(seconds) * time.Second}
		}
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
