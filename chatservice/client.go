package chatservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

const (
	// DefaultTimeout is the default HTTP client timeout for regular API calls
	DefaultTimeout = 30 * time.Second
	// DefaultDialTimeout is the timeout for establishing TCP connections
	DefaultDialTimeout = 10 * time.Second
	// DefaultTLSTimeout is the timeout for TLS handshake
	DefaultTLSTimeout = 10 * time.Second
	// DefaultHeaderTimeout is the timeout for waiting for response headers
	DefaultHeaderTimeout = 30 * time.Second
	// DefaultIdleTimeout is the keep-alive probe interval for streaming connections
	DefaultIdleTimeout = 90 * time.Second
)

// TokenSource provides the bearer token attached to every request.
// Implementations return ErrNotAuthenticated when no usable credential
// is held.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource holding a fixed token. Empty means
// unauthenticated.
type StaticToken string

// Token returns the fixed token
func (t StaticToken) Token() (string, error) {
	if t == "" {
		return "", ErrNotAuthenticated
	}
	return string(t), nil
}

// Client talks to the chat API. It keeps two HTTP clients: a regular one
// with a request timeout, and a streaming one with transport-level
// timeouts only, so an SSE response body can be read for as long as the
// model keeps producing tokens.
type Client struct {
	baseURL         string
	tokens          TokenSource
	httpClient      *http.Client
	streamingClient *http.Client
	retryConfig     RetryConfig
	rateLimiter     *RateLimiter
}

// Config holds configuration for the chat API client
type Config struct {
	BaseURL string
	Tokens  TokenSource
	Timeout time.Duration

	RetryConfig       *RetryConfig
	RateLimiterConfig *RateLimiterConfig

	// HTTPClient and StreamingClient override the built clients; used in tests.
	HTTPClient      *http.Client
	StreamingClient *http.Client
}

// RetryConfig holds retry configuration for idempotent read requests
type RetryConfig struct {
	MaxRetries     int           // Maximum number of retry attempts (default: 2)
	InitialBackoff time.Duration // Initial backoff duration (default: 500ms)
	MaxBackoff     time.Duration // Maximum backoff duration (default: 30s)
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     2,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
	}
}

// NewClient creates a new chat API client
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Tokens == nil {
		config.Tokens = StaticToken("")
	}

	retryConfig := DefaultRetryConfig()
	if config.RetryConfig != nil {
		retryConfig = *config.RetryConfig
	}

	rateLimiterConfig := DefaultRateLimiterConfig()
	if config.RateLimiterConfig != nil {
		rateLimiterConfig = *config.RateLimiterConfig
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	streamingClient := config.StreamingClient
	if streamingClient == nil {
		// Do NOT set http.Client.Timeout for streaming - it kills long-running
		// streams. Connection establishment is bounded by the transport instead.
		streamingClient = &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   DefaultDialTimeout,
					KeepAlive: DefaultIdleTimeout,
				}).DialContext,
				TLSHandshakeTimeout:   DefaultTLSTimeout,
				ResponseHeaderTimeout: DefaultHeaderTimeout,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
			},
		}
	}

	return &Client{
		baseURL:         config.BaseURL,
		tokens:          config.Tokens,
		httpClient:      httpClient,
		streamingClient: streamingClient,
		retryConfig:     retryConfig,
		rateLimiter:     NewRateLimiter(rateLimiterConfig),
	}
}

// GetRateLimiter returns the client-side rate limiter
func (c *Client) GetRateLimiter() *RateLimiter {
	return c.rateLimiter
}

// IsRetryableStatusCode checks if an HTTP status code should trigger a retry
// Retryable codes: 408 (Timeout), 429 (Rate Limit), 5xx (Server errors)
func IsRetryableStatusCode(statusCode int) bool {
	return statusCode == 408 || statusCode == 429 || statusCode >= 500
}

// CalculateBackoff returns the backoff duration for a given retry attempt
// Uses exponential backoff: initialBackoff * 2^attempt, capped at maxBackoff
func CalculateBackoff(attempt int, config RetryConfig) time.Duration {
	backoff := config.InitialBackoff * time.Duration(1<<uint(attempt))
	if backoff > config.MaxBackoff {
		return config.MaxBackoff
	}
	return backoff
}

// ParseRetryAfter extracts the Retry-After header value from a response.
// Returns 0 if the header is not present or cannot be parsed.
func ParseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(retryAfter); err == nil {
		duration := time.Until(t)
		if duration > 0 {
			return duration
		}
	}

	return 0
}

// doRequest performs one HTTP request and decodes the envelope's data
// field into result. scope picks which 404/400 error code a failure maps to.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}, result interface{}, scope errScope) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait cancelled: %w", err)
	}
	return c.doRequestOnce(ctx, method, endpoint, body, result, scope)
}

// doGet performs an idempotent read with retry on transient failures.
// Writes and sends are never retried here: the store's no-auto-retry
// policy owns that decision.
func (c *Client) doGet(ctx context.Context, endpoint string, result interface{}, scope errScope) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait cancelled: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := CalculateBackoff(attempt-1, c.retryConfig)
			if ra, ok := retryAfterOf(lastErr); ok && ra > backoff {
				backoff = ra
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := c.doRequestOnce(ctx, http.MethodGet, endpoint, nil, result, scope)
		if err == nil {
			return nil
		}
		lastErr = err

		var apiErr *APIError
		if !asAPIError(err, &apiErr) || !IsRetryableStatusCode(apiErr.StatusCode) {
			return err
		}
	}

	return fmt.Errorf("request failed after %d retries: %w", c.retryConfig.MaxRetries+1, lastErr)
}

func (c *Client) doRequestOnce(ctx context.Context, method, endpoint string, body interface{}, result interface{}, scope errScope) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("failed to obtain auth token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Slow down after being rate limited.
		if resp.StatusCode == http.StatusTooManyRequests {
			c.rateLimiter.SetBackoffMultiplier(2.0)
		}
		return decodeAPIError(resp.StatusCode, respBody, scope, ParseRetryAfter(resp))
	}

	if result == nil {
		return nil
	}

	var env Envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("failed to decode response envelope: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}

	return nil
}

// decodeAPIError builds an *APIError from a non-2xx response body
func decodeAPIError(statusCode int, body []byte, scope errScope, retryAfter time.Duration) error {
	apiErr := &APIError{
		StatusCode: statusCode,
		Code:       classify(statusCode, scope),
		RetryAfter: retryAfter,
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err == nil {
		apiErr.Message = env.Message
		apiErr.Errors = env.Errors
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}

	return apiErr
}
