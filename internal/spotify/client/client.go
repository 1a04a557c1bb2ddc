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
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	apperrors "github.com/tessro/tempo/internal/errors"
	"github.com/tessro/tempo/internal/logging"
)

const (
	// BaseURL is the Spotify Web API base URL.
	BaseURL = "https://api.spotify.com/v1"

	// Retry configuration for transient errors
	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// TokenSource hands out the current access token and can drop the session
// when the API rejects it.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
}

// Options configures a Client.
type Options struct {
	BaseURL           string
	HTTPClient        *http.Client
	RequestsPerSecond float64
	Logger            *log.Logger
}

// Client is a Spotify API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	limiter    *rate.Limiter
	logger     *log.Logger
	retryWait  time.Duration
}

// New creates a new Spotify client.
func New(tokens TokenSource, opts Options) *Client {
	c := &Client{
		httpClient: opts.HTTPClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		tokens:     tokens,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		logger:     logging.With(opts.Logger, "component", "spotify"),
		retryWait:  baseRetryWait,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.baseURL == "" {
		c.baseURL = BaseURL
	}
	if opts.RequestsPerSecond > 0 {
		burst := max(int(opts.RequestsPerSecond), 1)
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return c
}

// Get performs a GET request to the Spotify API.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.request(ctx, http.MethodGet, path, nil, result)
}

// Post performs a POST request to the Spotify API.
func (c *Client) Post(ctx context.Context, path string, body any, result any) error {
	return c.request(ctx, http.MethodPost, path, body, result)
}

// Put performs a PUT request to the Spotify API.
func (c *Client) Put(ctx context.Context, path string, body any, result any) error {
	return c.request(ctx, http.MethodPut, path, body, result)
}

// Delete performs a DELETE request to the Spotify API.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.request(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) request(ctx context.Context, method, path string, body any, result any) error {
	// No token means no request at all.
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	var jsonBody []byte
	if body != nil {
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	fullURL := c.baseURL + path
	c.logger.Debug("request", "method", method, "url", fullURL, "body_bytes", len(jsonBody))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		// Wait before retry (skip on first attempt)
		if attempt > 0 {
			wait := c.retryWait * time.Duration(1<<(attempt-1)) // exponential backoff
			c.logger.Debug("retrying", "attempt", attempt, "max", maxRetries, "wait", wait, "last_err", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		var bodyReader io.Reader
		if jsonBody != nil {
			bodyReader = bytes.NewReader(jsonBody)
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %w", apperrors.ErrNetworkError, err)
			c.logger.Warn("network error", "err", err)
			continue // Retry on network error
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("%w: failed to read response: %w", apperrors.ErrNetworkError, err)
			c.logger.Warn("read error", "err", err)
			continue
		}

		c.logger.Debug("response", "status", resp.StatusCode)

		switch {
		case resp.StatusCode == http.StatusNoContent:
			return nil

		case resp.StatusCode == http.StatusUnauthorized:
			// The provider no longer accepts this token; drop the session
			// before telling the caller.
			c.logger.Warn("access token rejected, clearing session")
			if err := c.tokens.Logout(ctx); err != nil {
				c.logger.Error("failed to clear session", "err", err)
			}
			return fmt.Errorf("%w: %s", apperrors.ErrAuthenticationExpired, errorMessage(resp.StatusCode, respBody))

		case resp.StatusCode == http.StatusForbidden:
			detail := errorMessage(resp.StatusCode, respBody)
			return &apperrors.ForbiddenError{Detail: detail, Hint: forbiddenHint(detail)}

		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
			c.logger.Warn("rate limited", "retry_after", retryAfter)
			return &apperrors.RateLimitError{RetryAfter: retryAfter}

		// Retry on 5xx server errors
		case resp.StatusCode >= 500:
			lastErr = parseAPIError(resp.StatusCode, respBody)
			c.logger.Warn("server error, will retry", "err", lastErr)
			continue

		// Don't retry other 4xx errors
		case resp.StatusCode >= 400:
			return parseAPIError(resp.StatusCode, respBody)
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

// APIError represents a Spotify API error response.
type APIError struct {
	ErrorInfo struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Spotify API error %d: %s", e.ErrorInfo.Status, e.ErrorInfo.Message)
}

// IsNoActiveDevice returns true if the error indicates no active device.
func (e *APIError) IsNoActiveDevice() bool {
	return e.ErrorInfo.Status == 404
}

// IsNoActiveDeviceError checks if an error is a "no active device" error.
func IsNoActiveDeviceError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsNoActiveDevice()
	}
	return false
}

func parseAPIError(status int, body []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.ErrorInfo.Message != "" {
		if apiErr.ErrorInfo.Status == 0 {
			apiErr.ErrorInfo.Status = status
		}
		return &apiErr
	}
	if status >= 500 {
		return fmt.Errorf("server error: status %d", status)
	}
	return fmt.Errorf("API error: status %d, body: %s", status, string(body))
}

// errorMessage extracts the provider's message from an error body.
func errorMessage(status int, body []byte) string {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.ErrorInfo.Message != "" {
		return apiErr.ErrorInfo.Message
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 {
		return text
	}
	return http.StatusText(status)
}

// forbiddenHint maps well-known 403 messages to something the user can act on.
func forbiddenHint(detail string) string {
	msg := strings.ToLower(detail)
	switch {
	case strings.Contains(msg, "not registered") || strings.Contains(msg, "developer dashboard"):
		return "This Spotify app is in development mode. Ask its owner to add your account under User Management in the Spotify developer dashboard"
	case strings.Contains(msg, "premium"):
		return "Playback control requires a Spotify Premium account"
	case strings.Contains(msg, "scope"):
		return "Run 'tempo auth upgrade' to grant the missing permissions"
	}
	return ""
}

// parseRetryAfter reads a Retry-After header given either in seconds or as an
// HTTP date. Unparseable values yield zero.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d.Round(time.Second)
		}
	}
	return 0
}

// BuildURL builds a URL with query parameters.
func BuildURL(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}

	u, _ := url.Parse(path)
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
