package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error types for common failure scenarios.
var (
	ErrNoAccessToken            = errors.New("no access token")
	ErrMissingVerifier          = errors.New("no pending authorization for this callback")
	ErrStateMismatch            = errors.New("authorization state mismatch")
	ErrMissingAuthorizationCode = errors.New("missing authorization code")
	ErrAuthorizationDenied      = errors.New("authorization denied")
	ErrExchangeFailed           = errors.New("token exchange failed")
	ErrAuthenticationExpired    = errors.New("authentication expired")
	ErrAccessForbidden          = errors.New("access forbidden")
	ErrRateLimited              = errors.New("rate limited")
	ErrScopeInsufficient        = errors.New("additional permissions required")
	ErrNetworkError             = errors.New("network error")
	ErrConfigNotFound           = errors.New("config file not found")
	ErrInvalidConfig            = errors.New("invalid configuration")
)

// TempoError wraps an error with a user-friendly suggestion.
type TempoError struct {
	Err        error
	Suggestion string
}

func (e *TempoError) Error() string {
	return e.Err.Error()
}

func (e *TempoError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &TempoError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// ExchangeError is returned when the token endpoint rejects a code or verifier.
// Message is the provider's description, shown verbatim.
type ExchangeError struct {
	Code    string
	Message string
}

func (e *ExchangeError) Error() string {
	switch {
	case e.Message != "" && e.Code != "":
		return fmt.Sprintf("token exchange failed: %s (%s)", e.Message, e.Code)
	case e.Message != "":
		return "token exchange failed: " + e.Message
	case e.Code != "":
		return "token exchange failed: " + e.Code
	}
	return "token exchange failed"
}

func (e *ExchangeError) Unwrap() error {
	return ErrExchangeFailed
}

// ForbiddenError is returned for 403 responses from the Web API.
type ForbiddenError struct {
	Detail string
	Hint   string
}

func (e *ForbiddenError) Error() string {
	if e.Detail == "" {
		return ErrAccessForbidden.Error()
	}
	return fmt.Sprintf("%s: %s", ErrAccessForbidden, e.Detail)
}

func (e *ForbiddenError) Unwrap() error {
	return ErrAccessForbidden
}

// RateLimitError is returned for 429 responses. RetryAfter is zero when the
// provider did not send a Retry-After header.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: retry after %s", ErrRateLimited, e.RetryAfter)
	}
	return ErrRateLimited.Error()
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var tempoErr *TempoError
	if errors.As(err, &tempoErr) && tempoErr.Suggestion != "" {
		return tempoErr.Suggestion
	}

	var forbidden *ForbiddenError
	if errors.As(err, &forbidden) && forbidden.Hint != "" {
		return forbidden.Hint
	}

	if errors.Is(err, ErrNoAccessToken) {
		return "Run 'tempo auth login' to log in with Spotify"
	}

	if errors.Is(err, ErrAuthenticationExpired) {
		return "Your session has expired. Run 'tempo auth login' to log in again"
	}

	if errors.Is(err, ErrMissingVerifier) || errors.Is(err, ErrStateMismatch) {
		return "This login attempt is no longer valid. Start again with 'tempo auth login'"
	}

	if errors.Is(err, ErrExchangeFailed) || errors.Is(err, ErrMissingAuthorizationCode) ||
		errors.Is(err, ErrAuthorizationDenied) {
		return "Login did not complete. Run 'tempo auth login' to try again"
	}

	if errors.Is(err, ErrScopeInsufficient) {
		return "Playback needs extra permissions. Run 'tempo auth upgrade' to grant them"
	}

	if errors.Is(err, ErrRateLimited) {
		return "Too many requests. Wait a moment and try again"
	}

	if errors.Is(err, ErrAccessForbidden) {
		return "Spotify refused this request for your account"
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrNetworkError) || strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Check your internet connection and try again"
	}

	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) {
		return "Run 'tempo config init' and set spotify.client_id"
	}

	if strings.Contains(errStr, "server error") {
		return "Spotify is having issues. Try again in a moment"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

// PartialResult represents a result that may have partial failures.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// HasErrors returns true if there were any errors.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// AddError adds an error to the partial result.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// ErrorSummary returns a summary of all errors.
func (p *PartialResult[T]) ErrorSummary() string {
	if len(p.Errors) == 0 {
		return ""
	}
	if len(p.Errors) == 1 {
		return p.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(p.Errors)))
	for i, err := range p.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}
