package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestGetSuggestion(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"no token", ErrNoAccessToken, "tempo auth login"},
		{"wrapped expired", fmt.Errorf("loading recent: %w", ErrAuthenticationExpired), "log in again"},
		{"missing verifier", ErrMissingVerifier, "no longer valid"},
		{"state mismatch", ErrStateMismatch, "no longer valid"},
		{"exchange", &ExchangeError{Message: "Invalid authorization code"}, "try again"},
		{"scope", ErrScopeInsufficient, "tempo auth upgrade"},
		{"rate limited", &RateLimitError{RetryAfter: 3 * time.Second}, "Wait a moment"},
		{"forbidden with hint", &ForbiddenError{Detail: "x", Hint: "ask the owner"}, "ask the owner"},
		{"forbidden", &ForbiddenError{Detail: "x"}, "refused"},
		{"custom", WithSuggestion(errors.New("boom"), "do the thing"), "do the thing"},
		{"unknown", errors.New("something odd"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetSuggestion(tt.err)
			if tt.want == "" {
				if got != "" {
					t.Errorf("GetSuggestion() = %q, want empty", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("GetSuggestion() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestTypedErrorsUnwrap(t *testing.T) {
	if !errors.Is(&ExchangeError{}, ErrExchangeFailed) {
		t.Error("ExchangeError should match ErrExchangeFailed")
	}
	if !errors.Is(&ForbiddenError{}, ErrAccessForbidden) {
		t.Error("ForbiddenError should match ErrAccessForbidden")
	}
	if !errors.Is(&RateLimitError{}, ErrRateLimited) {
		t.Error("RateLimitError should match ErrRateLimited")
	}
}

func TestExchangeErrorMessage(t *testing.T) {
	err := &ExchangeError{Code: "invalid_grant", Message: "Invalid authorization code"}
	want := "token exchange failed: Invalid authorization code (invalid_grant)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestFormat(t *testing.T) {
	got := Format(ErrNoAccessToken)
	if !strings.HasPrefix(got, "Error: no access token") {
		t.Errorf("Format() = %q", got)
	}
	if !strings.Contains(got, "Suggestion:") {
		t.Errorf("Format() missing suggestion: %q", got)
	}

	if got := Format(errors.New("plain")); got != "Error: plain" {
		t.Errorf("Format() = %q, want %q", got, "Error: plain")
	}
}

func TestPartialResult(t *testing.T) {
	var p PartialResult[[]string]
	if p.HasErrors() {
		t.Error("HasErrors() = true for empty result")
	}
	p.AddError(nil)
	p.AddError(errors.New("first"))
	p.AddError(errors.New("second"))
	if !p.HasErrors() {
		t.Error("HasErrors() = false after AddError")
	}
	if !strings.HasPrefix(p.ErrorSummary(), "2 errors occurred") {
		t.Errorf("ErrorSummary() = %q", p.ErrorSummary())
	}
}
