package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "github.com/tessro/tempo/internal/errors"
)

type stubCompleter struct {
	mu    sync.Mutex
	calls []string
	err   error
	// staleState, if set, is rejected as belonging to another attempt.
	staleState string
}

func (s *stubCompleter) CompleteHandshake(_ context.Context, code, state string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, code+"/"+state)
	if s.staleState != "" && state == s.staleState {
		return "", apperrors.ErrStateMismatch
	}
	if s.err != nil {
		return "", s.err
	}
	return "token", nil
}

func (s *stubCompleter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func serveCallback(t *testing.T, h http.Handler, query string) (*http.Response, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?"+query, nil))
	resp := rec.Result()
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, string(body)
}

func TestCallbackHandlerSuccess(t *testing.T) {
	completer := &stubCompleter{}
	h := NewCallbackHandler(completer, "/", 0, nil)

	var result error = errors.New("unset")
	h.OnResult = func(err error) { result = err }

	resp, body := serveCallback(t, h, "code=abc&state=xyz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if !strings.Contains(body, `content="2;url=/"`) {
		t.Errorf("success page should redirect after 2 seconds, got %q", body)
	}
	if result != nil {
		t.Errorf("OnResult() got %v, want nil", result)
	}
	if completer.count() != 1 || completer.calls[0] != "abc/xyz" {
		t.Errorf("completer calls = %v", completer.calls)
	}
}

func TestCallbackHandlerProviderError(t *testing.T) {
	completer := &stubCompleter{}
	h := NewCallbackHandler(completer, "/", time.Second, nil)

	resp, body := serveCallback(t, h, "error=access_denied&error_description=User+said+no&state=xyz")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if !strings.Contains(body, "access_denied: User said no") {
		t.Errorf("body should show the provider error verbatim, got %q", body)
	}
	if strings.Contains(body, "refresh") {
		t.Error("failure page must not redirect")
	}
	if completer.count() != 0 {
		t.Error("completer should not run for a provider error")
	}
}

func TestCallbackHandlerMissingCode(t *testing.T) {
	completer := &stubCompleter{}
	h := NewCallbackHandler(completer, "/", 0, nil)

	err := h.Handle(context.Background(), CallbackResult{State: "xyz"})
	if !errors.Is(err, apperrors.ErrMissingAuthorizationCode) {
		t.Errorf("Handle() error = %v, want ErrMissingAuthorizationCode", err)
	}
	if completer.count() != 0 {
		t.Error("completer should not run without a code")
	}
}

func TestCallbackHandlerExchangeFailure(t *testing.T) {
	completer := &stubCompleter{err: &apperrors.ExchangeError{Message: "Invalid authorization code"}}
	h := NewCallbackHandler(completer, "/", 0, nil)

	resp, body := serveCallback(t, h, "code=abc&state=xyz")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if !strings.Contains(body, "Invalid authorization code") {
		t.Errorf("body should contain the provider message, got %q", body)
	}
}

func TestCallbackHandlerEscapesMessages(t *testing.T) {
	h := NewCallbackHandler(&stubCompleter{}, "/", 0, nil)
	_, body := serveCallback(t, h, "error=%3Cscript%3E")
	if strings.Contains(body, "<script>") {
		t.Error("provider error should be HTML escaped")
	}
}

func TestCallbackServer(t *testing.T) {
	completer := &stubCompleter{}
	server, err := NewCallbackServer(0, completer, nil)
	if err != nil {
		t.Fatalf("NewCallbackServer() error = %v", err)
	}

	server.Start()
	defer func() { _ = server.Shutdown(context.Background()) }()

	port := server.Port()
	if port == 0 {
		t.Fatal("Server port should not be 0 after starting")
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		url := fmt.Sprintf("http://127.0.0.1:%d/callback?code=test_code&state=test_state", port)
		resp, err := http.Get(url)
		if err != nil {
			t.Errorf("Failed to make callback request: %v", err)
			return
		}
		_ = resp.Body.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := server.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if completer.count() != 1 {
		t.Errorf("completer called %d times, want 1", completer.count())
	}

	// A replayed callback is refused without reaching the completer.
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/callback?code=test_code&state=test_state", port))
	if err != nil {
		t.Fatalf("second callback request: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("second callback status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if completer.count() != 1 {
		t.Errorf("completer called %d times after replay, want 1", completer.count())
	}
}

func TestCallbackServerIgnoresStaleState(t *testing.T) {
	completer := &stubCompleter{staleState: "older_tab"}
	server, err := NewCallbackServer(0, completer, nil)
	if err != nil {
		t.Fatalf("NewCallbackServer() error = %v", err)
	}

	server.Start()
	defer func() { _ = server.Shutdown(context.Background()) }()

	get := func(query string) int {
		t.Helper()
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/callback?%s", server.Port(), query))
		if err != nil {
			t.Fatalf("callback request: %v", err)
		}
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	if status := get("code=old_code&state=older_tab"); status != http.StatusBadRequest {
		t.Errorf("stale callback status = %d, want %d", status, http.StatusBadRequest)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	if err := server.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("Wait() after stale callback = %v, want still waiting", err)
	}
	cancel()

	if status := get("code=new_code&state=current_tab"); status != http.StatusOK {
		t.Errorf("current callback status = %d, want %d", status, http.StatusOK)
	}

	ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if completer.count() != 2 {
		t.Errorf("completer called %d times, want 2", completer.count())
	}
}

func TestCallbackServerError(t *testing.T) {
	server, err := NewCallbackServer(0, &stubCompleter{}, nil)
	if err != nil {
		t.Fatalf("NewCallbackServer() error = %v", err)
	}

	server.Start()
	defer func() { _ = server.Shutdown(context.Background()) }()

	port := server.Port()

	go func() {
		time.Sleep(50 * time.Millisecond)
		url := fmt.Sprintf("http://127.0.0.1:%d/callback?error=access_denied&state=test_state", port)
		resp, err := http.Get(url)
		if err != nil {
			t.Errorf("Failed to make callback request: %v", err)
			return
		}
		_ = resp.Body.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = server.Wait(ctx)
	if !errors.Is(err, apperrors.ErrAuthorizationDenied) {
		t.Errorf("Wait() error = %v, want ErrAuthorizationDenied", err)
	}
}

func TestCallbackServerTimeout(t *testing.T) {
	server, err := NewCallbackServer(0, &stubCompleter{}, nil)
	if err != nil {
		t.Fatalf("NewCallbackServer() error = %v", err)
	}

	server.Start()
	defer func() { _ = server.Shutdown(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := server.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("Wait() error = %v, want %v", err, context.DeadlineExceeded)
	}
}
