package auth

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	apperrors "github.com/tessro/tempo/internal/errors"
	"github.com/tessro/tempo/internal/logging"
)

// DefaultRedirectDelay is how long the success page waits before sending the
// browser back to the main surface.
const DefaultRedirectDelay = 2 * time.Second

// HandshakeCompleter finishes a handshake for a callback.
type HandshakeCompleter interface {
	CompleteHandshake(ctx context.Context, code, state string) (string, error)
}

// CallbackResult contains the query parameters of the OAuth callback.
type CallbackResult struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// ParseCallback reads the authorization result from a redirect request.
func ParseCallback(r *http.Request) CallbackResult {
	query := r.URL.Query()
	return CallbackResult{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	}
}

// CallbackHandler serves the identity provider's redirect back to us. A
// provider error is terminal and shown verbatim, a missing code is terminal,
// and a code is handed to the completer. Nothing is retried.
type CallbackHandler struct {
	completer     HandshakeCompleter
	logger        *log.Logger
	redirectTo    string
	redirectDelay time.Duration

	// OnResult, if set, receives the outcome of every callback (nil on
	// success).
	OnResult func(error)
}

// NewCallbackHandler creates a handler that sends the browser to redirectTo
// after a successful login.
func NewCallbackHandler(completer HandshakeCompleter, redirectTo string, delay time.Duration, logger *log.Logger) *CallbackHandler {
	if redirectTo == "" {
		redirectTo = "/"
	}
	if delay <= 0 {
		delay = DefaultRedirectDelay
	}
	return &CallbackHandler{
		completer:     completer,
		logger:        logging.With(logger, "component", "callback"),
		redirectTo:    redirectTo,
		redirectDelay: delay,
	}
}

// Handle applies the callback policy and returns the outcome.
func (h *CallbackHandler) Handle(ctx context.Context, result CallbackResult) error {
	if result.Error != "" {
		msg := result.Error
		if result.ErrorDescription != "" {
			msg += ": " + result.ErrorDescription
		}
		return fmt.Errorf("%w: %s", apperrors.ErrAuthorizationDenied, msg)
	}
	if result.Code == "" {
		return apperrors.ErrMissingAuthorizationCode
	}
	_, err := h.completer.CompleteHandshake(ctx, result.Code, result.State)
	return err
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	result := ParseCallback(r)
	err := h.Handle(r.Context(), result)

	if h.OnResult != nil {
		h.OnResult(err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	if err != nil {
		h.logger.Warn("login failed", "err", err)
		w.WriteHeader(http.StatusBadRequest)
		_ = failurePage.Execute(w, map[string]string{"Message": err.Error()})
		return
	}

	h.logger.Info("login completed")
	w.WriteHeader(http.StatusOK)
	_ = successPage.Execute(w, map[string]any{
		"RedirectTo": h.redirectTo,
		"Delay":      int(h.redirectDelay / time.Second),
	})
}

var successPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Authentication Successful</title>
<meta http-equiv="refresh" content="{{.Delay}};url={{.RedirectTo}}">
</head>
<body>
<h1>Authentication Successful</h1>
<p>Redirecting in {{.Delay}} seconds&hellip;</p>
</body>
</html>`))

var failurePage = template.Must(template.New("failure").Parse(`<!DOCTYPE html>
<html>
<head><title>Authentication Failed</title></head>
<body>
<h1>Authentication Failed</h1>
<p>Error: {{.Message}}</p>
<p>You can close this window.</p>
</body>
</html>`))

var donePage = `<!DOCTYPE html>
<html>
<head><title>tempo</title></head>
<body>
<h1>You're logged in</h1>
<p>You can close this window and return to the terminal.</p>
</body>
</html>`

// CallbackServer runs a CallbackHandler on a local port for the CLI login
// flow and reports the first outcome. A callback carrying another attempt's
// state does not count, so a stale tab cannot end the login.
type CallbackServer struct {
	server   *http.Server
	listener net.Listener
	logger   *log.Logger
	result   chan error

	mu   sync.Mutex
	done bool
}

// NewCallbackServer creates a new callback server on the specified port.
func NewCallbackServer(port int, completer HandshakeCompleter, logger *log.Logger) (*CallbackServer, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on port %d: %w", port, err)
	}

	cs := &CallbackServer{
		listener: listener,
		logger:   logging.With(logger, "component", "callback"),
		result:   make(chan error, 1),
	}

	handler := NewCallbackHandler(completer, "/", DefaultRedirectDelay, logger)
	handler.OnResult = cs.finish

	mux := http.NewServeMux()
	mux.Handle("/callback", cs.oneShot(handler))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, donePage)
	})

	cs.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return cs, nil
}

// finish records the outcome of a callback. State mismatches leave the
// server waiting for the callback of the current attempt.
func (cs *CallbackServer) finish(err error) {
	if errors.Is(err, apperrors.ErrStateMismatch) {
		cs.logger.Warn("ignoring callback from another login attempt")
		return
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.done {
		return
	}
	cs.done = true
	cs.result <- err
}

// oneShot rejects callbacks once an outcome has been recorded.
func (cs *CallbackServer) oneShot(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.mu.Lock()
		done := cs.done
		cs.mu.Unlock()
		if done {
			http.Error(w, "Callback already processed", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start begins serving HTTP requests in the background.
func (cs *CallbackServer) Start() {
	go func() {
		_ = cs.server.Serve(cs.listener)
	}()
}

// Wait blocks until a callback has been handled or ctx is done. It returns
// the handshake outcome.
func (cs *CallbackServer) Wait(ctx context.Context) error {
	select {
	case err := <-cs.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown gracefully shuts down the server.
func (cs *CallbackServer) Shutdown(ctx context.Context) error {
	return cs.server.Shutdown(ctx)
}

// Port returns the port the server is listening on.
func (cs *CallbackServer) Port() int {
	return cs.listener.Addr().(*net.TCPAddr).Port
}
