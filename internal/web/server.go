// Package web serves the local dashboard, which is also the OAuth redirect
// target.
package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/tessro/tempo/internal/logging"
	"github.com/tessro/tempo/internal/spotify/auth"
	"github.com/tessro/tempo/internal/spotify/client"
	"github.com/tessro/tempo/internal/spotify/player"
	"github.com/tessro/tempo/internal/stats"
)

// Authenticator is the part of the auth service the dashboard uses.
type Authenticator interface {
	auth.HandshakeCompleter
	Initiate(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
	Status(ctx context.Context) (auth.Status, error)
	IsAuthenticated(ctx context.Context) bool
	NeedsUpgrade(ctx context.Context, required ...string) bool
}

// API is the part of the Spotify client the dashboard reads from.
type API interface {
	stats.Source
	GetCurrentUser(ctx context.Context) (*client.User, error)
	GetTopTracks(ctx context.Context, opts client.TopOptions) (*client.Paging[client.Track], error)
	GetTopArtists(ctx context.Context, opts client.TopOptions) (*client.Paging[client.Artist], error)
	GetTrack(ctx context.Context, id string) (*client.Track, error)
	GetTrackAudioFeatures(ctx context.Context, id string) (*client.AudioFeatures, error)
}

// Playback is the part of the playback bridge the dashboard drives.
type Playback interface {
	Init(ctx context.Context) error
	State() player.BridgeState
	PlayTrack(ctx context.Context, trackID string) error
	Upgrade(ctx context.Context) (string, error)
}

// Options configures a Server.
type Options struct {
	Auth          Authenticator
	API           API
	Playback      Playback
	RedirectDelay time.Duration
	Logger        *log.Logger
}

// Server is the local web dashboard.
type Server struct {
	auth     Authenticator
	api      API
	playback Playback
	callback *auth.CallbackHandler
	router   *mux.Router
	logger   *log.Logger
}

// New creates a dashboard server and registers its routes.
func New(opts Options) *Server {
	s := &Server{
		auth:     opts.Auth,
		api:      opts.API,
		playback: opts.Playback,
		logger:   logging.With(opts.Logger, "component", "web"),
	}
	s.callback = auth.NewCallbackHandler(opts.Auth, "/", opts.RedirectDelay, opts.Logger)
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodGet)
	r.Handle("/callback", s.callback).Methods(http.MethodGet)
	// Session-changing routes accept POST only.
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/upgrade", s.handleUpgrade).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/me", s.handleMe).Methods(http.MethodGet)
	api.HandleFunc("/recent", s.handleRecent).Methods(http.MethodGet)
	api.HandleFunc("/top/{kind:artists|tracks}", s.handleTop).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/tracks/{id}", s.handleTrack).Methods(http.MethodGet)
	api.HandleFunc("/play/{id}", s.handlePlay).Methods(http.MethodPost)

	return r
}

// Handler returns the dashboard's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down dashboard")
		return srv.Shutdown(shutdownCtx)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		// Only the path is logged; callback query strings carry codes.
		s.logger.Debug("http", "method", r.Method, "path", r.URL.Path, "status", rec.status, "took", time.Since(start))
	})
}
