package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	apperrors "github.com/tessro/tempo/internal/errors"
	"github.com/tessro/tempo/internal/logging"
)

// State is the position of the session in the login lifecycle.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthorizationPending
	StateAuthenticated
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateAuthorizationPending:
		return "authorization_pending"
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	default:
		return "unauthenticated"
	}
}

// Status is a read-only view of the session for display.
type Status struct {
	State           State
	ExpiresAt       time.Time
	Scopes          []string
	HasRefreshToken bool
}

// MissingScopes returns the required scopes not granted to this session.
func (s Status) MissingScopes(required ...string) []string {
	var missing []string
	for _, r := range required {
		if !slices.Contains(s.Scopes, r) {
			missing = append(missing, r)
		}
	}
	return missing
}

// Options configures a Service.
type Options struct {
	Config *Config
	Store  SessionStore

	// SilentRefresh renews an expired token with the refresh token instead
	// of clearing the session.
	SilentRefresh  bool
	VerifierLength int

	HTTPClient *http.Client
	Logger     *log.Logger
	Now        func() time.Time
}

// Service runs the PKCE handshake and guards access to the stored session.
// Initiate and CompleteHandshake are separate entry points correlated only
// through the persisted pending state, because the browser redirect sits
// between them.
type Service struct {
	config         *Config
	store          SessionStore
	silentRefresh  bool
	verifierLength int
	httpClient     *http.Client
	logger         *log.Logger
	now            func() time.Time

	mu sync.Mutex
}

// NewService creates an auth service.
func NewService(opts Options) (*Service, error) {
	if opts.Config == nil || opts.Config.ClientID == "" {
		return nil, fmt.Errorf("%w: spotify client id is required", apperrors.ErrInvalidConfig)
	}
	if opts.Store == nil {
		return nil, errors.New("session store is required")
	}

	s := &Service{
		config:         opts.Config,
		store:          opts.Store,
		silentRefresh:  opts.SilentRefresh,
		verifierLength: opts.VerifierLength,
		httpClient:     opts.HTTPClient,
		logger:         logging.With(opts.Logger, "component", "auth"),
		now:            opts.Now,
	}
	if s.verifierLength == 0 {
		s.verifierLength = CodeVerifierLength
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Config returns the OAuth configuration in use.
func (s *Service) Config() *Config {
	return s.config
}

// Initiate starts a handshake for the configured scopes and returns the
// authorization URL the browser must be sent to. The verifier is persisted
// before the URL is returned.
func (s *Service) Initiate(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initiate(ctx, s.config.Scopes)
}

func (s *Service) initiate(ctx context.Context, scopes []string) (string, error) {
	pkce, err := NewPKCE(s.verifierLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate PKCE: %w", err)
	}

	pending := &Pending{
		State:    pkce.State,
		Verifier: pkce.Verifier,
		Scopes:   scopes,
	}
	if err := s.store.SavePending(ctx, pending); err != nil {
		return "", err
	}

	s.logger.Info("authorization initiated", "state", pkce.State, "scopes", len(scopes))
	return s.config.BuildAuthURL(pkce, scopes), nil
}

// CompleteHandshake exchanges an authorization code for tokens. It needs the
// verifier persisted by Initiate and consumes it before talking to the
// provider, so a code can only be redeemed once per handshake. A state that
// belongs to a different attempt is rejected without disturbing that
// attempt.
func (s *Service) CompleteHandshake(ctx context.Context, code, state string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.store.LoadPending(ctx)
	if err != nil {
		return "", err
	}
	if pending == nil {
		s.logger.Warn("callback without pending authorization")
		return "", apperrors.ErrMissingVerifier
	}
	if pending.State != "" && state != pending.State {
		s.logger.Warn("callback state does not match pending authorization")
		return "", apperrors.ErrStateMismatch
	}

	if err := s.store.ClearPending(ctx); err != nil {
		return "", err
	}

	conf := s.config.oauth2Config(pending.Scopes)
	issuedAt := s.now()
	result, err := exchangeCode(ctx, conf, s.httpClient, code, pending.Verifier)
	if err != nil {
		s.logger.Error("token exchange failed", "err", err)
		return "", err
	}

	scopes := result.Scopes
	if scopes == nil {
		scopes = pending.Scopes
	}

	tokens := &Tokens{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    issuedAt.Add(result.ExpiresIn),
		Scopes:       scopes,
	}
	if err := s.store.SaveTokens(ctx, tokens); err != nil {
		return "", err
	}

	s.logger.Info("authenticated", "expires_at", tokens.ExpiresAt.Format(time.RFC3339), "scopes", len(scopes))
	return tokens.AccessToken, nil
}

// AccessToken returns the current access token. An expired token clears the
// token group and yields ErrNoAccessToken, unless silent refresh is enabled
// and the refresh succeeds.
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.validTokens(ctx)
	if err != nil {
		return "", err
	}
	if tokens == nil {
		return "", apperrors.ErrNoAccessToken
	}
	return tokens.AccessToken, nil
}

// validTokens loads the token group and enforces expiry. Returns nil tokens
// when there is no usable session. Callers hold s.mu.
func (s *Service) validTokens(ctx context.Context) (*Tokens, error) {
	tokens, err := s.store.LoadTokens(ctx)
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		return nil, nil
	}

	now := s.now()
	if tokens.ValidAt(now) {
		return tokens, nil
	}

	if s.silentRefresh && tokens.RefreshToken != "" {
		renewed, err := s.refresh(ctx, tokens)
		if err == nil {
			return renewed, nil
		}
		s.logger.Warn("silent refresh failed", "err", err)
	}

	s.logger.Info("access token expired, clearing session")
	if err := s.store.ClearTokens(ctx); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Service) refresh(ctx context.Context, old *Tokens) (*Tokens, error) {
	conf := s.config.oauth2Config(old.Scopes)
	issuedAt := s.now()
	result, err := refreshToken(ctx, conf, s.httpClient, old.RefreshToken)
	if err != nil {
		return nil, err
	}

	scopes := result.Scopes
	if scopes == nil {
		scopes = old.Scopes
	}
	tokens := &Tokens{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    issuedAt.Add(result.ExpiresIn),
		Scopes:       scopes,
	}
	if err := s.store.SaveTokens(ctx, tokens); err != nil {
		return nil, err
	}
	s.logger.Info("access token refreshed", "expires_at", tokens.ExpiresAt.Format(time.RFC3339))
	return tokens, nil
}

// IsAuthenticated reports whether AccessToken would return a token.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	_, err := s.AccessToken(ctx)
	return err == nil
}

// HasScopes reports whether the current session was granted every required
// scope. Matching is exact.
func (s *Service) HasScopes(ctx context.Context, required ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.validTokens(ctx)
	if err != nil || tokens == nil {
		return len(required) == 0
	}
	return containsAll(tokens.Scopes, required)
}

// NeedsUpgrade reports whether the user is logged in but lacks a scope a
// feature needs, meaning they should re-authorize rather than log in fresh.
func (s *Service) NeedsUpgrade(ctx context.Context, required ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.validTokens(ctx)
	if err != nil || tokens == nil {
		return false
	}
	return !containsAll(tokens.Scopes, required)
}

// ForceReauth discards the session, refresh token included, and starts a new
// handshake requesting the configured scopes plus extra.
func (s *Service) ForceReauth(ctx context.Context, extra ...string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		return "", err
	}
	s.logger.Info("forcing re-authorization", "extra_scopes", extra)
	return s.initiate(ctx, mergeScopes(s.config.Scopes, extra...))
}

// Logout clears the session unconditionally.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("logged out")
	return nil
}

// Status reports the session without modifying it.
func (s *Service) Status(ctx context.Context) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.store.LoadTokens(ctx)
	if err != nil {
		return Status{}, err
	}
	if tokens != nil {
		st := Status{
			ExpiresAt:       tokens.ExpiresAt,
			Scopes:          tokens.Scopes,
			HasRefreshToken: tokens.RefreshToken != "",
			State:           StateAuthenticated,
		}
		if !tokens.ValidAt(s.now()) {
			st.State = StateExpired
		}
		return st, nil
	}

	pending, err := s.store.LoadPending(ctx)
	if err != nil {
		return Status{}, err
	}
	if pending != nil {
		return Status{State: StateAuthorizationPending}, nil
	}
	return Status{State: StateUnauthenticated}, nil
}
