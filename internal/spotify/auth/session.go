package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tessro/tempo/internal/storage"
)

// Persisted session keys. Values are plain strings so any key/value backend
// can hold them.
const (
	KeyCodeVerifier    = "code_verifier"
	KeyAuthState       = "auth_state"
	KeyRequestedScopes = "requested_scopes"
	KeyAccessToken     = "access_token"
	KeyRefreshToken    = "refresh_token"
	KeyExpiresAt       = "expires_at" // epoch milliseconds
	KeyGrantedScopes   = "granted_scopes"
)

var (
	tokenKeys   = []string{KeyAccessToken, KeyRefreshToken, KeyExpiresAt, KeyGrantedScopes}
	pendingKeys = []string{KeyCodeVerifier, KeyAuthState, KeyRequestedScopes}
)

// errNoExpiry guards against persisting a token that would never expire.
var errNoExpiry = errors.New("refusing to store a token without an expiry")

// Tokens is the token group written and cleared as one unit.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Scopes       []string
}

// ValidAt reports whether the access token may be used at t.
func (t *Tokens) ValidAt(now time.Time) bool {
	return t != nil && t.AccessToken != "" && now.Before(t.ExpiresAt)
}

// Pending is the state of a handshake between Initiate and the callback.
type Pending struct {
	State    string
	Verifier string
	Scopes   []string
}

// SessionStore persists the session. Token group writes are atomic.
type SessionStore interface {
	LoadTokens(ctx context.Context) (*Tokens, error)
	SaveTokens(ctx context.Context, t *Tokens) error
	ClearTokens(ctx context.Context) error
	LoadPending(ctx context.Context) (*Pending, error)
	SavePending(ctx context.Context, p *Pending) error
	ClearPending(ctx context.Context) error
	Clear(ctx context.Context) error
}

// KVSessionStore implements SessionStore over a storage.Backend.
type KVSessionStore struct {
	backend storage.Backend
}

// NewKVSessionStore wraps a backend.
func NewKVSessionStore(backend storage.Backend) *KVSessionStore {
	return &KVSessionStore{backend: backend}
}

// LoadTokens returns nil when no access token is stored. A stored token with
// a missing or unreadable expiry comes back with a zero ExpiresAt, which is
// never valid.
func (s *KVSessionStore) LoadTokens(ctx context.Context) (*Tokens, error) {
	values, err := s.backend.GetMany(ctx, tokenKeys...)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	access := values[KeyAccessToken]
	if access == "" {
		return nil, nil
	}

	t := &Tokens{
		AccessToken:  access,
		RefreshToken: values[KeyRefreshToken],
		Scopes:       strings.Fields(values[KeyGrantedScopes]),
	}
	if ms, err := strconv.ParseInt(values[KeyExpiresAt], 10, 64); err == nil {
		t.ExpiresAt = time.UnixMilli(ms)
	}
	return t, nil
}

// SaveTokens writes the whole token group in a single backend call.
func (s *KVSessionStore) SaveTokens(ctx context.Context, t *Tokens) error {
	if t == nil || t.AccessToken == "" {
		return errors.New("refusing to store an empty token")
	}
	if t.ExpiresAt.IsZero() {
		return errNoExpiry
	}

	err := s.backend.SetMany(ctx, map[string]string{
		KeyAccessToken:   t.AccessToken,
		KeyRefreshToken:  t.RefreshToken,
		KeyExpiresAt:     strconv.FormatInt(t.ExpiresAt.UnixMilli(), 10),
		KeyGrantedScopes: strings.Join(t.Scopes, " "),
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *KVSessionStore) ClearTokens(ctx context.Context) error {
	if err := s.backend.Delete(ctx, tokenKeys...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// LoadPending returns nil when no handshake is pending.
func (s *KVSessionStore) LoadPending(ctx context.Context) (*Pending, error) {
	values, err := s.backend.GetMany(ctx, pendingKeys...)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending authorization: %w", err)
	}
	if values[KeyCodeVerifier] == "" {
		return nil, nil
	}
	return &Pending{
		State:    values[KeyAuthState],
		Verifier: values[KeyCodeVerifier],
		Scopes:   strings.Fields(values[KeyRequestedScopes]),
	}, nil
}

func (s *KVSessionStore) SavePending(ctx context.Context, p *Pending) error {
	if p == nil || p.Verifier == "" {
		return errors.New("refusing to store an empty verifier")
	}
	err := s.backend.SetMany(ctx, map[string]string{
		KeyCodeVerifier:    p.Verifier,
		KeyAuthState:       p.State,
		KeyRequestedScopes: strings.Join(p.Scopes, " "),
	})
	if err != nil {
		return fmt.Errorf("failed to save pending authorization: %w", err)
	}
	return nil
}

func (s *KVSessionStore) ClearPending(ctx context.Context) error {
	if err := s.backend.Delete(ctx, pendingKeys...); err != nil {
		return fmt.Errorf("failed to clear pending authorization: %w", err)
	}
	return nil
}

// Clear removes the token group and any pending handshake.
func (s *KVSessionStore) Clear(ctx context.Context) error {
	keys := append(append([]string{}, tokenKeys...), pendingKeys...)
	if err := s.backend.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

var _ SessionStore = (*KVSessionStore)(nil)
