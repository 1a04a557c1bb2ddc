package auth

import (
	"errors"
	"slices"

	"golang.org/x/oauth2"
)

const (
	// SpotifyAuthURL is the Spotify authorization endpoint.
	SpotifyAuthURL = "https://accounts.spotify.com/authorize"

	// SpotifyTokenURL is the Spotify token endpoint.
	SpotifyTokenURL = "https://accounts.spotify.com/api/token"

	// DefaultRedirectURI is the default callback URI for the local server.
	DefaultRedirectURI = "http://127.0.0.1:8888/callback"
)

// Recognised Spotify scopes.
const (
	ScopeReadPrivate          = "user-read-private"
	ScopeReadEmail            = "user-read-email"
	ScopeReadRecentlyPlayed   = "user-read-recently-played"
	ScopeTopRead              = "user-top-read"
	ScopeReadCurrentlyPlaying = "user-read-currently-playing"
	ScopeStreaming            = "streaming"
	ScopeReadPlaybackState    = "user-read-playback-state"
	ScopeModifyPlaybackState  = "user-modify-playback-state"
)

// ErrInvalidVerifierLength is returned for verifier lengths outside 43-128.
var ErrInvalidVerifierLength = errors.New("invalid code verifier length")

// DefaultScopes are requested at a normal login.
var DefaultScopes = []string{
	ScopeReadPrivate,
	ScopeReadEmail,
	ScopeReadRecentlyPlayed,
	ScopeTopRead,
	ScopeReadCurrentlyPlaying,
}

// PlaybackScopes are needed before the playback bridge may start a player.
var PlaybackScopes = []string{
	ScopeStreaming,
	ScopeReadPlaybackState,
	ScopeModifyPlaybackState,
}

// Config holds the OAuth configuration.
type Config struct {
	ClientID    string
	RedirectURI string
	AuthURL     string
	TokenURL    string
	Scopes      []string
}

// NewConfig creates a new OAuth configuration with defaults.
func NewConfig(clientID string) *Config {
	return &Config{
		ClientID:    clientID,
		RedirectURI: DefaultRedirectURI,
		AuthURL:     SpotifyAuthURL,
		TokenURL:    SpotifyTokenURL,
		Scopes:      DefaultScopes,
	}
}

// oauth2Config builds the x/oauth2 configuration for the given scopes.
// Spotify's PKCE flow carries the client id in the form body and has no
// client secret.
func (c *Config) oauth2Config(scopes []string) *oauth2.Config {
	authURL := c.AuthURL
	if authURL == "" {
		authURL = SpotifyAuthURL
	}
	tokenURL := c.TokenURL
	if tokenURL == "" {
		tokenURL = SpotifyTokenURL
	}
	return &oauth2.Config{
		ClientID:    c.ClientID,
		RedirectURL: c.RedirectURI,
		Scopes:      scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// BuildAuthURL constructs the Spotify authorization URL with PKCE parameters.
func (c *Config) BuildAuthURL(pkce *PKCE, scopes []string) string {
	return c.oauth2Config(scopes).AuthCodeURL(pkce.State,
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("code_challenge", pkce.Challenge),
	)
}

// mergeScopes returns base followed by any extra scopes not already in it.
func mergeScopes(base []string, extra ...string) []string {
	out := slices.Clone(base)
	for _, s := range extra {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// containsAll reports whether every required scope is in granted.
func containsAll(granted, required []string) bool {
	for _, r := range required {
		if !slices.Contains(granted, r) {
			return false
		}
	}
	return true
}
