package config

// DefaultScopes are the read scopes requested at login. Playback scopes are
// only requested when a feature needs them.
var DefaultScopes = []string{
	"user-read-private",
	"user-read-email",
	"user-read-recently-played",
	"user-top-read",
	"user-read-currently-playing",
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			RedirectURI: "http://127.0.0.1:8888/callback",
			AuthURL:     "https://accounts.spotify.com/authorize",
			TokenURL:    "https://accounts.spotify.com/api/token",
			APIURL:      "https://api.spotify.com/v1",
			Scopes:      append([]string(nil), DefaultScopes...),
		},
		Auth: AuthConfig{
			SilentRefresh:  false,
			VerifierLength: 64,
		},
		Session: SessionConfig{
			Backend:     "file",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "tempo:",
		},
		API: APIConfig{
			RequestsPerSecond: 5,
			Timeout:           30,
		},
		Server: ServerConfig{
			Addr:          "127.0.0.1:8888",
			RedirectDelay: 2,
		},
		TUI: TUIConfig{
			Theme: "auto",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Spotify
	if c.Spotify.RedirectURI == "" {
		c.Spotify.RedirectURI = d.Spotify.RedirectURI
	}
	if c.Spotify.AuthURL == "" {
		c.Spotify.AuthURL = d.Spotify.AuthURL
	}
	if c.Spotify.TokenURL == "" {
		c.Spotify.TokenURL = d.Spotify.TokenURL
	}
	if c.Spotify.APIURL == "" {
		c.Spotify.APIURL = d.Spotify.APIURL
	}
	if len(c.Spotify.Scopes) == 0 {
		c.Spotify.Scopes = d.Spotify.Scopes
	}

	// Auth
	if c.Auth.VerifierLength == 0 {
		c.Auth.VerifierLength = d.Auth.VerifierLength
	}

	// Session
	if c.Session.Backend == "" {
		c.Session.Backend = d.Session.Backend
	}
	if c.Session.RedisAddr == "" {
		c.Session.RedisAddr = d.Session.RedisAddr
	}
	if c.Session.RedisPrefix == "" {
		c.Session.RedisPrefix = d.Session.RedisPrefix
	}

	// API
	if c.API.RequestsPerSecond == 0 {
		c.API.RequestsPerSecond = d.API.RequestsPerSecond
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = d.API.Timeout
	}

	// Server
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.RedirectDelay == 0 {
		c.Server.RedirectDelay = d.Server.RedirectDelay
	}

	// TUI
	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}
