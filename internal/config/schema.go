package config

// Config is the root configuration structure.
type Config struct {
	Spotify SpotifyConfig `toml:"spotify" json:"spotify"`
	Auth    AuthConfig    `toml:"auth" json:"auth"`
	Session SessionConfig `toml:"session" json:"session"`
	API     APIConfig     `toml:"api" json:"api"`
	Server  ServerConfig  `toml:"server" json:"server"`
	TUI     TUIConfig     `toml:"tui" json:"tui"`
	Log     LogConfig     `toml:"log" json:"log"`
}

// SpotifyConfig holds Spotify application and endpoint settings.
type SpotifyConfig struct {
	ClientID    string   `toml:"client_id" json:"client_id"`
	RedirectURI string   `toml:"redirect_uri" json:"redirect_uri" validate:"omitempty,url"`
	AuthURL     string   `toml:"auth_url" json:"auth_url" validate:"omitempty,url"`
	TokenURL    string   `toml:"token_url" json:"token_url" validate:"omitempty,url"`
	APIURL      string   `toml:"api_url" json:"api_url" validate:"omitempty,url"`
	Scopes      []string `toml:"scopes" json:"scopes"`
}

// AuthConfig holds handshake and token lifecycle settings.
type AuthConfig struct {
	// SilentRefresh renews an expired access token with the stored refresh
	// token instead of clearing the session.
	SilentRefresh  bool `toml:"silent_refresh" json:"silent_refresh"`
	VerifierLength int  `toml:"verifier_length" json:"verifier_length" validate:"omitempty,min=43,max=128"`
}

// SessionConfig selects where the session is persisted.
type SessionConfig struct {
	Backend       string `toml:"backend" json:"backend" validate:"omitempty,oneof=file sqlite redis memory"`
	Path          string `toml:"path" json:"path"`
	RedisAddr     string `toml:"redis_addr" json:"redis_addr" validate:"omitempty,hostname_port"`
	RedisPassword string `toml:"redis_password" json:"-"`
	RedisDB       int    `toml:"redis_db" json:"redis_db" validate:"min=0"`
	RedisPrefix   string `toml:"redis_prefix" json:"redis_prefix"`
}

// APIConfig holds Web API client settings.
type APIConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second" validate:"min=0"`
	Timeout           int     `toml:"timeout" json:"timeout" validate:"min=0"` // seconds
}

// ServerConfig holds settings for the local dashboard server.
type ServerConfig struct {
	Addr          string `toml:"addr" json:"addr"`
	RedirectDelay int    `toml:"redirect_delay" json:"redirect_delay" validate:"min=0"` // seconds
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme string `toml:"theme" json:"theme"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level" json:"level"`
	File  string `toml:"file" json:"file"`
}
