package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{Spotify: SpotifyConfig{ClientID: "abc"}}
	cfg.ApplyDefaults()

	if cfg.Spotify.ClientID != "abc" {
		t.Errorf("ClientID = %q, want %q", cfg.Spotify.ClientID, "abc")
	}
	if cfg.Spotify.TokenURL != "https://accounts.spotify.com/api/token" {
		t.Errorf("TokenURL = %q", cfg.Spotify.TokenURL)
	}
	if len(cfg.Spotify.Scopes) != len(DefaultScopes) {
		t.Errorf("Scopes = %v, want %v", cfg.Spotify.Scopes, DefaultScopes)
	}
	if cfg.Session.Backend != "file" {
		t.Errorf("Session.Backend = %q, want file", cfg.Session.Backend)
	}
	if cfg.Server.RedirectDelay != 2 {
		t.Errorf("Server.RedirectDelay = %d, want 2", cfg.Server.RedirectDelay)
	}
	if cfg.Auth.SilentRefresh {
		t.Error("Auth.SilentRefresh should default to false")
	}
}

func TestLoadFrom(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[spotify]
client_id = "from_file"

[auth]
silent_refresh = true

[session]
backend = "sqlite"
path = "/tmp/tempo.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Spotify.ClientID != "from_file" {
		t.Errorf("ClientID = %q, want from_file", cfg.Spotify.ClientID)
	}
	if !cfg.Auth.SilentRefresh {
		t.Error("SilentRefresh = false, want true")
	}
	if cfg.Session.Backend != "sqlite" {
		t.Errorf("Session.Backend = %q, want sqlite", cfg.Session.Backend)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TEMPO_SPOTIFY_CLIENT_ID", "from_env")
	t.Setenv("TEMPO_SPOTIFY_SCOPES", "user-top-read streaming")
	t.Setenv("TEMPO_AUTH_SILENT_REFRESH", "true")
	t.Setenv("TEMPO_SESSION_BACKEND", "memory")

	cfg := Default()
	applyEnvOverrides(cfg)

	if cfg.Spotify.ClientID != "from_env" {
		t.Errorf("ClientID = %q, want from_env", cfg.Spotify.ClientID)
	}
	if strings.Join(cfg.Spotify.Scopes, " ") != "user-top-read streaming" {
		t.Errorf("Scopes = %v", cfg.Spotify.Scopes)
	}
	if !cfg.Auth.SilentRefresh {
		t.Error("SilentRefresh = false, want true")
	}
	if cfg.Session.Backend != "memory" {
		t.Errorf("Session.Backend = %q, want memory", cfg.Session.Backend)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad backend", func(c *Config) { c.Session.Backend = "mongo" }, "session"},
		{"short verifier", func(c *Config) { c.Auth.VerifierLength = 10 }, "auth"},
		{"bad token url", func(c *Config) { c.Spotify.TokenURL = "not a url" }, "spotify"},
		{"redirect without path", func(c *Config) { c.Spotify.RedirectURI = "http://127.0.0.1:8888" }, "callback path"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log"},
		{"bad theme", func(c *Config) { c.TUI.Theme = "neon" }, "tui"},
		{"negative rate", func(c *Config) { c.API.RequestsPerSecond = -1 }, "api"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
