package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DotEnvFile is read from the working directory, if present, before
// environment overrides are applied. Variables already set win.
const DotEnvFile = ".env"

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.temporc, $XDG_CONFIG_HOME/tempo/config.toml, ~/.config/tempo/config.toml
func Load() (*Config, error) {
	cfg := &Config{}

	path := findConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Path returns the preferred location for a new config file.
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfig, "tempo", "config.toml")
}

// DataDir returns the directory holding session data.
func DataDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "tempo"), nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	paths := []string{
		filepath.Join(home, ".temporc"),
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, "tempo", "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Spotify
	if v := os.Getenv("TEMPO_SPOTIFY_CLIENT_ID"); v != "" {
		cfg.Spotify.ClientID = v
	}
	if v := os.Getenv("TEMPO_SPOTIFY_REDIRECT_URI"); v != "" {
		cfg.Spotify.RedirectURI = v
	}
	if v := os.Getenv("TEMPO_SPOTIFY_SCOPES"); v != "" {
		cfg.Spotify.Scopes = strings.Fields(v)
	}

	// Auth
	if v := os.Getenv("TEMPO_AUTH_SILENT_REFRESH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Auth.SilentRefresh = b
		}
	}

	// Session
	if v := os.Getenv("TEMPO_SESSION_BACKEND"); v != "" {
		cfg.Session.Backend = v
	}
	if v := os.Getenv("TEMPO_SESSION_PATH"); v != "" {
		cfg.Session.Path = v
	}
	if v := os.Getenv("TEMPO_REDIS_ADDR"); v != "" {
		cfg.Session.RedisAddr = v
	}
	if v := os.Getenv("TEMPO_REDIS_PASSWORD"); v != "" {
		cfg.Session.RedisPassword = v
	}

	// API
	if v := os.Getenv("TEMPO_API_REQUESTS_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.API.RequestsPerSecond = f
		}
	}

	// Server
	if v := os.Getenv("TEMPO_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	// Log
	if v := os.Getenv("TEMPO_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TEMPO_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}
