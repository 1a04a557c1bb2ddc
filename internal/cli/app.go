package cli

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tessro/tempo/internal/config"
	"github.com/tessro/tempo/internal/core"
	apperrors "github.com/tessro/tempo/internal/errors"
	"github.com/tessro/tempo/internal/spotify/auth"
	"github.com/tessro/tempo/internal/spotify/client"
	"github.com/tessro/tempo/internal/spotify/player"
	"github.com/tessro/tempo/internal/storage"
)

// app holds the components a command works with. Every command builds its
// own from the loaded configuration.
type app struct {
	backend storage.Backend
	auth    *auth.Service
	client  *client.Client
	bridge  *player.Bridge
}

func newApp(ctx context.Context, c *config.Config) (*app, error) {
	if c.Spotify.ClientID == "" {
		return nil, apperrors.WithSuggestion(
			fmt.Errorf("%w: spotify.client_id is not set", apperrors.ErrInvalidConfig),
			"Set spotify.client_id in ~/.temporc or via TEMPO_SPOTIFY_CLIENT_ID",
		)
	}

	backend, err := storage.Open(ctx, storage.Options{
		Backend:       c.Session.Backend,
		Path:          c.Session.Path,
		RedisAddr:     c.Session.RedisAddr,
		RedisPassword: c.Session.RedisPassword,
		RedisDB:       c.Session.RedisDB,
		RedisPrefix:   c.Session.RedisPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	httpClient := &http.Client{Timeout: time.Duration(c.API.Timeout) * time.Second}

	svc, err := auth.NewService(auth.Options{
		Config:         authConfig(c),
		Store:          auth.NewKVSessionStore(backend),
		SilentRefresh:  c.Auth.SilentRefresh,
		VerifierLength: c.Auth.VerifierLength,
		HTTPClient:     httpClient,
		Logger:         logger,
	})
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	api := client.New(svc, client.Options{
		BaseURL:           c.Spotify.APIURL,
		HTTPClient:        httpClient,
		RequestsPerSecond: c.API.RequestsPerSecond,
		Logger:            logger,
	})

	bridge := player.NewBridge(svc, func() core.Player { return player.New(api) }, logger)

	return &app{backend: backend, auth: svc, client: api, bridge: bridge}, nil
}

func (a *app) Close() error {
	return a.backend.Close()
}

func authConfig(c *config.Config) *auth.Config {
	ac := auth.NewConfig(c.Spotify.ClientID)
	ac.RedirectURI = c.Spotify.RedirectURI
	ac.AuthURL = c.Spotify.AuthURL
	ac.TokenURL = c.Spotify.TokenURL
	if len(c.Spotify.Scopes) > 0 {
		ac.Scopes = c.Spotify.Scopes
	}
	return ac
}

// redirectPort returns the port of a loopback redirect URI.
func redirectPort(redirectURI string) (int, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return 0, fmt.Errorf("%w: redirect_uri: %v", apperrors.ErrInvalidConfig, err)
	}
	if u.Port() == "" {
		return 80, nil
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		return 0, fmt.Errorf("%w: redirect_uri port %q", apperrors.ErrInvalidConfig, u.Port())
	}
	return port, nil
}

// withApp loads the app for a command and closes it afterwards.
func withApp(fn func(ctx context.Context, a *app) error) error {
	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(ctx, a)
}
