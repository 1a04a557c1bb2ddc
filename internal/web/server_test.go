package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tessro/tempo/internal/errors"
	"github.com/tessro/tempo/internal/spotify/auth"
	"github.com/tessro/tempo/internal/spotify/client"
	"github.com/tessro/tempo/internal/spotify/player"
	"github.com/tessro/tempo/internal/storage"
)

type fakeAPI struct {
	err error
}

func (f *fakeAPI) GetCurrentUser(context.Context) (*client.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &client.User{ID: "u1", DisplayName: "Listener"}, nil
}

func (f *fakeAPI) GetRecentlyPlayed(context.Context, client.RecentlyPlayedOptions) (*client.RecentlyPlayedResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &client.RecentlyPlayedResponse{Items: []client.PlayHistory{{
		Track:    client.Track{ID: "t1", Name: "Song", DurationMS: 1000, Artists: []client.Artist{{ID: "a1", Name: "Band"}}},
		PlayedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}}}, nil
}

func (f *fakeAPI) GetSeveralArtists(_ context.Context, ids []string) ([]client.Artist, error) {
	return []client.Artist{{ID: "a1", Name: "Band", Genres: []string{"indie"}}}, nil
}

func (f *fakeAPI) GetAudioFeatures(context.Context, []string) ([]client.AudioFeatures, error) {
	return []client.AudioFeatures{{ID: "t1", Energy: 0.9}}, nil
}

func (f *fakeAPI) GetTopTracks(_ context.Context, opts client.TopOptions) (*client.Paging[client.Track], error) {
	return &client.Paging[client.Track]{Items: []client.Track{{ID: "t1"}}, Limit: opts.Limit}, nil
}

func (f *fakeAPI) GetTopArtists(_ context.Context, opts client.TopOptions) (*client.Paging[client.Artist], error) {
	if f.err != nil {
		return nil, f.err
	}
	return &client.Paging[client.Artist]{Items: []client.Artist{{ID: "a1", Name: string(opts.TimeRange)}}}, nil
}

func (f *fakeAPI) GetTrack(_ context.Context, id string) (*client.Track, error) {
	return &client.Track{ID: id, Name: "Song"}, nil
}

func (f *fakeAPI) GetTrackAudioFeatures(_ context.Context, id string) (*client.AudioFeatures, error) {
	return &client.AudioFeatures{ID: id, Tempo: 120}, nil
}

type fakePlayback struct {
	state   player.BridgeState
	initErr error
	played  []string
}

func (f *fakePlayback) Init(context.Context) error {
	if f.initErr != nil {
		return f.initErr
	}
	f.state = player.StateReady
	return nil
}

func (f *fakePlayback) State() player.BridgeState { return f.state }

func (f *fakePlayback) PlayTrack(_ context.Context, id string) error {
	f.played = append(f.played, id)
	return nil
}

func (f *fakePlayback) Upgrade(context.Context) (string, error) {
	return "https://accounts.example/authorize?upgrade=1", nil
}

type testServer struct {
	*Server
	service  *auth.Service
	store    *auth.KVSessionStore
	api      *fakeAPI
	playback *fakePlayback
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"scope":        strings.Join(auth.DefaultScopes, " "),
		})
	}))
	t.Cleanup(tokenSrv.Close)

	cfg := auth.NewConfig("client")
	cfg.AuthURL = "https://accounts.example/authorize"
	cfg.TokenURL = tokenSrv.URL

	store := auth.NewKVSessionStore(storage.NewMemoryBackend())
	svc, err := auth.NewService(auth.Options{Config: cfg, Store: store, HTTPClient: tokenSrv.Client()})
	require.NoError(t, err)

	api := &fakeAPI{}
	playback := &fakePlayback{}
	return &testServer{
		Server:   New(Options{Auth: svc, API: api, Playback: playback}),
		service:  svc,
		store:    store,
		api:      api,
		playback: playback,
	}
}

func (ts *testServer) do(method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func (ts *testServer) login(t *testing.T) {
	t.Helper()
	rec := ts.do(http.MethodGet, "/login")
	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)

	rec = ts.do(http.MethodGet, "/callback?code=abc&state="+loc.Query().Get("state"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestLoginRedirectsToProvider(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/login")
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.example", loc.Host)
	assert.Equal(t, "S256", loc.Query().Get("code_challenge_method"))
	assert.NotEmpty(t, loc.Query().Get("state"))
}

func TestCallbackFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/login")
	loc, _ := url.Parse(rec.Header().Get("Location"))
	callback := "/callback?code=abc&state=" + loc.Query().Get("state")

	rec = ts.do(http.MethodGet, callback)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http-equiv="refresh"`)
	assert.True(t, ts.service.IsAuthenticated(context.Background()))

	// Replaying the same callback cannot complete the handshake again.
	rec = ts.do(http.MethodGet, callback)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, ts.service.IsAuthenticated(context.Background()))
}

func TestCallbackProviderError(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/callback?error=access_denied")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "access_denied")
	assert.NotContains(t, rec.Body.String(), "refresh")
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/")
	assert.Contains(t, rec.Body.String(), `href="/login"`)

	ts.login(t)
	rec = ts.do(http.MethodGet, "/")
	body := rec.Body.String()
	assert.Contains(t, body, "Listener")
	assert.Contains(t, body, `<form method="post" action="/upgrade">`)
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	rec := ts.do(http.MethodPost, "/logout")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.False(t, ts.service.IsAuthenticated(context.Background()))
}

func TestUpgradeRedirects(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/upgrade")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "upgrade=1")
}

func TestSessionRoutesRejectGet(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	for _, path := range []string{"/logout", "/upgrade"} {
		rec := ts.do(http.MethodGet, path)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
	}
	assert.True(t, ts.service.IsAuthenticated(context.Background()))
}

func TestAPIEndpoints(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		target string
		want   string
	}{
		{"/api/me", `"display_name":"Listener"`},
		{"/api/recent", `"title":"Song"`},
		{"/api/top/artists?range=short", `"name":"short_term"`},
		{"/api/top/tracks?limit=3", `"limit":3`},
		{"/api/stats", `"genre":"indie"`},
		{"/api/tracks/t9", `"tempo":120`},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := ts.do(http.MethodGet, tt.target)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestAPIBadRequests(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/recent?limit=99").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/top/tracks?range=forever").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/top/albums").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, ts.do(http.MethodGet, "/api/play/t1").Code)
}

func TestAPIErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"no token", apperrors.ErrNoAccessToken, http.StatusUnauthorized},
		{"expired", apperrors.ErrAuthenticationExpired, http.StatusUnauthorized},
		{"forbidden", &apperrors.ForbiddenError{Detail: "nope"}, http.StatusForbidden},
		{"rate limited", &apperrors.RateLimitError{RetryAfter: 4 * time.Second}, http.StatusTooManyRequests},
		{"other", apperrors.ErrNetworkError, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.api.err = tt.err

			rec := ts.do(http.MethodGet, "/api/me")
			assert.Equal(t, tt.status, rec.Code)

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
			if tt.status == http.StatusTooManyRequests {
				assert.Equal(t, "4", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestPlay(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/play/t1")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"t1"}, ts.playback.played)
}

func TestPlayNeedsUpgrade(t *testing.T) {
	ts := newTestServer(t)
	ts.playback.initErr = apperrors.ErrScopeInsufficient

	rec := ts.do(http.MethodPost, "/api/play/t1")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/upgrade", body.UpgradeURL)
	assert.Contains(t, body.Suggestion, "tempo auth upgrade")
	assert.Empty(t, ts.playback.played)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ts := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- ts.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}
