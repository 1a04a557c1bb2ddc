package web

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	apperrors "github.com/tessro/tempo/internal/errors"
	"github.com/tessro/tempo/internal/spotify/auth"
	"github.com/tessro/tempo/internal/spotify/client"
	"github.com/tessro/tempo/internal/spotify/player"
	"github.com/tessro/tempo/internal/stats"
)

const defaultTop = 10

type errorBody struct {
	Error      string `json:"error"`
	Suggestion string `json:"suggestion,omitempty"`
	UpgradeURL string `json:"upgrade_url,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error(), Suggestion: apperrors.GetSuggestion(err)}
	status := http.StatusBadGateway

	var rl *apperrors.RateLimitError
	switch {
	case errors.Is(err, apperrors.ErrNoAccessToken), errors.Is(err, apperrors.ErrAuthenticationExpired):
		status = http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrScopeInsufficient):
		status = http.StatusForbidden
		body.UpgradeURL = "/upgrade"
	case errors.Is(err, apperrors.ErrAccessForbidden):
		status = http.StatusForbidden
	case errors.As(err, &rl):
		status = http.StatusTooManyRequests
		if rl.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.RetryAfter.Seconds())))
		}
	case errors.Is(err, player.ErrNoDevice):
		status = http.StatusConflict
	}

	if status >= 500 {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, body)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

var indexPage = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>tempo</title></head>
<body>
<h1>tempo</h1>
{{if .Authenticated}}
<p>Logged in{{if .User}} as {{.User}}{{end}}. Session expires {{.Expires}}.</p>
{{if .NeedsUpgrade}}<form method="post" action="/upgrade"><button type="submit">Enable playback</button> (asks Spotify for extra permissions)</form>{{end}}
<ul>
<li><a href="/api/recent">Recently played</a></li>
<li><a href="/api/top/artists">Top artists</a></li>
<li><a href="/api/top/tracks">Top tracks</a></li>
<li><a href="/api/stats">Listening stats</a></li>
</ul>
<form method="post" action="/logout"><button type="submit">Log out</button></form>
{{else}}
<p><a href="/login">Log in with Spotify</a></p>
{{end}}
</body>
</html>`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := struct {
		Authenticated bool
		NeedsUpgrade  bool
		User          string
		Expires       string
	}{}

	if s.auth.IsAuthenticated(ctx) {
		data.Authenticated = true
		data.NeedsUpgrade = s.auth.NeedsUpgrade(ctx, auth.PlaybackScopes...)
		if st, err := s.auth.Status(ctx); err == nil {
			data.Expires = st.ExpiresAt.Format(time.Kitchen)
		}
		if user, err := s.api.GetCurrentUser(ctx); err == nil {
			data.User = user.DisplayName
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = indexPage.Execute(w, data)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	authURL, err := s.auth.Initiate(r.Context())
	if err != nil {
		s.logger.Error("failed to start login", "err", err)
		http.Error(w, "could not start login: "+err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	authURL, err := s.playback.Upgrade(r.Context())
	if err != nil {
		s.logger.Error("failed to start upgrade", "err", err)
		http.Error(w, "could not start re-authorization: "+err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, authURL, http.StatusSeeOther)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.api.GetCurrentUser(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", client.MaxRecentlyPlayed)
	if err != nil || limit > client.MaxRecentlyPlayed {
		http.Error(w, "limit must be between 1 and 50", http.StatusBadRequest)
		return
	}

	resp, err := s.api.GetRecentlyPlayed(r.Context(), client.RecentlyPlayedOptions{Limit: limit})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, player.ConvertHistory(resp.Items))
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	timeRange, err := client.ParseTimeRange(r.URL.Query().Get("range"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, err := queryInt(r, "limit", defaultTop)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	opts := client.TopOptions{TimeRange: timeRange, Limit: limit}

	ctx := r.Context()
	var result any
	switch mux.Vars(r)["kind"] {
	case "artists":
		result, err = s.api.GetTopArtists(ctx, opts)
	default:
		result, err = s.api.GetTopTracks(ctx, opts)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type statsResponse struct {
	*stats.Report
	Warnings []string `json:"warnings,omitempty"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	top, err := queryInt(r, "top", defaultTop)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := stats.Collect(r.Context(), s.api, top)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := statsResponse{Report: result.Data}
	for _, e := range result.Errors {
		resp.Warnings = append(resp.Warnings, e.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

type trackResponse struct {
	Track    *client.Track         `json:"track"`
	Features *client.AudioFeatures `json:"audio_features,omitempty"`
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	track, err := s.api.GetTrack(ctx, id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := trackResponse{Track: track}
	if features, err := s.api.GetTrackAudioFeatures(ctx, id); err == nil {
		resp.Features = features
	} else {
		s.logger.Debug("audio features unavailable", "track", id, "err", err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.playback.State() != player.StateReady {
		if err := s.playback.Init(ctx); err != nil {
			s.writeError(w, err)
			return
		}
	}

	if err := s.playback.PlayTrack(ctx, mux.Vars(r)["id"]); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
