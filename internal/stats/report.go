package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tessro/tempo/internal/core"
	apperrors "github.com/tessro/tempo/internal/errors"
	"github.com/tessro/tempo/internal/spotify/client"
	"github.com/tessro/tempo/internal/spotify/player"
)

// Source is the part of the API client a report is built from.
type Source interface {
	GetRecentlyPlayed(ctx context.Context, opts client.RecentlyPlayedOptions) (*client.RecentlyPlayedResponse, error)
	GetSeveralArtists(ctx context.Context, ids []string) ([]client.Artist, error)
	GetAudioFeatures(ctx context.Context, ids []string) ([]client.AudioFeatures, error)
}

// Report is the analytics summary shown by every surface.
type Report struct {
	Plays         int           `json:"plays"`
	ListeningTime time.Duration `json:"listening_time"`
	DailyAverage  time.Duration `json:"daily_average"`
	TopArtists    []ArtistCount `json:"top_artists"`
	Genres        []GenreShare  `json:"genres"`
	Profile       Profile       `json:"profile"`
	From          time.Time     `json:"from"`
	To            time.Time     `json:"to"`
}

// Build computes a report from already fetched data.
func Build(history []core.HistoryEntry, artists []client.Artist, features []client.AudioFeatures, top int) *Report {
	r := &Report{
		Plays:         len(history),
		ListeningTime: ListeningTime(history),
		DailyAverage:  EstimateDaily(history),
		TopArtists:    TopArtists(history, top),
		Genres:        GenreMix(artists, top),
		Profile:       AudioProfile(features),
	}
	for _, h := range history {
		if r.From.IsZero() || h.PlayedAt.Before(r.From) {
			r.From = h.PlayedAt
		}
		if h.PlayedAt.After(r.To) {
			r.To = h.PlayedAt
		}
	}
	return r
}

// Collect fetches the recently played list and the catalog data the report
// needs. The history is required; genre and audio feature lookups are best
// effort and their failures are returned alongside the report.
func Collect(ctx context.Context, src Source, top int) (*apperrors.PartialResult[*Report], error) {
	recent, err := src.GetRecentlyPlayed(ctx, client.RecentlyPlayedOptions{Limit: client.MaxRecentlyPlayed})
	if err != nil {
		return nil, err
	}
	history := player.ConvertHistory(recent.Items)

	result := &apperrors.PartialResult[*Report]{}

	artists, err := src.GetSeveralArtists(ctx, artistIDs(history))
	if sessionLost(err) {
		return nil, err
	} else if err != nil {
		result.AddError(fmt.Errorf("genres unavailable: %w", err))
	}

	features, err := src.GetAudioFeatures(ctx, trackIDs(history))
	if sessionLost(err) {
		return nil, err
	} else if err != nil {
		result.AddError(fmt.Errorf("audio features unavailable: %w", err))
	}

	result.Data = Build(history, artists, features, top)
	return result, nil
}

func sessionLost(err error) bool {
	return errors.Is(err, apperrors.ErrAuthenticationExpired) || errors.Is(err, apperrors.ErrNoAccessToken)
}

func artistIDs(history []core.HistoryEntry) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, h := range history {
		if h.Track == nil {
			continue
		}
		for _, id := range h.Track.ArtistIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func trackIDs(history []core.HistoryEntry) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, h := range history {
		if h.Track == nil || h.Track.ID == "" || seen[h.Track.ID] {
			continue
		}
		seen[h.Track.ID] = true
		ids = append(ids, h.Track.ID)
	}
	return ids
}
