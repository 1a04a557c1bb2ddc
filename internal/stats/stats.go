// Package stats derives listening analytics from history and catalog data.
package stats

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/tessro/tempo/internal/core"
	"github.com/tessro/tempo/internal/spotify/client"
)

// ArtistCount is an artist's share of the listening history.
type ArtistCount struct {
	Name  string  `json:"name"`
	Plays int     `json:"plays"`
	Share float64 `json:"share"`
}

// TopArtists counts plays per primary artist and returns the n most played,
// ties broken by name. n <= 0 returns all.
func TopArtists(history []core.HistoryEntry, n int) []ArtistCount {
	counts := make(map[string]int)
	total := 0
	for _, h := range history {
		if h.Track == nil || h.Track.Artist == "" {
			continue
		}
		counts[h.Track.Artist]++
		total++
	}

	out := make([]ArtistCount, 0, len(counts))
	for name, plays := range counts {
		out = append(out, ArtistCount{Name: name, Plays: plays, Share: float64(plays) / float64(total)})
	}
	slices.SortFunc(out, func(a, b ArtistCount) int {
		if c := cmp.Compare(b.Plays, a.Plays); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return limit(out, n)
}

// GenreShare is one genre's weight across a set of artists.
type GenreShare struct {
	Genre string  `json:"genre"`
	Share float64 `json:"share"`
}

// GenreMix weighs the genres the provider declares for each artist. Every
// artist contributes a total weight of one split evenly across its genres,
// and the result is normalised so the shares sum to 1. Artists without
// genres are ignored.
func GenreMix(artists []client.Artist, n int) []GenreShare {
	weights := make(map[string]float64)
	var total float64
	for _, a := range artists {
		if len(a.Genres) == 0 {
			continue
		}
		w := 1 / float64(len(a.Genres))
		for _, g := range a.Genres {
			weights[strings.ToLower(g)] += w
		}
		total++
	}
	if total == 0 {
		return nil
	}

	out := make([]GenreShare, 0, len(weights))
	for g, w := range weights {
		out = append(out, GenreShare{Genre: g, Share: w / total})
	}
	slices.SortFunc(out, func(a, b GenreShare) int {
		if c := cmp.Compare(b.Share, a.Share); c != 0 {
			return c
		}
		return strings.Compare(a.Genre, b.Genre)
	})
	return limit(out, n)
}

// ListeningTime sums the durations of every played track.
func ListeningTime(history []core.HistoryEntry) time.Duration {
	var total time.Duration
	for _, h := range history {
		if h.Track != nil {
			total += h.Track.Duration
		}
	}
	return total
}

// EstimateDaily spreads the listening time over the span between the first
// and last play, counting at least one day.
func EstimateDaily(history []core.HistoryEntry) time.Duration {
	if len(history) == 0 {
		return 0
	}

	first, last := history[0].PlayedAt, history[0].PlayedAt
	for _, h := range history[1:] {
		if h.PlayedAt.Before(first) {
			first = h.PlayedAt
		}
		if h.PlayedAt.After(last) {
			last = h.PlayedAt
		}
	}

	days := last.Sub(first).Hours() / 24
	if days < 1 {
		days = 1
	}
	return time.Duration(float64(ListeningTime(history)) / days)
}

// Profile is the mean of a set of audio features.
type Profile struct {
	Tracks       int     `json:"tracks"`
	Danceability float64 `json:"danceability"`
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Tempo        float64 `json:"tempo"`
}

// AudioProfile averages danceability, energy, valence and tempo.
func AudioProfile(features []client.AudioFeatures) Profile {
	p := Profile{Tracks: len(features)}
	if p.Tracks == 0 {
		return p
	}
	for _, f := range features {
		p.Danceability += f.Danceability
		p.Energy += f.Energy
		p.Valence += f.Valence
		p.Tempo += f.Tempo
	}
	n := float64(p.Tracks)
	p.Danceability /= n
	p.Energy /= n
	p.Valence /= n
	p.Tempo /= n
	return p
}

func limit[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
