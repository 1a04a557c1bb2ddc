package core

import "time"

// Track represents a playable audio track.
type Track struct {
	ID         string        `json:"id"`
	URI        string        `json:"uri"`
	Title      string        `json:"title"`
	Artist     string        `json:"artist"`
	Artists    []string      `json:"artists"`
	ArtistIDs  []string      `json:"artist_ids"`
	Album      string        `json:"album"`
	Duration   time.Duration `json:"duration"`
	Popularity int           `json:"popularity"`
}
