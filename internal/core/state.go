package core

import "time"

// PlaybackState is a snapshot of what the account is playing. A zero value
// means nothing is playing.
type PlaybackState struct {
	Track     *Track        `json:"track"`
	Device    *Device       `json:"device"`
	IsPlaying bool          `json:"is_playing"`
	Progress  time.Duration `json:"progress"`
}

// HasTrack reports whether a track is loaded. Safe on a nil state.
func (s *PlaybackState) HasTrack() bool {
	return s != nil && s.Track != nil
}

// Fraction returns how far into the track playback is, clamped to [0, 1].
func (s *PlaybackState) Fraction() float64 {
	if !s.HasTrack() || s.Track.Duration <= 0 || s.Progress <= 0 {
		return 0
	}
	return min(float64(s.Progress)/float64(s.Track.Duration), 1)
}
