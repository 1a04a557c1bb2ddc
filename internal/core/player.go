package core

import (
	"context"
	"time"
)

// Player defines the interface for music playback control.
type Player interface {
	// Playback control
	Play(ctx context.Context) error
	PlayTrack(ctx context.Context, trackID string) error
	Pause(ctx context.Context) error

	// Devices
	GetDevices(ctx context.Context) ([]Device, error)
	SetDevice(deviceID string)

	// State queries
	GetState(ctx context.Context) (*PlaybackState, error)
}

// HistoryEntry represents a recently played track.
type HistoryEntry struct {
	Track    *Track    `json:"track"`
	PlayedAt time.Time `json:"played_at"`
}
