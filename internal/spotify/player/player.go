package player

import (
	"context"
	"time"

	"github.com/tessro/tempo/internal/core"
	"github.com/tessro/tempo/internal/spotify/client"
)

// Player implements core.Player on top of the Spotify Connect endpoints.
type Player struct {
	client   *client.Client
	deviceID string // Optional: target device ID
}

// New creates a new Spotify player.
func New(c *client.Client) *Player {
	return &Player{client: c}
}

// SetDevice sets the target device for playback commands.
func (p *Player) SetDevice(deviceID string) {
	p.deviceID = deviceID
}

// Device returns the target device, empty for the active one.
func (p *Player) Device() string {
	return p.deviceID
}

// Play starts or resumes playback.
func (p *Player) Play(ctx context.Context) error {
	return p.client.Play(ctx, p.deviceID, nil)
}

// PlayTrack starts playback of a single track.
func (p *Player) PlayTrack(ctx context.Context, trackID string) error {
	return p.client.Play(ctx, p.deviceID, &client.PlayOptions{
		URIs: []string{client.TrackURI(trackID)},
	})
}

// Pause pauses playback.
func (p *Player) Pause(ctx context.Context) error {
	return p.client.Pause(ctx, p.deviceID)
}

// GetState returns the current playback state.
func (p *Player) GetState(ctx context.Context) (*core.PlaybackState, error) {
	state, err := p.client.GetPlaybackState(ctx)
	if err != nil {
		return nil, err
	}

	if state == nil {
		return &core.PlaybackState{}, nil
	}

	coreState := &core.PlaybackState{
		IsPlaying: state.IsPlaying,
		Progress:  time.Duration(state.ProgressMS) * time.Millisecond,
	}

	if state.Device.ID != "" {
		coreState.Device = ConvertDevice(&state.Device)
	}

	if state.Item != nil {
		coreState.Track = ConvertTrack(state.Item)
	}

	return coreState, nil
}

// TransferPlayback transfers playback to a different device.
func (p *Player) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	return p.client.TransferPlayback(ctx, deviceID, play)
}

// GetDevices returns the user's available playback devices.
func (p *Player) GetDevices(ctx context.Context) ([]core.Device, error) {
	devices, err := p.client.GetDevices(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]core.Device, len(devices))
	for i, d := range devices {
		result[i] = *ConvertDevice(&d)
	}
	return result, nil
}

// ConvertTrack converts a Spotify track to a core track.
func ConvertTrack(t *client.Track) *core.Track {
	if t == nil {
		return nil
	}

	artists := make([]string, len(t.Artists))
	ids := make([]string, 0, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
		if a.ID != "" {
			ids = append(ids, a.ID)
		}
	}

	artist := ""
	if len(artists) > 0 {
		artist = artists[0]
	}

	return &core.Track{
		ID:         t.ID,
		URI:        t.URI,
		Title:      t.Name,
		Artist:     artist,
		Artists:    artists,
		ArtistIDs:  ids,
		Album:      t.Album.Name,
		Duration:   t.Duration(),
		Popularity: t.Popularity,
	}
}

// ConvertHistory converts recently played items to core history entries.
func ConvertHistory(items []client.PlayHistory) []core.HistoryEntry {
	entries := make([]core.HistoryEntry, len(items))
	for i := range items {
		entries[i] = core.HistoryEntry{
			Track:    ConvertTrack(&items[i].Track),
			PlayedAt: items[i].PlayedAt,
		}
	}
	return entries
}

// ConvertCurrentlyPlaying converts a currently playing response to a
// playback state. A nil response yields a state without a track.
func ConvertCurrentlyPlaying(c *client.CurrentlyPlaying) *core.PlaybackState {
	if c == nil {
		return &core.PlaybackState{}
	}
	return &core.PlaybackState{
		Track:     ConvertTrack(c.Item),
		IsPlaying: c.IsPlaying,
		Progress:  time.Duration(c.ProgressMS) * time.Millisecond,
	}
}

// ConvertDevice converts a Spotify device to a core device.
func ConvertDevice(d *client.Device) *core.Device {
	if d == nil {
		return nil
	}

	deviceType := core.DeviceType(d.Type)
	// Map Spotify device types to core types
	switch d.Type {
	case "Computer":
		deviceType = core.DeviceTypeComputer
	case "Smartphone":
		deviceType = core.DeviceTypePhone
	case "Speaker":
		deviceType = core.DeviceTypeSpeaker
	case "TV":
		deviceType = core.DeviceTypeTV
	}

	return &core.Device{
		ID:           d.ID,
		Name:         d.Name,
		Type:         deviceType,
		IsActive:     d.IsActive,
		IsRestricted: d.IsRestricted,
	}
}

// Ensure Player implements core.Player
var _ core.Player = (*Player)(nil)
