package player

import (
	"testing"
	"time"

	"github.com/tessro/tempo/internal/core"
	"github.com/tessro/tempo/internal/spotify/client"
)

func TestConvertTrack(t *testing.T) {
	spotifyTrack := &client.Track{
		ID:         "track123",
		URI:        "spotify:track:track123",
		Name:       "Test Song",
		DurationMS: 180000,
		Artists: []client.Artist{
			{ID: "a1", Name: "Artist One"},
			{ID: "a2", Name: "Artist Two"},
		},
		Album: client.Album{
			Name: "Test Album",
		},
	}

	coreTrack := ConvertTrack(spotifyTrack)

	if coreTrack.ID != "track123" {
		t.Errorf("ID = %q, want %q", coreTrack.ID, "track123")
	}
	if coreTrack.Title != "Test Song" {
		t.Errorf("Title = %q, want %q", coreTrack.Title, "Test Song")
	}
	if coreTrack.Artist != "Artist One" {
		t.Errorf("Artist = %q, want %q", coreTrack.Artist, "Artist One")
	}
	if len(coreTrack.Artists) != 2 || len(coreTrack.ArtistIDs) != 2 {
		t.Errorf("Artists = %v, ArtistIDs = %v", coreTrack.Artists, coreTrack.ArtistIDs)
	}
	if coreTrack.Album != "Test Album" {
		t.Errorf("Album = %q, want %q", coreTrack.Album, "Test Album")
	}
	if coreTrack.Duration != 180*time.Second {
		t.Errorf("Duration = %v, want %v", coreTrack.Duration, 180*time.Second)
	}
}

func TestConvertDevice(t *testing.T) {
	spotifyDevice := &client.Device{
		ID:       "device123",
		Name:     "My Speaker",
		Type:     "Speaker",
		IsActive: true,
	}

	coreDevice := ConvertDevice(spotifyDevice)

	if coreDevice.ID != "device123" {
		t.Errorf("ID = %q, want %q", coreDevice.ID, "device123")
	}
	if coreDevice.Name != "My Speaker" {
		t.Errorf("Name = %q, want %q", coreDevice.Name, "My Speaker")
	}
	if coreDevice.Type != core.DeviceTypeSpeaker {
		t.Errorf("Type = %q, want %q", coreDevice.Type, core.DeviceTypeSpeaker)
	}
	if !coreDevice.IsActive {
		t.Error("IsActive = false, want true")
	}
}

func TestConvertHistory(t *testing.T) {
	played := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	entries := ConvertHistory([]client.PlayHistory{
		{Track: client.Track{ID: "t1", Name: "One"}, PlayedAt: played},
	})
	if len(entries) != 1 || entries[0].Track.ID != "t1" || !entries[0].PlayedAt.Equal(played) {
		t.Errorf("ConvertHistory() = %+v", entries)
	}
}

func TestConvertNilTrack(t *testing.T) {
	result := ConvertTrack(nil)
	if result != nil {
		t.Error("Expected nil for nil input")
	}
}

func TestConvertNilDevice(t *testing.T) {
	result := ConvertDevice(nil)
	if result != nil {
		t.Error("Expected nil for nil input")
	}
}

func TestConvertCurrentlyPlaying(t *testing.T) {
	state := ConvertCurrentlyPlaying(&client.CurrentlyPlaying{
		IsPlaying:  true,
		ProgressMS: 30000,
		Item:       &client.Track{ID: "t1", Name: "One", DurationMS: 60000},
	})
	if !state.HasTrack() || state.Track.ID != "t1" {
		t.Fatalf("ConvertCurrentlyPlaying() track = %+v", state.Track)
	}
	if !state.IsPlaying || state.Progress != 30*time.Second {
		t.Errorf("ConvertCurrentlyPlaying() = %+v", state)
	}
	if got := state.Fraction(); got != 0.5 {
		t.Errorf("Fraction() = %v, want 0.5", got)
	}

	if empty := ConvertCurrentlyPlaying(nil); empty == nil || empty.HasTrack() {
		t.Errorf("ConvertCurrentlyPlaying(nil) = %+v, want empty state", empty)
	}
}
