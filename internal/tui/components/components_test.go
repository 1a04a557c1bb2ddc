package components

import (
	"strings"
	"testing"
	"time"

	"github.com/tessro/tempo/internal/core"
)

func TestFormatTimeAgo(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "now"},
		{5 * time.Minute, "5m"},
		{3 * time.Hour, "3h"},
	}
	for _, tt := range tests {
		if got := formatTimeAgo(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("formatTimeAgo(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}

	old := now.Add(-72 * time.Hour)
	if got := formatTimeAgo(old, now); got != old.Local().Format("Jan 2") {
		t.Errorf("formatTimeAgo(-72h) = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s    string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 6, "hello…"},
		{"héllo", 2, "h…"},
		{"hello", 1, "h"},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.s, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.max, got, tt.want)
		}
	}
}

func TestHistorySelection(t *testing.T) {
	h := NewHistory()

	h.SelectPrev()
	if h.Selected() != 0 {
		t.Fatalf("Selected() = %d after SelectPrev at top", h.Selected())
	}

	h.SelectNext(3)
	h.SelectNext(3)
	h.SelectNext(3)
	if h.Selected() != 2 {
		t.Errorf("Selected() = %d, want 2", h.Selected())
	}

	h.SelectPrev()
	if h.Selected() != 1 {
		t.Errorf("Selected() = %d, want 1", h.Selected())
	}
}

func TestHistoryRenderClampsSelection(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	h := &History{selected: 5, now: func() time.Time { return now }}

	entries := []core.HistoryEntry{
		{Track: &core.Track{Title: "First", Artist: "Band"}, PlayedAt: now.Add(-2 * time.Minute)},
		{Track: &core.Track{Title: "Second", Artist: "Band"}, PlayedAt: now.Add(-2 * time.Hour)},
	}

	out := h.Render(entries, 60, 10, true)
	if h.Selected() != 1 {
		t.Errorf("Selected() = %d after render, want 1", h.Selected())
	}
	for _, want := range []string{"Recently Played", "First", "Second", "2m", "2h"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q in:\n%s", want, out)
		}
	}
}

func TestNowPlayingRenderEmpty(t *testing.T) {
	out := NewNowPlaying().Render(&core.PlaybackState{}, nil, 40, 8, false)
	if !strings.Contains(out, "Nothing playing") {
		t.Errorf("Render() = %q", out)
	}
}
