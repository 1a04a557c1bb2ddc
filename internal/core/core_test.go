package core

import (
	"testing"
	"time"
)

func TestPickDevice(t *testing.T) {
	tests := []struct {
		name    string
		devices []Device
		want    string
	}{
		{"none", nil, ""},
		{"active wins", []Device{{ID: "a"}, {ID: "b", IsActive: true}}, "b"},
		{"first unrestricted", []Device{{ID: "a", IsRestricted: true}, {ID: "b"}, {ID: "c"}}, "b"},
		{"restricted active skipped", []Device{{ID: "a", IsActive: true, IsRestricted: true}, {ID: "b"}}, "b"},
		{"all restricted", []Device{{ID: "a", IsRestricted: true}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PickDevice(tt.devices)
			if tt.want == "" {
				if got != nil {
					t.Errorf("PickDevice() = %q, want nil", got.ID)
				}
				return
			}
			if got == nil || got.ID != tt.want {
				t.Errorf("PickDevice() = %v, want %q", got, tt.want)
			}
		})
	}
}

func TestFraction(t *testing.T) {
	var nilState *PlaybackState
	if nilState.Fraction() != 0 || nilState.HasTrack() {
		t.Error("nil state should report no progress")
	}

	track := &Track{Duration: 200 * time.Second}
	tests := []struct {
		progress time.Duration
		want     float64
	}{
		{50 * time.Second, 0.25},
		{-time.Second, 0},
		{250 * time.Second, 1},
	}
	for _, tt := range tests {
		s := &PlaybackState{Track: track, Progress: tt.progress}
		if got := s.Fraction(); got != tt.want {
			t.Errorf("Fraction() at %v = %v, want %v", tt.progress, got, tt.want)
		}
	}

	if got := (&PlaybackState{Track: &Track{}, Progress: time.Second}).Fraction(); got != 0 {
		t.Errorf("Fraction() without duration = %v, want 0", got)
	}
}
