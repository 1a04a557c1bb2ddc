package tail

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tessro/tempo/internal/core"
	apperrors "github.com/tessro/tempo/internal/errors"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func playing(id string, progress, duration time.Duration, isPlaying bool) *core.PlaybackState {
	return &core.PlaybackState{
		Track:     &core.Track{ID: id, Title: "Song " + id, Artist: "Band", Duration: duration},
		IsPlaying: isPlaying,
		Progress:  progress,
	}
}

func types(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func equalTypes(a, b []EventType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDiffStates(t *testing.T) {
	tests := []struct {
		name string
		prev *core.PlaybackState
		curr *core.PlaybackState
		want []EventType
	}{
		{"first poll playing", nil, playing("a", 0, time.Minute, true), []EventType{EventTrackChange}},
		{"first poll idle", nil, &core.PlaybackState{}, nil},
		{"first poll nil", nil, nil, nil},
		{"no change", playing("a", time.Second, time.Minute, true), playing("a", 5*time.Second, time.Minute, true), nil},
		{"completed", playing("a", 58*time.Second, time.Minute, true), playing("b", 0, time.Minute, true),
			[]EventType{EventTrackComplete, EventTrackChange}},
		{"skipped", playing("a", 10*time.Second, time.Minute, true), playing("b", 0, time.Minute, true),
			[]EventType{EventTrackSkip, EventTrackChange}},
		{"started", &core.PlaybackState{}, playing("a", 0, time.Minute, true), []EventType{EventTrackChange}},
		{"stopped", playing("a", 10*time.Second, time.Minute, true), &core.PlaybackState{},
			[]EventType{EventTrackSkip, EventStopped}},
		{"paused", playing("a", time.Second, time.Minute, true), playing("a", time.Second, time.Minute, false),
			[]EventType{EventPause}},
		{"resumed", playing("a", time.Second, time.Minute, false), playing("a", 2*time.Second, time.Minute, true),
			[]EventType{EventResume}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := types(diffStates(tt.prev, tt.curr, t0))
			if !equalTypes(got, tt.want) {
				t.Errorf("diffStates() = %v, want %v", got, tt.want)
			}
		})
	}
}

type scriptedPoller struct {
	mu     sync.Mutex
	states []*core.PlaybackState
	errs   []error
	calls  int
}

func (p *scriptedPoller) poll(context.Context) (*core.PlaybackState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := min(p.calls, len(p.states)-1)
	p.calls++
	return p.states[i], p.errs[i]
}

func TestWatcherEmitsAndSkipsTransientErrors(t *testing.T) {
	p := &scriptedPoller{
		states: []*core.PlaybackState{
			playing("a", 0, time.Minute, true),
			nil,
			playing("b", 0, time.Minute, true),
		},
		errs: []error{nil, errors.New("flaky"), nil},
	}
	w := NewWatcher(p.poll, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	var got []EventType
	for e := range w.Events() {
		got = append(got, e.Type)
		if len(got) == 3 {
			cancel()
		}
	}
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []EventType{EventTrackChange, EventTrackSkip, EventTrackChange}
	if !equalTypes(got[:3], want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestWatcherStopsWhenSessionLost(t *testing.T) {
	p := &scriptedPoller{
		states: []*core.PlaybackState{nil},
		errs:   []error{apperrors.ErrAuthenticationExpired},
	}
	w := NewWatcher(p.poll, time.Millisecond)

	err := w.Run(context.Background())
	if !errors.Is(err, apperrors.ErrAuthenticationExpired) {
		t.Fatalf("Run() error = %v, want ErrAuthenticationExpired", err)
	}
	if _, ok := <-w.Events(); ok {
		t.Error("Events() not closed after Run returned")
	}
}

func TestFormatter(t *testing.T) {
	prev := playing("a", 10*time.Second, time.Minute, true)
	curr := playing("b", 0, time.Minute, true)

	skip := Event{Type: EventTrackSkip, Timestamp: t0, Previous: prev, Current: curr}
	change := Event{Type: EventTrackChange, Timestamp: t0, Previous: prev, Current: curr}

	f := NewFormatter(WithEmoji(false))
	if got := f.Format(skip); got != "Skipped: Band - Song a" {
		t.Errorf("Format(skip) = %q", got)
	}
	if got := f.Format(change); got != "Now playing: Band - Song b" {
		t.Errorf("Format(change) = %q", got)
	}

	f = NewFormatter(WithTimestamp(true))
	if got := f.Format(change); !strings.HasPrefix(got, "12:00:00 🎵 ") {
		t.Errorf("Format() with timestamp = %q", got)
	}

	tmpl, err := ParseTemplate("{{.Type}}|{{.TrackID}}")
	if err != nil {
		t.Fatalf("ParseTemplate() error = %v", err)
	}
	f = NewFormatter(WithTemplate(tmpl))
	if got := f.Format(skip); got != "track_skip|a" {
		t.Errorf("Format() with template = %q", got)
	}

	if _, err := ParseTemplate("{{.Broken"); err == nil {
		t.Error("ParseTemplate() accepted a broken template")
	}
}
