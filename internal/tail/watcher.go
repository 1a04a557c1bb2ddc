// Package tail follows what the user is listening to and reports changes.
package tail

import (
	"context"
	"errors"
	"time"

	"github.com/tessro/tempo/internal/core"
	apperrors "github.com/tessro/tempo/internal/errors"
)

// EventType represents the type of listening event.
type EventType int

const (
	EventTrackChange EventType = iota
	EventTrackComplete
	EventTrackSkip
	EventPause
	EventResume
	EventStopped
)

// Event represents a change in what is playing.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Previous  *core.PlaybackState
	Current   *core.PlaybackState
}

// PollFunc returns what is playing now. A state without a track means
// nothing is playing.
type PollFunc func(ctx context.Context) (*core.PlaybackState, error)

// Watcher polls for the current track and emits events when it changes.
type Watcher struct {
	poll     PollFunc
	interval time.Duration
	events   chan Event
	now      func() time.Time
}

// NewWatcher creates a new watcher. The interval defaults to five seconds.
func NewWatcher(poll PollFunc, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Watcher{
		poll:     poll,
		interval: interval,
		events:   make(chan Event, 16),
		now:      time.Now,
	}
}

// Events returns the channel of listening events. It is closed when Run
// returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run polls until ctx is done. Transient poll failures are skipped; a lost
// session ends the watch with its error, since every later poll would fail
// the same way.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.events)

	var prev *core.PlaybackState
	for {
		curr, err := w.poll(ctx)
		switch {
		case sessionLost(err):
			return err
		case err == nil:
			for _, e := range diffStates(prev, curr, w.now()) {
				select {
				case w.events <- e:
				case <-ctx.Done():
					return nil
				}
			}
			prev = curr
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func sessionLost(err error) bool {
	return errors.Is(err, apperrors.ErrNoAccessToken) || errors.Is(err, apperrors.ErrAuthenticationExpired)
}

// diffStates compares two polls and returns the events between them.
func diffStates(prev, curr *core.PlaybackState, now time.Time) []Event {
	if curr == nil {
		curr = &core.PlaybackState{}
	}

	// First poll: only report something that is playing.
	if prev == nil {
		if curr.HasTrack() {
			return []Event{{Type: EventTrackChange, Timestamp: now, Current: curr}}
		}
		return nil
	}

	var events []Event
	if trackChanged(prev, curr) {
		if prev.HasTrack() {
			t := EventTrackSkip
			if wasCompleted(prev) {
				t = EventTrackComplete
			}
			events = append(events, Event{Type: t, Timestamp: now, Previous: prev, Current: curr})
		}
		if curr.HasTrack() {
			events = append(events, Event{Type: EventTrackChange, Timestamp: now, Previous: prev, Current: curr})
		} else {
			events = append(events, Event{Type: EventStopped, Timestamp: now, Previous: prev, Current: curr})
		}
		return events
	}

	if !curr.HasTrack() {
		return nil
	}
	if prev.IsPlaying && !curr.IsPlaying {
		events = append(events, Event{Type: EventPause, Timestamp: now, Previous: prev, Current: curr})
	} else if !prev.IsPlaying && curr.IsPlaying {
		events = append(events, Event{Type: EventResume, Timestamp: now, Previous: prev, Current: curr})
	}
	return events
}

func trackChanged(prev, curr *core.PlaybackState) bool {
	if !prev.HasTrack() && !curr.HasTrack() {
		return false
	}
	if !prev.HasTrack() || !curr.HasTrack() {
		return true
	}
	return prev.Track.ID != curr.Track.ID
}

// wasCompleted reports whether the last poll saw the track within its final
// five percent.
func wasCompleted(state *core.PlaybackState) bool {
	return state.Fraction() >= 0.95
}
