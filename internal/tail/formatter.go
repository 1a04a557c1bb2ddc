package tail

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Formatter formats events for output.
type Formatter struct {
	showEmoji     bool
	showTimestamp bool
	template      *template.Template
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithEmoji enables emoji output.
func WithEmoji(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showEmoji = enabled
	}
}

// WithTimestamp enables timestamp output.
func WithTimestamp(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showTimestamp = enabled
	}
}

// WithTemplate sets a custom text/template format. Fields: Type, Emoji,
// Time, Timestamp, Title, Artist, Album, TrackID.
func WithTemplate(t *template.Template) FormatterOption {
	return func(f *Formatter) {
		f.template = t
	}
}

// ParseTemplate parses a format string for WithTemplate.
func ParseTemplate(s string) (*template.Template, error) {
	t, err := template.New("format").Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid format template: %w", err)
	}
	return t, nil
}

// NewFormatter creates a new formatter with the given options.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{showEmoji: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format formats an event as a string.
func (f *Formatter) Format(e Event) string {
	if f.template != nil {
		var buf bytes.Buffer
		if err := f.template.Execute(&buf, Data(e)); err == nil {
			return buf.String()
		}
	}

	var parts []string
	if f.showTimestamp {
		parts = append(parts, e.Timestamp.Format("15:04:05"))
	}
	if f.showEmoji {
		parts = append(parts, eventEmoji(e.Type))
	}
	parts = append(parts, describe(e))
	return strings.Join(parts, " ")
}

// EventData is the flattened form of an event used by templates and JSON
// output.
type EventData struct {
	Type      string    `json:"type"`
	Emoji     string    `json:"-"`
	Timestamp time.Time `json:"timestamp"`
	Time      string    `json:"-"`
	Title     string    `json:"title,omitempty"`
	Artist    string    `json:"artist,omitempty"`
	Album     string    `json:"album,omitempty"`
	TrackID   string    `json:"track_id,omitempty"`
}

// Data flattens an event. Finish, skip and stop events describe the track
// that just ended.
func Data(e Event) EventData {
	data := EventData{
		Type:      eventTypeName(e.Type),
		Emoji:     eventEmoji(e.Type),
		Timestamp: e.Timestamp,
		Time:      e.Timestamp.Format("15:04:05"),
	}

	state := e.Current
	if e.Type == EventTrackComplete || e.Type == EventTrackSkip || e.Type == EventStopped {
		state = e.Previous
	}
	if state.HasTrack() {
		data.Title = state.Track.Title
		data.Artist = state.Track.Artist
		data.Album = state.Track.Album
		data.TrackID = state.Track.ID
	}
	return data
}

func describe(e Event) string {
	d := Data(e)
	song := fmt.Sprintf("%s - %s", d.Artist, d.Title)

	switch e.Type {
	case EventTrackChange:
		return "Now playing: " + song
	case EventTrackComplete:
		return "Finished: " + song
	case EventTrackSkip:
		return "Skipped: " + song
	case EventPause:
		return "Paused"
	case EventResume:
		return "Resumed"
	case EventStopped:
		return "Stopped"
	default:
		return "Unknown event"
	}
}

var eventLabels = map[EventType]struct{ name, emoji string }{
	EventTrackChange:   {"track_change", "🎵"},
	EventTrackComplete: {"track_complete", "✅"},
	EventTrackSkip:     {"track_skip", "⏭️"},
	EventPause:         {"pause", "⏸️"},
	EventResume:        {"resume", "▶️"},
	EventStopped:       {"stopped", "⏹️"},
}

func eventTypeName(t EventType) string {
	if l, ok := eventLabels[t]; ok {
		return l.name
	}
	return "unknown"
}

func eventEmoji(t EventType) string {
	if l, ok := eventLabels[t]; ok {
		return l.emoji
	}
	return "❓"
}
