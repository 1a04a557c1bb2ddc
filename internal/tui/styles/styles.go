package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/tempo/internal/core"
)

// Colors - a pleasant color palette
var (
	// Primary colors
	Primary   lipgloss.TerminalColor = lipgloss.Color("#7C3AED") // Purple
	Secondary lipgloss.TerminalColor = lipgloss.Color("#10B981") // Green
	Accent    lipgloss.TerminalColor = lipgloss.Color("#F59E0B") // Amber

	// Status colors
	Warning lipgloss.TerminalColor = lipgloss.Color("#F59E0B") // Amber
	Error   lipgloss.TerminalColor = lipgloss.Color("#EF4444") // Red

	// Neutral colors, adjusted by SetTheme
	Border    lipgloss.TerminalColor = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"}
	Text      lipgloss.TerminalColor = lipgloss.AdaptiveColor{Light: "#111827", Dark: "#F9FAFB"}
	TextMuted lipgloss.TerminalColor = lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#9CA3AF"}
	TextDim   lipgloss.TerminalColor = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}

	// Spotify green
	SpotifyGreen lipgloss.TerminalColor = lipgloss.Color("#1DB954")
)

// Text styles
var (
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Label     lipgloss.Style
	Highlight lipgloss.Style
	Muted     lipgloss.Style
	Dim       lipgloss.Style
	Playing   lipgloss.Style
	Paused    lipgloss.Style
	ErrorText lipgloss.Style
)

// Border styles
var (
	BorderStyle   lipgloss.Style
	FocusedBorder lipgloss.Style
)

func init() {
	build()
}

// SetTheme pins the neutral colors to a light or dark palette. "auto" keeps
// the colors adaptive to the terminal background.
func SetTheme(theme string) {
	switch theme {
	case "dark":
		Border = lipgloss.Color("#4B5563")
		Text = lipgloss.Color("#F9FAFB")
		TextMuted = lipgloss.Color("#9CA3AF")
	case "light":
		Border = lipgloss.Color("#D1D5DB")
		Text = lipgloss.Color("#111827")
		TextMuted = lipgloss.Color("#4B5563")
	default:
		return
	}
	build()
}

func build() {
	Title = lipgloss.NewStyle().Bold(true).Foreground(Text)
	Subtitle = lipgloss.NewStyle().Foreground(TextMuted)
	Label = lipgloss.NewStyle().Foreground(TextDim)
	Highlight = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	Muted = lipgloss.NewStyle().Foreground(TextMuted)
	Dim = lipgloss.NewStyle().Foreground(TextDim)
	Playing = lipgloss.NewStyle().Foreground(SpotifyGreen)
	Paused = lipgloss.NewStyle().Foreground(Warning)
	ErrorText = lipgloss.NewStyle().Foreground(Error)

	BorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border)
	FocusedBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Primary)
}

// Panel creates a styled panel with optional focus
func Panel(focused bool) lipgloss.Style {
	if focused {
		return FocusedBorder.Padding(0, 1)
	}
	return BorderStyle.Padding(0, 1)
}

// PanelTitle creates a styled panel title
func PanelTitle(title string, focused bool) string {
	style := Label
	if focused {
		style = Highlight
	}
	return style.Render(" " + title + " ")
}

// ProgressBar renders a fraction between 0 and 1 as a bar.
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	filledStyle := lipgloss.NewStyle().Foreground(Primary)
	emptyStyle := lipgloss.NewStyle().Foreground(Border)

	return filledStyle.Render(strings.Repeat("━", filled)) +
		emptyStyle.Render(strings.Repeat("─", width-filled))
}

// StatusIcon returns an icon for playback status
func StatusIcon(playing bool) string {
	if playing {
		return Playing.Render("▶")
	}
	return Paused.Render("⏸")
}

// DeviceIcon returns an icon for device type
func DeviceIcon(t core.DeviceType) string {
	switch t {
	case core.DeviceTypeComputer:
		return "💻"
	case core.DeviceTypePhone:
		return "📱"
	case core.DeviceTypeSpeaker:
		return "🔊"
	case core.DeviceTypeTV:
		return "📺"
	default:
		return "🎧"
	}
}
