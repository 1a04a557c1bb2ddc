package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/tempo/internal/core"
	"github.com/tessro/tempo/internal/tui/styles"
)

// History displays recently played tracks and lets one be selected.
type History struct {
	selected int
	now      func() time.Time
}

// NewHistory creates a new History component
func NewHistory() *History {
	return &History{now: time.Now}
}

// SelectNext selects the next entry
func (h *History) SelectNext(n int) {
	if h.selected < n-1 {
		h.selected++
	}
}

// SelectPrev selects the previous entry
func (h *History) SelectPrev() {
	if h.selected > 0 {
		h.selected--
	}
}

// Selected returns the selected entry index
func (h *History) Selected() int {
	return h.selected
}

// Render renders the history panel
func (h *History) Render(entries []core.HistoryEntry, width, height int, focused bool) string {
	title := styles.PanelTitle("Recently Played", focused)

	var content string
	if len(entries) == 0 {
		content = styles.Muted.Render("Nothing played recently")
	} else {
		content = h.renderHistory(entries, width-4, height-4, focused)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (h *History) renderHistory(entries []core.HistoryEntry, width, maxLines int, focused bool) string {
	if h.selected >= len(entries) {
		h.selected = len(entries) - 1
	}

	// Keep the selection on screen.
	start := 0
	if maxLines > 0 && h.selected >= maxLines {
		start = h.selected - maxLines + 1
	}

	lines := make([]string, 0, maxLines)
	for i := start; i < len(entries) && len(lines) < maxLines; i++ {
		track := entries[i].Track
		if track == nil {
			continue
		}

		selector := "  "
		if focused && i == h.selected {
			selector = "▸ "
		}

		timeAgo := formatTimeAgo(entries[i].PlayedAt, h.now())

		// selector (2) + " — " (3) + gap (1)
		available := width - 6 - len(timeAgo)
		artistSpace := min(max(available/3, 8), len([]rune(track.Artist)))
		titleSpace := max(available-artistSpace, 1)

		info := fmt.Sprintf("%s — %s", truncate(track.Title, titleSpace), truncate(track.Artist, artistSpace))
		if focused && i == h.selected {
			info = styles.Highlight.Render(info)
		}

		padding := max(width-2-lipgloss.Width(info)-len(timeAgo), 1)
		lines = append(lines, selector+info+lipgloss.NewStyle().Width(padding).Render("")+styles.Dim.Render(timeAgo))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatTimeAgo(t, now time.Time) string {
	d := now.Sub(t)

	if d < time.Minute {
		return "now"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return t.Local().Format("Jan 2")
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(r[:max(maxLen, 0)])
	}
	return string(r[:maxLen-1]) + "…"
}
