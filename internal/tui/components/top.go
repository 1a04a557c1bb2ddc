package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/tempo/internal/spotify/client"
	"github.com/tessro/tempo/internal/tui/styles"
)

var rangeLabels = map[client.TimeRange]string{
	client.ShortTerm:  "4 weeks",
	client.MediumTerm: "6 months",
	client.LongTerm:   "all time",
}

// Top displays the user's top artists for a time range.
type Top struct{}

// NewTop creates a new Top component
func NewTop() *Top {
	return &Top{}
}

// Render renders the top artists panel
func (t *Top) Render(artists []client.Artist, timeRange client.TimeRange, width, height int, focused bool) string {
	title := styles.PanelTitle("Top Artists · "+rangeLabels[timeRange], focused)

	var content string
	if len(artists) == 0 {
		content = styles.Muted.Render("No top artists yet")
	} else {
		content = t.renderArtists(artists, width-4, height-4)
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

func (t *Top) renderArtists(artists []client.Artist, width, maxLines int) string {
	lines := make([]string, 0, maxLines)
	for i, a := range artists {
		if len(lines) >= maxLines {
			break
		}
		rank := styles.Dim.Render(fmt.Sprintf("%2d", i+1))
		name := truncate(a.Name, max(width/2, 8))
		genres := ""
		if len(a.Genres) > 0 {
			genres = styles.Muted.Render(" " + truncate(strings.Join(a.Genres, ", "), max(width-lipgloss.Width(name)-5, 1)))
		}
		lines = append(lines, fmt.Sprintf("%s %s%s", rank, styles.Title.Render(name), genres))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
