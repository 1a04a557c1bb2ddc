package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/tempo/internal/stats"
	"github.com/tessro/tempo/internal/tui/styles"
)

// Stats displays a listening report.
type Stats struct{}

// NewStats creates a new Stats component
func NewStats() *Stats {
	return &Stats{}
}

// Render renders the stats panel. loading is shown in place of the report
// while it is being collected.
func (s *Stats) Render(report *stats.Report, loading string, width, height int, focused bool) string {
	title := styles.PanelTitle("Stats", focused)

	var content string
	switch {
	case loading != "":
		content = styles.Muted.Render(loading)
	case report == nil || report.Plays == 0:
		content = styles.Muted.Render("Not enough listening yet")
	default:
		content = s.renderReport(report, width-4, height-4)
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

func (s *Stats) renderReport(r *stats.Report, width, maxLines int) string {
	barWidth := max(width/3, 5)
	labelWidth := max(width-barWidth-6, 6)
	row := func(label string, fraction float64, value string) string {
		l := lipgloss.NewStyle().Width(labelWidth).Render(truncate(label, labelWidth))
		return fmt.Sprintf("%s %s %s", l, styles.ProgressBar(fraction, barWidth), styles.Dim.Render(value))
	}

	lines := []string{
		fmt.Sprintf("%s plays, %s listened", styles.Title.Render(fmt.Sprint(r.Plays)), r.ListeningTime.Round(time.Minute)),
		styles.Muted.Render(fmt.Sprintf("about %s a day", r.DailyAverage.Round(time.Minute))),
		"",
	}

	if len(r.Genres) > 0 {
		lines = append(lines, styles.Label.Render("Genres"))
		for _, g := range r.Genres[:min(len(r.Genres), 5)] {
			lines = append(lines, row(g.Genre, g.Share, fmt.Sprintf("%3.0f%%", g.Share*100)))
		}
		lines = append(lines, "")
	}

	if p := r.Profile; p.Tracks > 0 {
		lines = append(lines,
			styles.Label.Render("Audio profile"),
			row("danceability", p.Danceability, fmt.Sprintf("%.2f", p.Danceability)),
			row("energy", p.Energy, fmt.Sprintf("%.2f", p.Energy)),
			row("valence", p.Valence, fmt.Sprintf("%.2f", p.Valence)),
			fmt.Sprintf("%s %s", lipgloss.NewStyle().Width(labelWidth).Render("tempo"), styles.Dim.Render(fmt.Sprintf("%.0f bpm", p.Tempo))),
		)
	}

	if len(lines) > maxLines && maxLines > 0 {
		lines = lines[:maxLines]
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
