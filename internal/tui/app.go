package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/tempo/internal/core"
	apperrors "github.com/tessro/tempo/internal/errors"
	"github.com/tessro/tempo/internal/spotify/client"
	"github.com/tessro/tempo/internal/spotify/player"
	"github.com/tessro/tempo/internal/stats"
	"github.com/tessro/tempo/internal/tui/components"
	"github.com/tessro/tempo/internal/tui/styles"
)

// Panel represents which panel is focused
type Panel int

const (
	PanelNowPlaying Panel = iota
	PanelHistory
	PanelTop
	PanelStats
	panelCount
)

const (
	requestTimeout = 10 * time.Second
	errorDuration  = 5 * time.Second
	historyLimit   = 30
	topLimit       = 15
)

var timeRanges = []client.TimeRange{client.ShortTerm, client.MediumTerm, client.LongTerm}

// Source is the part of the API client the dashboard reads from.
type Source interface {
	stats.Source
	GetCurrentlyPlaying(ctx context.Context) (*client.CurrentlyPlaying, error)
	GetTopArtists(ctx context.Context, opts client.TopOptions) (*client.Paging[client.Artist], error)
}

// Playback is the part of the playback bridge the dashboard drives.
type Playback interface {
	Init(ctx context.Context) error
	State() player.BridgeState
	Device() *core.Device
	PlayTrack(ctx context.Context, trackID string) error
	Pause(ctx context.Context) error
}

// Options configures the dashboard.
type Options struct {
	Source      Source
	Playback    Playback
	RefreshRate time.Duration
	Theme       string
}

// Model is the main TUI model
type Model struct {
	src         Source
	playback    Playback
	refreshRate time.Duration

	width        int
	height       int
	focusedPanel Panel

	// State
	nowPlaying *core.PlaybackState
	history    []core.HistoryEntry
	topArtists []client.Artist
	rangeIndex int
	report     *stats.Report
	loading    bool

	// Components
	nowPlayingView *components.NowPlaying
	historyView    *components.History
	topView        *components.Top
	statsView      *components.Stats
	spinner        spinner.Model

	showHelp bool

	lastError   error
	errorExpiry time.Time
	warning     string

	quitting bool
}

// NewModel creates a new TUI model
func NewModel(opts Options) Model {
	if opts.RefreshRate <= 0 {
		opts.RefreshRate = 5 * time.Second
	}
	styles.SetTheme(opts.Theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Highlight

	return Model{
		src:            opts.Source,
		playback:       opts.Playback,
		refreshRate:    opts.RefreshRate,
		focusedPanel:   PanelNowPlaying,
		rangeIndex:     1,
		loading:        true,
		nowPlayingView: components.NewNowPlaying(),
		historyView:    components.NewHistory(),
		topView:        components.NewTop(),
		statsView:      components.NewStats(),
		spinner:        sp,
	}
}

// Messages
type tickMsg time.Time
type nowPlayingMsg *core.PlaybackState
type historyMsg []core.HistoryEntry
type topMsg []client.Artist
type reportMsg struct {
	report  *stats.Report
	warning string
}
type errMsg struct{ err error }
type actionDoneMsg struct{}

// Commands
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchNowPlaying() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		current, err := m.src.GetCurrentlyPlaying(ctx)
		if err != nil {
			return errMsg{err}
		}
		return nowPlayingMsg(player.ConvertCurrentlyPlaying(current))
	}
}

func (m Model) fetchHistory() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		resp, err := m.src.GetRecentlyPlayed(ctx, client.RecentlyPlayedOptions{Limit: historyLimit})
		if err != nil {
			return errMsg{err}
		}
		return historyMsg(player.ConvertHistory(resp.Items))
	}
}

func (m Model) fetchTop() tea.Cmd {
	timeRange := timeRanges[m.rangeIndex]
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		page, err := m.src.GetTopArtists(ctx, client.TopOptions{TimeRange: timeRange, Limit: topLimit})
		if err != nil {
			return errMsg{err}
		}
		return topMsg(page.Items)
	}
}

func (m Model) fetchReport() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*requestTimeout)
		defer cancel()

		result, err := stats.Collect(ctx, m.src, 10)
		if err != nil {
			return errMsg{err}
		}
		msg := reportMsg{report: result.Data}
		if result.HasErrors() {
			msg.warning = result.ErrorSummary()
		}
		return msg
	}
}

// playSelected starts the selected history entry, bringing the bridge up
// first when needed.
func (m Model) playSelected() tea.Cmd {
	idx := m.historyView.Selected()
	if idx < 0 || idx >= len(m.history) || m.history[idx].Track == nil {
		return nil
	}
	id := m.history[idx].Track.ID

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if m.playback.State() != player.StateReady {
			if err := m.playback.Init(ctx); err != nil {
				return errMsg{err}
			}
		}
		if err := m.playback.PlayTrack(ctx, id); err != nil {
			return errMsg{err}
		}
		return actionDoneMsg{}
	}
}

func (m Model) pause() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if m.playback.State() != player.StateReady {
			if err := m.playback.Init(ctx); err != nil {
				return errMsg{err}
			}
		}
		if err := m.playback.Pause(ctx); err != nil {
			return errMsg{err}
		}
		return actionDoneMsg{}
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.tick(),
		m.spinner.Tick,
		m.fetchNowPlaying(),
		m.fetchHistory(),
		m.fetchTop(),
		m.fetchReport(),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.clearExpiredError()
		return m, tea.Batch(m.tick(), m.fetchNowPlaying())

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case nowPlayingMsg:
		prev := trackID(m.nowPlaying)
		m.nowPlaying = msg
		// A new track means the previous one just landed in the history.
		if prev != "" && trackID(m.nowPlaying) != prev {
			return m, m.fetchHistory()
		}
		return m, nil

	case historyMsg:
		m.history = msg
		return m, nil

	case topMsg:
		m.topArtists = msg
		return m, nil

	case reportMsg:
		m.loading = false
		m.report = msg.report
		m.warning = msg.warning
		return m, nil

	case errMsg:
		m.loading = false
		m.lastError = msg.err
		m.errorExpiry = time.Now().Add(errorDuration)
		if sessionLost(msg.err) {
			m.errorExpiry = time.Time{}
		}
		return m, nil

	case actionDoneMsg:
		return m, m.fetchNowPlaying()
	}

	return m, nil
}

func (m *Model) clearExpiredError() {
	if m.lastError != nil && !m.errorExpiry.IsZero() && time.Now().After(m.errorExpiry) {
		m.lastError = nil
	}
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	}

	if m.showHelp {
		switch msg.String() {
		case "?", "esc":
			m.showHelp = false
		}
		return m, nil
	}

	switch msg.String() {
	case "?":
		m.showHelp = true
		return m, nil

	case "tab":
		m.focusedPanel = (m.focusedPanel + 1) % panelCount
		return m, nil

	case "shift+tab":
		m.focusedPanel = (m.focusedPanel + panelCount - 1) % panelCount
		return m, nil

	case "r":
		m.lastError = nil
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetchNowPlaying(), m.fetchHistory(), m.fetchTop(), m.fetchReport())

	case " ":
		return m, m.pause()
	}

	switch m.focusedPanel {
	case PanelHistory:
		switch msg.String() {
		case "j", "down":
			m.historyView.SelectNext(len(m.history))
		case "k", "up":
			m.historyView.SelectPrev()
		case "enter":
			return m, m.playSelected()
		}
	case PanelTop:
		switch msg.String() {
		case "left", "h":
			m.rangeIndex = (m.rangeIndex + len(timeRanges) - 1) % len(timeRanges)
			return m, m.fetchTop()
		case "right", "l":
			m.rangeIndex = (m.rangeIndex + 1) % len(timeRanges)
			return m, m.fetchTop()
		}
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth
	topHeight := max((m.height-2)*2/5, 8)
	bottomHeight := max(m.height-2-topHeight, 8)

	loading := ""
	if m.loading {
		loading = m.spinner.View() + " building report..."
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		m.nowPlayingView.Render(m.nowPlaying, m.playback.Device(), leftWidth-2, topHeight-2, m.focusedPanel == PanelNowPlaying),
		m.statsView.Render(m.report, loading, rightWidth-2, topHeight-2, m.focusedPanel == PanelStats),
	)
	bottom := lipgloss.JoinHorizontal(lipgloss.Top,
		m.historyView.Render(m.history, leftWidth-2, bottomHeight-2, m.focusedPanel == PanelHistory),
		m.topView.Render(m.topArtists, timeRanges[m.rangeIndex], rightWidth-2, bottomHeight-2, m.focusedPanel == PanelTop),
	)

	return lipgloss.JoinVertical(lipgloss.Left, top, bottom, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	if m.lastError != nil {
		text := "✗ " + m.lastError.Error()
		if s := apperrors.GetSuggestion(m.lastError); s != "" {
			text += " · " + s
		}
		return styles.ErrorText.Render(text)
	}
	if m.warning != "" {
		return styles.Paused.Render("! " + m.warning)
	}
	return styles.Dim.Render("tab switch · enter play · space pause · r refresh · ? help · q quit")
}

func (m Model) renderHelp() string {
	keys := [][2]string{
		{"tab / shift+tab", "Switch panel"},
		{"j / k", "Move in recently played"},
		{"enter", "Play the selected track"},
		{"space", "Pause playback"},
		{"h / l", "Change the top artists range"},
		{"r", "Refresh everything"},
		{"?", "Toggle help"},
		{"q, ctrl+c", "Quit"},
	}

	lines := []string{styles.Title.Render("Keyboard shortcuts"), ""}
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("  %s  %s",
			styles.Highlight.Width(18).Render(k[0]), styles.Muted.Render(k[1])))
	}
	if m.playback.State() == player.StateUpgradeRequired {
		lines = append(lines, "", styles.Paused.Render("Playback needs extra permissions: run 'tempo auth upgrade'"))
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		styles.Panel(true).Padding(1, 3).Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

func trackID(s *core.PlaybackState) string {
	if !s.HasTrack() {
		return ""
	}
	return s.Track.ID
}

func sessionLost(err error) bool {
	return errors.Is(err, apperrors.ErrNoAccessToken) || errors.Is(err, apperrors.ErrAuthenticationExpired)
}

// Run starts the dashboard and blocks until the user quits.
func Run(opts Options) error {
	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
