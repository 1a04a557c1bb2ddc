package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/tessro/tempo/internal/errors"
	"github.com/tessro/tempo/internal/tui"
)

var tuiRefresh time.Duration

var tuiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"tui"},
	Short:   "Launch interactive dashboard",
	Long: `Launch the interactive terminal dashboard.

The dashboard shows:
  • Now Playing - the current track and its progress
  • Stats - listening time, genre mix and audio profile
  • Recently Played - your last tracks, playable with enter
  • Top Artists - over 4 weeks, 6 months or all time

Keyboard shortcuts:
  q, Ctrl+C    Quit
  ?            Help
  Tab          Switch panel
  Enter        Play selected track
  Space        Pause
  h/l          Change time range
  r            Refresh`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().DurationVar(&tuiRefresh, "refresh", 5*time.Second, "Now playing refresh interval")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if !a.auth.IsAuthenticated(ctx) {
			return apperrors.ErrNoAccessToken
		}

		return tui.Run(tui.Options{
			Source:      a.client,
			Playback:    a.bridge,
			RefreshRate: tuiRefresh,
			Theme:       cfg.TUI.Theme,
		})
	})
}
