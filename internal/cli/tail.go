package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/tempo/internal/core"
	"github.com/tessro/tempo/internal/spotify/player"
	"github.com/tessro/tempo/internal/tail"
)

var (
	tailNoEmoji   bool
	tailTimestamp bool
	tailFormat    string
	tailInterval  time.Duration
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow what you are listening to",
	Long: `Watch the currently playing track and print changes as they happen.

Events tracked:
  - Track changes (new song started)
  - Track completions (song finished)
  - Track skips (song skipped before completion)
  - Pause/Resume and stop

A custom --format is a Go template with the fields .Type, .Emoji, .Time,
.Title, .Artist, .Album and .TrackID.`,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().BoolVar(&tailNoEmoji, "no-emoji", false, "disable emoji output")
	tailCmd.Flags().BoolVarP(&tailTimestamp, "timestamp", "t", false, "show timestamps")
	tailCmd.Flags().StringVarP(&tailFormat, "format", "f", "", "custom format template")
	tailCmd.Flags().DurationVarP(&tailInterval, "interval", "i", 5*time.Second, "poll interval")

	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	opts := []tail.FormatterOption{
		tail.WithEmoji(!tailNoEmoji),
		tail.WithTimestamp(tailTimestamp),
	}
	if tailFormat != "" {
		tmpl, err := tail.ParseTemplate(tailFormat)
		if err != nil {
			return err
		}
		opts = append(opts, tail.WithTemplate(tmpl))
	}
	formatter := tail.NewFormatter(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	watcher := tail.NewWatcher(func(ctx context.Context) (*core.PlaybackState, error) {
		current, err := a.client.GetCurrentlyPlaying(ctx)
		if err != nil {
			logger.Debug("poll failed", "err", err)
			return nil, err
		}
		return player.ConvertCurrentlyPlaying(current), nil
	}, tailInterval)

	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	if !JSONOutput() {
		fmt.Fprintln(os.Stderr, "Following playback. Press Ctrl+C to stop.")
	}
	enc := json.NewEncoder(os.Stdout)
	for e := range watcher.Events() {
		if JSONOutput() {
			if err := enc.Encode(tail.Data(e)); err != nil {
				return err
			}
			continue
		}
		fmt.Println(formatter.Format(e))
	}
	return <-done
}
