package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/tempo/internal/spotify/client"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"now"},
	Short:   "Show what is playing right now",
	Long:    `Shows the track currently playing on your Spotify account, if any.`,
	RunE:    runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		current, err := a.client.GetCurrentlyPlaying(ctx)
		if err != nil {
			return err
		}

		if JSONOutput() {
			if current == nil {
				return printJSON(map[string]any{"playing": false, "message": "No active playback"})
			}
			return printJSON(current)
		}
		renderNowPlaying(os.Stdout, current)
		return nil
	})
}

func renderNowPlaying(w io.Writer, current *client.CurrentlyPlaying) {
	if current == nil || current.Item == nil {
		fmt.Fprintln(w, "No active playback")
		return
	}

	t := current.Item
	icon := "⏸"
	if current.IsPlaying {
		icon = "▶"
	}
	progress := time.Duration(current.ProgressMS) * time.Millisecond

	fmt.Fprintf(w, "%s %s\n", icon, t.Name)
	fmt.Fprintf(w, "  %s", strings.Join(t.ArtistNames(), ", "))
	if t.Album.Name != "" {
		fmt.Fprintf(w, " · %s", t.Album.Name)
	}
	fmt.Fprintln(w)

	var fraction float64
	if t.DurationMS > 0 {
		fraction = float64(current.ProgressMS) / float64(t.DurationMS)
	}
	fmt.Fprintf(w, "  %s %s %s\n", FormatDuration(progress), FormatBar(fraction, 30), FormatDuration(t.Duration()))
}
