package cli

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play <track-id>",
	Short: "Play a track on your active device",
	Long: `Plays a track on the active Spotify device, or the first one available.

Playback needs extra permissions. If they have not been granted yet, run
'tempo auth upgrade' first.

Examples:
  tempo play 11dFghVXANMlKmJXsNCbNl
  tempo play spotify:track:11dFghVXANMlKmJXsNCbNl`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause playback",
	RunE:  runPause,
}

func init() {
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(pauseCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	trackID := trimTrackURI(args[0])

	return withApp(func(ctx context.Context, a *app) error {
		if err := a.bridge.Init(ctx); err != nil {
			return err
		}
		if err := a.bridge.PlayTrack(ctx, trackID); err != nil {
			return err
		}

		device := a.bridge.Device()
		if JSONOutput() {
			return printJSON(map[string]any{"status": "playing", "track_id": trackID, "device": device})
		}
		fmt.Printf("Playing on %s\n", device.Name)
		return nil
	})
}

func runPause(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.bridge.Init(ctx); err != nil {
			return err
		}
		if err := a.bridge.Pause(ctx); err != nil {
			return err
		}

		if JSONOutput() {
			return printJSON(map[string]string{"status": "paused"})
		}
		fmt.Println("Paused.")
		return nil
	})
}

// trimTrackURI accepts a bare id, a spotify:track: URI or an
// open.spotify.com track link.
func trimTrackURI(s string) string {
	if id, ok := strings.CutPrefix(s, "spotify:track:"); ok {
		return id
	}
	if u, err := url.Parse(s); err == nil && u.Host == "open.spotify.com" {
		if id, ok := strings.CutPrefix(u.Path, "/track/"); ok && id != "" {
			return id
		}
	}
	return s
}
