package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/tempo/internal/core"
	"github.com/tessro/tempo/internal/spotify/client"
	"github.com/tessro/tempo/internal/spotify/player"
	"github.com/tessro/tempo/internal/stats"
)

var (
	recentLimit int
	topRange    string
	topLimit    int
	statsTop    int
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show recently played tracks",
	Long:  `Lists the tracks you played most recently, newest first (at most 50).`,
	RunE:  runRecent,
}

var topCmd = &cobra.Command{
	Use:   "top <artists|tracks>",
	Short: "Show your top artists or tracks",
	Long: `Shows your most listened artists or tracks over a time range.

Ranges:
  short   about the last 4 weeks
  medium  about the last 6 months (default)
  long    several years`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"artists", "tracks"},
	RunE:      runTop,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise your recent listening",
	Long: `Builds a report from your recently played tracks: listening time, daily
average, top artists, genre mix and audio profile.`,
	RunE: runStats,
}

var trackCmd = &cobra.Command{
	Use:   "track <id>",
	Short: "Show a track and its audio features",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrack,
}

func init() {
	recentCmd.Flags().IntVarP(&recentLimit, "limit", "n", client.MaxRecentlyPlayed, "Number of tracks (1-50)")
	topCmd.Flags().StringVarP(&topRange, "range", "r", "medium", "Time range: short, medium or long")
	topCmd.Flags().IntVarP(&topLimit, "limit", "n", 10, "Number of items (1-50)")
	statsCmd.Flags().IntVar(&statsTop, "top", 10, "Number of artists and genres to list")

	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(topCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(trackCmd)
}

func runRecent(cmd *cobra.Command, args []string) error {
	if recentLimit < 1 || recentLimit > client.MaxRecentlyPlayed {
		return fmt.Errorf("--limit must be between 1 and %d", client.MaxRecentlyPlayed)
	}

	return withApp(func(ctx context.Context, a *app) error {
		resp, err := a.client.GetRecentlyPlayed(ctx, client.RecentlyPlayedOptions{Limit: recentLimit})
		if err != nil {
			return err
		}
		history := player.ConvertHistory(resp.Items)

		if JSONOutput() {
			return printJSON(history)
		}
		renderRecent(os.Stdout, history)
		return nil
	})
}

func renderRecent(w io.Writer, history []core.HistoryEntry) {
	if len(history) == 0 {
		fmt.Fprintln(w, "Nothing played recently.")
		return
	}

	table := NewTableWriter(w, "PLAYED", "TITLE", "ARTIST", "LENGTH")
	for _, h := range history {
		if h.Track == nil {
			continue
		}
		table.Row(
			humanize.Time(h.PlayedAt),
			TruncateString(h.Track.Title, 40),
			TruncateString(strings.Join(h.Track.Artists, ", "), 30),
			FormatDuration(h.Track.Duration),
		)
	}
	table.Flush()
}

func runTop(cmd *cobra.Command, args []string) error {
	kind := args[0]
	if kind != "artists" && kind != "tracks" {
		return fmt.Errorf("unknown kind %q: use artists or tracks", kind)
	}
	timeRange, err := client.ParseTimeRange(topRange)
	if err != nil {
		return err
	}

	return withApp(func(ctx context.Context, a *app) error {
		opts := client.TopOptions{TimeRange: timeRange, Limit: topLimit}

		if kind == "artists" {
			page, err := a.client.GetTopArtists(ctx, opts)
			if err != nil {
				return err
			}
			if JSONOutput() {
				return printJSON(page.Items)
			}
			renderTopArtists(os.Stdout, page.Items)
			return nil
		}

		page, err := a.client.GetTopTracks(ctx, opts)
		if err != nil {
			return err
		}
		if JSONOutput() {
			return printJSON(page.Items)
		}
		renderTopTracks(os.Stdout, page.Items)
		return nil
	})
}

func renderTopArtists(w io.Writer, artists []client.Artist) {
	table := NewTableWriter(w, "#", "ARTIST", "GENRES", "FOLLOWERS")
	for i, a := range artists {
		table.Row(
			strconv.Itoa(i+1),
			TruncateString(a.Name, 30),
			TruncateString(strings.Join(a.Genres, ", "), 40),
			humanize.Comma(int64(a.Followers.Total)),
		)
	}
	table.Flush()
}

func renderTopTracks(w io.Writer, tracks []client.Track) {
	table := NewTableWriter(w, "#", "TITLE", "ARTIST", "ALBUM", "LENGTH")
	for i, t := range tracks {
		table.Row(
			strconv.Itoa(i+1),
			TruncateString(t.Name, 35),
			TruncateString(strings.Join(t.ArtistNames(), ", "), 25),
			TruncateString(t.Album.Name, 25),
			FormatDuration(t.Duration()),
		)
	}
	table.Flush()
}

func runStats(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		result, err := stats.Collect(ctx, a.client, statsTop)
		if err != nil {
			return err
		}

		if JSONOutput() {
			warnings := make([]string, 0, len(result.Errors))
			for _, e := range result.Errors {
				warnings = append(warnings, e.Error())
			}
			return printJSON(map[string]any{"report": result.Data, "warnings": warnings})
		}

		renderReport(os.Stdout, result.Data)
		if result.HasErrors() {
			fmt.Fprintf(os.Stderr, "\nWarning: %s\n", strings.TrimSpace(result.ErrorSummary()))
		}
		return nil
	})
}

func renderReport(w io.Writer, r *stats.Report) {
	if r.Plays == 0 {
		fmt.Fprintln(w, "Nothing played recently.")
		return
	}

	fmt.Fprintf(w, "%d plays between %s and %s\n", r.Plays,
		r.From.Local().Format("Jan 2 15:04"), r.To.Local().Format("Jan 2 15:04"))
	fmt.Fprintf(w, "Listening time: %s (about %s a day)\n\n",
		r.ListeningTime.Round(time.Minute), r.DailyAverage.Round(time.Minute))

	fmt.Fprintln(w, "Top artists")
	table := NewTableWriter(w)
	for _, a := range r.TopArtists {
		table.Row("  "+TruncateString(a.Name, 30), FormatBar(a.Share, 20), fmt.Sprintf("%d plays", a.Plays))
	}
	table.Flush()

	if len(r.Genres) > 0 {
		fmt.Fprintln(w, "\nGenres")
		table = NewTableWriter(w)
		for _, g := range r.Genres {
			table.Row("  "+TruncateString(g.Genre, 30), FormatBar(g.Share, 20), fmt.Sprintf("%.0f%%", g.Share*100))
		}
		table.Flush()
	}

	if p := r.Profile; p.Tracks > 0 {
		fmt.Fprintf(w, "\nAudio profile (%d tracks)\n", p.Tracks)
		table = NewTableWriter(w)
		table.Row("  danceability", FormatBar(p.Danceability, 20), fmt.Sprintf("%.2f", p.Danceability))
		table.Row("  energy", FormatBar(p.Energy, 20), fmt.Sprintf("%.2f", p.Energy))
		table.Row("  valence", FormatBar(p.Valence, 20), fmt.Sprintf("%.2f", p.Valence))
		table.Row("  tempo", "", fmt.Sprintf("%.0f bpm", p.Tempo))
		table.Flush()
	}
}

func runTrack(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		track, err := a.client.GetTrack(ctx, args[0])
		if err != nil {
			return err
		}
		features, err := a.client.GetTrackAudioFeatures(ctx, track.ID)
		if err != nil {
			logger.Debug("audio features unavailable", "track", track.ID, "err", err)
			features = nil
		}

		if JSONOutput() {
			return printJSON(map[string]any{"track": track, "audio_features": features})
		}
		renderTrack(os.Stdout, track, features)
		return nil
	})
}

func renderTrack(w io.Writer, t *client.Track, f *client.AudioFeatures) {
	fmt.Fprintf(w, "%s\n", t.Name)
	fmt.Fprintf(w, "  by %s\n", strings.Join(t.ArtistNames(), ", "))
	if t.Album.Name != "" {
		fmt.Fprintf(w, "  on %s\n", t.Album.Name)
	}
	fmt.Fprintf(w, "  %s, popularity %d\n", FormatDuration(t.Duration()), t.Popularity)
	if f == nil {
		return
	}

	fmt.Fprintln(w)
	table := NewTableWriter(w)
	table.Row("  tempo", fmt.Sprintf("%.0f bpm", f.Tempo))
	table.Row("  danceability", fmt.Sprintf("%.2f", f.Danceability))
	table.Row("  energy", fmt.Sprintf("%.2f", f.Energy))
	table.Row("  valence", fmt.Sprintf("%.2f", f.Valence))
	table.Row("  acousticness", fmt.Sprintf("%.2f", f.Acousticness))
	table.Flush()
}
