package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tessro/tempo/internal/core"
	apperrors "github.com/tessro/tempo/internal/errors"
	"github.com/tessro/tempo/internal/spotify/auth"
	"github.com/tessro/tempo/internal/spotify/player"
)

var devicesPick bool

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available playback devices",
	Long: `Lists the Spotify Connect devices on your account. With --pick, shows a
picker and moves playback to the chosen device.

Needs the playback permissions granted by 'tempo auth upgrade'.`,
	RunE: runDevices,
}

func init() {
	devicesCmd.Flags().BoolVarP(&devicesPick, "pick", "p", false, "Pick a device to move playback to")
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if !a.auth.IsAuthenticated(ctx) {
			return apperrors.ErrNoAccessToken
		}
		if a.auth.NeedsUpgrade(ctx, auth.PlaybackScopes...) {
			return apperrors.ErrScopeInsufficient
		}

		p := player.New(a.client)
		devices, err := p.GetDevices(ctx)
		if err != nil {
			return err
		}

		if !devicesPick {
			if JSONOutput() {
				return printJSON(devices)
			}
			renderDevices(os.Stdout, devices)
			return nil
		}

		if len(devices) == 0 {
			return player.ErrNoDevice
		}
		selected, err := pickDevice(devices)
		if err != nil {
			return err
		}
		if err := p.TransferPlayback(ctx, selected.ID, true); err != nil {
			return err
		}

		if JSONOutput() {
			return printJSON(map[string]any{"status": "transferred", "device": selected})
		}
		fmt.Printf("Playback moved to %s\n", selected.Name)
		return nil
	})
}

func renderDevices(w io.Writer, devices []core.Device) {
	if len(devices) == 0 {
		fmt.Fprintln(w, "No devices found. Open Spotify on a phone, computer or speaker.")
		return
	}

	table := NewTableWriter(w, "", "NAME", "TYPE", "ID")
	for _, d := range devices {
		name := d.Name
		if d.IsRestricted {
			name += " (restricted)"
		}
		table.Row(StatusIcon(d.IsActive), name, string(d.Type), d.ID)
	}
	table.Flush()
}

func pickDevice(devices []core.Device) (*core.Device, error) {
	options := make([]huh.Option[int], 0, len(devices))
	for i, d := range devices {
		if d.IsRestricted {
			continue
		}
		label := fmt.Sprintf("%s (%s)", d.Name, d.Type)
		if d.IsActive {
			label += " [active]"
		}
		options = append(options, huh.NewOption(label, i))
	}
	if len(options) == 0 {
		return nil, player.ErrNoDevice
	}

	var idx int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Move playback to").
				Options(options...).
				Value(&idx),
		),
	)
	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}
	return &devices[idx], nil
}
