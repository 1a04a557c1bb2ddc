package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/tempo/internal/browser"
	"github.com/tessro/tempo/internal/web"
)

var (
	serveAddr string
	serveOpen bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local web dashboard",
	Long: `Starts the local dashboard. It also receives the Spotify login redirect,
so its address should match the host and port of spotify.redirect_uri.

Press Ctrl+C to stop.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr)")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "Open the dashboard in a browser")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	srv := web.New(web.Options{
		Auth:          a.auth,
		API:           a.client,
		Playback:      a.bridge,
		RedirectDelay: time.Duration(cfg.Server.RedirectDelay) * time.Second,
		Logger:        logger,
	})

	fmt.Printf("Dashboard running at http://%s\n", addr)
	if serveOpen {
		go func() {
			if err := browser.Open("http://" + addr); err != nil {
				logger.Warn("could not open browser", "err", err)
			}
		}()
	}

	return srv.ListenAndServe(ctx, addr)
}
