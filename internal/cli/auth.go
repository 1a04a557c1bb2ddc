package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/tempo/internal/browser"
	"github.com/tessro/tempo/internal/spotify/auth"
)

// loginTimeout bounds how long the CLI waits for the browser redirect.
const loginTimeout = 5 * time.Minute

var authUpgradeYes bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Spotify authentication",
	Long:  `Commands for managing the Spotify login session.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with Spotify",
	Long:  `Opens a browser to log in with Spotify using the OAuth PKCE flow.`,
	RunE:  runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored Spotify session",
	Long:  `Removes the stored tokens and any pending login attempt.`,
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long:  `Shows the current session state, expiry and granted scopes.`,
	RunE:  runAuthStatus,
}

var authUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Grant the permissions playback needs",
	Long: `Logs in again asking Spotify for the playback scopes on top of the
ones already granted. The current session is discarded first.`,
	RunE: runAuthUpgrade,
}

func init() {
	authUpgradeCmd.Flags().BoolVarP(&authUpgradeYes, "yes", "y", false, "Skip the confirmation prompt")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authUpgradeCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		return browserLogin(ctx, a, a.auth.Initiate)
	})
}

// browserLogin starts a callback server, sends the user to the URL returned
// by start and waits for the redirect to complete the handshake.
func browserLogin(ctx context.Context, a *app, start func(context.Context) (string, error)) error {
	port, err := redirectPort(cfg.Spotify.RedirectURI)
	if err != nil {
		return err
	}

	callbackServer, err := auth.NewCallbackServer(port, a.auth, logger)
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}
	callbackServer.Start()
	defer func() { _ = callbackServer.Shutdown(context.Background()) }()

	authURL, err := start(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Opening browser for Spotify login...")
	copied, err := browser.OpenOrCopy(authURL)
	if err != nil {
		fmt.Println("Could not open browser automatically.")
		if copied {
			fmt.Println("The login URL has been copied to your clipboard.")
		}
		fmt.Printf("Please open this URL in your browser:\n\n%s\n\n", authURL)
	}

	fmt.Println("Waiting for authentication...")
	waitCtx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	if err := callbackServer.Wait(waitCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("authentication timed out after %s", loginTimeout)
		}
		return err
	}

	user, err := a.client.GetCurrentUser(ctx)
	if err != nil {
		logger.Debug("could not fetch profile after login", "err", err)
		fmt.Println("Authentication successful! Session stored.")
		return nil
	}

	if JSONOutput() {
		return printJSON(map[string]any{
			"status":       "authenticated",
			"user_id":      user.ID,
			"display_name": user.DisplayName,
			"email":        user.Email,
			"product":      user.Product,
		})
	}
	fmt.Printf("Successfully authenticated as %s (%s)\n", user.DisplayName, user.Email)
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		st, err := a.auth.Status(ctx)
		if err != nil {
			return err
		}
		if st.State == auth.StateUnauthenticated {
			if JSONOutput() {
				return printJSON(map[string]string{"status": "not_authenticated"})
			}
			fmt.Println("Not logged in to Spotify.")
			return nil
		}

		if err := a.auth.Logout(ctx); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}

		if JSONOutput() {
			return printJSON(map[string]string{"status": "logged_out"})
		}
		fmt.Println("Logged out of Spotify.")
		return nil
	})
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		st, err := a.auth.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to read session: %w", err)
		}
		missing := st.MissingScopes(auth.PlaybackScopes...)

		if JSONOutput() {
			out := map[string]any{
				"state":             st.State.String(),
				"authenticated":     st.State == auth.StateAuthenticated,
				"scopes":            st.Scopes,
				"has_refresh_token": st.HasRefreshToken,
				"playback_ready":    len(missing) == 0,
			}
			if !st.ExpiresAt.IsZero() {
				out["expires_at"] = st.ExpiresAt
			}
			return printJSON(out)
		}

		switch st.State {
		case auth.StateUnauthenticated:
			fmt.Println("Not logged in to Spotify.")
			fmt.Println("Run 'tempo auth login' to log in.")
			return nil
		case auth.StateAuthorizationPending:
			fmt.Println("Login in progress. Finish it in your browser or run 'tempo auth login' again.")
			return nil
		}

		fmt.Printf("State:    %s\n", st.State)
		if st.State == auth.StateExpired {
			fmt.Printf("Expired:  %s (%s)\n", humanize.Time(st.ExpiresAt), st.ExpiresAt.Format(time.RFC1123))
		} else {
			fmt.Printf("Expires:  %s (%s)\n", humanize.Time(st.ExpiresAt), st.ExpiresAt.Format(time.RFC1123))
		}
		fmt.Printf("Refresh:  %s\n", StatusIcon(st.HasRefreshToken))
		fmt.Printf("Scopes:   %s\n", strings.Join(st.Scopes, " "))
		if len(missing) > 0 {
			fmt.Printf("\nPlayback needs: %s\n", strings.Join(missing, " "))
			fmt.Println("Run 'tempo auth upgrade' to grant them.")
		}
		return nil
	})
}

func runAuthUpgrade(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if !a.auth.NeedsUpgrade(ctx, auth.PlaybackScopes...) {
			fmt.Println("Playback permissions are already granted.")
			return nil
		}

		if !authUpgradeYes {
			confirmed := true
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Title("Log in again with playback permissions?").
						Description("Your current session will be discarded.").
						Affirmative("Continue").
						Negative("Cancel").
						Value(&confirmed),
				),
			)
			if err := form.Run(); err != nil {
				return fmt.Errorf("upgrade cancelled: %w", err)
			}
			if !confirmed {
				fmt.Fprintln(os.Stderr, "Upgrade cancelled.")
				return nil
			}
		}

		return browserLogin(ctx, a, a.bridge.Upgrade)
	})
}
