// Package commands implements the CLI commands.
package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/transitnet/transitnet-cli/internal/appctx"
	"github.com/transitnet/transitnet-cli/internal/auth"
	"github.com/transitnet/transitnet-cli/internal/callback"
	"github.com/transitnet/transitnet-cli/internal/orgsync"
	"github.com/transitnet/transitnet-cli/internal/output"
	"github.com/transitnet/transitnet-cli/internal/tui"
)

// loginWaitTimeout bounds how long the CLI waits for the browser round-trip.
const loginWaitTimeout = 5 * time.Minute

// NewAuthCmd creates the auth command group.
func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
		Long:  "Manage TransitNet authentication including login, logout, and status.",
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthStatusCmd(),
		newAuthTokenCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var signup bool
	var returnTo string
	var noBrowser bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with TransitNet",
		Long:  "Sign in through the identity provider in your browser and store the credential locally.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}
			if returnTo != "" && returnTo[0] != '/' {
				return output.ErrUsageHint("Invalid return-to path", "Return-to must be an application path starting with /")
			}

			relay, err := callback.NewRelay(app.Config.CallbackURL)
			if err != nil {
				return err
			}
			relay.Start()
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = relay.Shutdown(ctx)
			}()

			intent := app.Auth.SignIn(returnTo, signup)
			if noBrowser {
				fmt.Printf("Open this URL to sign in:\n\n  %s\n\n", intent.URL)
			} else {
				fmt.Println("Opening your browser to sign in...")
				if err := auth.OpenBrowser(intent.URL); err != nil {
					fmt.Printf("Could not open a browser. Open this URL instead:\n\n  %s\n\n", intent.URL)
				}
			}

			waitCtx, cancel := context.WithTimeout(cmd.Context(), loginWaitTimeout)
			defer cancel()
			frag, err := relay.Wait(waitCtx)
			if err != nil {
				return output.ErrUsageHint("Sign-in timed out", "Run: transitnet auth login")
			}

			ctrl := callback.NewController(
				app.Auth,
				callback.NewProfileClient(app.API),
				orgsync.NewSyncer(app.API, app.Prefs, app.Logger),
				callback.NewVerificationClient(app.API),
				app.Prefs,
				app.Logger,
			)

			state := runCallback(cmd.Context(), ctrl, frag)
			switch state.Phase {
			case callback.PhaseSuccess:
				fmt.Println("Signed in.")
				if state.NavigateTo == "/profile" {
					fmt.Println("Finish setting up your account: transitnet profile complete")
				}
				return nil
			case callback.PhaseVerificationRequired:
				return output.ErrVerificationRequired(state.UserID)
			case callback.PhaseLoginFailed:
				return output.ErrClient(0, state.Message)
			default:
				return output.ErrUsage("No credential received from the identity provider")
			}
		},
	}

	cmd.Flags().BoolVar(&signup, "signup", false, "Start with the provider's registration screen")
	cmd.Flags().StringVar(&returnTo, "return-to", "", "Application path to land on after sign-in")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Don't open browser automatically")

	return cmd
}

// runCallback drives the controller, with a live TUI when the terminal
// supports it.
func runCallback(ctx context.Context, ctrl *callback.Controller, frag callback.Fragment) callback.State {
	if !isInteractive() {
		return ctrl.Handle(ctx, frag)
	}

	updates := make(chan callback.State, 2)
	go func() {
		defer close(updates)
		updates <- callback.State{Phase: callback.PhaseCredentialReceived}
		updates <- ctrl.Handle(ctx, frag)
	}()

	model := tui.NewLoginModel(updates)
	final, err := tea.NewProgram(model).Run()
	if err == nil {
		if m, ok := final.(tui.LoginModel); ok && m.Done() {
			return m.FinalState()
		}
	}
	// The TUI was quit early; the controller result is still authoritative.
	ctrl.Cancel()
	return ctrl.State()
}

func isInteractive() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func newAuthLogoutCmd() *cobra.Command {
	var browser bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			intent, err := app.Auth.SignOut()
			if err != nil {
				return err
			}
			fmt.Println("Signed out.")
			if browser {
				if err := auth.OpenBrowser(intent.URL); err != nil {
					fmt.Printf("End the provider session here: %s\n", intent.URL)
				}
			} else {
				fmt.Printf("To also end the provider session, open: %s\n", intent.URL)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&browser, "browser", false, "Open the provider logout page in the browser")

	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			session, err := app.Auth.Session(cmd.Context(), false)
			if err != nil {
				return err
			}

			fmt.Printf("Signed in as: %s\n", session.Claims.Subject)
			if session.Claims.ExpiresAt != nil {
				fmt.Printf("Expires:      %s\n", session.Claims.ExpiresAt.Format(time.RFC3339))
			}
			if len(session.Claims.Permissions) > 0 {
				fmt.Printf("Permissions:  %v\n", session.Claims.Permissions)
			}
			return nil
		},
	}
}

func newAuthTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print the current access token",
		Long:  "Print the validated access token for use with other tools. Fails if no valid credential is stored.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			session, err := app.Auth.Session(cmd.Context(), false)
			if err != nil {
				return err
			}
			fmt.Println(session.Token)
			return nil
		},
	}
}
