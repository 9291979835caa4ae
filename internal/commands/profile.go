package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/transitnet/transitnet-cli/internal/api"
	"github.com/transitnet/transitnet-cli/internal/appctx"
	"github.com/transitnet/transitnet-cli/internal/callback"
	"github.com/transitnet/transitnet-cli/internal/tui"
)

// NewProfileCmd creates the profile command group.
func NewProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your profile",
	}

	cmd.AddCommand(
		newProfileShowCmd(),
		newProfileCompleteCmd(),
	)

	return cmd
}

func newProfileShowCmd() *cobra.Command {
	var jqExpr string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			data, err := app.API.Resource(api.ResourceUserSelf, nil).Get(cmd.Context(), nil)
			if err != nil {
				return err
			}
			return printJSON(data, jqExpr)
		},
	}

	cmd.Flags().StringVar(&jqExpr, "jq", "", "Filter the response through a jq expression")

	return cmd
}

func newProfileCompleteCmd() *cobra.Command {
	var nickname string
	var analytics bool

	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Set your display name and preferences",
		Long: `Complete your profile after a first login: pick a display name and
decide on analytics. Interactive unless --nickname is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			profiles := callback.NewProfileClient(app.API)
			profile, err := profiles.OwnProfile(cmd.Context())
			if err != nil {
				return err
			}

			form := tui.ProfileForm{
				Nickname:       profile.Nickname,
				TrackAnalytics: profile.TrackAnalytics,
			}
			if cmd.Flags().Changed("nickname") {
				form.Nickname = nickname
				if cmd.Flags().Changed("analytics") {
					form.TrackAnalytics = analytics
				}
			} else {
				form, err = tui.RunProfileForm(form)
				if err != nil {
					return err
				}
			}

			_, err = app.API.Resource(api.ResourceUserSelf, nil).Patch(cmd.Context(), map[string]any{
				"nickname":        form.Nickname,
				"track_analytics": form.TrackAnalytics,
			})
			if err != nil {
				return err
			}

			if err := app.Prefs.SetNickname(form.Nickname); err != nil {
				app.Logger.Warn("persisting nickname failed", "error", err)
			}
			analyticsValue := "false"
			if form.TrackAnalytics {
				analyticsValue = profile.UserID
			}
			if err := app.Prefs.SetTrackAnalytics(analyticsValue); err != nil {
				app.Logger.Warn("persisting analytics preference failed", "error", err)
			}

			fmt.Printf("Profile updated. Welcome, %s!\n", form.Nickname)
			return nil
		},
	}

	cmd.Flags().StringVar(&nickname, "nickname", "", "Display name (skips the interactive form)")
	cmd.Flags().BoolVar(&analytics, "analytics", false, "Opt in to anonymous usage analytics")

	return cmd
}
