package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/transitnet/transitnet-cli/internal/api"
	"github.com/transitnet/transitnet-cli/internal/appctx"
)

// NewNotificationsCmd creates the notifications command group.
func NewNotificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Read your notifications",
	}

	cmd.AddCommand(
		newNotificationsListCmd(),
		newNotificationsShowCmd(),
	)

	return cmd
}

func newNotificationsListCmd() *cobra.Command {
	var jqExpr string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			data, err := app.API.Resource(api.ResourceNotificationList, nil).Get(cmd.Context(), nil)
			if err != nil {
				return err
			}
			return printJSON(data, jqExpr)
		},
	}

	cmd.Flags().StringVar(&jqExpr, "jq", "", "Filter the response through a jq expression")

	return cmd
}

func newNotificationsShowCmd() *cobra.Command {
	var jqExpr string

	cmd := &cobra.Command{
		Use:   "show <notification-id>",
		Short: "Show one notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			data, err := app.API.
				Resource(api.ResourceNotificationDetails, map[string]string{"notificationId": args[0]}).
				Get(cmd.Context(), nil)
			if err != nil {
				return err
			}
			return printJSON(data, jqExpr)
		},
	}

	cmd.Flags().StringVar(&jqExpr, "jq", "", "Filter the response through a jq expression")

	return cmd
}
