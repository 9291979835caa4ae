package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/transitnet/transitnet-cli/internal/api"
	"github.com/transitnet/transitnet-cli/internal/appctx"
	"github.com/transitnet/transitnet-cli/internal/orgsync"
	"github.com/transitnet/transitnet-cli/internal/output"
)

// NewOrgsCmd creates the organizations command group.
func NewOrgsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orgs",
		Aliases: []string{"organizations"},
		Short:   "Manage organizations",
	}

	cmd.AddCommand(
		newOrgsListCmd(),
		newOrgsUseCmd(),
		newOrgsSyncCmd(),
	)

	return cmd
}

func listOrganizations(cmd *cobra.Command, app *appctx.App) ([]orgsync.Organization, error) {
	data, err := app.API.Resource(api.ResourceOrganizationList, nil).Get(cmd.Context(), nil)
	if err != nil {
		return nil, err
	}
	var orgs []orgsync.Organization
	if err := json.Unmarshal(data, &orgs); err != nil {
		return nil, fmt.Errorf("parsing organization list: %w", err)
	}
	return orgs, nil
}

func newOrgsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your organizations",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			orgs, err := listOrganizations(cmd, app)
			if err != nil {
				return err
			}
			if len(orgs) == 0 {
				fmt.Println("You are not a member of any organization.")
				return nil
			}

			active, _ := app.Prefs.ActiveOrganization()
			for _, org := range orgs {
				marker := " "
				if org.OrganizationID == active {
					marker = "*"
				}
				fmt.Printf("%s %-24s %s\n", marker, org.OrganizationID, org.Name)
			}
			return nil
		},
	}
}

func newOrgsUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <organization-id>",
		Short: "Set the active organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			id := args[0]
			orgs, err := listOrganizations(cmd, app)
			if err != nil {
				return err
			}
			for _, org := range orgs {
				if org.OrganizationID == id {
					if err := app.Prefs.SetActiveOrganization(id); err != nil {
						return err
					}
					fmt.Printf("Active organization: %s\n", org.Name)
					return nil
				}
			}
			return output.ErrUsageHint(
				fmt.Sprintf("You are not a member of %q", id),
				"Run: transitnet orgs list",
			)
		},
	}
}

func newOrgsSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the active organization with your memberships",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			session, err := app.Auth.Session(cmd.Context(), false)
			if err != nil {
				return err
			}
			syncer := orgsync.NewSyncer(app.API, app.Prefs, app.Logger)
			if err := syncer.Sync(cmd.Context(), session.Token); err != nil {
				return err
			}

			active, _ := app.Prefs.ActiveOrganization()
			if active == "" {
				fmt.Println("No active organization.")
			} else {
				fmt.Printf("Active organization: %s\n", active)
			}
			return nil
		},
	}
}
