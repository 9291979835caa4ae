// Package cli assembles the command tree.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/transitnet/transitnet-cli/internal/appctx"
	"github.com/transitnet/transitnet-cli/internal/commands"
	"github.com/transitnet/transitnet-cli/internal/config"
	"github.com/transitnet/transitnet-cli/internal/output"
	"github.com/transitnet/transitnet-cli/internal/version"
)

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	var flags appctx.GlobalFlags

	cmd := &cobra.Command{
		Use:           "transitnet",
		Short:         "Command-line interface for TransitNet",
		Long:          "transitnet is a CLI for the TransitNet platform: sign in, inspect your profile and organizations, and call the API directly.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.Load(config.FlagOverrides{
				Domain:   flags.Domain,
				ClientID: flags.ClientID,
				APIBase:  flags.APIBase,
			})
			if err != nil {
				return err
			}

			app := appctx.NewApp(cfg)
			app.Flags = flags
			app.ApplyFlags()

			cmd.SetContext(appctx.WithApp(cmd.Context(), app))
			return nil
		},
	}

	cmd.Flags().SetInterspersed(true)
	cmd.PersistentFlags().SetInterspersed(true)

	// Accept underscore spellings matching the config file keys.
	cmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	cmd.PersistentFlags().StringVar(&flags.Domain, "auth0-domain", "", "Identity provider domain")
	cmd.PersistentFlags().StringVar(&flags.ClientID, "auth0-client-id", "", "Identity provider client id")
	cmd.PersistentFlags().StringVar(&flags.APIBase, "api-base", "", "API base URL")
	cmd.PersistentFlags().CountVarP(&flags.Verbose, "verbose", "v", "Verbose output (debug logging)")

	cmd.AddCommand(
		commands.NewAuthCmd(),
		commands.NewAPICmd(),
		commands.NewProfileCmd(),
		commands.NewOrgsCmd(),
		commands.NewNotificationsCmd(),
	)

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		printError(err)
		var apiErr *output.Error
		if errors.As(err, &apiErr) {
			return apiErr.ExitCode()
		}
		return output.ExitUsage
	}
	return output.ExitOK
}

func printError(err error) {
	var apiErr *output.Error
	if errors.As(err, &apiErr) {
		fmt.Fprintf(os.Stderr, "Error: %s\n", apiErr.Message)
		if apiErr.Hint != "" {
			fmt.Fprintf(os.Stderr, "%s\n", apiErr.Hint)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
