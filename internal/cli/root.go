package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"homelink/internal/constants"
)

// newRootCmd creates the root command. The function-based approach
// avoids package-level command globals.
func newRootCmd(flags *GlobalFlags) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   constants.AppName,
		Short: "homelink - home fleet assistant",
		Long: `Homelink runs a small fleet of home machines as one system: nodes
announce themselves over MQTT, keep a shared folder in sync, watch
system health, fetch weather, download music, and track reminders.

Every node runs the same daemon; configuration decides its roles.`,
		Version: constants.Version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := BindGlobalFlags(v, cmd); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			return nil
		},
		SilenceUsage: true,
	}

	AddGlobalFlags(cmd, flags)

	AddRunCommand(cmd, flags)
	AddDashboardCommand(cmd, flags)
	AddInitCommand(cmd)

	return cmd
}

// Execute runs the root command with the provided context.
func Execute(ctx context.Context) error {
	flags := &GlobalFlags{}
	cmd := newRootCmd(flags)
	return cmd.ExecuteContext(ctx)
}
