// Package cli provides the command-line interface for homelink.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Exit codes for the CLI.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0
	// ExitError indicates a general error.
	ExitError = 1
)

// GlobalFlags holds flags available to all commands.
type GlobalFlags struct {
	// Verbose enables debug-level logging.
	Verbose bool
	// Quiet suppresses non-essential output (warn level only).
	Quiet bool
	// Name overrides the configured node name.
	Name string
	// Script overrides the bootstrap script path.
	Script string
	// NoWeb disables the HTTP server for this run.
	NoWeb bool
}

// AddGlobalFlags adds global flags to a command. These flags are
// available to all subcommands via PersistentFlags.
func AddGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress non-essential output")
	cmd.PersistentFlags().StringVarP(&flags.Name, "name", "n", "", "node name override")
	cmd.PersistentFlags().StringVar(&flags.Script, "script", "", "bootstrap script override")
	cmd.PersistentFlags().BoolVar(&flags.NoWeb, "no-web", false, "disable the HTTP server")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// BindGlobalFlags binds global flags to Viper for environment variable
// support with the HOMELINK_ prefix (e.g. HOMELINK_VERBOSE).
func BindGlobalFlags(v *viper.Viper, cmd *cobra.Command) error {
	rootFlags := cmd.Root().PersistentFlags()
	for _, name := range []string{"verbose", "quiet", "name", "script", "no-web"} {
		if err := v.BindPFlag(name, rootFlags.Lookup(name)); err != nil {
			return err
		}
	}
	v.SetEnvPrefix("HOMELINK")
	v.AutomaticEnv()
	return nil
}

// ExitCodeForError maps errors to process exit codes.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}
	return ExitError
}
