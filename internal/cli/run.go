package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/spf13/cobra"

	"homelink/internal/config"
)

// AddRunCommand adds the `run` subcommand: the daemon with an
// interactive console on stdin.
func AddRunCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the homelink daemon",
		Long: `Run starts the daemon: the message bus, all plugins, and the HTTP
sync endpoints. Lines typed on stdin are fed to the bus as commands
(try "p system show", "exit" stops the daemon).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := InitLogger(flags.Verbose, flags.Quiet)

			cfg, err := loadConfig(cmd.Context(), flags)
			if err != nil {
				return err
			}
			d, err := newDaemon(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			go console(d)
			logger.Info().
				Str("node", cfg.Node.Name).
				Str("version", cmd.Root().Version).
				Msg("homelink starting")
			return d.run(cmd.Context())
		},
	}
	root.AddCommand(cmd)
}

// console feeds stdin lines to the bus until stdin closes.
func console(d *daemon) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		d.bus.Cmdf("console", "%s", line)
	}
}

// loadConfig resolves configuration with the flag overrides applied
// and validates the result.
func loadConfig(ctx context.Context, flags *GlobalFlags) (*config.Config, error) {
	cfg, err := config.LoadWithOverrides(ctx, config.Overrides{
		NodeName:    flags.Name,
		Script:      flags.Script,
		WebDisabled: flags.NoWeb,
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
