package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"homelink/internal/constants"
	"homelink/internal/tui"
)

// AddDashboardCommand adds the `dashboard` subcommand: the daemon
// with the full-screen TUI instead of the stdin console.
func AddDashboardCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Run the daemon with the full-screen dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The TUI owns the terminal; keep log noise down unless
			// explicitly verbose.
			logger := InitLogger(flags.Verbose, true)

			cfg, err := loadConfig(cmd.Context(), flags)
			if err != nil {
				return err
			}
			d, err := newDaemon(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			tui.CheckNoColor()
			model := tui.NewModel(cfg.Node.Name, constants.Version, d.feed,
				d.snapshot,
				func(line string) { d.bus.Cmdf("tui", "%s", line) })
			prog := tea.NewProgram(model, tea.WithAltScreen())

			daemonErr := make(chan error, 1)
			go func() { daemonErr <- d.run(cmd.Context()) }()

			if _, err := prog.Run(); err != nil {
				return err
			}
			// Quitting the TUI stops the daemon too.
			d.bus.Cmdf("tui", "exit")
			return <-daemonErr
		},
	}
	root.AddCommand(cmd)
}
