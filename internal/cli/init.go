package cli

import (
	"github.com/spf13/cobra"

	"homelink/internal/config"
)

// AddInitCommand adds the `init` subcommand, which writes a commented
// default configuration file.
func AddInitCommand(root *cobra.Command) {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Long: `Init writes a commented default configuration to the global config
path (~/.homelink/config.yaml). It refuses to overwrite an existing
file unless --force is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.GlobalConfigPath()
			if err != nil {
				return err
			}
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			cmd.Printf("wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	root.AddCommand(cmd)
}
