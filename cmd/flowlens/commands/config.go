package commands

import (
	"github.com/spf13/cobra"
)

func newConfigCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			return cfg.WriteYAML(cmd.OutOrStdout())
		},
	}
}
