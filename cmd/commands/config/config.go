package config

import (
	"nathanbeddoewebdev/dockctl/internal/config"

	"github.com/spf13/cobra"
)

// NewCommand returns the "config" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage dockctl configuration",
		Long: "View and modify persistent dockctl settings.\n\n" +
			"Configuration is stored at ~/.config/dockctl/config.json.\n\n" +
			config.KeysHelp(),
		SilenceUsage: true,
	}

	cmd.AddCommand(SetCommand())
	cmd.AddCommand(GetCommand())

	return cmd
}
