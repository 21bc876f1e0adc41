package backup

import (
	"github.com/spf13/cobra"
)

// NewCommand returns the "backup" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "backup",
		Aliases: []string{"backups"},
		Short:   "Manage container configuration backups",
		Long: `Create, list, restore and delete backups of the container configuration
held by the backend. Backups are stored on the Docker host.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(CreateCommand())
	cmd.AddCommand(RestoreCommand())
	cmd.AddCommand(DeleteCommand())

	return cmd
}
