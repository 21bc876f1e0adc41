package backup

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/dockctl/internal/auditlog"

	"github.com/spf13/cobra"
)

// CreateCommand returns the "backup create" command.
func CreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Back up the container configuration",
		Long: `Ask the backend to write a backup of every container's configuration.

With --compose the backup is written as a docker-compose file instead of
the backend's own JSON format.

Examples:
  dockctl backup create
  dockctl backup create --compose`,
		Args:         cobra.NoArgs,
		RunE:         runCreate,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("compose", false, "Write a docker-compose file")

	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	client, _, err := cmdutil.Client(cmd)
	if err != nil {
		return err
	}
	compose, _ := cmd.Flags().GetBool("compose")

	kind := "json"
	create := client.CreateBackup
	if compose {
		kind = "compose"
		create = client.CreateComposeBackup
	}
	cmdutil.Annotate(cmd, auditlog.Metadata{ResourceType: "backup", ResourceName: kind})

	ctx, cancel := cmdutil.Context(cmd)
	defer cancel()

	if err := cmdutil.Spin(cmd, ctx, "Creating backup...", func(ctx context.Context) error {
		return create(ctx)
	}); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Backup created (%s). List backups with: dockctl backup list\n", kind)
	return nil
}
