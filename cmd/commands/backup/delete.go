package backup

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/dockctl/internal/auditlog"

	"github.com/spf13/cobra"
)

// DeleteCommand returns the "backup delete" command.
func DeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete [filename]",
		Aliases: []string{"rm"},
		Short:   "Delete a backup",
		Long: `Delete a backup file from the Docker host.

Example:
  dockctl backup delete backup-2026-01-01.json --yes`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runDelete,
		SilenceUsage: true,
	}
	cmdutil.AddYesFlag(cmd)
	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, _, err := cmdutil.Client(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := cmdutil.Context(cmd)
	defer cancel()

	name, err := pickBackup(cmd, ctx, client, args)
	if err != nil {
		if cmdutil.Aborted(cmd, err) {
			return nil
		}
		return err
	}
	cmdutil.Annotate(cmd, auditlog.Metadata{ResourceType: "backup", ResourceName: name})

	if err := cmdutil.Confirm(cmd, "Delete backup "+name+"?", "This cannot be undone."); err != nil {
		if cmdutil.Aborted(cmd, err) {
			return nil
		}
		return err
	}

	if err := cmdutil.Spin(cmd, ctx, "Deleting "+name+"...", func(ctx context.Context) error {
		return client.DeleteBackup(ctx, name)
	}); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Backup %s deleted.\n", name)
	return nil
}
