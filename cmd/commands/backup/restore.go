package backup

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/dockctl/internal/auditlog"
	"nathanbeddoewebdev/dockctl/internal/backend"
	"nathanbeddoewebdev/dockctl/internal/domain"
	"nathanbeddoewebdev/dockctl/internal/poller"
	"nathanbeddoewebdev/dockctl/internal/tui"

	"github.com/spf13/cobra"
)

// RestoreCommand returns the "backup restore" command.
func RestoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore [filename]",
		Short: "Restore containers from a backup",
		Long: `Recreate containers from a backup file.

When the backend runs the restore as a background task its progress is
followed to the end. Without a filename on a terminal you are asked to pick
one.

Examples:
  dockctl backup restore backup-2026-01-01.json --yes`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runRestore,
		SilenceUsage: true,
	}
	cmdutil.AddYesFlag(cmd)
	return cmd
}

func runRestore(cmd *cobra.Command, args []string) error {
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

	if err := cmdutil.Confirm(cmd, "Restore "+name+"?", "Containers in the backup will be recreated."); err != nil {
		if cmdutil.Aborted(cmd, err) {
			return nil
		}
		return err
	}

	var handle domain.TaskHandle
	if err := cmdutil.Spin(cmd, ctx, "Submitting restore...", func(ctx context.Context) error {
		var err error
		handle, err = client.RestoreBackup(ctx, name)
		return err
	}); err != nil {
		return err
	}

	if handle != "" {
		outcome, err := poller.Run(ctx, client, handle, func(_ int, snap domain.TaskSnapshot) {
			fmt.Fprintf(cmd.ErrOrStderr(), "  [%3.0f%%] %s\n", snap.Percentage, snap.Message)
		})
		if err != nil {
			return fmt.Errorf("stopped following restore: %w", err)
		}
		if outcome.State != poller.StateCompleted {
			return fmt.Errorf("restore of %s did not complete: %w", name, outcome.Err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Backup %s restored.\n", name)
	return nil
}

// pickBackup returns args[0] or lets the user choose on a terminal.
func pickBackup(cmd *cobra.Command, ctx context.Context, client *backend.Client, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if !cmdutil.Interactive() {
		return "", fmt.Errorf("a backup filename is required")
	}
	backups, err := client.ListBackups(ctx)
	if err != nil {
		return "", err
	}
	return tui.SelectBackup("Select a backup", backups)
}
