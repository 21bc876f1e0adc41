package backup

import (
	"fmt"
	"io"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"

	"github.com/spf13/cobra"
)

// ListCommand returns the "backup list" command.
func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "list",
		Aliases:      []string{"ls"},
		Short:        "List backups",
		Args:         cobra.NoArgs,
		RunE:         runList,
		SilenceUsage: true,
	}
	cmdutil.AddOutputFlag(cmd)
	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	client, sess, err := cmdutil.Client(cmd)
	if err != nil {
		return err
	}
	format, err := cmdutil.OutputFormat(cmd, sess.Config())
	if err != nil {
		return err
	}

	ctx, cancel := cmdutil.Context(cmd)
	defer cancel()

	backups, err := client.ListBackups(ctx)
	if err != nil {
		return err
	}

	if format == cmdutil.FormatTable && len(backups) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No backups found.")
		return nil
	}
	return cmdutil.Print(cmd, format, backups, func(w io.Writer) {
		fmt.Fprintln(w, "FILENAME\tFORMAT")
		for _, b := range backups {
			fmt.Fprintf(w, "%s\t%s\n", b.Filename, b.Format())
		}
	})
}
