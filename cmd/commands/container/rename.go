package container

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/dockctl/internal/util"

	"github.com/spf13/cobra"
)

// RenameCommand returns the "container rename" command.
func RenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <container> <new-name>",
		Short: "Rename a container",
		Long: `Rename a container. The list is refreshed as soon as the backend accepts.

Example:
  dockctl container rename web web-old`,
		Args:         cobra.ExactArgs(2),
		RunE:         runRename,
		SilenceUsage: true,
	}
}

func runRename(cmd *cobra.Command, args []string) error {
	newName := strings.TrimSpace(args[1])
	if err := util.ValidateContainerName(newName); err != nil {
		return err
	}

	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := cmdutil.Context(cmd)
	defer cancel()

	c, err := resolveTarget(cmd, ctx, e.svc, args[:1])
	if err != nil {
		return err
	}

	if res := e.svc.Rename(ctx, c.ID, newName); res.Err != nil {
		return explain(cmd, res.Err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Container %s renamed to %s.\n", c.Name, newName)
	return nil
}
