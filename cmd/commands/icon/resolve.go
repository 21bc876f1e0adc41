package icon

import (
	"fmt"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/dockctl/internal/entities"
	"nathanbeddoewebdev/dockctl/internal/iconprefs"

	"github.com/spf13/cobra"
)

// ResolveCommand returns the "icon resolve" command.
func ResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <container>",
		Short: "Show which icon a container gets and why",
		Long: `Show the icon URL picked for a container and where it came from:
container, mapping, mapping-name or catalog.

Example:
  dockctl icon resolve web`,
		Args:         cobra.ExactArgs(1),
		RunE:         runResolve,
		SilenceUsage: true,
	}
}

func runResolve(cmd *cobra.Command, args []string) error {
	client, _, err := cmdutil.Client(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := cmdutil.Context(cmd)
	defer cancel()

	items, err := client.ListContainers(ctx)
	if err != nil {
		return err
	}
	c, err := entities.Resolve(items, args[0])
	if err != nil {
		return err
	}

	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()
	mappings, err := repo.Mappings()
	if err != nil {
		return err
	}

	iconURL, source := iconprefs.Resolve(c, mappings)
	if iconURL == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): no icon\n", c.Name, cmdutil.Dash(c.UsingImage))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s [%s]\n", c.Name, c.UsingImage, iconURL, source)
	return nil
}
