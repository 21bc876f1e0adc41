package icon

import (
	"nathanbeddoewebdev/dockctl/internal/iconprefs"

	"github.com/spf13/cobra"
)

// NewCommand returns the "icon" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "icon",
		Short: "Manage container icons",
		Long: `Manage the icons shown for containers.

A container's icon is picked in this order: the icon the backend reports
for it, a custom mapping for its exact image reference, a custom mapping for
its image name without tag, then the built-in catalog.

Favourites and mappings are stored locally in ~/.config/dockctl/dockctl.db.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(CatalogCommand())
	cmd.AddCommand(FavoritesCommand())
	cmd.AddCommand(MapCommand())
	cmd.AddCommand(ResolveCommand())

	return cmd
}

// openRepo is swapped in tests that need a failing repository.
var openRepo = func() (iconprefs.Repository, error) { return iconprefs.Open() }
