package icon

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/dockctl/internal/iconprefs"

	"github.com/spf13/cobra"
)

// FavoritesCommand returns the "icon favorites" command group.
func FavoritesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage favourite catalog icons",
		Args:    cobra.NoArgs,
		RunE:    runFavoritesList,
		Long: `Mark catalog icons as favourites so they are listed first when picking
an icon. Without a subcommand the favourites are listed.

Examples:
  dockctl icon favorites add whyour/qinglong
  dockctl icon favorites remove whyour/qinglong`,
		SilenceUsage: true,
	}

	cmd.AddCommand(&cobra.Command{
		Use:          "list",
		Short:        "List favourites",
		Args:         cobra.NoArgs,
		RunE:         runFavoritesList,
		SilenceUsage: true,
	})
	cmd.AddCommand(&cobra.Command{
		Use:          "add <image-name>",
		Short:        "Add a catalog icon to the favourites",
		Args:         cobra.ExactArgs(1),
		RunE:         runFavoritesAdd,
		SilenceUsage: true,
	})
	cmd.AddCommand(&cobra.Command{
		Use:          "remove <image-name>",
		Aliases:      []string{"rm"},
		Short:        "Remove a favourite",
		Args:         cobra.ExactArgs(1),
		RunE:         runFavoritesRemove,
		SilenceUsage: true,
	})

	return cmd
}

func runFavoritesList(cmd *cobra.Command, args []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()

	favorites, err := repo.Favorites()
	if err != nil {
		return err
	}
	if len(favorites) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No favourites yet. Add one with: dockctl icon favorites add <image-name>")
		return nil
	}
	for _, f := range favorites {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}
	return nil
}

func runFavoritesAdd(cmd *cobra.Command, args []string) error {
	name := iconprefs.ImageName(args[0])
	if _, ok := iconprefs.Catalog[name]; !ok {
		return fmt.Errorf("unknown catalog icon %q (known: %s)", args[0], strings.Join(iconprefs.CatalogNames(), ", "))
	}

	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.AddFavorite(name); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s to favourites.\n", name)
	return nil
}

func runFavoritesRemove(cmd *cobra.Command, args []string) error {
	name := iconprefs.ImageName(args[0])

	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()

	removed, err := repo.RemoveFavorite(name)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%s is not a favourite", name)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from favourites.\n", name)
	return nil
}
