package icon

import (
	"fmt"
	"io"
	"slices"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/dockctl/internal/config"
	"nathanbeddoewebdev/dockctl/internal/iconprefs"

	"github.com/spf13/cobra"
)

// CatalogCommand returns the "icon catalog" command.
func CatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "catalog",
		Short:        "List the built-in icons",
		Args:         cobra.NoArgs,
		RunE:         runCatalog,
		SilenceUsage: true,
	}
	cmdutil.AddOutputFlag(cmd)
	return cmd
}

type catalogEntry struct {
	Name     string `json:"name" yaml:"name"`
	URL      string `json:"url" yaml:"url"`
	Favorite bool   `json:"favorite" yaml:"favorite"`
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	format, err := cmdutil.OutputFormat(cmd, cfg)
	if err != nil {
		return err
	}

	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()

	favorites, err := repo.Favorites()
	if err != nil {
		return err
	}

	names := iconprefs.CatalogNames()
	entries := make([]catalogEntry, len(names))
	for i, n := range names {
		entries[i] = catalogEntry{Name: n, URL: iconprefs.Catalog[n], Favorite: slices.Contains(favorites, n)}
	}

	return cmdutil.Print(cmd, format, entries, func(w io.Writer) {
		fmt.Fprintln(w, "\tIMAGE\tURL")
		for _, e := range entries {
			star := ""
			if e.Favorite {
				star = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", star, e.Name, e.URL)
		}
	})
}
