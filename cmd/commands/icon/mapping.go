package icon

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/dockctl/internal/config"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// MapCommand returns the "icon map" command group.
func MapCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Manage custom icon mappings",
		Long: `Assign your own icon URL to an image.

A mapping for "nginx:alpine" applies to that tag only; a mapping for "nginx"
applies to every nginx tag that has no exact mapping.

Examples:
  dockctl icon map set nginx https://example.com/nginx.png
  dockctl icon map list
  dockctl icon map remove nginx`,
		SilenceUsage: true,
	}

	list := &cobra.Command{
		Use:          "list",
		Aliases:      []string{"ls"},
		Short:        "List custom mappings",
		Args:         cobra.NoArgs,
		RunE:         runMapList,
		SilenceUsage: true,
	}
	cmdutil.AddOutputFlag(list)

	cmd.AddCommand(list)
	cmd.AddCommand(&cobra.Command{
		Use:          "set <image-ref> <url>",
		Short:        "Set the icon for an image",
		Args:         cobra.ExactArgs(2),
		RunE:         runMapSet,
		SilenceUsage: true,
	})
	cmd.AddCommand(&cobra.Command{
		Use:          "remove <image-ref>",
		Aliases:      []string{"rm"},
		Short:        "Remove a mapping",
		Args:         cobra.ExactArgs(1),
		RunE:         runMapRemove,
		SilenceUsage: true,
	})

	return cmd
}

func runMapList(cmd *cobra.Command, args []string) error {
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

	mappings, err := repo.Mappings()
	if err != nil {
		return err
	}
	if format == cmdutil.FormatTable && len(mappings) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No custom icon mappings.")
		return nil
	}
	return cmdutil.Print(cmd, format, mappings, func(w io.Writer) {
		fmt.Fprintln(w, "IMAGE\tURL\tUPDATED")
		for _, m := range mappings {
			fmt.Fprintf(w, "%s\t%s\t%s\n", m.ImageRef, m.URL, humanize.Time(m.UpdatedAt))
		}
	})
}

func runMapSet(cmd *cobra.Command, args []string) error {
	imageRef := strings.TrimSpace(args[0])
	iconURL := strings.TrimSpace(args[1])
	if imageRef == "" {
		return fmt.Errorf("image reference is empty")
	}
	if err := validateIconURL(iconURL); err != nil {
		return err
	}

	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.SetMapping(imageRef, iconURL); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Icon for %s set to %s\n", imageRef, iconURL)
	return nil
}

func runMapRemove(cmd *cobra.Command, args []string) error {
	imageRef := strings.TrimSpace(args[0])

	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()

	removed, err := repo.RemoveMapping(imageRef)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("no mapping for %s", imageRef)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed icon mapping for %s.\n", imageRef)
	return nil
}

func validateIconURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("icon URL %q must be an absolute http or https URL", raw)
	}
	return nil
}
