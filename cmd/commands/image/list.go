package image

import (
	"fmt"
	"io"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/dockctl/internal/domain"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"
)

// ListCommand returns the "image list" command.
func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List images",
		Long: `List images stored on the Docker host with their size and whether a
container uses them.

Examples:
  dockctl image list
  dockctl image list --unused
  dockctl image list -o yaml`,
		Args:         cobra.NoArgs,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("unused", false, "Only show images no container uses")
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
	unused, _ := cmd.Flags().GetBool("unused")

	ctx, cancel := cmdutil.Context(cmd)
	defer cancel()

	images, err := client.ListImages(ctx)
	if err != nil {
		return err
	}
	if unused {
		kept := images[:0]
		for _, img := range images {
			if !img.InUsed {
				kept = append(kept, img)
			}
		}
		images = kept
	}

	if format == cmdutil.FormatTable && len(images) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No images found.")
		return nil
	}
	if err := cmdutil.Print(cmd, format, images, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tREPOSITORY\tTAG\tSIZE\tCREATED\tIN USE")
		for _, img := range images {
			inUse := "no"
			if img.InUsed {
				inUse = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cmdutil.ShortID(img.ID),
				img.Name,
				cmdutil.Dash(img.Tag),
				units.HumanSize(float64(img.SizeBytes())),
				cmdutil.Ago(img.CreateTime),
				inUse,
			)
		}
	}); err != nil {
		return err
	}

	if format == cmdutil.FormatTable {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d images, %s total\n", len(images), units.HumanSize(float64(domain.TotalSize(images))))
	}
	return nil
}
