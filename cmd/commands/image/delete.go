package image

import (
	"context"
	"errors"
	"fmt"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/dockctl/internal/auditlog"
	"nathanbeddoewebdev/dockctl/internal/domain"

	"github.com/spf13/cobra"
)

// DeleteCommand returns the "image delete" command.
func DeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <image>",
		Aliases: []string{"rm"},
		Short:   "Delete an image",
		Long: `Delete an image by ID, ID prefix or name:tag.

Images used by a container are refused unless --force is given.
You are asked to confirm unless --yes is passed.

Examples:
  dockctl image delete nginx:1.25
  dockctl image delete 3f2a9c --force --yes`,
		Args:         cobra.ExactArgs(1),
		RunE:         runDelete,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("force", false, "Delete even if a container uses the image")
	cmdutil.AddYesFlag(cmd)

	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, _, err := cmdutil.Client(cmd)
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")

	ctx, cancel := cmdutil.Context(cmd)
	defer cancel()

	img, err := findImage(ctx, client, args[0])
	if err != nil {
		return err
	}
	cmdutil.Annotate(cmd, auditlog.Metadata{ResourceType: "image", ResourceID: img.ID, ResourceName: img.Ref()})

	if img.InUsed && !force {
		return fmt.Errorf("image %s is used by a container; pass --force to delete it anyway", img.Ref())
	}

	desc := fmt.Sprintf("%s (%s)", img.Ref(), cmdutil.Dash(img.Size))
	if img.InUsed {
		desc += "\nThis image is in use by a container."
	}
	if err := cmdutil.Confirm(cmd, "Delete image "+img.Ref()+"?", desc); err != nil {
		if cmdutil.Aborted(cmd, err) {
			return nil
		}
		return err
	}

	err = cmdutil.Spin(cmd, ctx, "Deleting "+img.Ref()+"...", func(ctx context.Context) error {
		return client.DeleteImage(ctx, img.ID, force)
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("%w (retry with --force)", err)
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Image %s deleted.\n", img.Ref())
	return nil
}
