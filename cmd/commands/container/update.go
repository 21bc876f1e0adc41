package container

import (
	"errors"
	"fmt"
	"strings"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	containersvc "nathanbeddoewebdev/dockctl/internal/services/container"
	"nathanbeddoewebdev/dockctl/internal/tui"
	"nathanbeddoewebdev/dockctl/internal/util"

	"github.com/spf13/cobra"
)

// UpdateCommand returns the "container update" command.
func UpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [container]",
		Short: "Recreate a container from a new image",
		Long: `Pull an image and recreate the container from it.

The backend runs the update as a background task. Progress is printed until
the task completes or fails; after 60 checks (about two minutes) the command
stops watching, although the update may still finish on the server.

The task is recorded locally, so an interrupted command can be picked up
again with "dockctl container tasks --resume".

Without --image the container's current image reference is pulled again.
On a terminal with no --image, a form asks for the image and name.

Examples:
  dockctl container update web --image nginx:1.27
  dockctl container update web --image nginx:1.27 --name web2 --remove-old
  dockctl container update api`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runUpdate,
		SilenceUsage: true,
	}

	cmd.Flags().String("image", "", "Image reference to update to (default: the current image)")
	cmd.Flags().String("name", "", "Container name after the update (default: unchanged)")
	cmd.Flags().Bool("remove-old", false, "Remove the old image once the update succeeds")

	return cmd
}

func runUpdate(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd, containersvc.WithProgress(printProgress(cmd)))
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := cmdutil.Context(cmd)
	defer cancel()

	c, err := resolveTarget(cmd, ctx, e.svc, args)
	if err != nil {
		return err
	}

	image, _ := cmd.Flags().GetString("image")
	name, _ := cmd.Flags().GetString("name")
	removeOld, _ := cmd.Flags().GetBool("remove-old")

	if !cmd.Flags().Changed("image") && cmdutil.Interactive() {
		ans, err := tui.UpdateForm(c)
		if err != nil {
			if cmdutil.Aborted(cmd, err) {
				return nil
			}
			return err
		}
		image, name, removeOld = ans.ImageRef, ans.Name, ans.RemoveOld
	}

	name = strings.TrimSpace(name)
	if name != "" {
		if err := util.ValidateContainerName(name); err != nil {
			return err
		}
	}

	params := containersvc.UpdateParams{
		ID:        c.ID,
		Name:      name,
		ImageRef:  image,
		RemoveOld: removeOld,
	}
	target, err := containersvc.NormalizeImageRef(firstNonEmpty(image, c.UsingImage))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Updating %s to %s...\n", c.Name, target)

	res := e.svc.Update(ctx, params)
	switch {
	case res.Err == nil:
	case errors.Is(res.Err, containersvc.ErrUnconfirmed):
		return res.Err
	case ctx.Err() != nil && errors.Is(res.Err, ctx.Err()):
		fmt.Fprintf(cmd.ErrOrStderr(), "Stopped watching. Resume with: dockctl container tasks --resume\n")
		return nil
	default:
		return explain(cmd, res.Err)
	}

	if res.Handle == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Container %s updated to %s.\n", res.ContainerName, target)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Container %s updated to %s (task %s, %d checks).\n",
		res.ContainerName, target, res.Handle, res.Outcome.Attempts)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
