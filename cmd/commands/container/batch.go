package container

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/dockctl/internal/auditlog"
	"nathanbeddoewebdev/dockctl/internal/domain"
	containersvc "nathanbeddoewebdev/dockctl/internal/services/container"

	"github.com/spf13/cobra"
)

// BatchCommand returns the "container batch" command.
func BatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <start|stop|restart|update> [container...]",
		Short: "Run one action on several containers",
		Long: `Run the same action on several containers.

Each container gets its own operation; a failure on one never stops the
others. By default containers are handled one after another; --parallel
works on several at once. Updates keep each container's own name and image.

Examples:
  dockctl container batch restart web api db
  dockctl container batch stop --all --parallel 4
  dockctl container batch update --outdated --remove-old`,
		Args:         cobra.MinimumNArgs(1),
		RunE:         runBatch,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("all", false, "Apply to every container")
	cmd.Flags().Bool("outdated", false, "Apply to containers with an image update available")
	cmd.Flags().Int("parallel", 1, "Number of containers to work on at once")
	cmd.Flags().Bool("remove-old", false, "Remove old images after updating")
	cmdutil.AddYesFlag(cmd)

	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	action, err := domain.ParseAction(args[0])
	if err != nil {
		return err
	}
	all, _ := cmd.Flags().GetBool("all")
	outdated, _ := cmd.Flags().GetBool("outdated")
	parallel, _ := cmd.Flags().GetInt("parallel")
	removeOld, _ := cmd.Flags().GetBool("remove-old")

	refs := args[1:]
	if len(refs) == 0 && !all && !outdated {
		return fmt.Errorf("name at least one container, or pass --all or --outdated")
	}

	var opts []containersvc.Option
	if action == domain.ActionUpdate {
		opts = append(opts, containersvc.WithProgress(printProgress(cmd)))
	}
	e, err := newEnv(cmd, opts...)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := cmdutil.Context(cmd)
	defer cancel()

	items, err := e.svc.Refresh(ctx)
	if err != nil {
		return explain(cmd, err)
	}

	var targets []domain.Container
	switch {
	case all:
		targets = items
	case outdated:
		for _, c := range items {
			if c.HaveUpdate {
				targets = append(targets, c)
			}
		}
	default:
		for _, ref := range refs {
			c, err := e.svc.Lookup(ctx, ref)
			if err != nil {
				return err
			}
			targets = append(targets, c)
		}
	}
	if len(targets) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No containers matched.")
		return nil
	}

	ids := make([]string, len(targets))
	names := make([]string, len(targets))
	for i, c := range targets {
		ids[i], names[i] = c.ID, c.Name
	}
	cmdutil.Annotate(cmd, auditlog.Metadata{ResourceType: "container", ResourceName: strings.Join(names, ",")})

	if all || outdated {
		if err := cmdutil.Confirm(cmd,
			fmt.Sprintf("%s %d containers?", strings.ToUpper(string(action)[:1])+string(action)[1:], len(ids)),
			strings.Join(names, ", ")); err != nil {
			if cmdutil.Aborted(cmd, err) {
				return nil
			}
			return err
		}
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s %d containers...\n", strings.ToUpper(action.Verb()[:1])+action.Verb()[1:], len(ids))
	results := e.svc.Batch(ctx, ids, action, containersvc.BatchOptions{
		Parallel: parallel,
		Update:   containersvc.UpdateParams{RemoveOld: removeOld},
	})

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CONTAINER\tACTION\tRESULT")
	unconfirmed := 0
	for _, r := range results {
		result := "ok"
		switch {
		case r.Err == nil:
		case errors.Is(r.Err, containersvc.ErrUnconfirmed):
			result = "unconfirmed: check back later"
			unconfirmed++
		default:
			result = "failed: " + firstLine(r.Err.Error())
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.ContainerName, r.Action, result)
	}
	w.Flush()

	if failed := len(containersvc.Failed(results)) - unconfirmed; failed > 0 {
		return fmt.Errorf("%d of %d containers failed", failed, len(results))
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
