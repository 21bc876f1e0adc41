package container

import (
	"context"
	"errors"
	"fmt"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/dockctl/internal/actionstore"
	"nathanbeddoewebdev/dockctl/internal/auditlog"
	"nathanbeddoewebdev/dockctl/internal/domain"
	"nathanbeddoewebdev/dockctl/internal/logging"
	"nathanbeddoewebdev/dockctl/internal/opstate"
	containersvc "nathanbeddoewebdev/dockctl/internal/services/container"
	"nathanbeddoewebdev/dockctl/internal/session"
	"nathanbeddoewebdev/dockctl/internal/tui"

	"github.com/spf13/cobra"
)

// NewCommand returns the "container" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "container",
		Aliases: []string{"containers", "ct"},
		Short:   "Manage containers on the Docker host",
		Long: `List containers and run lifecycle actions on them.

Containers can be referred to by ID, unique ID prefix or name.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(actionCommand(domain.ActionStart))
	cmd.AddCommand(actionCommand(domain.ActionStop))
	cmd.AddCommand(actionCommand(domain.ActionRestart))
	cmd.AddCommand(RenameCommand())
	cmd.AddCommand(UpdateCommand())
	cmd.AddCommand(BatchCommand())
	cmd.AddCommand(TasksCommand())
	cmd.AddCommand(WatchCommand())

	return cmd
}

// env bundles what a container subcommand needs for one run.
type env struct {
	sess  *session.Session
	svc   *containersvc.Service
	tasks *actionstore.SQLiteRepository
}

func (e *env) Close() {
	if e.tasks != nil {
		e.tasks.Close()
	}
}

// newEnv opens the session and builds the container service. Task
// persistence is best effort: the command proceeds without it when the
// database cannot be opened.
func newEnv(cmd *cobra.Command, opts ...containersvc.Option) (*env, error) {
	client, sess, err := cmdutil.Client(cmd)
	if err != nil {
		return nil, err
	}
	e := &env{sess: sess}

	if repo, err := actionstore.Open(); err != nil {
		logging.L().WithError(err).Warn("task tracking unavailable")
	} else {
		e.tasks = repo
		opts = append(opts, containersvc.WithTaskRepository(repo))
	}
	e.svc = containersvc.NewService(client, opts...)
	return e, nil
}

// resolveTarget finds the container named by args[0], or asks the user to
// pick one when no argument was given on a terminal.
func resolveTarget(cmd *cobra.Command, ctx context.Context, svc *containersvc.Service, args []string) (domain.Container, error) {
	var (
		c   domain.Container
		err error
	)
	switch {
	case len(args) > 0:
		c, err = svc.Lookup(ctx, args[0])
	case cmdutil.Interactive():
		var items []domain.Container
		if items, err = svc.Refresh(ctx); err == nil {
			c, err = tui.SelectContainer("Select a container", items)
		}
	default:
		return domain.Container{}, fmt.Errorf("a container ID or name is required")
	}
	if err != nil {
		return domain.Container{}, err
	}

	cmdutil.Annotate(cmd, auditlog.Metadata{
		ResourceType: "container",
		ResourceID:   c.ID,
		ResourceName: c.Name,
	})
	return c, nil
}

// printProgress returns a progress callback that writes one line per
// reading to stderr.
func printProgress(cmd *cobra.Command) containersvc.ProgressFunc {
	return func(rec opstate.Record, snap domain.TaskSnapshot) {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s: [%3.0f%%] %s\n", rec.EntityName, snap.Percentage, snap.Message)
	}
}

// explain adds remediation text for errors the user can act on.
func explain(cmd *cobra.Command, err error) error {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && domain.IsNameConflict(apiErr.Message) {
		fmt.Fprintln(cmd.ErrOrStderr(), domain.NameConflictHint)
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		return fmt.Errorf("%w; run 'dockctl auth login' again", err)
	}
	return err
}
