package container

import (
	"errors"
	"fmt"
	"strings"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/dockctl/internal/domain"
	containersvc "nathanbeddoewebdev/dockctl/internal/services/container"

	"github.com/spf13/cobra"
)

var actionPast = map[domain.Action]string{
	domain.ActionStart:   "started",
	domain.ActionStop:    "stopped",
	domain.ActionRestart: "restarted",
}

// actionCommand builds "container start|stop|restart".
func actionCommand(action domain.Action) *cobra.Command {
	name := string(action)
	return &cobra.Command{
		Use:   name + " [container]",
		Short: strings.ToUpper(name[:1]) + name[1:] + " a container",
		Long: fmt.Sprintf(`%s a container.

The list shows the expected status straight away; it is refreshed from the
backend shortly after the action is acknowledged.

Without an argument on a terminal you are asked to pick a container.

Examples:
  dockctl container %s web
  dockctl container %s 3f2a`, strings.ToUpper(name[:1])+name[1:], name, name),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, args, action)
		},
		SilenceUsage: true,
	}
}

func runAction(cmd *cobra.Command, args []string, action domain.Action) error {
	e, err := newEnv(cmd)
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

	verb := action.Verb()
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s...\n", strings.ToUpper(verb[:1])+verb[1:], c.Name)

	res := e.svc.Act(ctx, c.ID, action)
	switch {
	case res.Err == nil:
	case errors.Is(res.Err, containersvc.ErrUnconfirmed):
		return res.Err
	default:
		return explain(cmd, res.Err)
	}

	status := "-"
	if cur, ok := e.svc.Collection().Find(c.ID); ok {
		status = cur.Status
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Container %s %s (status: %s).\n", c.Name, actionPast[action], status)
	return nil
}
