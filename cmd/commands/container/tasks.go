package container

import (
	"fmt"
	"io"
	"strconv"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/dockctl/internal/actionstore"
	"nathanbeddoewebdev/dockctl/internal/auditlog"
	containersvc "nathanbeddoewebdev/dockctl/internal/services/container"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// TasksCommand returns the "container tasks" command.
func TasksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List or resume tracked update tasks",
		Long: `List update tasks recorded locally and optionally resume watching them.

When an update is accepted its task handle is stored locally. If the command
is interrupted (Ctrl+C, closed terminal) the task keeps running on the
server; --resume watches it again until it completes, fails or times out.

Examples:
  dockctl container tasks
  dockctl container tasks --all
  dockctl container tasks --resume
  dockctl container tasks --resume --id 3`,
		Args:         cobra.NoArgs,
		RunE:         runTasks,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("all", false, "Include finished tasks")
	cmd.Flags().Int("limit", 20, "Number of tasks to show with --all")
	cmd.Flags().Bool("resume", false, "Resume watching running tasks")
	cmd.Flags().Int64("id", 0, "Resume only the task with this local ID")
	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func runTasks(cmd *cobra.Command, args []string) error {
	resume, _ := cmd.Flags().GetBool("resume")
	if resume {
		return runResume(cmd)
	}

	showAll, _ := cmd.Flags().GetBool("all")
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}

	sess, err := cmdutil.Session(cmd)
	if err != nil {
		return err
	}
	format, err := cmdutil.OutputFormat(cmd, sess.Config())
	if err != nil {
		return err
	}

	repo, err := actionstore.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	var records []actionstore.TaskRecord
	if showAll {
		records, err = repo.ListRecent(limit)
	} else {
		records, err = repo.ListPending()
	}
	if err != nil {
		return err
	}

	if format == cmdutil.FormatTable && len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tracked tasks.")
		return nil
	}
	return cmdutil.Print(cmd, format, records, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tTASK\tCONTAINER\tACTION\tIMAGE\tSTATUS\tPROGRESS\tUPDATED\tMESSAGE")
		for _, r := range records {
			msg := r.Message
			if r.ErrorMessage != "" {
				msg = r.ErrorMessage
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%.0f%%\t%s\t%s\n",
				r.ID, r.TaskID, r.ContainerName, r.Action, cmdutil.Dash(r.ImageRef),
				r.Status, r.Progress, humanize.Time(r.UpdatedAt), cmdutil.Dash(firstLine(msg)))
		}
	})
}

func runResume(cmd *cobra.Command) error {
	id, _ := cmd.Flags().GetInt64("id")

	e, err := newEnv(cmd, containersvc.WithProgress(printProgress(cmd)))
	if err != nil {
		return err
	}
	defer e.Close()
	if e.tasks == nil {
		return fmt.Errorf("task database unavailable")
	}

	var pending []actionstore.TaskRecord
	if id != 0 {
		rec, err := e.tasks.Get(id)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("no task with ID %d", id)
		}
		pending = []actionstore.TaskRecord{*rec}
	} else if pending, err = e.tasks.ListPending(); err != nil {
		return err
	}

	if len(pending) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No running tasks to resume.")
		return nil
	}

	ctx, cancel := cmdutil.Context(cmd)
	defer cancel()

	failed := 0
	for i := range pending {
		task := &pending[i]
		cmdutil.Annotate(cmd, auditlog.Metadata{
			ResourceType: "task",
			ResourceID:   strconv.FormatInt(task.ID, 10),
			ResourceName: task.ContainerName,
		})
		fmt.Fprintf(cmd.ErrOrStderr(), "Resuming %s of %s (task %s)...\n", task.Action, task.ContainerName, task.TaskID)

		res := e.svc.ResumeTask(ctx, task)
		if res.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "  %v\n", res.Err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task %s for %s completed.\n", task.TaskID, task.ContainerName)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d tasks did not complete", failed, len(pending))
	}
	return nil
}
