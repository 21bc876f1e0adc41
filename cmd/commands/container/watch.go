package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/dockctl/internal/domain"
	"nathanbeddoewebdev/dockctl/internal/entities"

	"github.com/spf13/cobra"
)

// WatchCommand returns the "container watch" command.
func WatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the container list every few seconds",
		Long: `Print the container list now and again every refresh interval (10s)
until interrupted with Ctrl+C.

Examples:
  dockctl container watch
  dockctl container watch --count 3`,
		Args:         cobra.NoArgs,
		RunE:         runWatch,
		SilenceUsage: true,
	}

	cmd.Flags().Int("count", 0, "Stop after this many refreshes (0 runs until interrupted)")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")
	if count < 0 {
		return fmt.Errorf("count must not be negative")
	}

	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := cmdutil.Context(cmd)
	defer cancel()

	seen := 0
	err = e.svc.Reconciler().Watch(ctx, func(items []domain.Container, err error) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "--- %s (every %s) ---\n", time.Now().Format("15:04:05"), entities.RefreshInterval)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "refresh failed: %v\n", err)
		} else {
			rows := make([]listRow, len(items))
			for i, c := range items {
				rows[i] = listRow{Container: c}
			}
			_ = cmdutil.Print(cmd, cmdutil.FormatTable, rows, func(w io.Writer) {
				writeTable(w, rows, false)
			})
		}

		seen++
		if count > 0 && seen >= count {
			cancel()
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
