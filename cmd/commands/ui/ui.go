package ui

import (
	"errors"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/dockctl/internal/actionstore"
	"nathanbeddoewebdev/dockctl/internal/auditlog"
	"nathanbeddoewebdev/dockctl/internal/iconprefs"
	"nathanbeddoewebdev/dockctl/internal/logging"
	"nathanbeddoewebdev/dockctl/internal/services/container"
	"nathanbeddoewebdev/dockctl/internal/tui"

	"github.com/spf13/cobra"
)

// Swapped in tests.
var (
	run         = tui.RunConsole
	interactive = cmdutil.Interactive
)

// NewCommand returns the "ui" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive container console",
		Long: `Open a full-screen console listing containers with live status.

Keys: j/k move, space marks containers for a batch, s start, x stop,
r restart, u update, n rename, R refresh, q quit.

Each action in the console is written to the audit log. Update tasks that
are still running when the console exits are picked up again next time.`,
		Args:         cobra.NoArgs,
		RunE:         runUI,
		SilenceUsage: true,
	}
}

func runUI(cmd *cobra.Command, args []string) error {
	if !interactive() {
		return errors.New("the console requires an interactive terminal")
	}

	client, sess, err := cmdutil.Client(cmd)
	if err != nil {
		return err
	}

	var opts []container.Option
	var tasks actionstore.Repository
	if repo, err := actionstore.Open(); err != nil {
		logging.L().WithError(err).Warn("task tracking unavailable")
	} else {
		defer repo.Close()
		tasks = repo
		opts = append(opts, container.WithTaskRepository(repo))
	}
	if repo, err := auditlog.Open(); err != nil {
		logging.L().WithError(err).Warn("audit log unavailable")
	} else {
		defer repo.Close()
		opts = append(opts, container.WithAudit(repo, sess.BaseURL()))
	}

	var mappings []iconprefs.Mapping
	if repo, err := iconprefs.Open(); err == nil {
		mappings, _ = repo.Mappings()
		repo.Close()
	}

	// The console owns the terminal until it exits.
	logging.Discard()

	return run(tui.ConsoleOptions{
		Service:    container.NewService(client, opts...),
		BackendURL: sess.BaseURL(),
		Tasks:      tasks,
		Mappings:   mappings,
	})
}
