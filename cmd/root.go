package cmd

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"nathanbeddoewebdev/dockctl/cmd/commands/audit"
	"nathanbeddoewebdev/dockctl/cmd/commands/auth"
	"nathanbeddoewebdev/dockctl/cmd/commands/backup"
	cfgcmd "nathanbeddoewebdev/dockctl/cmd/commands/config"
	"nathanbeddoewebdev/dockctl/cmd/commands/container"
	"nathanbeddoewebdev/dockctl/cmd/commands/icon"
	"nathanbeddoewebdev/dockctl/cmd/commands/image"
	"nathanbeddoewebdev/dockctl/cmd/commands/ui"
	"nathanbeddoewebdev/dockctl/cmd/commands/version"
	"nathanbeddoewebdev/dockctl/internal/auditlog"
	"nathanbeddoewebdev/dockctl/internal/config"
	"nathanbeddoewebdev/dockctl/internal/logging"
	"nathanbeddoewebdev/dockctl/internal/poller"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
func rootCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "dockctl",
		Short: "A console for managing containers on a Docker host",
		Long: `dockctl manages the containers, images and backups of a Docker host
through its management backend. Long-running operations such as image
updates are followed until they finish, with progress shown as they run.

Quick start:
  dockctl config set base-url http://nas.local:12712
  dockctl auth login                   # Log in with the backend secret key
  dockctl container list               # List containers
  dockctl container update web         # Update a container to a new image
  dockctl ui                           # Open the interactive console`,
		Version:           version.Version,
		SilenceUsage:      true,
		PersistentPreRunE: configureLogging,
	}

	cmd.PersistentFlags().String("base-url", "", "Backend URL (overrides config and $DOCKCTL_BASE_URL)")
	cmd.PersistentFlags().String("log-level", "", "Diagnostic log level: error, warn, info or debug")

	cmd.AddCommand(auth.NewCommand())
	cmd.AddCommand(cfgcmd.NewCommand())
	cmd.AddCommand(container.NewCommand())
	cmd.AddCommand(image.NewCommand())
	cmd.AddCommand(backup.NewCommand())
	cmd.AddCommand(icon.NewCommand())
	cmd.AddCommand(audit.NewCommand())
	cmd.AddCommand(ui.NewCommand())
	cmd.AddCommand(version.NewCommand())

	return cmd
}

// configureLogging applies --log-level, then the log-level config key.
func configureLogging(cmd *cobra.Command, args []string) error {
	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		if cfg, err := config.Load(); err == nil {
			level = cfg.LogLevel
		}
	}
	return logging.Configure(level, nil)
}

// Execute runs the root command and records the invocation in the audit
// log. This is called by main.main().
func Execute() {
	root := rootCmd()
	root.SetContext(context.Background())

	started := time.Now()
	executed, err := root.ExecuteC()
	recordAudit(executed, err, started)

	if err != nil {
		os.Exit(1)
	}
}

// recordAudit writes one entry per command run. Help output, the audit
// commands themselves and failures to open the log are not recorded.
func recordAudit(cmd *cobra.Command, runErr error, started time.Time) {
	if cmd == nil || !cmd.Runnable() || isAuditCommand(cmd) {
		return
	}

	repo, err := auditlog.Open()
	if err != nil {
		logging.L().WithError(err).Debug("audit log unavailable")
		return
	}
	defer repo.Close()

	meta := auditlog.MetadataFromContext(cmd.Context())
	entry := &auditlog.AuditEntry{
		Timestamp:    started.UTC(),
		Command:      cmd.CommandPath(),
		Args:         strings.Join(auditlog.SanitizeArgs(os.Args[1:]), " "),
		Backend:      meta.Backend,
		ResourceType: meta.ResourceType,
		ResourceID:   meta.ResourceID,
		ResourceName: meta.ResourceName,
		Outcome:      auditlog.OutcomeSuccess,
		DurationMs:   time.Since(started).Milliseconds(),
	}
	if runErr != nil {
		entry.Outcome = auditlog.OutcomeError
		if errors.Is(runErr, poller.ErrTimedOut) {
			entry.Outcome = auditlog.OutcomeTimeout
		}
		entry.Detail = runErr.Error()
	}

	if err := repo.Save(entry); err != nil {
		logging.L().WithError(err).Debug("failed to write audit entry")
	}
}

// isAuditCommand reports whether cmd sits under the top-level "audit" group.
func isAuditCommand(cmd *cobra.Command) bool {
	for c := cmd; c.HasParent(); c = c.Parent() {
		if !c.Parent().HasParent() {
			return c.Name() == "audit"
		}
	}
	return false
}
