package audit

import (
	"fmt"
	"io"
	"time"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/dockctl/internal/auditlog"
	"nathanbeddoewebdev/dockctl/internal/config"

	"github.com/spf13/cobra"
)

// ListCommand returns the "audit list" command.
func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent audit entries",
		Long: `List recent audit entries stored locally.

Examples:
  dockctl audit list
  dockctl audit list --limit 50
  dockctl audit list --command "dockctl container update"
  dockctl audit list --container web
  dockctl audit list -o json`,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().Int("limit", 25, "Number of entries to display")
	cmd.Flags().String("command", "", "Filter by exact command path")
	cmd.Flags().String("container", "", "Filter by container ID")
	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}

	command, _ := cmd.Flags().GetString("command")
	container, _ := cmd.Flags().GetString("container")
	if command != "" && container != "" {
		return fmt.Errorf("--command and --container cannot be combined")
	}

	cfg, _ := config.Load()
	format, err := cmdutil.OutputFormat(cmd, cfg)
	if err != nil {
		return err
	}

	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()

	var entries []auditlog.AuditEntry
	switch {
	case command != "":
		entries, err = repo.ListByCommand(command, limit)
	case container != "":
		entries, err = repo.ListByResource("container", container, limit)
	default:
		entries, err = repo.List(limit)
	}
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []auditlog.AuditEntry{}
	}

	return cmdutil.Print(cmd, format, entries, func(w io.Writer) {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No audit entries found.")
			return
		}
		fmt.Fprintln(w, "TIME\tCOMMAND\tOUTCOME\tDURATION\tRESOURCE\tDETAIL")
		for _, entry := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				entry.Timestamp.Local().Format("2006-01-02 15:04:05"),
				entry.Command,
				entry.Outcome,
				formatDuration(entry.DurationMs),
				formatResource(entry),
				cmdutil.Dash(entry.Detail),
			)
		}
	})
}

func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	d := time.Duration(ms) * time.Millisecond
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}

func formatResource(entry auditlog.AuditEntry) string {
	if entry.ResourceType == "" && entry.ResourceID == "" && entry.ResourceName == "" {
		return "-"
	}

	resource := entry.ResourceType
	if entry.ResourceID != "" {
		if resource != "" {
			resource += ":"
		}
		resource += cmdutil.ShortID(entry.ResourceID)
	}
	if entry.ResourceName != "" {
		if resource != "" {
			resource += " (" + entry.ResourceName + ")"
		} else {
			resource = entry.ResourceName
		}
	}
	return resource
}
