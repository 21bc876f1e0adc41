package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/dockctl/internal/auditlog"
	"nathanbeddoewebdev/dockctl/internal/database"
	"nathanbeddoewebdev/dockctl/internal/poller"

	"github.com/spf13/cobra"
)

func setupAuditDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dockctl.db")
	database.SetPath(path)
	t.Cleanup(database.ResetPath)
	return path
}

func findCommand(t *testing.T, root *cobra.Command, args ...string) *cobra.Command {
	t.Helper()
	cmd, _, err := root.Find(args)
	if err != nil {
		t.Fatalf("Find(%v): %v", args, err)
	}
	return cmd
}

func listAudit(t *testing.T, path string) []auditlog.AuditEntry {
	t.Helper()
	repo, err := auditlog.OpenAt(path)
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	defer repo.Close()
	entries, err := repo.List(10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	return entries
}

func TestRecordAudit_Outcomes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"success", nil, auditlog.OutcomeSuccess},
		{"error", errors.New("boom"), auditlog.OutcomeError},
		{"timeout", fmt.Errorf("update of web: %w", poller.ErrTimedOut), auditlog.OutcomeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := setupAuditDB(t)
			root := rootCmd()
			cmd := findCommand(t, root, "container", "start")
			cmdutil.Annotate(cmd, auditlog.Metadata{
				Backend:      "http://nas.local:12712",
				ResourceType: "container",
				ResourceID:   "c1",
				ResourceName: "web",
			})

			recordAudit(cmd, tt.err, time.Now())

			entries := listAudit(t, path)
			if len(entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(entries))
			}
			e := entries[0]
			if e.Command != "dockctl container start" {
				t.Errorf("Command = %q", e.Command)
			}
			if e.Outcome != tt.want {
				t.Errorf("Outcome = %q, want %q", e.Outcome, tt.want)
			}
			if e.ResourceID != "c1" || e.ResourceName != "web" || e.Backend != "http://nas.local:12712" {
				t.Errorf("metadata not recorded: %+v", e)
			}
			if tt.err != nil && e.Detail != tt.err.Error() {
				t.Errorf("Detail = %q, want %q", e.Detail, tt.err.Error())
			}
		})
	}
}

func TestRecordAudit_SkipsAuditAndGroups(t *testing.T) {
	path := setupAuditDB(t)
	root := rootCmd()

	recordAudit(findCommand(t, root, "audit", "list"), nil, time.Now())
	recordAudit(findCommand(t, root, "container"), nil, time.Now())
	recordAudit(nil, errors.New("unknown command"), time.Now())

	if entries := listAudit(t, path); len(entries) != 0 {
		t.Fatalf("expected no entries, got %+v", entries)
	}
}

func TestIsAuditCommand(t *testing.T) {
	root := rootCmd()
	if !isAuditCommand(findCommand(t, root, "audit", "prune")) {
		t.Error("audit prune should be skipped")
	}
	if isAuditCommand(findCommand(t, root, "container", "list")) {
		t.Error("container list should be recorded")
	}
	if isAuditCommand(root) {
		t.Error("root should not count as an audit command")
	}
}
