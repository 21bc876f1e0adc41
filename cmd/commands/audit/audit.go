package audit

import (
	"nathanbeddoewebdev/dockctl/internal/auditlog"

	"github.com/spf13/cobra"
)

// openRepo is swapped in tests.
var openRepo = func() (auditlog.Repository, error) { return auditlog.Open() }

// NewCommand returns the "audit" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "View and manage audit history",
		Long: "View a local audit trail of dockctl commands and prune old entries.\n\n" +
			"Audit history is stored locally in ~/.config/dockctl/dockctl.db.",
		SilenceUsage: true,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(PruneCommand())

	return cmd
}
