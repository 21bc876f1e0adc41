package auth

import (
	"github.com/spf13/cobra"
)

// NewCommand returns the "auth" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Log in to a backend",
		Long: `Log in to the Docker management backend and manage the stored session.

The session token is kept in the OS keychain, one per backend URL.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(LoginCommand())
	cmd.AddCommand(LogoutCommand())
	cmd.AddCommand(StatusCommand())

	return cmd
}
