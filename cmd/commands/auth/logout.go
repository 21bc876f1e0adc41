package auth

import (
	"fmt"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"

	"github.com/spf13/cobra"
)

// LogoutCommand returns the "auth logout" command.
func LogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Long: `Remove the session token stored for the current backend. Logging out
when no session is stored is not an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cmdutil.Session(cmd)
			if err != nil {
				return err
			}
			if err := sess.Logout(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged out of %s\n", sess.BaseURL())
			return nil
		},
		SilenceUsage: true,
	}
}
