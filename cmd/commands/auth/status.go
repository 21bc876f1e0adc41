package auth

import (
	"errors"
	"fmt"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/dockctl/internal/domain"

	"github.com/spf13/cobra"
)

// StatusCommand returns the "auth status" command.
func StatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether a session is stored",
		Long: `Show the backend in use and whether a session token is stored for it.
With --check the token is verified against the backend.

Example:
  dockctl auth status --check`,
		Args:         cobra.NoArgs,
		RunE:         runStatus,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("check", false, "Verify the token with the backend")

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	sess, err := cmdutil.Session(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Backend: %s\n", sess.BaseURL())

	if !sess.LoggedIn() {
		fmt.Fprintln(out, "Session: not logged in")
		return nil
	}

	check, _ := cmd.Flags().GetBool("check")
	if !check {
		fmt.Fprintln(out, "Session: logged in")
		return nil
	}

	ctx, cancel := cmdutil.Context(cmd)
	defer cancel()

	_, err = sess.Client().ListContainers(ctx)
	switch {
	case err == nil:
		fmt.Fprintln(out, "Session: logged in (verified)")
	case errors.Is(err, domain.ErrUnauthorized):
		fmt.Fprintln(out, "Session: expired (run 'dockctl auth login')")
	default:
		fmt.Fprintf(out, "Session: logged in (backend unreachable: %v)\n", err)
	}
	return nil
}
