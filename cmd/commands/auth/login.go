package auth

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/dockctl/internal/tui"

	"github.com/spf13/cobra"
)

// LoginCommand returns the "auth login" command.
func LoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange the backend secret key for a session",
		Long: `Exchange the backend's secret key for a session token and store it in
the OS keychain.

On a terminal you are prompted for the key. Otherwise pass --secret-key or
pipe the key on stdin.

Examples:
  dockctl auth login
  dockctl auth login --base-url http://nas.local:12712
  echo "$SECRET" | dockctl auth login`,
		Args:         cobra.NoArgs,
		RunE:         runLogin,
		SilenceUsage: true,
	}

	cmd.Flags().String("secret-key", "", "Backend secret key (optional, overrides prompt)")

	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	sess, err := cmdutil.Session(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := cmdutil.Context(cmd)
	defer cancel()

	secret, _ := cmd.Flags().GetString("secret-key")
	secret = strings.TrimSpace(secret)

	if secret == "" && cmdutil.Interactive() {
		saved, err := tui.RunAuthLogin(sess.BaseURL(), func(ctx context.Context, key string) error {
			return sess.Login(ctx, key)
		})
		if err != nil {
			return err
		}
		if !saved {
			fmt.Fprintln(cmd.ErrOrStderr(), "Login cancelled.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s\n", sess.BaseURL())
		return nil
	}

	if secret == "" {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("secret key is required (use --secret-key or pipe it on stdin)")
		}
		secret = strings.TrimSpace(line)
	}

	if err := sess.Login(ctx, secret); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s\n", sess.BaseURL())
	return nil
}
