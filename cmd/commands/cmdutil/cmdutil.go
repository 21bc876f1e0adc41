// Package cmdutil holds the plumbing shared by dockctl subcommands: session
// resolution, output formatting, confirmation and audit annotation.
package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"nathanbeddoewebdev/dockctl/internal/auditlog"
	"nathanbeddoewebdev/dockctl/internal/backend"
	"nathanbeddoewebdev/dockctl/internal/session"
	"nathanbeddoewebdev/dockctl/internal/tui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Session resolves the backend session, honouring the root --base-url flag
// when it is present.
func Session(cmd *cobra.Command) (*session.Session, error) {
	var opts session.Options
	if f := cmd.Flag("base-url"); f != nil {
		opts.BaseURL = f.Value.String()
	}
	s, err := session.Open(opts)
	if err != nil {
		return nil, err
	}
	Annotate(cmd, auditlog.Metadata{Backend: s.BaseURL()})
	return s, nil
}

// Client resolves the session and returns a client for it. It fails with
// session.ErrNotLoggedIn when no token is stored.
func Client(cmd *cobra.Command) (*backend.Client, *session.Session, error) {
	s, err := Session(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := s.RequireLogin(); err != nil {
		return nil, nil, err
	}
	return s.Client(), s, nil
}

// Context returns the command context cancelled on Ctrl+C.
func Context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt)
}

// Annotate attaches audit metadata to the command; the root command reads
// it back when writing the audit entry.
func Annotate(cmd *cobra.Command, meta auditlog.Metadata) {
	cmd.SetContext(auditlog.WithMetadata(cmd.Context(), meta))
}

// Interactive reports whether both stdin and stdout are terminals.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// AddYesFlag registers --yes on a destructive command.
func AddYesFlag(cmd *cobra.Command) {
	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}

// Confirm asks before a destructive action. --yes skips the prompt; without
// a terminal --yes is required.
func Confirm(cmd *cobra.Command, title, description string) error {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return nil
	}
	if !Interactive() {
		return fmt.Errorf("refusing to continue without confirmation; pass --yes to proceed")
	}
	return tui.Confirm(title, description)
}

// Spin runs fn behind a spinner on stderr when attached to a terminal, and
// plainly otherwise.
func Spin(cmd *cobra.Command, ctx context.Context, title string, fn func(ctx context.Context) error) error {
	if !Interactive() {
		fmt.Fprintln(cmd.ErrOrStderr(), title)
		return fn(ctx)
	}
	return tui.Spin(ctx, cmd.ErrOrStderr(), title, fn)
}

// Aborted reports whether err is a user cancellation, printing a short note
// if so.
func Aborted(cmd *cobra.Command, err error) bool {
	if errors.Is(err, tui.ErrAborted) || errors.Is(err, context.Canceled) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
		return true
	}
	return false
}
