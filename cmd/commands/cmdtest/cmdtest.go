// Package cmdtest wires a command test to a fake backend and throwaway
// local state.
package cmdtest

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"nathanbeddoewebdev/dockctl/internal/backend/backendtest"
	"nathanbeddoewebdev/dockctl/internal/config"
	"nathanbeddoewebdev/dockctl/internal/database"
	"nathanbeddoewebdev/dockctl/internal/entities"
	"nathanbeddoewebdev/dockctl/internal/logging"
	"nathanbeddoewebdev/dockctl/internal/poller"
	"nathanbeddoewebdev/dockctl/internal/services/auth"
	"nathanbeddoewebdev/dockctl/internal/session"
	"nathanbeddoewebdev/dockctl/internal/swrcache"

	"github.com/spf13/cobra"
)

// Token is the session token installed by Setup.
const Token = "jwt-token"

// Setup starts a fake backend, points config, database and cache paths at a
// temp dir and logs in to the backend. The returned store holds the token.
func Setup(t *testing.T) (*backendtest.Server, *auth.MockStore) {
	t.Helper()
	logging.Discard()

	srv := backendtest.New(t)
	srv.Token = Token

	dir := t.TempDir()
	config.SetPath(filepath.Join(dir, "config.json"))
	t.Cleanup(config.ResetPath)
	database.SetPath(filepath.Join(dir, "dockctl.db"))
	t.Cleanup(database.ResetPath)
	swrcache.SetDir(filepath.Join(dir, "cache"))
	t.Cleanup(swrcache.ResetDir)
	t.Setenv(session.EnvBaseURL, "")

	cfg := &config.Config{BaseURL: srv.URL}
	if err := cfg.Save(); err != nil {
		t.Fatalf("save config: %v", err)
	}

	store := auth.NewMockStore()
	if err := store.SetToken(srv.URL, Token); err != nil {
		t.Fatalf("set token: %v", err)
	}
	session.SetStore(store)
	t.Cleanup(session.ResetStore)

	return srv, store
}

// Exec runs cmd with args and returns what it wrote to stdout and stderr
// along with the returned error.
func Exec(t *testing.T, cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

// FastTiming shortens poll and reconcile delays for the test.
func FastTiming(t *testing.T) {
	t.Helper()
	interval, settle := poller.PollInterval, entities.SettleDelay
	poller.PollInterval = time.Millisecond
	entities.SettleDelay = time.Millisecond
	t.Cleanup(func() {
		poller.PollInterval = interval
		entities.SettleDelay = settle
	})
}
