// Package session owns the authenticated connection to a backend.
//
// A Session is created once per command invocation (or TUI run) from the
// config file, the keychain and any --base-url override, and is passed
// explicitly to whatever needs the backend. Nothing else reads the token.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"nathanbeddoewebdev/dockctl/internal/backend"
	"nathanbeddoewebdev/dockctl/internal/config"
	"nathanbeddoewebdev/dockctl/internal/services/auth"
)

// EnvBaseURL overrides the configured backend URL.
const EnvBaseURL = "DOCKCTL_BASE_URL"

// ErrNotLoggedIn is returned when a command needs a token and none is stored.
var ErrNotLoggedIn = errors.New("not logged in (run 'dockctl auth login')")

var storeOverride auth.Store

// SetStore replaces the token store used by Open. Intended for testing.
func SetStore(s auth.Store) { storeOverride = s }

// ResetStore restores the keychain-backed store. Intended for testing.
func ResetStore() { storeOverride = nil }

func store() auth.Store {
	if storeOverride != nil {
		return storeOverride
	}
	return auth.DefaultStore()
}

// Session is one backend plus the credentials for it.
type Session struct {
	baseURL string
	token   string
	store   auth.Store
	cfg     *config.Config
}

// Options adjust how a Session is resolved.
type Options struct {
	// BaseURL wins over the environment and the config file when set.
	BaseURL string
}

// Open resolves the backend URL and loads its stored token. A missing token
// is not an error; call RequireLogin before talking to the backend.
func Open(opts Options) (*Session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	baseURL := firstNonEmpty(opts.BaseURL, os.Getenv(EnvBaseURL), cfg.BaseURL, backend.DefaultBaseURL)
	s := &Session{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		store:   store(),
		cfg:     cfg,
	}

	token, err := s.store.GetToken(s.baseURL)
	switch {
	case err == nil:
		s.token = token
	case errors.Is(err, auth.ErrTokenNotFound):
	default:
		return nil, fmt.Errorf("session: failed to read token: %w", err)
	}
	return s, nil
}

// BaseURL returns the backend root URL.
func (s *Session) BaseURL() string { return s.baseURL }

// Config returns the configuration the session was opened with.
func (s *Session) Config() *config.Config { return s.cfg }

// LoggedIn reports whether a token is available.
func (s *Session) LoggedIn() bool { return s.token != "" }

// RequireLogin returns ErrNotLoggedIn when no token is stored.
func (s *Session) RequireLogin() error {
	if !s.LoggedIn() {
		return ErrNotLoggedIn
	}
	return nil
}

// Client returns a backend client carrying the session's token.
func (s *Session) Client() *backend.Client {
	return backend.New(s.baseURL,
		backend.WithToken(s.token),
		backend.WithTimeout(s.cfg.Timeout(backend.DefaultTimeout)),
	)
}

// Login exchanges the secret key for a token and stores it.
func (s *Session) Login(ctx context.Context, secretKey string) error {
	if strings.TrimSpace(secretKey) == "" {
		return fmt.Errorf("secret key is empty")
	}
	token, err := s.Client().Login(ctx, secretKey)
	if err != nil {
		return err
	}
	if err := s.store.SetToken(s.baseURL, token); err != nil {
		return fmt.Errorf("session: failed to store token: %w", err)
	}
	s.token = token
	return nil
}

// Logout forgets the stored token. Logging out while logged out is not an
// error.
func (s *Session) Logout() error {
	s.token = ""
	if err := s.store.DeleteToken(s.baseURL); err != nil && !errors.Is(err, auth.ErrTokenNotFound) {
		return fmt.Errorf("session: failed to delete token: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
