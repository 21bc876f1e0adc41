package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for classifying backend failures. The backend client
// wraps these so commands and the TUI can branch on the category without
// knowing the wire format.
//
//	return fmt.Errorf("failed to start container: %w", domain.ErrNotFound)
var (
	// ErrNotFound indicates the requested container, image, backup or task
	// does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates the session token is missing, invalid or
	// expired. The session must be re-established with `dockctl auth login`.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the backend throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrConflict indicates a state or uniqueness conflict, such as a
	// container name already in use.
	ErrConflict = errors.New("conflict")

	// ErrTransport indicates the request may or may not have reached the
	// backend: a timeout, refused connection or unreadable response. The
	// operation's outcome is unknown.
	ErrTransport = errors.New("transport error")
)

// APIError is a business rejection: the backend answered, but with a
// non-success envelope code.
type APIError struct {
	Code    int
	Message string

	// Kind is one of the sentinels above when the message is recognisable,
	// nil otherwise.
	Kind error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend rejected request (code %d)", e.Code)
	}
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// Unwrap exposes the classified sentinel so errors.Is works through an
// *APIError.
func (e *APIError) Unwrap() error { return e.Kind }

var nameConflictMarkers = []string{"重命名", "name conflict", "名称冲突"}

// IsNameConflict reports whether a rejection message describes a container
// name collision.
func IsNameConflict(msg string) bool {
	lower := strings.ToLower(msg)
	for _, m := range nameConflictMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// NameConflictHint is appended to update rejections that look like a name
// collision.
const NameConflictHint = `A container name conflict was detected. Possible fixes:
  1. Remove or rename the conflicting container manually
  2. Update using a different container name
  3. Stop and rename the current container first, then update it`

// RejectionText renders a business rejection for the user, adding the
// name-conflict remediation when it applies.
func RejectionText(err error) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	msg := apiErr.Message
	if msg == "" {
		msg = apiErr.Error()
	}
	if IsNameConflict(msg) {
		return msg + "\n\n" + NameConflictHint
	}
	return msg
}
