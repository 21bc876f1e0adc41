package container

import (
	"errors"
	"fmt"

	"nathanbeddoewebdev/dockctl/internal/domain"
	"nathanbeddoewebdev/dockctl/internal/poller"
)

// ErrUnconfirmed marks an action whose submission hit a transport error.
// The backend may well have accepted it, so the caller should check back
// rather than report a failure.
var ErrUnconfirmed = errors.New("submitted but confirmation timed out; check back later")

type unconfirmedError struct {
	action domain.Action
	cause  error
}

func (e *unconfirmedError) Error() string {
	return fmt.Sprintf("%s %s", e.action, ErrUnconfirmed)
}

func (e *unconfirmedError) Unwrap() []error { return []error{ErrUnconfirmed, e.cause} }

// TimeoutError is returned when a task did not finish within the allotted
// checks. The task may still complete on the server.
type TimeoutError struct {
	Name     string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("stopped watching update of %s after %d checks; it may still be running on the server", e.Name, e.Attempts)
}

func (e *TimeoutError) Unwrap() error { return poller.ErrTimedOut }

// TaskFailedError carries the failure message the backend reported for a
// task, or the progress query error that ended it.
type TaskFailedError struct {
	Name    string
	Action  string
	Message string
	cause   error
}

func (e *TaskFailedError) Error() string {
	return fmt.Sprintf("%s of %s failed: %s", e.Action, e.Name, e.Message)
}

func (e *TaskFailedError) Unwrap() error { return e.cause }
