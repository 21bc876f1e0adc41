// Package poller tracks a background task on the backend until it reaches a
// terminal state.
//
// Machine is a pure state machine: it is fed one progress reply at a time
// and decides whether to keep polling. Two drivers sit on top of it: Run
// (blocking, used by commands) and the tea.Tick loop in the TUI.
package poller

import (
	"errors"
	"fmt"
	"time"

	"nathanbeddoewebdev/dockctl/internal/domain"
	"nathanbeddoewebdev/dockctl/internal/progress"
)

// Polling cadence. Package-level so tests can shorten them.
var (
	// PollInterval is the delay between processing one reply and sending the
	// next query.
	PollInterval = 2 * time.Second

	// MaxAttempts bounds the number of progress queries per task.
	MaxAttempts = 60
)

// State is the lifecycle state of a Machine.
type State string

const (
	StateIdle      State = "idle"
	StatePolling   State = "polling"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
)

// Terminal reports whether no further queries may be issued.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateTimedOut
}

// Outcome describes how a task ended.
type Outcome struct {
	State    State
	Attempts int
	Snapshot domain.TaskSnapshot

	// Err is set for StateFailed (backend-reported failure or a failed
	// progress query) and StateTimedOut.
	Err error
}

// ErrTimedOut is wrapped by the error of a timed-out Outcome.
var ErrTimedOut = errors.New("stopped waiting for task")

// Decision is the Machine's verdict on one reply.
type Decision struct {
	Snapshot domain.TaskSnapshot

	// Next is true when another query should be scheduled.
	Next bool

	// Outcome is non-nil exactly once: on the reply that ends the task.
	Outcome *Outcome
}

// Machine follows one task handle. It is a value type; each method returns
// the successor state.
type Machine struct {
	Handle      domain.TaskHandle
	MaxAttempts int

	state    State
	attempts int
}

// New returns an idle Machine for the task.
func New(handle domain.TaskHandle, maxAttempts int) Machine {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return Machine{Handle: handle, MaxAttempts: maxAttempts, state: StateIdle}
}

// State returns the current state.
func (m Machine) State() State { return m.state }

// Attempts returns the number of replies observed so far.
func (m Machine) Attempts() int { return m.attempts }

// Begin moves an idle Machine to polling. The caller issues the first query
// immediately afterwards.
func (m Machine) Begin() Machine {
	if m.state == StateIdle {
		m.state = StatePolling
	}
	return m
}

// Observe feeds one progress reply. Replies arriving after a terminal state
// are ignored and produce an empty Decision.
func (m Machine) Observe(resp progress.Response) (Machine, Decision) {
	if m.state != StatePolling {
		return m, Decision{}
	}
	m.attempts++
	snap := progress.Normalize(resp, m.attempts, m.MaxAttempts)

	switch snap.Phase {
	case domain.PhaseCompleted:
		return m.finish(StateCompleted, snap, nil)
	case domain.PhaseFailed:
		return m.finish(StateFailed, snap, errors.New(snap.Err))
	}

	if m.attempts >= m.MaxAttempts {
		return m.finish(StateTimedOut, snap, fmt.Errorf("%w %s after %d checks; it may still be running", ErrTimedOut, m.Handle, m.attempts))
	}
	return m, Decision{Snapshot: snap, Next: true}
}

// ObserveError feeds a failed progress query. A failed query ends the task
// as failed; it is not retried.
func (m Machine) ObserveError(err error) (Machine, Decision) {
	if m.state != StatePolling {
		return m, Decision{}
	}
	m.attempts++
	snap := domain.TaskSnapshot{
		Phase: domain.PhaseFailed,
		Err:   err.Error(),
	}
	return m.finish(StateFailed, snap, fmt.Errorf("progress query failed: %w", err))
}

func (m Machine) finish(state State, snap domain.TaskSnapshot, err error) (Machine, Decision) {
	m.state = state
	out := &Outcome{State: state, Attempts: m.attempts, Snapshot: snap, Err: err}
	return m, Decision{Snapshot: snap, Outcome: out}
}
