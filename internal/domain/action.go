package domain

import (
	"fmt"
	"strings"
)

// Action is a lifecycle operation a user can request on a container.
type Action string

const (
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
	ActionUpdate  Action = "update"
)

// Actions lists every supported action in display order.
var Actions = []Action{ActionStart, ActionStop, ActionRestart, ActionUpdate}

// ParseAction converts user input into an Action.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Actions {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q (expected start, stop, restart or update)", s)
}

// PredictStatus returns the status a container is expected to reach once
// the action succeeds. Update leaves the status untouched; the second return
// value is false in that case.
func (a Action) PredictStatus() (string, bool) {
	switch a {
	case ActionStart, ActionRestart:
		return StatusRunning, true
	case ActionStop:
		return StatusStopped, true
	default:
		return "", false
	}
}

// Tracked reports whether the backend runs this action as a background task
// whose progress must be polled.
func (a Action) Tracked() bool { return a == ActionUpdate }

// Verb returns the progressive form used in status lines ("starting").
func (a Action) Verb() string {
	switch a {
	case ActionStart:
		return "starting"
	case ActionStop:
		return "stopping"
	case ActionRestart:
		return "restarting"
	case ActionUpdate:
		return "updating"
	default:
		return string(a)
	}
}
