package domain

// TaskHandle is the opaque identifier the backend returns when it accepts a
// background operation.
type TaskHandle string

// Phase is the normalized state of a background task.
type Phase string

const (
	PhaseRunning   Phase = "running"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
)

// TaskSnapshot is one normalized reading of a task's progress.
type TaskSnapshot struct {
	Phase      Phase
	Message    string
	Percentage float64

	// Err carries the extracted failure text when Phase is PhaseFailed.
	Err string
}

// Terminal reports whether the snapshot ends the task.
func (s TaskSnapshot) Terminal() bool {
	return s.Phase == PhaseCompleted || s.Phase == PhaseFailed
}

// IsSuccessCode reports whether an envelope code means success.
func IsSuccessCode(code int) bool { return code == 0 || code == 200 }
