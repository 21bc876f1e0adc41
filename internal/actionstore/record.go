package actionstore

import "time"

// Task statuses as persisted.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusTimedOut  = "timed_out"
)

// TaskRecord is a persisted background task. It keeps enough to resume
// watching the task after the CLI exits or is interrupted.
type TaskRecord struct {
	// ID is the auto-increment primary key (assigned on insert).
	ID int64

	// TaskID is the backend's task handle used for progress queries.
	TaskID string

	ContainerID   string
	ContainerName string

	// Action is the operation the task performs, e.g. "update".
	Action string

	// ImageRef is the image the container is being moved to (updates only).
	ImageRef string

	// Status is one of the Status* constants.
	Status string

	// Progress is a percentage (0-100).
	Progress float64

	// Message is the last progress line reported by the backend.
	Message string

	// ErrorMessage explains a failed or timed-out task.
	ErrorMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Terminal reports whether the task has finished one way or another.
func (r TaskRecord) Terminal() bool { return r.Status != StatusRunning }
