package domain

// Container statuses the console knows how to render and predict. The
// backend may report others (e.g. "exited", "paused"); they are shown as-is.
const (
	StatusRunning    = "running"
	StatusStopped    = "stopped"
	StatusRestarting = "restarting"
	StatusPaused     = "paused"
)

// Container is a managed container as reported by the backend.
type Container struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Status      string `json:"status" yaml:"status"`
	UsingImage  string `json:"usingImage" yaml:"using_image"`
	HaveUpdate  bool   `json:"haveUpdate" yaml:"have_update"`
	CreateTime  string `json:"createTime,omitempty" yaml:"create_time,omitempty"`
	RunningTime string `json:"runningTime,omitempty" yaml:"running_time,omitempty"`
	IconURL     string `json:"iconUrl,omitempty" yaml:"icon_url,omitempty"`
}

// IsRunning reports whether the container is currently running.
func (c Container) IsRunning() bool { return c.Status == StatusRunning }
