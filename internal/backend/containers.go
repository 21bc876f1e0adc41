package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"nathanbeddoewebdev/dockctl/internal/domain"
)

// taskAck is the data payload of an accepted background operation.
type taskAck struct {
	TaskID string `json:"taskID"`
}

// ListContainers returns every container on the host.
func (c *Client) ListContainers(ctx context.Context) ([]domain.Container, error) {
	var out []domain.Container
	if err := c.get(ctx, "/api/containers", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}
	if out == nil {
		out = []domain.Container{}
	}
	return out, nil
}

// Act asks the backend to start, stop or restart a container. The returned
// handle is empty when the backend completed the action synchronously.
func (c *Client) Act(ctx context.Context, id string, action domain.Action) (domain.TaskHandle, error) {
	switch action {
	case domain.ActionStart, domain.ActionStop, domain.ActionRestart:
	default:
		return "", fmt.Errorf("backend: %q is not a lifecycle action", action)
	}

	var ack taskAck
	path := "/api/container/" + url.PathEscape(id) + "/" + string(action)
	if err := c.do(ctx, request{method: http.MethodPost, path: path}, &ack); err != nil {
		return "", fmt.Errorf("failed to %s container %s: %w", action, id, err)
	}
	return domain.TaskHandle(ack.TaskID), nil
}

// UpdateRequest describes a container image update.
type UpdateRequest struct {
	ID        string
	Name      string
	ImageRef  string
	RemoveOld bool
}

// Update asks the backend to recreate a container from a fresh pull of its
// image. The backend runs the update in the background and normally returns
// a task handle; an empty handle means it finished synchronously.
func (c *Client) Update(ctx context.Context, r UpdateRequest) (domain.TaskHandle, error) {
	form := url.Values{}
	form.Set("containerName", r.Name)
	form.Set("imageNameAndTag", r.ImageRef)
	form.Set("delOldContainer", strconv.FormatBool(r.RemoveOld))

	var ack taskAck
	path := "/api/container/" + url.PathEscape(r.ID) + "/update"
	if err := c.do(ctx, request{method: http.MethodPost, path: path, form: form}, &ack); err != nil {
		return "", fmt.Errorf("failed to update container %s: %w", r.Name, err)
	}
	return domain.TaskHandle(ack.TaskID), nil
}

// Rename gives a container a new name.
func (c *Client) Rename(ctx context.Context, id, newName string) error {
	form := url.Values{}
	form.Set("newName", newName)

	path := "/api/container/" + url.PathEscape(id) + "/rename"
	if err := c.do(ctx, request{method: http.MethodPost, path: path, form: form}, nil); err != nil {
		return fmt.Errorf("failed to rename container %s: %w", id, err)
	}
	return nil
}
