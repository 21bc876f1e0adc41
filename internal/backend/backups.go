package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"nathanbeddoewebdev/dockctl/internal/domain"
)

// ListBackups returns the backup files held by the backend, newest name
// last.
func (c *Client) ListBackups(ctx context.Context) ([]domain.Backup, error) {
	var names []string
	if err := c.get(ctx, "/api/container/listBackups", nil, &names); err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	sort.Strings(names)

	backups := make([]domain.Backup, 0, len(names))
	for _, n := range names {
		backups = append(backups, domain.Backup{Filename: n})
	}
	return backups, nil
}

// CreateBackup snapshots every container's configuration as JSON.
func (c *Client) CreateBackup(ctx context.Context) error {
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/container/backup"}, nil); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	return nil
}

// CreateComposeBackup exports every container as a docker-compose file.
func (c *Client) CreateComposeBackup(ctx context.Context) error {
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/container/backup2compose"}, nil); err != nil {
		return fmt.Errorf("failed to create compose backup: %w", err)
	}
	return nil
}

// RestoreBackup recreates containers from a backup file. The backend runs
// the restore in the background; the returned handle is empty when it
// finished synchronously.
func (c *Client) RestoreBackup(ctx context.Context, filename string) (domain.TaskHandle, error) {
	var ack taskAck
	path := "/api/container/backups/" + url.PathEscape(filename) + "/restore"
	if err := c.do(ctx, request{method: http.MethodPost, path: path}, &ack); err != nil {
		return "", fmt.Errorf("failed to restore backup %s: %w", filename, err)
	}
	return domain.TaskHandle(ack.TaskID), nil
}

// DeleteBackup removes a backup file. The backend may answer 204.
func (c *Client) DeleteBackup(ctx context.Context, filename string) error {
	path := "/api/container/backup/" + url.PathEscape(filename)
	if err := c.do(ctx, request{method: http.MethodDelete, path: path}, nil); err != nil {
		return fmt.Errorf("failed to delete backup %s: %w", filename, err)
	}
	return nil
}
