// Package actionstore persists background tasks the CLI is watching.
//
// When an update is accepted the task handle is recorded locally, so if the
// process is interrupted (Ctrl+C, closed terminal) the task can be listed
// and watched again with `dockctl container tasks --resume`.
package actionstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nathanbeddoewebdev/dockctl/internal/database"
)

// Repository defines the persistence interface for task records.
type Repository interface {
	// Save inserts (ID == 0) or updates a record. On insert an ID is
	// assigned to the record.
	Save(record *TaskRecord) error

	// Get retrieves a single record by ID. It returns nil, nil when absent.
	Get(id int64) (*TaskRecord, error)

	// ListPending returns running records, newest first.
	ListPending() ([]TaskRecord, error)

	// ListRecent returns the most recent n records regardless of status.
	ListRecent(n int) ([]TaskRecord, error)

	// DeleteOlderThan removes finished records last updated before d ago.
	DeleteOlderThan(d time.Duration) (int64, error)

	Close() error
}

// SQLiteRepository implements Repository on the shared SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// Open opens the repository at the default database path.
func Open() (*SQLiteRepository, error) {
	path, err := database.DefaultPath()
	if err != nil {
		return nil, err
	}
	return OpenAt(path)
}

// OpenAt opens the repository at path.
func OpenAt(path string) (*SQLiteRepository, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}
	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRepository) migrate() error {
	return database.Migrate(r.db, "tasks", `
		CREATE TABLE IF NOT EXISTS tasks (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id        TEXT    NOT NULL,
			container_id   TEXT    NOT NULL,
			container_name TEXT    NOT NULL DEFAULT '',
			action         TEXT    NOT NULL DEFAULT '',
			image_ref      TEXT    NOT NULL DEFAULT '',
			status         TEXT    NOT NULL DEFAULT 'running',
			progress       REAL    NOT NULL DEFAULT 0,
			message        TEXT    NOT NULL DEFAULT '',
			error_message  TEXT    NOT NULL DEFAULT '',
			created_at     TEXT    NOT NULL,
			updated_at     TEXT    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);`,
	)
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectColumns = `
	SELECT id, task_id, container_id, container_name, action, image_ref,
	       status, progress, message, error_message, created_at, updated_at
	FROM tasks`

// Save inserts a new record (ID == 0) or updates an existing one.
func (r *SQLiteRepository) Save(record *TaskRecord) error {
	record.UpdatedAt = time.Now().UTC()
	if record.Status == "" {
		record.Status = StatusRunning
	}

	if record.ID == 0 {
		if record.CreatedAt.IsZero() {
			record.CreatedAt = record.UpdatedAt
		}
		result, err := r.db.Exec(`
			INSERT INTO tasks (task_id, container_id, container_name, action, image_ref,
			                   status, progress, message, error_message, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.TaskID, record.ContainerID, record.ContainerName, record.Action, record.ImageRef,
			record.Status, record.Progress, record.Message, record.ErrorMessage,
			record.CreatedAt.Format(timeLayout), record.UpdatedAt.Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("tasks: insert failed: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("tasks: failed to get last insert ID: %w", err)
		}
		record.ID = id
		return nil
	}

	result, err := r.db.Exec(`
		UPDATE tasks SET task_id=?, container_id=?, container_name=?, action=?, image_ref=?,
		       status=?, progress=?, message=?, error_message=?, updated_at=?
		WHERE id=?`,
		record.TaskID, record.ContainerID, record.ContainerName, record.Action, record.ImageRef,
		record.Status, record.Progress, record.Message, record.ErrorMessage,
		record.UpdatedAt.Format(timeLayout), record.ID,
	)
	if err != nil {
		return fmt.Errorf("tasks: update failed: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("tasks: task record %d not found", record.ID)
	}
	return nil
}

// Get retrieves a single record by ID.
func (r *SQLiteRepository) Get(id int64) (*TaskRecord, error) {
	rows, err := r.db.Query(selectColumns+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("tasks: query failed: %w", err)
	}
	defer rows.Close()

	records, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// ListPending returns running records, newest first.
func (r *SQLiteRepository) ListPending() ([]TaskRecord, error) {
	rows, err := r.db.Query(selectColumns+` WHERE status = ? ORDER BY created_at DESC, id DESC`, StatusRunning)
	if err != nil {
		return nil, fmt.Errorf("tasks: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// ListRecent returns the most recent n records regardless of status.
func (r *SQLiteRepository) ListRecent(n int) ([]TaskRecord, error) {
	rows, err := r.db.Query(selectColumns+` ORDER BY created_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("tasks: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// DeleteOlderThan removes finished records last updated before d ago.
func (r *SQLiteRepository) DeleteOlderThan(d time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-d).Format(timeLayout)
	result, err := r.db.Exec(`DELETE FROM tasks WHERE status != ? AND updated_at < ?`, StatusRunning, cutoff)
	if err != nil {
		return 0, fmt.Errorf("tasks: delete failed: %w", err)
	}
	return result.RowsAffected()
}

// Close releases database resources.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func scanRows(rows *sql.Rows) ([]TaskRecord, error) {
	var records []TaskRecord
	for rows.Next() {
		var rec TaskRecord
		var createdStr, updatedStr string
		if err := rows.Scan(
			&rec.ID, &rec.TaskID, &rec.ContainerID, &rec.ContainerName, &rec.Action, &rec.ImageRef,
			&rec.Status, &rec.Progress, &rec.Message, &rec.ErrorMessage, &createdStr, &updatedStr,
		); err != nil {
			return nil, fmt.Errorf("tasks: scan failed: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(timeLayout, createdStr)
		rec.UpdatedAt, _ = time.Parse(timeLayout, updatedStr)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tasks: iteration failed: %w", err)
	}
	return records, nil
}
