// Package iconprefs stores the user's icon favourites and custom image icon
// mappings, and resolves the icon shown for a container.
//
// Storage shares the SQLite database at ~/.config/dockctl/dockctl.db with
// actionstore and auditlog, in separate tables.
package iconprefs

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"nathanbeddoewebdev/dockctl/internal/database"
)

// Repository defines the persistence interface for icon preferences.
type Repository interface {
	// AddFavorite marks a catalog icon as a favourite. Adding it twice is
	// not an error.
	AddFavorite(name string) error
	// RemoveFavorite reports whether the favourite existed.
	RemoveFavorite(name string) (bool, error)
	// Favorites returns favourite names, oldest first.
	Favorites() ([]string, error)

	// SetMapping upserts the icon for an image reference.
	SetMapping(imageRef, url string) error
	// RemoveMapping reports whether the mapping existed.
	RemoveMapping(imageRef string) (bool, error)
	// Mappings returns all mappings ordered by image reference.
	Mappings() ([]Mapping, error)

	Close() error
}

// SQLiteRepository implements Repository backed by the local database.
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
	return database.Migrate(r.db, "iconprefs", `
		CREATE TABLE IF NOT EXISTS icon_favorites (
			name       TEXT PRIMARY KEY,
			created_at TEXT NOT NULL
		);`, `
		CREATE TABLE IF NOT EXISTS icon_mappings (
			image_ref  TEXT PRIMARY KEY,
			url        TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	)
}

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (r *SQLiteRepository) AddFavorite(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("iconprefs: favourite name is empty")
	}
	_, err := r.db.Exec(`INSERT INTO icon_favorites (name, created_at) VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING`, name, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("iconprefs: insert favourite failed: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RemoveFavorite(name string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM icon_favorites WHERE name = ?`, strings.TrimSpace(name))
	if err != nil {
		return false, fmt.Errorf("iconprefs: delete favourite failed: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *SQLiteRepository) Favorites() ([]string, error) {
	rows, err := r.db.Query(`SELECT name FROM icon_favorites ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("iconprefs: query failed: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("iconprefs: scan failed: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *SQLiteRepository) SetMapping(imageRef, url string) error {
	imageRef = strings.TrimSpace(imageRef)
	url = strings.TrimSpace(url)
	if imageRef == "" || url == "" {
		return fmt.Errorf("iconprefs: image reference and url are required")
	}
	_, err := r.db.Exec(`
		INSERT INTO icon_mappings (image_ref, url, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(image_ref) DO UPDATE SET
			url = excluded.url,
			updated_at = excluded.updated_at`,
		imageRef, url, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("iconprefs: upsert mapping failed: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RemoveMapping(imageRef string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM icon_mappings WHERE image_ref = ?`, strings.TrimSpace(imageRef))
	if err != nil {
		return false, fmt.Errorf("iconprefs: delete mapping failed: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *SQLiteRepository) Mappings() ([]Mapping, error) {
	rows, err := r.db.Query(`SELECT image_ref, url, updated_at FROM icon_mappings ORDER BY image_ref`)
	if err != nil {
		return nil, fmt.Errorf("iconprefs: query failed: %w", err)
	}
	defer rows.Close()

	var out []Mapping
	for rows.Next() {
		var m Mapping
		var updated string
		if err := rows.Scan(&m.ImageRef, &m.URL, &updated); err != nil {
			return nil, fmt.Errorf("iconprefs: scan failed: %w", err)
		}
		m.UpdatedAt, _ = time.Parse(timeLayout, updated)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Close releases database resources.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
