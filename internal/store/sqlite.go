// Package store persists project snapshots to a local SQLite database. It
// implements the persistence facade the collaboration bridge saves through:
// the bridge only needs read-snapshot and write-snapshot semantics.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/buildr-dev/buildr/internal/collab"
	"github.com/buildr-dev/buildr/internal/types"
)

// ErrNotFound is returned when a project id does not exist.
var ErrNotFound = errors.New("project not found")

// Project is one stored snapshot.
type Project struct {
	ID         string
	Name       string
	UserID     string
	Components []types.Component
	UpdatedAt  time.Time
}

// ProjectStore stores project layouts in SQLite.
type ProjectStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	layout     TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_projects_user ON projects (user_id);
`

// Open opens (creating if needed) the database at path.
func Open(path string) (*ProjectStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening project store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing project store schema: %w", err)
	}
	return &ProjectStore{db: db}, nil
}

// Close closes the database.
func (s *ProjectStore) Close() error {
	return s.db.Close()
}

// SaveProject upserts a snapshot. It satisfies the collaboration bridge's
// Saver interface, so an editing session can autosave straight into SQLite.
func (s *ProjectStore) SaveProject(ctx context.Context, snapshot collab.Snapshot) error {
	id := snapshot.ProjectID
	if id == "" {
		id = uuid.NewString()
	}
	name := snapshot.Name
	if name == "" {
		name = "Untitled"
	}

	layout, err := json.Marshal(snapshot.Components)
	if err != nil {
		return fmt.Errorf("encoding project layout: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, user_id, layout, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			user_id = excluded.user_id,
			layout = excluded.layout,
			updated_at = excluded.updated_at`,
		id, name, snapshot.UserID, string(layout), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving project %s: %w", id, err)
	}
	return nil
}

// Load fetches one project snapshot by id.
func (s *ProjectStore) Load(ctx context.Context, id string) (Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, user_id, layout, updated_at FROM projects WHERE id = ?`, id)

	var p Project
	var layout, updatedAt string
	if err := row.Scan(&p.ID, &p.Name, &p.UserID, &layout, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Project{}, ErrNotFound
		}
		return Project{}, fmt.Errorf("loading project %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(layout), &p.Components); err != nil {
		return Project{}, fmt.Errorf("decoding layout of project %s: %w", id, err)
	}
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return p, nil
}

// List returns a user's projects, newest first, without their layouts.
func (s *ProjectStore) List(ctx context.Context, userID string) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, user_id, updated_at FROM projects WHERE user_id = ? ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.UserID, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning project row: %w", err)
		}
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Delete removes a project. Missing ids are a no-op.
func (s *ProjectStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	return nil
}
