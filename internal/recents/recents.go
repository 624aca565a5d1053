// Package recents persists the recently opened projects list in SQLite,
// keyed by storage ref identity and durable across restarts.
package recents

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/CodexFabrica/Feder/internal/apperr"
	"github.com/CodexFabrica/Feder/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS recent_projects (
	ref            TEXT PRIMARY KEY,
	name           TEXT NOT NULL DEFAULT '',
	mode           TEXT NOT NULL DEFAULT 'researcher',
	last_opened_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_recent_projects_opened ON recent_projects(last_opened_at);
`

// DB wraps a sql.DB with recents-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("recents: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("recents: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("recents: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Upsert inserts a new entry or refreshes the one matched by ref,
// updating name, mode, and the opened timestamp in place. Entries are
// identified by storage ref, never by name; names may collide.
func (db *DB) Upsert(ref, name string, mode models.Mode) error {
	if ref == "" {
		return fmt.Errorf("recents: ref is required")
	}
	_, err := db.conn.Exec(`
		INSERT INTO recent_projects (ref, name, mode, last_opened_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(ref) DO UPDATE SET
			name           = excluded.name,
			mode           = excluded.mode,
			last_opened_at = excluded.last_opened_at
	`, ref, name, string(mode), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recents: upsert: %w", err)
	}
	return nil
}

// List returns all entries, most recently opened first.
func (db *DB) List() ([]models.RecentProject, error) {
	rows, err := db.conn.Query(`
		SELECT ref, name, mode, last_opened_at
		FROM recent_projects
		ORDER BY last_opened_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("recents: list: %w", err)
	}
	defer rows.Close()

	var out []models.RecentProject
	for rows.Next() {
		var r models.RecentProject
		var mode string
		if err := rows.Scan(&r.Ref, &r.Name, &mode, &r.LastOpenedAt); err != nil {
			return nil, err
		}
		r.Mode = models.Mode(mode)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get returns the entry for ref, or apperr.ErrNotFound.
func (db *DB) Get(ref string) (models.RecentProject, error) {
	var r models.RecentProject
	var mode string
	err := db.conn.QueryRow(`
		SELECT ref, name, mode, last_opened_at
		FROM recent_projects WHERE ref = ?
	`, ref).Scan(&r.Ref, &r.Name, &mode, &r.LastOpenedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RecentProject{}, fmt.Errorf("recents: %s: %w", ref, apperr.ErrNotFound)
	}
	if err != nil {
		return models.RecentProject{}, fmt.Errorf("recents: get: %w", err)
	}
	r.Mode = models.Mode(mode)
	return r, nil
}
