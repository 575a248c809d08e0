package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Source kinds.
const (
	SourceLocal = "local"
	SourceGit   = "git"
)

// Source is a location imported knowledge notes come from: a local
// directory of markdown files or a git repository of them.
type Source struct {
	ID          int64
	Path        string
	Kind        string
	LastScanned sql.NullTime
}

// InsertSource registers a new source and returns its ID.
func (db *DB) InsertSource(path, kind string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO sources (path, kind) VALUES (?, ?)
	`, path, kind)
	if err != nil {
		return 0, fmt.Errorf("insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read id for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source by its path. Returns nil when no
// source matches.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	err := db.conn.QueryRow(`
		SELECT id, path, kind, last_scanned FROM sources WHERE path = ?
	`, path).Scan(&s.ID, &s.Path, &s.Kind, &s.LastScanned)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find source %s: %w", path, err)
	}
	return &s, nil
}

// Sources lists every registered source.
func (db *DB) Sources() ([]Source, error) {
	rows, err := db.conn.Query(`SELECT id, path, kind, last_scanned FROM sources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Kind, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source rows: %w", err)
	}
	return sources, nil
}

// UpdateSourceLastScanned records a completed scan.
func (db *DB) UpdateSourceLastScanned(sourceID int64, scannedAt time.Time) error {
	_, err := db.conn.Exec(`
		UPDATE sources SET last_scanned = ? WHERE id = ?
	`, scannedAt.UTC(), sourceID)
	if err != nil {
		return fmt.Errorf("update last scanned for source %d: %w", sourceID, err)
	}
	return nil
}

// DeleteSource removes a source registration. Items already imported from
// it are kept; they simply stop reconciling.
func (db *DB) DeleteSource(sourceID int64) error {
	if _, err := db.conn.Exec(`
		UPDATE vault_items SET source_id = NULL WHERE source_id = ?
	`, sourceID); err != nil {
		return fmt.Errorf("detach items from source %d: %w", sourceID, err)
	}
	if _, err := db.conn.Exec(`DELETE FROM sources WHERE id = ?`, sourceID); err != nil {
		return fmt.Errorf("delete source %d: %w", sourceID, err)
	}
	return nil
}
