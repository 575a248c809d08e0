// Package storage is the embedded relational store backing the vault:
// sqlite with an FTS5 index over item titles and content.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// ErrNotFound is returned when a row the caller named does not exist.
var ErrNotFound = errors.New("storage: not found")

// defaultDuePageSize bounds one review session's queue.
const defaultDuePageSize = 100

// DB wraps the SQL database connection.
type DB struct {
	conn *sql.DB

	// DuePageSize caps how many cards DueCards returns. Defaults to 100.
	DuePageSize int
}

// Open creates a database connection and brings the schema up to date.
// Timestamps are stored in sqlite's own text format so the date functions
// used by the analytics queries can read them.
func Open(dsn string) (*DB, error) {
	if !strings.Contains(dsn, "_time_format") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_time_format=sqlite"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := migrateUp(conn); err != nil {
		return nil, err
	}

	return &DB{conn: conn, DuePageSize: defaultDuePageSize}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
