// Package store provides SQLite-backed persistence for notes. It owns the
// physical schema, versioned through PRAGMA user_version, and exposes typed
// CRUD over the notes table.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// schemaVersion is the target value of the user_version marker. A fresh
// database starts at 0 and is migrated up on Open.
const schemaVersion = 1

const notesSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id        TEXT PRIMARY KEY NOT NULL,
	title     TEXT NOT NULL,
	body      TEXT NOT NULL,
	tags      TEXT NOT NULL,
	createdAt INTEGER NOT NULL,
	updatedAt INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_updatedAt ON notes(updatedAt DESC);
`

// Store wraps a sql.DB with note-specific operations. It is an explicitly
// owned handle: callers open it once at startup, inject it where needed,
// and close it on shutdown.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and migrates the
// schema to the current version. Any failure here is fatal for the
// application: it cannot proceed without storage.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

// migrate brings the schema up to schemaVersion. Safe to call on every
// start regardless of prior state.
func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}
	if _, err := s.db.Exec(notesSchemaSQL); err != nil {
		return fmt.Errorf("apply notes schema: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion)); err != nil {
		return fmt.Errorf("advance user_version: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
