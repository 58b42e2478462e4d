package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/snapnote/snapnote/internal/apperr"
	"github.com/snapnote/snapnote/internal/models"
)

// List returns all notes ordered by updatedAt descending. The result is
// never nil. A row whose tags column fails to decode gets an empty tag
// list; one malformed row must not fail the whole listing.
func (s *Store) List(ctx context.Context) ([]models.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, body, tags, createdAt, updatedAt
		FROM notes
		ORDER BY updatedAt DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list scan: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// GetByID returns the note with the given id, or apperr.ErrNotFound when
// no row matches.
func (s *Store) GetByID(ctx context.Context, id string) (models.Note, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, body, tags, createdAt, updatedAt
		FROM notes
		WHERE id = ?
	`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("store: get %s: %w", id, err)
	}
	return n, nil
}

// Upsert inserts the note, or updates title/body/tags/updatedAt of the
// existing row with the same id. The lookup and write run in one
// transaction so the contract is explicit rather than riding on SQLite's
// conflict-clause semantics: the update deliberately omits createdAt, so
// the stored creation time always wins on an existing row.
func (s *Store) Upsert(ctx context.Context, n models.Note) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tags := encodeTags(n.Tags)

	var storedCreatedAt int64
	err = tx.QueryRowContext(ctx, `SELECT createdAt FROM notes WHERE id = ?`, n.ID).Scan(&storedCreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO notes (id, title, body, tags, createdAt, updatedAt)
			VALUES (?, ?, ?, ?, ?, ?)
		`, n.ID, n.Title, n.Body, tags, n.CreatedAt, n.UpdatedAt)
		if err != nil {
			return fmt.Errorf("store: insert note: %w", err)
		}
	case err != nil:
		return fmt.Errorf("store: upsert lookup: %w", err)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE notes
			SET title = ?, body = ?, tags = ?, updatedAt = ?
			WHERE id = ?
		`, n.Title, n.Body, tags, n.UpdatedAt, n.ID)
		if err != nil {
			return fmt.Errorf("store: update note: %w", err)
		}
	}

	return tx.Commit()
}

// Remove deletes the note with the given id. Deleting a nonexistent id is
// a no-op, not an error.
func (s *Store) Remove(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: remove %s: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(r rowScanner) (models.Note, error) {
	var n models.Note
	var rawTags string
	if err := r.Scan(&n.ID, &n.Title, &n.Body, &rawTags, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return models.Note{}, err
	}
	n.Tags = decodeTags(rawTags)
	return n, nil
}

func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	raw, _ := json.Marshal(tags)
	return string(raw)
}

// decodeTags is deliberately lenient: a malformed or non-array encoding
// degrades to an empty list instead of surfacing an error.
func decodeTags(raw string) []string {
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}
