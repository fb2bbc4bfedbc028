// Package notestore is the minimal Notes/tag contract implementation
// backed by the same SQLite connection sqlitestore opens, covering only
// what the leech detector and sibling coordinator need: tagging a note
// and checking whether it already carries a tag.
package notestore

import (
	"context"
	"database/sql"
)

// SQLClient is satisfied by *sql.DB and *sql.Tx.
type SQLClient interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements scheduler.Notes over the note_tags table.
type Store struct {
	client SQLClient
}

func NewStore(client SQLClient) *Store {
	return &Store{client: client}
}

func (s *Store) AddTag(ctx context.Context, noteID int64, tag string) error {
	_, err := s.client.ExecContext(ctx, `
		INSERT OR IGNORE INTO note_tags (note_id, tag) VALUES (?, ?)`, noteID, tag)
	return err
}

func (s *Store) HasTag(ctx context.Context, noteID int64, tag string) (bool, error) {
	var n int
	err := s.client.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM note_tags WHERE note_id = ? AND tag = ?`, noteID, tag).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
