// Package sqlitestore is the concrete, SQLite-backed implementation of
// the scheduler.Store and scheduler.Decks contracts.
package sqlitestore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// SQLClient is satisfied by both *sql.DB and *sql.Tx.
type SQLClient interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// DB wraps the raw SQLite connection and runs migrations on open.
type DB struct {
	client *sql.DB
}

// Open connects to path (created if it doesn't exist) and brings the
// schema up to date via golang-migrate's embed.FS + iofs wiring.
func Open(path string) (*DB, error) {
	client, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	instance, err := sqlite3.WithInstance(client, &sqlite3.Config{})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to init migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to read migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", instance)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to init migrations: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		client.Close()
		return nil, fmt.Errorf("unable to run migrations: %w", err)
	}

	return &DB{client: client}, nil
}

// Client returns the raw *sql.DB for collaborators that need direct
// access (internal/notestore shares this connection rather than
// opening a second one).
func (db *DB) Client() *sql.DB {
	return db.client
}

func (db *DB) Close() error {
	return db.client.Close()
}
