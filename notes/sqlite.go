package notes

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const (
	getSQL    = `SELECT title, body, updated_at FROM notes WHERE key = ?`
	deleteSQL = `DELETE FROM notes WHERE key = ?`
	upsertSQL = `INSERT INTO notes (key, title, body, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET title = excluded.title, body = excluded.body, updated_at = excluded.updated_at`
)

// SQLite is a Store backed by a SQLite database file. Each write is a
// single statement, so a note is replaced atomically.
type SQLite struct {
	db  *sql.DB
	now Clock
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema. A nil clock uses time.Now.
func OpenSQLite(path string, now Clock) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("notes: sqlite path is empty")
	}
	if now == nil {
		now = time.Now
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db, now: now}, nil
}

// Get returns the note for id, or an empty note.
func (s *SQLite) Get(ctx context.Context, id string) (Note, error) {
	if err := ValidateID(id); err != nil {
		return Note{}, err
	}
	var n Note
	err := s.db.QueryRowContext(ctx, getSQL, Key(id)).Scan(&n.Title, &n.Body, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, nil
	}
	if err != nil {
		return Note{}, fmt.Errorf("get note %s: %w", id, err)
	}
	return n, nil
}

// Put stores in under id, replacing any previous note.
func (s *SQLite) Put(ctx context.Context, id string, in Input) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	n := stamp(in, s.now())
	if _, err := s.db.ExecContext(ctx, upsertSQL, Key(id), n.Title, n.Body, n.UpdatedAt); err != nil {
		return fmt.Errorf("put note %s: %w", id, err)
	}
	return nil
}

// Delete removes the note for id. Deleting an absent note succeeds.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, deleteSQL, Key(id)); err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	return nil
}

// Ping checks the database connection.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
