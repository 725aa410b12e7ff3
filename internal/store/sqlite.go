package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLite stores notes in a single SQLite file.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return s, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			summary TEXT NOT NULL,
			todos_json TEXT NOT NULL,
			tags_json TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_notes_created ON notes(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Insert(ctx context.Context, n Note) error {
	todos, err := encodeList(n.Todos)
	if err != nil {
		return err
	}
	tags, err := encodeList(n.Tags)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO notes(id, text, summary, todos_json, tags_json, created_at)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`, n.ID, n.Text, n.Summary, todos, tags, n.CreatedAt.UTC())
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrDuplicate
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, text, summary, todos_json, tags_json, created_at FROM notes ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	notes := []Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *SQLite) Get(ctx context.Context, id string) (Note, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, text, summary, todos_json, tags_json, created_at FROM notes WHERE id=?`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, ErrNotFound
	}
	return n, err
}

// Health returns err if DB not reachable.
func (s *SQLite) Health(ctx context.Context) error {
	row := s.db.QueryRowContext(ctx, `SELECT 1`)
	var v int
	if err := row.Scan(&v); err != nil {
		return fmt.Errorf("db health: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(sc scanner) (Note, error) {
	var n Note
	var todos, tags string
	if err := sc.Scan(&n.ID, &n.Text, &n.Summary, &todos, &tags, &n.CreatedAt); err != nil {
		return Note{}, err
	}
	var err error
	if n.Todos, err = decodeList(todos); err != nil {
		return Note{}, fmt.Errorf("decode todos for %s: %w", n.ID, err)
	}
	if n.Tags, err = decodeList(tags); err != nil {
		return Note{}, fmt.Errorf("decode tags for %s: %w", n.ID, err)
	}
	n.CreatedAt = n.CreatedAt.UTC()
	return n, nil
}
