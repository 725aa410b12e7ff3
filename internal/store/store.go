// Package store persists notes. SQLite is the default backend; Postgres is
// available through gorm for shared deployments.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"voicenote/internal/config"
)

var (
	// ErrNotFound is returned by Get when no note has the requested id.
	ErrNotFound = errors.New("note not found")
	// ErrDuplicate is returned by Insert when the id is already stored.
	ErrDuplicate = errors.New("note already exists")
)

// Note is a stored voice note. Notes are written once and never updated.
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Summary   string    `json:"summary"`
	Todos     []string  `json:"todos"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository is the persistence contract used by the notes service.
type Repository interface {
	Insert(ctx context.Context, n Note) error
	// List returns all notes, newest first.
	List(ctx context.Context) ([]Note, error)
	Get(ctx context.Context, id string) (Note, error)
	Health(ctx context.Context) error
	Close() error
}

// Open selects a backend from the store configuration.
func Open(ctx context.Context, cfg config.StoreConfig) (Repository, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return OpenSQLite(cfg.Path)
	case "postgres":
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList(raw string) ([]string, error) {
	out := []string{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}
