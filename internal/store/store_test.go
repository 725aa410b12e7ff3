package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"voicenote/internal/config"
)

func openTemp(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "notes.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertGetRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	in := Note{
		ID:        "n-1",
		Text:      "Review the budget. Plan the offsite.",
		Summary:   "- Review the budget",
		Todos:     []string{"- Review the budget"},
		Tags:      []string{"budget", "offsite"},
		CreatedAt: created,
	}
	if err := s.Insert(ctx, in); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := s.Get(ctx, "n-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created_at mismatch: %v vs %v", got.CreatedAt, created)
	}
	got.CreatedAt = in.CreatedAt
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, in)
	}
}

func TestGetMissingReturnsErrNotFound(t *testing.T) {
	s := openTemp(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertDuplicate(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	n := Note{ID: "dup", Text: "x", CreatedAt: time.Now().UTC()}
	if err := s.Insert(ctx, n); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Insert(ctx, n); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		n := Note{ID: id, Text: id, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := s.Insert(ctx, n); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	notes, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, n := range notes {
		ids = append(ids, n.ID)
	}
	if !reflect.DeepEqual(ids, []string{"new", "mid", "old"}) {
		t.Fatalf("unexpected order %v", ids)
	}
	if notes[0].Todos == nil || notes[0].Tags == nil {
		t.Fatalf("expected empty lists, not nil")
	}
}

func TestListEmpty(t *testing.T) {
	s := openTemp(t)
	notes, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if notes == nil || len(notes) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", notes)
	}
}

func TestHealthAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if err := s.Insert(context.Background(), Note{ID: "keep", Text: "persisted", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	s.Close()

	s2, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if _, err := s2.Get(context.Background(), "keep"); err != nil {
		t.Fatalf("expected note after reopen: %v", err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.StoreConfig{Driver: "mysql"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestRecordConversion(t *testing.T) {
	n := Note{ID: "r", Text: "t", Summary: "s", Todos: []string{"Review it"}, Tags: nil, CreatedAt: time.Unix(0, 0)}
	rec, err := toRecord(n)
	if err != nil {
		t.Fatalf("toRecord: %v", err)
	}
	if rec.TagsJSON != "[]" {
		t.Fatalf("expected empty json list, got %q", rec.TagsJSON)
	}
	back, err := fromRecord(rec)
	if err != nil {
		t.Fatalf("fromRecord: %v", err)
	}
	if back.Todos[0] != "Review it" || len(back.Tags) != 0 || back.CreatedAt.Location() != time.UTC {
		t.Fatalf("unexpected note %+v", back)
	}
}
