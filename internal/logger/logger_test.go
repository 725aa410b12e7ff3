package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSONWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "info", "json")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	l.Info().Str("note_id", "abc").Msg("note stored")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json line, got %q: %v", buf.String(), err)
	}
	if entry["note_id"] != "abc" || entry["message"] != "note stored" || entry["level"] != "info" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "WARNING", "json")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestInvalidLevel(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, "loud", "console"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
