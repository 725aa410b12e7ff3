package export

import (
	"archive/zip"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"voicenote/internal/store"
)

func TestWriteDocx(t *testing.T) {
	n := store.Note{
		ID:        "n-1",
		Text:      "Review the budget before Friday.",
		Summary:   "- Review the budget\n- Plan the offsite",
		Todos:     []string{"- Review the budget", "- Plan the offsite"},
		Tags:      []string{"budget", "offsite"},
		CreatedAt: time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC),
	}
	path := filepath.Join(t.TempDir(), "note.docx")
	if err := WriteDocx(n, path); err != nil {
		t.Fatalf("write docx: %v", err)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("expected a zip container: %v", err)
	}
	defer zr.Close()
	var body string
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		body = string(b)
	}
	for _, want := range []string{"Plan the offsite", "budget, offsite", "To-dos"} {
		if !strings.Contains(body, want) {
			t.Fatalf("document missing %q", want)
		}
	}
}

func TestTitle(t *testing.T) {
	cases := []struct {
		note store.Note
		want string
	}{
		{store.Note{Summary: "- Plan the trip"}, "Plan the trip"},
		{store.Note{Text: "one two three four five six seven eight nine"}, "one two three four five six seven eight..."},
		{store.Note{ID: "x"}, "Voice note x"},
	}
	for _, tc := range cases {
		if got := Title(tc.note); got != tc.want {
			t.Fatalf("Title(%+v) = %q, want %q", tc.note, got, tc.want)
		}
	}
}
