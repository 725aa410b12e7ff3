package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"voicenote/internal/config"
)

func TestLocalStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audio")
	a, err := New(context.Background(), config.ArchiveConfig{Kind: "local", Dir: dir})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()

	loc, err := a.Store(context.Background(), "note-1.wav", []byte("RIFF"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if loc != filepath.Join(dir, "note-1.wav") {
		t.Fatalf("unexpected location %s", loc)
	}
	b, err := os.ReadFile(loc)
	if err != nil || string(b) != "RIFF" {
		t.Fatalf("expected archived bytes, got %q %v", b, err)
	}
	if _, err := os.Stat(loc + ".part"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestLocalStoreStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	loc, err := l.Store(context.Background(), "../../escape.mp3", []byte("x"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if filepath.Dir(loc) != dir {
		t.Fatalf("expected file inside archive dir, got %s", loc)
	}
}

func TestNewKinds(t *testing.T) {
	a, err := New(context.Background(), config.ArchiveConfig{Kind: "none"})
	if err != nil {
		t.Fatalf("none: %v", err)
	}
	if loc, err := a.Store(context.Background(), "x.wav", []byte("x")); loc != "" || err != nil {
		t.Fatalf("nop archiver should discard, got %q %v", loc, err)
	}
	if _, err := New(context.Background(), config.ArchiveConfig{Kind: "tape"}); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if _, err := New(context.Background(), config.ArchiveConfig{Kind: "azure", AzureAccount: "acct"}); err == nil {
		t.Fatalf("expected error for incomplete azure config")
	}
}

func TestAzureBlobURL(t *testing.T) {
	// A syntactically valid base64 key; no request is made.
	a, err := NewAzure("acct", "c2VjcmV0", "notes")
	if err != nil {
		t.Fatalf("new azure: %v", err)
	}
	u := a.container.NewBlockBlobURL("n.wav").URL()
	if got := u.String(); got != "https://acct.blob.core.windows.net/notes/n.wav" {
		t.Fatalf("unexpected blob url %s", got)
	}
}
