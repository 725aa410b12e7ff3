package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"voicenote/internal/config"
	"voicenote/internal/provider"
)

type echoTranscriber struct{}

func (echoTranscriber) Name() string { return "echo" }

func (echoTranscriber) Transcribe(_ context.Context, audio []byte, _ string) (provider.Result, error) {
	return provider.Result{Text: string(audio)}, nil
}

func testConfig(t *testing.T) config.Config {
	dir := t.TempDir()
	return config.Config{
		APIHost:       "127.0.0.1",
		APIPort:       "0",
		MaxAudioBytes: 1 << 20,
		CORSOrigins:   []string{"http://localhost:8501"},
		WorkerCount:   1,
		JobQueueSize:  4,
		JobTimeoutSec: 5,
		Store:         config.StoreConfig{Driver: "sqlite", Path: filepath.Join(dir, "notes.db")},
		Provider:      config.ProviderConfig{Name: "echo", TimeoutSec: 5},
		Archive:       config.ArchiveConfig{Kind: "none"},
		Inbox:         config.InboxConfig{Enabled: true, Dir: filepath.Join(dir, "inbox")},
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	a, err := NewWithTranscriber(context.Background(), testConfig(t), echoTranscriber{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not stop")
	}
	if a.Queue().Healthy() {
		t.Fatalf("queue should be stopped after shutdown")
	}
}

func TestHandlerServesHealth(t *testing.T) {
	a, err := NewWithTranscriber(context.Background(), testConfig(t), echoTranscriber{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.close()
	rr := httptest.NewRecorder()
	a.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Provider.Name = "whisper"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatalf("expected provider error")
	}
}

func TestRunStopsQueueWhenWatcherFails(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.Inbox.Dir = filepath.Join(blocker, "inbox")

	a, err := NewWithTranscriber(context.Background(), cfg, echoTranscriber{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.Run(ctx); err == nil {
		t.Fatalf("expected watcher start error")
	}
	if a.Queue().Healthy() {
		t.Fatalf("queue should be stopped when startup fails")
	}
}
