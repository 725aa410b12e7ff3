// Package watch turns audio files dropped into an inbox directory into notes.
// Files that were stored move to inbox/processed, files that failed move to
// inbox/failed.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"voicenote/internal/config"
	"voicenote/internal/provider"
	"voicenote/internal/store"
	"voicenote/queue"
)

const (
	processedDir    = "processed"
	failedDir       = "failed"
	defaultSettle   = 500 * time.Millisecond
	enqueueWindow   = 5 * time.Second
	enqueueInterval = 250 * time.Millisecond
)

// Processor turns one audio file into a stored note.
type Processor interface {
	FromAudio(ctx context.Context, audio []byte, filename string) (store.Note, error)
}

// Watcher monitors the inbox directory and enqueues a job per audio file.
type Watcher struct {
	cfg      config.InboxConfig
	notes    Processor
	queue    *queue.Queue
	settle   time.Duration
	mu       sync.Mutex
	inflight map[string]struct{}
}

func New(cfg config.InboxConfig, notes Processor, q *queue.Queue) *Watcher {
	return &Watcher{
		cfg:      cfg,
		notes:    notes,
		queue:    q,
		settle:   defaultSettle,
		inflight: make(map[string]struct{}),
	}
}

// Start creates the inbox layout and begins watching. It returns once the
// watch is registered; events are handled until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if !w.cfg.Enabled {
		log.Info().Msg("inbox watcher disabled")
		return nil
	}
	for _, dir := range []string{w.cfg.Dir, w.dir(processedDir), w.dir(failedDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create inbox dir: %w", err)
		}
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.cfg.Dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", w.cfg.Dir, err)
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Write) != 0 && isAudio(evt.Name) {
					w.enqueue(ctx, evt.Name, "inbox")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("watcher error")
			}
		}
	}()
	log.Info().Str("dir", w.cfg.Dir).Msg("inbox watcher started")
	return nil
}

// enqueue schedules path once; repeated events for a file already queued are
// ignored until its job finishes.
func (w *Watcher) enqueue(ctx context.Context, path, source string) bool {
	if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
		return false
	}
	w.mu.Lock()
	if _, busy := w.inflight[path]; busy {
		w.mu.Unlock()
		return false
	}
	w.inflight[path] = struct{}{}
	w.mu.Unlock()

	release := func(error) {
		w.mu.Lock()
		delete(w.inflight, path)
		w.mu.Unlock()
	}
	job := queue.Job{
		ID:       filepath.Base(path),
		Source:   source,
		Work:     func(ctx context.Context) error { return w.process(ctx, path) },
		OnFinish: release,
	}
	enqueued, _ := w.queue.EnqueueWithRetry(ctx, job, enqueueWindow, enqueueInterval)
	if !enqueued {
		release(nil)
	}
	return enqueued
}

func (w *Watcher) process(ctx context.Context, path string) error {
	if err := waitStable(ctx, path, w.settle); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	audio, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	n, err := w.notes.FromAudio(ctx, audio, filepath.Base(path))
	if err != nil {
		if moveErr := w.move(path, failedDir); moveErr != nil {
			log.Error().Err(moveErr).Str("file", path).Msg("move to failed")
		}
		return fmt.Errorf("inbox %s: %w", filepath.Base(path), err)
	}
	if err := w.move(path, processedDir); err != nil {
		log.Error().Err(err).Str("file", path).Str("note_id", n.ID).Msg("move to processed")
	}
	return nil
}

func (w *Watcher) move(path, sub string) error {
	base := filepath.Base(path)
	dest := filepath.Join(w.dir(sub), base)
	if _, err := os.Stat(dest); err == nil {
		ext := filepath.Ext(base)
		dest = filepath.Join(w.dir(sub), fmt.Sprintf("%s-%d%s", strings.TrimSuffix(base, ext), time.Now().UnixNano(), ext))
	}
	return os.Rename(path, dest)
}

func (w *Watcher) dir(sub string) string {
	return filepath.Join(w.cfg.Dir, sub)
}

// waitStable blocks until the file size stops changing across one settle
// interval, so half-copied recordings are not read.
func waitStable(ctx context.Context, path string, settle time.Duration) error {
	if settle <= 0 {
		return nil
	}
	prev := int64(-1)
	for {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.Size() == prev {
			return nil
		}
		prev = info.Size()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(settle):
		}
	}
}

func isAudio(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return provider.IsAudio(base)
}
