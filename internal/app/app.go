// Package app wires configuration, storage, the transcription provider and
// the HTTP surface into one runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"voicenote/internal/archive"
	"voicenote/internal/config"
	"voicenote/internal/events"
	"voicenote/internal/extract"
	"voicenote/internal/httpapi"
	"voicenote/internal/notes"
	"voicenote/internal/provider"
	"voicenote/internal/store"
	"voicenote/internal/watch"
	"voicenote/metrics"
	"voicenote/queue"
)

const shutdownTimeout = 10 * time.Second

// App wires the data plane components together.
type App struct {
	cfg      config.Config
	store    store.Repository
	archiver archive.Archiver
	notes    *notes.Service
	queue    *queue.Queue
	watcher  *watch.Watcher
	handler  http.Handler
}

// New builds every component once. The transcriber is created here and
// injected; nothing is constructed lazily behind a global.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	transcriber, err := provider.New(ctx, cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("init provider: %w", err)
	}
	return NewWithTranscriber(ctx, cfg, transcriber)
}

// NewWithTranscriber is New with a caller-supplied transcriber.
func NewWithTranscriber(ctx context.Context, cfg config.Config, transcriber provider.Transcriber) (*App, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	arch, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init archive: %w", err)
	}

	m := metrics.New()
	svc := notes.New(transcriber, extract.Extractor{}, st, arch, notes.Options{
		MaxAudioBytes: cfg.MaxAudioBytes,
		Metrics:       m,
		Events:        events.NewBus(32),
	})
	q := queue.New(cfg.JobQueueSize, cfg.WorkerCount, time.Duration(cfg.JobTimeoutSec)*time.Second).WithObserver(m)
	watcher := watch.New(cfg.Inbox, svc, q)
	router := httpapi.NewRouter(cfg, svc, q)

	return &App{
		cfg:      cfg,
		store:    st,
		archiver: arch,
		notes:    svc,
		queue:    q,
		watcher:  watcher,
		handler:  router.Handler(),
	}, nil
}

// Run starts workers, the inbox watcher and the HTTP server, and blocks
// until ctx is done or the server fails.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	a.queue.Start(ctx)
	if err := a.watcher.Start(ctx); err != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.queue.Stop(stopCtx)
		return fmt.Errorf("start watcher: %w", err)
	}
	if a.cfg.Inbox.Enabled {
		go func() {
			if _, err := a.watcher.Backfill(ctx, 0); err != nil {
				log.Warn().Err(err).Msg("inbox backfill failed")
			}
		}()
	}

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      a.cfg.Provider.Timeout() + time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
	srv.RegisterOnShutdown(a.notes.Events().Close)
	serverDone := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("provider", a.cfg.Provider.Name).Str("store", a.cfg.Store.Driver).Msg("http listening")
		serverDone <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("could not shutdown server gracefully")
		}
		a.queue.Stop(shutdownCtx)
		return nil
	case err := <-serverDone:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) close() {
	if err := a.archiver.Close(); err != nil {
		log.Warn().Err(err).Msg("close archive")
	}
	if err := a.store.Close(); err != nil {
		log.Warn().Err(err).Msg("close store")
	}
}

func (a *App) Handler() http.Handler { return a.handler }
func (a *App) Notes() *notes.Service { return a.notes }
func (a *App) Queue() *queue.Queue { return a.queue }
func (a *App) Watcher() *watch.Watcher { return a.watcher }
