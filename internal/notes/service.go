// Package notes composes transcription, feature extraction, archiving and
// storage into the operations exposed by the API and the inbox watcher.
package notes

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/umahmood/soundex"

	"voicenote/internal/archive"
	"voicenote/internal/events"
	"voicenote/internal/extract"
	"voicenote/internal/provider"
	"voicenote/internal/store"
	"voicenote/metrics"
)

var (
	// ErrValidation marks caller mistakes: empty or oversized audio,
	// unsupported file types, blank note text.
	ErrValidation = errors.New("invalid input")
	// ErrProcessing marks provider failures. The *provider.Error is wrapped
	// alongside it.
	ErrProcessing = errors.New("processing failed")
)

// Processor derives summary, todos and tags from text.
type Processor interface {
	Process(transcript, providerSummary string) extract.Result
}

// NoteInput is a client-supplied note, stored as given.
type NoteInput struct {
	Text    string   `json:"text"`
	Summary string   `json:"summary"`
	Todos   []string `json:"todos"`
	Tags    []string `json:"tags"`
}

// Options tunes a Service. Zero values pick sensible defaults.
type Options struct {
	MaxAudioBytes int64
	Metrics       *metrics.Metrics
	Events        *events.Bus
	Now           func() time.Time
	NewID         func() string
}

// Service is safe for concurrent use.
type Service struct {
	transcriber provider.Transcriber
	extractor   Processor
	repo        store.Repository
	archiver    archive.Archiver
	maxAudio    int64
	metrics     *metrics.Metrics
	events      *events.Bus
	now         func() time.Time
	newID       func() string
}

func New(t provider.Transcriber, x Processor, repo store.Repository, arch archive.Archiver, opts Options) *Service {
	if x == nil {
		x = extract.Extractor{}
	}
	if arch == nil {
		arch = archive.Nop{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Events == nil {
		opts.Events = events.NewBus(16)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Service{
		transcriber: t,
		extractor:   x,
		repo:        repo,
		archiver:    arch,
		maxAudio:    opts.MaxAudioBytes,
		metrics:     opts.Metrics,
		events:      opts.Events,
		now:         opts.Now,
		newID:       opts.NewID,
	}
}

// Metrics exposes the counters this service updates.
func (s *Service) Metrics() *metrics.Metrics { return s.metrics }

// Events exposes the bus note lifecycle events are published on.
func (s *Service) Events() *events.Bus { return s.events }

// FromAudio runs the whole pipeline for one recording and stores the note.
func (s *Service) FromAudio(ctx context.Context, audio []byte, filename string) (store.Note, error) {
	res, err := s.Transcribe(ctx, audio, filename)
	if err != nil {
		if !errors.Is(err, ErrValidation) {
			s.events.Publish(events.Event{Type: events.NoteFailed, Source: filename, Detail: err.Error()})
		}
		return store.Note{}, err
	}

	features := s.Summarize(res.Text, res.Summary)
	n := store.Note{
		ID:        s.newID(),
		Text:      res.Text,
		Summary:   features.Summary,
		Todos:     features.Todos,
		Tags:      features.Tags,
		CreatedAt: s.now().UTC(),
	}

	name := n.ID + strings.ToLower(filepath.Ext(filename))
	if loc, err := s.archiver.Store(ctx, name, audio); err != nil {
		log.Warn().Err(err).Str("note_id", n.ID).Msg("audio archive failed")
	} else if loc != "" {
		log.Debug().Str("note_id", n.ID).Str("location", loc).Msg("audio archived")
	}

	if err := s.insert(ctx, n, filename); err != nil {
		return store.Note{}, err
	}
	log.Info().Str("note_id", n.ID).Str("file", filename).Int("todos", len(n.Todos)).Strs("tags", n.Tags).Msg("note created from audio")
	return n, nil
}

// Transcribe validates the upload and returns the provider's transcript and
// summary without storing anything.
func (s *Service) Transcribe(ctx context.Context, audio []byte, filename string) (provider.Result, error) {
	if err := s.validateAudio(audio, filename); err != nil {
		return provider.Result{}, err
	}
	if s.transcriber == nil {
		return provider.Result{}, fmt.Errorf("%w: no transcription provider configured", ErrProcessing)
	}
	start := time.Now()
	res, err := s.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		s.metrics.IncProviderFailures()
		log.Error().Err(err).Str("provider", s.transcriber.Name()).Str("file", filename).Msg("transcription failed")
		return provider.Result{}, fmt.Errorf("%w: %w", ErrProcessing, err)
	}
	log.Debug().Str("provider", s.transcriber.Name()).Dur("elapsed", time.Since(start)).Int("chars", len(res.Text)).Msg("transcribed")
	return res, nil
}

// Summarize runs the extractor on text the caller already has.
func (s *Service) Summarize(text, providerSummary string) extract.Result {
	s.metrics.IncExtractions()
	return s.extractor.Process(text, providerSummary)
}

// Create stores a client-supplied note with a fresh id and timestamp.
func (s *Service) Create(ctx context.Context, in NoteInput) (store.Note, error) {
	if strings.TrimSpace(in.Text) == "" {
		return store.Note{}, fmt.Errorf("%w: text is required", ErrValidation)
	}
	n := store.Note{
		ID:        s.newID(),
		Text:      in.Text,
		Summary:   in.Summary,
		Todos:     nonNil(in.Todos),
		Tags:      nonNil(in.Tags),
		CreatedAt: s.now().UTC(),
	}
	if err := s.insert(ctx, n, "api"); err != nil {
		return store.Note{}, err
	}
	log.Info().Str("note_id", n.ID).Msg("note created")
	return n, nil
}

func (s *Service) List(ctx context.Context) ([]store.Note, error) {
	return s.repo.List(ctx)
}

// Get returns store.ErrNotFound unchanged when the id is unknown.
func (s *Service) Get(ctx context.Context, id string) (store.Note, error) {
	return s.repo.Get(ctx, id)
}

// SearchByTag returns notes with a tag that matches exactly or sounds the
// same, so "meeting" also finds notes tagged "meting".
func (s *Service) SearchByTag(ctx context.Context, tag string) ([]store.Note, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return nil, fmt.Errorf("%w: tag is required", ErrValidation)
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	want := soundex.Code(tag)
	out := []store.Note{}
	for _, n := range all {
		for _, t := range n.Tags {
			t = strings.ToLower(t)
			if t == tag || soundex.Code(t) == want {
				out = append(out, n)
				break
			}
		}
	}
	return out, nil
}

func (s *Service) Health(ctx context.Context) error {
	return s.repo.Health(ctx)
}

func (s *Service) insert(ctx context.Context, n store.Note, source string) error {
	if err := s.repo.Insert(ctx, n); err != nil {
		s.metrics.IncStoreFailures()
		log.Error().Err(err).Str("note_id", n.ID).Msg("store note failed")
		s.events.Publish(events.Event{Type: events.NoteFailed, NoteID: n.ID, Source: source, Detail: err.Error()})
		return fmt.Errorf("store note: %w", err)
	}
	s.metrics.IncNotesCreated()
	s.events.Publish(events.Event{Type: events.NoteCreated, NoteID: n.ID, Source: source})
	return nil
}

func (s *Service) validateAudio(audio []byte, filename string) error {
	if len(audio) == 0 {
		return fmt.Errorf("%w: audio file is empty", ErrValidation)
	}
	if s.maxAudio > 0 && int64(len(audio)) > s.maxAudio {
		return fmt.Errorf("%w: audio file exceeds %d bytes", ErrValidation, s.maxAudio)
	}
	if !provider.IsAudio(filename) {
		return fmt.Errorf("%w: unsupported file type %q", ErrValidation, filepath.Ext(filename))
	}
	return nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
