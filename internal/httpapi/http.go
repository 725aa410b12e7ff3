package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"voicenote/internal/config"
	"voicenote/internal/export"
	"voicenote/internal/notes"
	"voicenote/internal/store"
	"voicenote/queue"
)

const (
	audioField   = "audio_file"
	multipartMem = 8 << 20
	docxMIME     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Router builds HTTP handlers for the notes API and /ops.
type Router struct {
	cfg   config.Config
	notes *notes.Service
	queue *queue.Queue
}

// NewRouter wires handlers to the service. q may be nil when no background
// queue runs.
func NewRouter(cfg config.Config, svc *notes.Service, q *queue.Queue) *Router {
	return &Router{cfg: cfg, notes: svc, queue: q}
}

func (r *Router) Register(router *httprouter.Router) {
	router.GET("/health", r.health)
	router.POST("/transcribe", r.transcribe)
	router.POST("/summarize", r.summarize)
	router.POST("/notes/audio", r.createFromAudio)
	router.POST("/notes", r.createNote)
	router.GET("/notes", r.listNotes)
	router.GET("/notes/:id", r.getNote)
	router.GET("/notes/:id/export", r.exportNote)
	router.GET("/ops/status", r.status)
	router.GET("/ops/events", r.events)
}

// Handler returns the full middleware stack: CORS, then bearer auth when a
// secret is configured, then the routes.
func (r *Router) Handler() http.Handler {
	router := httprouter.New()
	r.Register(router)
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, http.StatusNotFound, "Not Found")
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	router.PanicHandler = func(w http.ResponseWriter, req *http.Request, v interface{}) {
		log.Error().Interface("panic", v).Str("path", req.URL.Path).Msg("handler panic")
		respondError(w, http.StatusInternalServerError, "internal error")
	}

	var h http.Handler = router
	if r.cfg.AuthSecret != "" {
		h = requireToken([]byte(r.cfg.AuthSecret), h, "/health")
	}
	return cors.New(cors.Options{
		AllowedOrigins: r.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(logRequests(h))
}

func (r *Router) health(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	if err := r.notes.Health(req.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) transcribe(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	audio, filename, err := r.readAudio(w, req)
	if err != nil {
		r.fail(w, err)
		return
	}
	res, err := r.notes.Transcribe(req.Context(), audio, filename)
	if err != nil {
		r.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"transcription": res.Text, "summary": res.Summary})
}

func (r *Router) summarize(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var body struct {
		Text            *string `json:"text"`
		ProviderSummary string  `json:"provider_summary"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if body.Text == nil {
		respondError(w, http.StatusBadRequest, "text is required")
		return
	}
	respondJSON(w, http.StatusOK, r.notes.Summarize(*body.Text, body.ProviderSummary))
}

func (r *Router) createFromAudio(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	audio, filename, err := r.readAudio(w, req)
	if err != nil {
		r.fail(w, err)
		return
	}
	n, err := r.notes.FromAudio(req.Context(), audio, filename)
	if err != nil {
		r.fail(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, n)
}

func (r *Router) createNote(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var in notes.NoteInput
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	n, err := r.notes.Create(req.Context(), in)
	if err != nil {
		r.fail(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, n)
}

func (r *Router) listNotes(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var list []store.Note
	var err error
	if tag := req.URL.Query().Get("tag"); tag != "" {
		list, err = r.notes.SearchByTag(req.Context(), tag)
	} else {
		list, err = r.notes.List(req.Context())
	}
	if err != nil {
		r.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (r *Router) getNote(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	n, err := r.notes.Get(req.Context(), ps.ByName("id"))
	if err != nil {
		r.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

func (r *Router) exportNote(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	n, err := r.notes.Get(req.Context(), ps.ByName("id"))
	if err != nil {
		r.fail(w, err)
		return
	}
	tmp, err := os.CreateTemp("", "note-*.docx")
	if err != nil {
		r.fail(w, err)
		return
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	if err := export.WriteDocx(n, path); err != nil {
		r.fail(w, err)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		r.fail(w, err)
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", docxMIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="note-%s.docx"`, n.ID))
	if _, err := io.Copy(w, f); err != nil {
		log.Warn().Err(err).Str("note_id", n.ID).Msg("write export")
	}
}

func (r *Router) status(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	payload := map[string]any{
		"metrics": r.notes.Metrics().Snapshot(),
		"workers": r.cfg.WorkerCount,
	}
	if r.queue != nil {
		payload["queue"] = r.queue.Stats()
		payload["queue_healthy"] = r.queue.Healthy()
	}
	respondJSON(w, http.StatusOK, payload)
}

// events streams note lifecycle events as server-sent events until the
// client goes away.
func (r *Router) events(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "stream unsupported")
		return
	}
	// Streams outlive the server write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		log.Debug().Err(err).Msg("clear write deadline")
	}

	bus := r.notes.Events()
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
				return
			}
			flusher.Flush()
		case <-req.Context().Done():
			return
		}
	}
}

func (r *Router) readAudio(w http.ResponseWriter, req *http.Request) ([]byte, string, error) {
	if r.cfg.MaxAudioBytes > 0 {
		req.Body = http.MaxBytesReader(w, req.Body, r.cfg.MaxAudioBytes+multipartMem)
	}
	if err := req.ParseMultipartForm(multipartMem); err != nil {
		return nil, "", fmt.Errorf("%w: expected multipart form with %s: %v", notes.ErrValidation, audioField, err)
	}
	file, header, err := req.FormFile(audioField)
	if err != nil {
		return nil, "", fmt.Errorf("%w: missing %s: %v", notes.ErrValidation, audioField, err)
	}
	defer file.Close()
	audio, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("%w: read %s: %v", notes.ErrValidation, audioField, err)
	}
	return audio, header.Filename, nil
}

func (r *Router) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, notes.ErrValidation):
		respondError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), notes.ErrValidation.Error()+": "))
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "Note not found")
	case errors.Is(err, notes.ErrProcessing):
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("write json")
	}
}
