// Package provider adapts third-party speech-to-text services. Each adapter
// returns the raw transcript and, when the service produces one, a bulleted
// summary. Failures are reported as *Error with a Kind the caller can branch on.
package provider

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"voicenote/internal/config"
)

// Result is what a provider returns for one audio file.
type Result struct {
	Text    string `json:"text"`
	Summary string `json:"summary"`
}

// Transcriber turns audio bytes into text.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audio []byte, filename string) (Result, error)
}

// Kind classifies provider failures.
type Kind string

const (
	KindConfig        Kind = "config"
	KindUpload        Kind = "upload"
	KindTranscription Kind = "transcription"
	KindTimeout       Kind = "timeout"
	KindEmpty         Kind = "empty"
)

// Error is the only error type returned by Transcribe.
type Error struct {
	Kind     Kind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a provider error of kind k.
func IsKind(err error, k Kind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == k
}

func newError(provider string, kind Kind, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Provider: provider, Err: err}
}

// New builds the adapter named by cfg.Name.
func New(ctx context.Context, cfg config.ProviderConfig) (Transcriber, error) {
	switch strings.ToLower(cfg.Name) {
	case "", "assemblyai":
		return NewAssemblyAI(cfg), nil
	case "gemini":
		g, err := NewGemini(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown transcription provider %q", cfg.Name)
	}
}

var audioMIMETypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".webm": "audio/webm",
	".flac": "audio/flac",
	".aac":  "audio/aac",
}

// MIMEType guesses the audio content type from a filename.
func MIMEType(filename string) string {
	if mt, ok := audioMIMETypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return mt
	}
	return "application/octet-stream"
}

// IsAudio reports whether filename has a supported audio extension.
func IsAudio(filename string) bool {
	_, ok := audioMIMETypes[strings.ToLower(filepath.Ext(filename))]
	return ok
}
