package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"voicenote/internal/config"
)

func TestParseGeminiReply(t *testing.T) {
	raw := "```json\n{\"transcript\": \"Plan the trip.\", \"summary\": \"- Plan the trip\"}\n```"
	res, err := parseGeminiReply(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Text != "Plan the trip." || res.Summary != "- Plan the trip" {
		t.Fatalf("unexpected result %+v", res)
	}

	if _, err := parseGeminiReply(`{"transcript": "", "summary": "- x"}`); !IsKind(err, KindEmpty) {
		t.Fatalf("expected empty error, got %v", err)
	}
	if _, err := parseGeminiReply(`not json`); !IsKind(err, KindTranscription) {
		t.Fatalf("expected transcription error, got %v", err)
	}
}

func TestErrorKindsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("processing failed: %w", newError("assemblyai", KindUpload, errors.New("boom")))
	if !IsKind(err, KindUpload) || IsKind(err, KindEmpty) {
		t.Fatalf("kind lost through wrapping: %v", err)
	}
	timeout := newError("gemini", KindTranscription, fmt.Errorf("call: %w", context.DeadlineExceeded))
	if timeout.Kind != KindTimeout {
		t.Fatalf("expected deadline mapped to timeout, got %s", timeout.Kind)
	}
}

func TestNewSelectsAdapter(t *testing.T) {
	tr, err := New(context.Background(), config.ProviderConfig{Name: "assemblyai", APIKey: "k"})
	if err != nil || tr.Name() != "assemblyai" {
		t.Fatalf("expected assemblyai adapter, got %v %v", tr, err)
	}
	if _, err := New(context.Background(), config.ProviderConfig{Name: "gemini"}); !IsKind(err, KindConfig) {
		t.Fatalf("expected config error without gemini key, got %v", err)
	}
	if _, err := New(context.Background(), config.ProviderConfig{Name: "whisper"}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestAudioHelpers(t *testing.T) {
	if !IsAudio("memo.M4A") || IsAudio("notes.txt") {
		t.Fatalf("unexpected IsAudio result")
	}
	if MIMEType("a.mp3") != "audio/mpeg" || MIMEType("a.bin") != "application/octet-stream" {
		t.Fatalf("unexpected mime types")
	}
}
