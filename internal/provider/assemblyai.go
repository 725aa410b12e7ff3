package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"voicenote/internal/config"
)

const assemblyAIName = "assemblyai"

// AssemblyAI calls the AssemblyAI v2 REST API: upload, create a transcript
// with bullet summarization, then poll until it settles.
type AssemblyAI struct {
	apiKey       string
	baseURL      string
	timeout      time.Duration
	pollInterval time.Duration
	client       *http.Client
}

func NewAssemblyAI(cfg config.ProviderConfig) *AssemblyAI {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.assemblyai.com"
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 3 * time.Second
	}
	return &AssemblyAI{
		apiKey:       cfg.APIKey,
		baseURL:      baseURL,
		timeout:      cfg.Timeout(),
		pollInterval: poll,
		client:       &http.Client{Timeout: 2 * time.Minute},
	}
}

func (a *AssemblyAI) Name() string { return assemblyAIName }

type transcriptRequest struct {
	AudioURL      string `json:"audio_url"`
	Summarization bool   `json:"summarization"`
	SummaryModel  string `json:"summary_model"`
	SummaryType   string `json:"summary_type"`
}

type transcriptResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Text    string `json:"text"`
	Summary string `json:"summary"`
	Error   string `json:"error"`
}

func (a *AssemblyAI) Transcribe(ctx context.Context, audio []byte, filename string) (Result, error) {
	if a.apiKey == "" {
		return Result{}, newError(assemblyAIName, KindConfig, errors.New("ASSEMBLYAI_API_KEY not set"))
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	uploadURL, err := a.upload(ctx, audio)
	if err != nil {
		return Result{}, newError(assemblyAIName, KindUpload, err)
	}

	var created transcriptResponse
	err = a.doJSON(ctx, http.MethodPost, "/v2/transcript", transcriptRequest{
		AudioURL:      uploadURL,
		Summarization: true,
		SummaryModel:  "informative",
		SummaryType:   "bullets",
	}, &created)
	if err != nil {
		return Result{}, newError(assemblyAIName, KindTranscription, fmt.Errorf("create transcript: %w", err))
	}
	if created.ID == "" {
		return Result{}, newError(assemblyAIName, KindTranscription, errors.New("create transcript: missing id"))
	}
	log.Debug().Str("transcript_id", created.ID).Str("file", filename).Msg("assemblyai transcript queued")

	final, err := a.poll(ctx, created.ID)
	if err != nil {
		return Result{}, err
	}
	text := strings.TrimSpace(final.Text)
	if text == "" {
		return Result{}, newError(assemblyAIName, KindEmpty, errors.New("empty transcript"))
	}
	return Result{Text: text, Summary: strings.TrimSpace(final.Summary)}, nil
}

func (a *AssemblyAI) poll(ctx context.Context, id string) (transcriptResponse, error) {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()
	for {
		var tr transcriptResponse
		if err := a.doJSON(ctx, http.MethodGet, "/v2/transcript/"+id, nil, &tr); err != nil {
			return tr, newError(assemblyAIName, KindTranscription, fmt.Errorf("poll transcript %s: %w", id, err))
		}
		switch tr.Status {
		case "completed":
			return tr, nil
		case "error":
			msg := tr.Error
			if msg == "" {
				msg = "unknown error"
			}
			return tr, newError(assemblyAIName, KindTranscription, fmt.Errorf("transcription failed: %s", msg))
		}
		select {
		case <-ctx.Done():
			return tr, newError(assemblyAIName, KindTimeout, fmt.Errorf("transcript %s still %s: %w", id, tr.Status, ctx.Err()))
		case <-ticker.C:
		}
	}
}

func (a *AssemblyAI) upload(ctx context.Context, audio []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v2/upload", bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", a.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")
	var parsed struct {
		UploadURL string `json:"upload_url"`
	}
	if err := a.send(req, &parsed); err != nil {
		return "", err
	}
	if parsed.UploadURL == "" {
		return "", errors.New("upload response missing upload_url")
	}
	return parsed.UploadURL, nil
}

func (a *AssemblyAI) doJSON(ctx context.Context, method, path string, payload, target any) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", a.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.send(req, target)
}

func (a *AssemblyAI) send(req *http.Request, target any) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("assemblyai status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(target)
}
