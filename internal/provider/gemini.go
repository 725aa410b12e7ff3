package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"voicenote/internal/config"
)

const geminiName = "gemini"

const geminiPrompt = `Transcribe this voice note word for word.
Then summarize it as short bullet points, one per line, each starting with "- ".
Start action items with a verb such as review, check, plan, update or discuss.
Respond with a single JSON object and nothing else:
{"transcript": "<full transcript>", "summary": "- first point\n- second point"}`

// Gemini sends audio inline to a Gemini model and asks for transcript and
// summary in one JSON reply.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGemini(ctx context.Context, cfg config.ProviderConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, newError(geminiName, KindConfig, errors.New("GEMINI_API_KEY not set"))
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, newError(geminiName, KindConfig, fmt.Errorf("create client: %w", err))
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Gemini{client: client, model: model, timeout: cfg.Timeout()}, nil
}

func (g *Gemini) Name() string { return geminiName }

func (g *Gemini) Transcribe(ctx context.Context, audio []byte, filename string) (Result, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	parts := []*genai.Part{
		genai.NewPartFromBytes(audio, MIMEType(filename)),
		genai.NewPartFromText(geminiPrompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return Result{}, newError(geminiName, KindTranscription, fmt.Errorf("generate content: %w", err))
	}
	if result == nil {
		return Result{}, newError(geminiName, KindEmpty, errors.New("empty response"))
	}
	return parseGeminiReply(result.Text())
}

func parseGeminiReply(raw string) (Result, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Result{}, newError(geminiName, KindEmpty, errors.New("empty response"))
	}
	var parsed struct {
		Transcript string `json:"transcript"`
		Summary    string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Result{}, newError(geminiName, KindTranscription, fmt.Errorf("decode reply: %w", err))
	}
	text := strings.TrimSpace(parsed.Transcript)
	if text == "" {
		return Result{}, newError(geminiName, KindEmpty, errors.New("empty transcript"))
	}
	return Result{Text: text, Summary: strings.TrimSpace(parsed.Summary)}, nil
}
