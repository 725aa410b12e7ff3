// Package extract turns transcript text into a summary, a to-do list and
// topical tags using surface-level tokenization and frequency counting only.
// Every function is pure and safe for concurrent use.
package extract

import "strings"

// Placeholders used when a heuristic finds nothing.
const (
	TodoPlaceholder = "Review note"
	TagPlaceholder  = "note"
)

// Result is the structured output of one extraction pass.
type Result struct {
	Summary string   `json:"summary"`
	Todos   []string `json:"todos"`
	Tags    []string `json:"tags"`
}

// Extractor is the injectable form of Process. The zero value is ready to use.
type Extractor struct{}

// Process composes DeriveSummary, ExtractTodos and ExtractTags.
func (Extractor) Process(transcript, providerSummary string) Result {
	return Process(transcript, providerSummary)
}

// Process derives a Result from a transcript and an optional provider summary.
// Todos are mined from the provider summary when one is present, since that is
// where providers phrase action items as bullet lines; tags always come from
// the transcript.
func Process(transcript, providerSummary string) Result {
	todoSource := transcript
	if hasText(providerSummary) {
		todoSource = providerSummary
	}
	return Result{
		Summary: DeriveSummary(transcript, providerSummary),
		Todos:   ExtractTodos(todoSource),
		Tags:    ExtractTags(transcript),
	}
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}
