package extract

import "strings"

const (
	sentenceDelimiter   = ". "
	maxSummarySentences = 3
)

// DeriveSummary returns providerSummary verbatim when it has any text.
// Otherwise it keeps the first three sentences of transcript, where sentences
// are separated by a period followed by a space. Transcripts of three
// sentences or fewer come back unchanged.
func DeriveSummary(transcript, providerSummary string) string {
	if hasText(providerSummary) {
		return providerSummary
	}
	sentences := strings.Split(transcript, sentenceDelimiter)
	if len(sentences) <= maxSummarySentences {
		return transcript
	}
	return strings.Join(sentences[:maxSummarySentences], sentenceDelimiter) + "."
}
