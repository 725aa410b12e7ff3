package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// ordinalMarker matches a numbered-list prefix such as "1." or "2)".
var ordinalMarker = regexp.MustCompile(`^\d+[.)]\s+`)

// actionVerbs are the leading words that mark a line as an action item.
var actionVerbs = map[string]struct{}{
	"review":      {},
	"check":       {},
	"analyze":     {},
	"consider":    {},
	"explore":     {},
	"investigate": {},
	"assess":      {},
	"monitor":     {},
	"update":      {},
	"plan":        {},
	"research":    {},
	"learn":       {},
	"understand":  {},
	"discuss":     {},
	"note":        {},
}

// ExtractTodos keeps every line of text whose first word is an action verb.
// Lines are trimmed and returned in input order. Leading bullet markers
// ("-", "*", "•") and numbered prefixes ("1.", "2)") are skipped when
// locating the first word but kept in the output.
// When no line qualifies the result is []string{TodoPlaceholder}.
func ExtractTodos(text string) []string {
	var todos []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, ok := actionVerbs[firstWord(ordinalMarker.ReplaceAllString(line, ""))]; ok {
			todos = append(todos, line)
		}
	}
	if len(todos) == 0 {
		return []string{TodoPlaceholder}
	}
	return todos
}

// firstWord returns the first run of word characters in s, lowercased.
func firstWord(s string) string {
	start := -1
	for i, r := range s {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return strings.ToLower(s[start:i])
		}
	}
	if start < 0 {
		return ""
	}
	return strings.ToLower(s[start:])
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
