package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	maxTags      = 5
	minTagLength = 4
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// stopWords never become tags.
var stopWords = map[string]struct{}{
	"the": {}, "is": {}, "a": {}, "an": {}, "and": {}, "or": {}, "to": {},
	"of": {}, "in": {}, "on": {}, "for": {}, "with": {}, "at": {}, "by": {},
	"from": {}, "as": {}, "it": {}, "this": {}, "that": {}, "these": {},
	"those": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"has": {}, "have": {}, "had": {}, "but": {}, "not": {}, "do": {},
	"does": {}, "did": {}, "so": {}, "if": {}, "then": {}, "than": {},
	"too": {}, "very": {}, "can": {}, "will": {}, "just": {}, "about": {},
	"into": {}, "out": {}, "up": {}, "down": {}, "over": {}, "under": {},
	"again": {}, "more": {}, "most": {}, "some": {}, "such": {}, "no": {},
	"nor": {}, "only": {}, "own": {}, "same": {}, "s": {}, "t": {}, "d": {},
	"ll": {}, "m": {}, "o": {}, "re": {}, "ve": {}, "y": {},
}

// ExtractTags returns up to five of the most frequent words in text.
// Words are maximal runs of letters, digits and underscores of at least four
// characters, compared in lower case, with stop words removed. Ties keep the
// order of first occurrence. When nothing qualifies the result is
// []string{TagPlaceholder}.
func ExtractTags(text string) []string {
	counts := make(map[string]int)
	var order []string
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if utf8.RuneCountInString(word) < minTagLength {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}
	if len(order) == 0 {
		return []string{TagPlaceholder}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxTags {
		order = order[:maxTags]
	}
	return order
}
