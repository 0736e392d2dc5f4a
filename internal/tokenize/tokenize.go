// Package tokenize provides the shared word tokenizer and stop-word filter
// used by capability matching, keyword extraction, and cross-source
// validation. Keeping one implementation here keeps the Jaccard math and the
// selection keyword overlap consistent with each other.
package tokenize

import (
	"strings"
	"unicode"
)

// Words splits text into lowercase word tokens, dropping stop-words and
// tokens shorter than three characters.
func Words(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-' && r != '_'
	})

	words := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "-_")
		if IsStopWord(f) {
			continue
		}
		words = append(words, f)
	}
	return words
}

// Set returns the token set of text.
func Set(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range Words(text) {
		set[w] = struct{}{}
	}
	return set
}

// Jaccard returns the token-set overlap of two texts: |A∩B| / |A∪B|.
// Two empty sets are treated as fully similar.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// IsStopWord returns true if the word is too common to be useful.
func IsStopWord(word string) bool {
	if len(word) <= 2 {
		return true
	}
	return stopWords[word]
}

var stopWords = map[string]bool{
	"the": true, "and": true, "are": true, "was": true, "were": true,
	"been": true, "being": true, "have": true, "has": true, "had": true,
	"does": true, "did": true, "will": true, "would": true, "could": true,
	"should": true, "may": true, "might": true, "must": true, "shall": true,
	"for": true, "with": true, "from": true, "into": true, "through": true,
	"during": true, "before": true, "after": true, "above": true, "below": true,
	"out": true, "but": true, "nor": true, "yet": true, "then": true,
	"else": true, "when": true, "where": true, "why": true, "how": true,
	"all": true, "each": true, "every": true, "both": true, "few": true,
	"more": true, "most": true, "other": true, "some": true, "such": true,
	"not": true, "only": true, "own": true, "same": true, "than": true,
	"too": true, "very": true, "can": true, "just": true, "now": true,
	"this": true, "that": true, "these": true, "those": true, "its": true,
	"you": true, "she": true, "they": true, "your": true, "his": true,
	"her": true, "our": true, "their": true, "him": true, "them": true,
	"what": true, "which": true, "who": true, "whom": true, "there": true,
	"here": true, "about": true, "against": true, "because": true, "any": true,
	"get": true, "got": true, "make": true, "see": true, "know": true,
	"take": true, "come": true, "think": true, "look": true, "want": true,
	"give": true, "use": true, "find": true, "tell": true, "ask": true,
	"seem": true, "try": true, "need": true, "please": true, "like": true,
}
