package search

import (
	"strings"

	"github.com/poiesic/chunkd/core"
)

// Stop words to filter out of query tokens before keyword matching
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// normalizeTerms lowercases caller-supplied keywords without stop-word
// filtering: an explicit keyword is always intentional.
func normalizeTerms(terms []string) []string {
	cleaned := make([]string, 0, len(terms))
	for _, term := range terms {
		t := strings.ToLower(strings.TrimSpace(term))
		if t != "" {
			cleaned = append(cleaned, t)
		}
	}
	return cleaned
}

// chunkTokenSet builds the matchable token set of a chunk from its
// content plus every string leaf of its metadata.
func chunkTokenSet(chunk *core.Chunk) map[string]bool {
	tokens := tokenizeAndFilter(chunk.Content)
	for _, s := range chunk.Metadata.Strings() {
		tokens = append(tokens, tokenizeAndFilter(s)...)
	}

	set := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		set[token] = true
	}
	return set
}

// keywordOverlap scores a chunk as the fraction of query terms found in
// its token set. Case-insensitive; returns 0 when there are no terms.
func keywordOverlap(terms []string, chunk *core.Chunk) float32 {
	if len(terms) == 0 {
		return 0
	}

	set := chunkTokenSet(chunk)
	matched := 0
	for _, term := range terms {
		if set[term] {
			matched++
		}
	}
	return float32(matched) / float32(len(terms))
}
