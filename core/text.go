package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Stop words are never indexed and never matched.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// Tokenize splits text into case-folded terms, dropping punctuation and stop words.
// Terms keep their order and may repeat.
func Tokenize(text string) []string {
	fold := cases.Fold()
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	terms := make([]string, 0, len(words))
	for _, w := range words {
		term := fold.String(w)
		if term != "" && !stopWords[term] {
			terms = append(terms, term)
		}
	}
	return terms
}

// UniqueTerms tokenizes text and removes repeated terms, keeping first occurrence order.
func UniqueTerms(text string) []string {
	terms := Tokenize(text)
	seen := make(map[string]bool, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// TermFrequencies counts every term of text. The second result is the total
// number of indexed terms.
func TermFrequencies(text string) (map[string]int, int) {
	terms := Tokenize(text)
	freq := make(map[string]int, len(terms))
	for _, t := range terms {
		freq[t]++
	}
	return freq, len(terms)
}
