package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinTokenRunes is the shortest token the vectorizer keeps. Single
// characters carry no signal in post titles and are dropped.
const MinTokenRunes = 2

// StopSet reports whether a lowercased token is a stopword.
type StopSet interface {
	IsStop(token string) bool
}

// Tokenizer splits text into lowercase word tokens, removing stopwords.
// A word is a maximal run of letters, digits or underscores.
type Tokenizer struct {
	stops StopSet
}

// NewTokenizer creates a tokenizer. A nil stop set keeps every token.
func NewTokenizer(stops StopSet) *Tokenizer {
	return &Tokenizer{stops: stops}
}

// Tokenize returns the tokens of text in order of appearance.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		if word := t.processToken(current.String()); word != "" {
			tokens = append(tokens, word)
		}
		current.Reset()
	}

	for _, r := range text {
		if isWordRune(r) {
			current.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()

	return tokens
}

// processToken applies the length rule and stopword filtering.
func (t *Tokenizer) processToken(word string) string {
	if utf8.RuneCountInString(word) < MinTokenRunes {
		return ""
	}
	if t.stops != nil && t.stops.IsStop(word) {
		return ""
	}
	return word
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_'
}
