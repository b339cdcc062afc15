// Package textproc provides the default text collaborators of the pipeline:
// a deterministic, idempotent preprocessor and a word-boundary label wrapper.
//
// The analysis packages only depend on the function shapes (Func and
// WrapFunc), so callers may substitute their own normalisation.
package textproc

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball"
	"golang.org/x/net/html"

	"github.com/cognicore/threadlens/pkg/threadlens/stoplist"
)

// Func is the preprocessing contract: pure, deterministic and idempotent.
type Func func(text string) string

// WrapFunc wraps a label on word boundaries near width characters.
type WrapFunc func(text string, width int) string

// Identity returns text unchanged.
func Identity(text string) string { return text }

// maxStemPasses bounds the fixpoint loop in stem. Snowball output is almost
// always a fixpoint after one pass; the loop makes that a guarantee.
const maxStemPasses = 4

// Preprocessor normalises post text: markup removal, lowercasing,
// stop-word stripping and optional English stemming.
type Preprocessor struct {
	stops *stoplist.Manager
	stem  bool
}

// NewPreprocessor creates a preprocessor. A nil stoplist uses the English list.
func NewPreprocessor(stops *stoplist.Manager, stem bool) *Preprocessor {
	if stops == nil {
		stops = stoplist.NewEnglish()
	}
	return &Preprocessor{stops: stops, stem: stem}
}

// Func exposes the preprocessor as a Func.
func (p *Preprocessor) Func() Func {
	return p.Process
}

// Process returns the normalised form of text: lowercase words separated by
// single spaces.
func (p *Preprocessor) Process(text string) string {
	text = StripMarkup(text)

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	out := words[:0]
	for _, w := range words {
		if p.stops.IsStop(w) {
			continue
		}
		if p.stem {
			w = stem(w)
			if w == "" || p.stops.IsStop(w) {
				continue
			}
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

func stem(word string) string {
	for i := 0; i < maxStemPasses; i++ {
		next, err := snowball.Stem(word, "english", false)
		if err != nil || next == word {
			return word
		}
		word = next
	}
	return word
}

// StripMarkup returns the text content of an HTML fragment with entities
// decoded. Script and style bodies are dropped. Plain text passes through.
func StripMarkup(text string) string {
	if !strings.ContainsAny(text, "<&") {
		return text
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(text))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return strings.TrimSpace(b.String())
			}
			return text
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawTag(name) {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawTag(name) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawTag(name []byte) bool {
	s := string(name)
	return s == "script" || s == "style"
}

// SplitLabel wraps text onto lines of at most width characters, breaking on
// spaces. Words longer than width get a line of their own.
func SplitLabel(text string, width int) string {
	words := strings.Fields(text)
	if width <= 0 || len(words) == 0 {
		return strings.Join(words, " ")
	}

	var lines []string
	var line strings.Builder
	n := 0
	for _, w := range words {
		wn := utf8.RuneCountInString(w)
		if n > 0 && n+1+wn > width {
			lines = append(lines, line.String())
			line.Reset()
			n = 0
		}
		if n > 0 {
			line.WriteByte(' ')
			n++
		}
		line.WriteString(w)
		n += wn
	}
	if n > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}
