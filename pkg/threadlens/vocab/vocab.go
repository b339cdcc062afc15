// Package vocab computes the frequency distribution of a preprocessed corpus.
package vocab

import (
	"fmt"
	"sort"

	"github.com/cognicore/threadlens/pkg/threadlens/ingest"
	"github.com/cognicore/threadlens/pkg/threadlens/internalerr"
	"github.com/cognicore/threadlens/pkg/threadlens/textproc"
)

const (
	// DefaultMinFreq is the frequency a term needs to count towards TermsMinFreq.
	DefaultMinFreq = 2

	// CoverageTopN is the head size used for the coverage statistic.
	CoverageTopN = 1000
)

// Entry is one row of the frequency distribution.
type Entry struct {
	Term                 string  `json:"term"`
	Frequency            int     `json:"frequency"`
	DocFreq              int     `json:"doc_freq"`
	Percentage           float64 `json:"percentage"`
	CumulativePercentage float64 `json:"cumulative_percentage"`
}

// Stats are the scalar vocabulary statistics.
type Stats struct {
	TotalTerms      int     `json:"total_terms"`  // token occurrences
	UniqueTerms     int     `json:"unique_terms"` // distinct terms
	TermsMinFreq    int     `json:"terms_min_freq"`
	CoverageTop1000 float64 `json:"coverage_top_1000"`
}

// Report holds the distribution sorted by descending frequency.
type Report struct {
	Entries []Entry `json:"entries"`
	Stats   Stats   `json:"stats"`
}

// Frequencies returns term -> frequency.
func (r *Report) Frequencies() map[string]int {
	out := make(map[string]int, len(r.Entries))
	for _, e := range r.Entries {
		out[e.Term] = e.Frequency
	}
	return out
}

// Analyzer preprocesses texts and counts vocabulary terms.
type Analyzer struct {
	preprocess textproc.Func
	tokenizer  *ingest.Tokenizer
}

// NewAnalyzer creates an analyzer. A nil preprocess leaves texts unchanged.
func NewAnalyzer(preprocess textproc.Func, tokenizer *ingest.Tokenizer) *Analyzer {
	if preprocess == nil {
		preprocess = textproc.Identity
	}
	return &Analyzer{preprocess: preprocess, tokenizer: tokenizer}
}

// Analyze builds the frequency report. minFreq sets the threshold for
// Stats.TermsMinFreq. Fails with ErrEmptyCorpus when no term survives.
func (a *Analyzer) Analyze(texts []string, minFreq int) (*Report, error) {
	if minFreq < 0 {
		return nil, fmt.Errorf("%w: min_freq must be >= 0, got %d", internalerr.ErrPrecondition, minFreq)
	}

	processed := make([]string, len(texts))
	for i, text := range texts {
		processed[i] = a.preprocess(text)
	}

	counts := ingest.Count(a.tokenizer, processed)
	if len(counts.TermFreq) == 0 {
		return nil, fmt.Errorf("%w: no terms in %d documents after preprocessing",
			internalerr.ErrEmptyCorpus, len(texts))
	}

	entries := make([]Entry, 0, len(counts.TermFreq))
	for term, freq := range counts.TermFreq {
		entries = append(entries, Entry{
			Term:      term,
			Frequency: freq,
			DocFreq:   counts.DocFreq[term],
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Frequency != entries[j].Frequency {
			return entries[i].Frequency > entries[j].Frequency
		}
		return entries[i].Term < entries[j].Term
	})

	total := float64(counts.TotalTokens)
	stats := Stats{
		TotalTerms:      counts.TotalTokens,
		UniqueTerms:     len(entries),
		CoverageTop1000: 100,
	}
	var cumulative float64
	var head int
	for i := range entries {
		e := &entries[i]
		e.Percentage = float64(e.Frequency) / total * 100
		cumulative += e.Percentage
		e.CumulativePercentage = cumulative
		if e.Frequency >= minFreq {
			stats.TermsMinFreq++
		}
		if i < CoverageTopN {
			head += e.Frequency
		}
	}
	if len(entries) >= CoverageTopN {
		stats.CoverageTop1000 = float64(head) / total * 100
	}

	return &Report{Entries: entries, Stats: stats}, nil
}
