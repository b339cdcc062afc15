package vocab

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/threadlens/pkg/threadlens/ingest"
	"github.com/cognicore/threadlens/pkg/threadlens/internalerr"
	"github.com/cognicore/threadlens/pkg/threadlens/stoplist"
	"github.com/cognicore/threadlens/pkg/threadlens/textproc"
)

func newAnalyzer(pre textproc.Func) *Analyzer {
	return NewAnalyzer(pre, ingest.NewTokenizer(stoplist.NewEnglish()))
}

func TestAnalyzeCountsOccurrences(t *testing.T) {
	r, err := newAnalyzer(nil).Analyze([]string{
		"Climate policy and the climate debate",
		"climate change news",
		"sports game results",
	}, DefaultMinFreq)
	require.NoError(t, err)

	require.NotEmpty(t, r.Entries)
	assert.Equal(t, "climate", r.Entries[0].Term)
	assert.Equal(t, 3, r.Entries[0].Frequency)
	assert.Equal(t, 2, r.Entries[0].DocFreq)

	assert.Equal(t, 10, r.Stats.TotalTerms)
	assert.Equal(t, 8, r.Stats.UniqueTerms)
	assert.Equal(t, 1, r.Stats.TermsMinFreq)
	assert.Equal(t, 100.0, r.Stats.CoverageTop1000)
	assert.Equal(t, 3, r.Frequencies()["climate"])
}

func TestAnalyzePercentagesSumAndCumulativeMonotonic(t *testing.T) {
	r, err := newAnalyzer(nil).Analyze([]string{
		"golang generics release notes",
		"golang error handling patterns golang",
		"rust versus golang performance",
		"notes on rust lifetimes",
	}, 1)
	require.NoError(t, err)

	var sum float64
	prevFreq := r.Entries[0].Frequency
	prevCum := 0.0
	for _, e := range r.Entries {
		sum += e.Percentage
		assert.LessOrEqual(t, e.Frequency, prevFreq)
		assert.GreaterOrEqual(t, e.CumulativePercentage, prevCum)
		prevFreq, prevCum = e.Frequency, e.CumulativePercentage
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
	assert.InDelta(t, 100.0, r.Entries[len(r.Entries)-1].CumulativePercentage, 1e-9)
	assert.Equal(t, r.Stats.UniqueTerms, r.Stats.TermsMinFreq)
}

func TestAnalyzeTiesAreLexical(t *testing.T) {
	r, err := newAnalyzer(nil).Analyze([]string{"zeta alpha mid"}, 1)
	require.NoError(t, err)

	terms := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		terms[i] = e.Term
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, terms)
}

func TestAnalyzeAppliesPreprocess(t *testing.T) {
	calls := 0
	pre := func(s string) string {
		calls++
		return strings.ReplaceAll(s, "colour", "color")
	}
	r, err := newAnalyzer(pre).Analyze([]string{"colour theory", "color grading"}, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, r.Frequencies()["color"])
	assert.NotContains(t, r.Frequencies(), "colour")
}

func TestAnalyzeCoverageOverLargeVocabulary(t *testing.T) {
	var docs []string
	// 1200 distinct terms; term0000 repeated so the head outweighs the tail.
	for i := 0; i < 1200; i++ {
		docs = append(docs, fmt.Sprintf("term%04d", i))
	}
	docs = append(docs, strings.Repeat("term0000 ", 100))

	r, err := newAnalyzer(nil).Analyze(docs, 2)
	require.NoError(t, err)

	total := float64(r.Stats.TotalTerms)
	assert.Equal(t, 1300, r.Stats.TotalTerms)
	assert.Equal(t, 1200, r.Stats.UniqueTerms)
	assert.InDelta(t, (101.0+999.0)/total*100, r.Stats.CoverageTop1000, 1e-9)
	assert.Equal(t, 1, r.Stats.TermsMinFreq)
}

func TestAnalyzeEmptyCorpus(t *testing.T) {
	_, err := newAnalyzer(nil).Analyze(nil, DefaultMinFreq)
	assert.ErrorIs(t, err, internalerr.ErrEmptyCorpus)

	_, err = newAnalyzer(nil).Analyze([]string{"the and of", ""}, DefaultMinFreq)
	assert.ErrorIs(t, err, internalerr.ErrEmptyCorpus)
}

func TestAnalyzeNegativeMinFreq(t *testing.T) {
	_, err := newAnalyzer(nil).Analyze([]string{"golang"}, -1)
	assert.ErrorIs(t, err, internalerr.ErrPrecondition)
}
