package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/threadlens/pkg/threadlens/ingest"
	"github.com/cognicore/threadlens/pkg/threadlens/internalerr"
	"github.com/cognicore/threadlens/pkg/threadlens/stoplist"
	"github.com/cognicore/threadlens/pkg/threadlens/tfidf"
	"github.com/cognicore/threadlens/pkg/threadlens/topterms"
	"github.com/cognicore/threadlens/pkg/threadlens/vocab"
)

func build(t *testing.T, docs []string, cfg tfidf.Config) *Report {
	t.Helper()
	tok := ingest.NewTokenizer(stoplist.NewEnglish())
	m, err := tfidf.NewBuilder(cfg, tok).Build(docs)
	require.NoError(t, err)
	v, err := vocab.NewAnalyzer(nil, tok).Analyze(docs, cfg.MinDocFreq)
	require.NoError(t, err)
	r, err := Build(m, v)
	require.NoError(t, err)
	return r
}

func TestBuildScenario(t *testing.T) {
	r := build(t, []string{
		"climate policy debate",
		"climate change news",
		"sports game results",
	}, tfidf.Config{MaxTerms: 10, MinDocFreq: 1})

	assert.Equal(t, Shape{Rows: 3, Cols: 8}, r.Shape)
	assert.InDelta(t, 100*(1-9.0/24.0), r.Sparsity, 1e-9)
	assert.Equal(t, []string{"climate"}, r.TopTerms(1))
	assert.Len(t, r.Scores, 8)

	for i := 1; i < len(r.Scores); i++ {
		assert.GreaterOrEqual(t, r.Scores[i-1].Score, r.Scores[i].Score)
	}
}

func TestScoresAreColumnMeans(t *testing.T) {
	r := build(t, []string{"golang tips", "golang news", "rust news"}, tfidf.Config{MaxTerms: 10, MinDocFreq: 1})

	m := r.Matrix
	rows, _ := m.Shape()
	scores := r.ScoreMap()
	for j, term := range m.Vocabulary {
		var sum float64
		for i := 0; i < rows; i++ {
			sum += m.Weights.At(i, j)
		}
		assert.InDelta(t, sum/float64(rows), scores[term], 1e-12, term)
	}
}

func TestSparsityBounds(t *testing.T) {
	r := build(t, []string{"alpha beta", "alpha beta", "alpha beta"}, tfidf.Config{MaxTerms: 10, MinDocFreq: 2})
	assert.Equal(t, 0.0, r.Sparsity)

	r = build(t, []string{"alpha", "beta", "gamma", "alpha beta gamma"}, tfidf.Config{MaxTerms: 10, MinDocFreq: 1})
	assert.GreaterOrEqual(t, r.Sparsity, 0.0)
	assert.Less(t, r.Sparsity, 100.0)
}

func TestTableAndMappingAgreeWithScores(t *testing.T) {
	r := build(t, []string{"climate policy", "climate news", "sports news"}, tfidf.Config{MaxTerms: 10, MinDocFreq: 1})

	fromTable, err := topterms.Top(r.Table(), 3)
	require.NoError(t, err)
	fromSeries, err := topterms.Top(r.Scores, 3)
	require.NoError(t, err)
	assert.Equal(t, fromSeries, fromTable)

	fromMap, err := topterms.Top(r.ScoreMap(), 1)
	require.NoError(t, err)
	assert.Equal(t, fromSeries[:1], fromMap)
}

func TestBuildRejectsMissingInputs(t *testing.T) {
	_, err := Build(nil, &vocab.Report{})
	assert.ErrorIs(t, err, internalerr.ErrPrecondition)

	_, err = Build(&tfidf.Matrix{}, nil)
	assert.ErrorIs(t, err, internalerr.ErrPrecondition)
}
