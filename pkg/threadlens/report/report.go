// Package report aggregates vocabulary statistics and the weight matrix
// into a single analysis report.
package report

import (
	"fmt"

	"github.com/cognicore/threadlens/pkg/threadlens/internalerr"
	"github.com/cognicore/threadlens/pkg/threadlens/tfidf"
	"github.com/cognicore/threadlens/pkg/threadlens/topterms"
	"github.com/cognicore/threadlens/pkg/threadlens/vocab"
)

// Shape is the (documents, terms) size of the weight matrix.
type Shape struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Report is the aggregated result of one analysis run. It is never mutated
// after Build returns.
type Report struct {
	Vocabulary *vocab.Report   `json:"vocabulary"`
	Scores     topterms.Series `json:"scores"` // mean weight per term, descending
	Shape      Shape           `json:"shape"`
	Sparsity   float64         `json:"sparsity"` // percentage of zero cells
	Matrix     *tfidf.Matrix   `json:"-"`
}

// Build aggregates m and v.
func Build(m *tfidf.Matrix, v *vocab.Report) (*Report, error) {
	if m == nil || m.Weights == nil || v == nil {
		return nil, fmt.Errorf("%w: report needs a matrix and a vocabulary report", internalerr.ErrPrecondition)
	}
	rows, cols := m.Shape()
	if cols != len(m.Vocabulary) {
		return nil, fmt.Errorf("%w: matrix has %d columns but vocabulary has %d terms",
			internalerr.ErrPrecondition, cols, len(m.Vocabulary))
	}
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: matrix shape %dx%d", internalerr.ErrEmptyVocabulary, rows, cols)
	}

	cells := float64(rows) * float64(cols)
	return &Report{
		Vocabulary: v,
		Scores:     MeanScores(m),
		Shape:      Shape{Rows: rows, Cols: cols},
		Sparsity:   100 * (1 - float64(m.Weights.NNZ())/cells),
		Matrix:     m,
	}, nil
}

// MeanScores returns the mean weight of every term over all documents,
// ranked by descending score. Ties keep vocabulary order.
func MeanScores(m *tfidf.Matrix) topterms.Series {
	means := m.Weights.ColMeans()
	s := make(topterms.Series, len(means))
	for j, mean := range means {
		s[j] = topterms.Score{Term: m.Vocabulary[j], Score: mean}
	}
	ranked, _ := topterms.Rank(s)
	return ranked
}

// Table returns the score table in column form.
func (r *Report) Table() topterms.Table {
	t := topterms.Table{
		Terms:  make([]string, len(r.Scores)),
		Scores: make([]float64, len(r.Scores)),
	}
	for i, s := range r.Scores {
		t.Terms[i] = s.Term
		t.Scores[i] = s.Score
	}
	return t
}

// ScoreMap returns term -> mean weight.
func (r *Report) ScoreMap() topterms.Mapping {
	m := make(topterms.Mapping, len(r.Scores))
	for _, s := range r.Scores {
		m[s.Term] = s.Score
	}
	return m
}

// TopTerms returns the n terms with the highest mean weight.
func (r *Report) TopTerms(n int) []string {
	terms, _ := topterms.Top(r.Scores, n)
	return terms
}
