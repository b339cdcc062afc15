package projection

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/cognicore/threadlens/pkg/threadlens/internalerr"
	"github.com/cognicore/threadlens/pkg/threadlens/sparse"
)

// Method selects the dimensionality reduction.
type Method string

const (
	// MethodTSNE embeds raw vectors preserving local neighbourhoods.
	MethodTSNE Method = "tsne"
	// MethodMDS embeds a precomputed dissimilarity matrix preserving distances.
	MethodMDS Method = "mds"
)

// ParseMethod parses a method name, ignoring case and surrounding space.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodTSNE, MethodMDS:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q (want %q or %q)", internalerr.ErrInvalidMethod, s, MethodTSNE, MethodMDS)
}

// Input is what a reducer may draw on: the item vectors and their pairwise
// cosine similarity. Row k of Vectors and Similarity describe the same item.
type Input struct {
	Vectors    *sparse.CSR
	Similarity *mat.SymDense
}

// Reducer maps items to 2D coordinates, one row per item.
type Reducer interface {
	Reduce(in Input) (*mat.Dense, error)
}

// NewReducer returns the reducer for method. perplexity only applies to
// t-SNE and is clamped against the item count at reduction time.
func NewReducer(method Method, cfg Config, perplexity float64) (Reducer, error) {
	switch method {
	case MethodMDS:
		return &MDS{cfg: cfg.MDS, seed: cfg.Seed}, nil
	case MethodTSNE:
		if perplexity <= 0 {
			perplexity = cfg.Perplexity
		}
		return &TSNE{cfg: cfg.TSNE, seed: cfg.Seed, perplexity: perplexity}, nil
	}
	return nil, fmt.Errorf("%w: %q", internalerr.ErrInvalidMethod, method)
}

// center translates coordinates so every column has zero mean.
func center(y *mat.Dense) {
	r, c := y.Dims()
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, y)
		mean := stat.Mean(col, nil)
		for i := 0; i < r; i++ {
			y.Set(i, j, col[i]-mean)
		}
	}
}
