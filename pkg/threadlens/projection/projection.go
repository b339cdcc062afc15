// Package projection reduces document or term vectors to 2D coordinates
// and decides which items to emphasise and which pairs to connect.
//
// Items are the rows of the weight matrix (documents) or its columns
// (terms). Pairwise cosine similarity drives both the distance-preserving
// reduction and the edge list; the neighbour-preserving reduction works
// from the raw vectors. Both reductions are seeded, so identical input and
// configuration always yield identical coordinates.
package projection

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/threadlens/pkg/threadlens/internalerr"
	"github.com/cognicore/threadlens/pkg/threadlens/sparse"
	"github.com/cognicore/threadlens/pkg/threadlens/textproc"
)

// Kind says whether items are documents (matrix rows) or terms (columns).
type Kind string

const (
	Documents Kind = "documents"
	Terms     Kind = "terms"
)

// Config holds the reproducibility and tuning defaults of the projector.
type Config struct {
	Seed       int64      `yaml:"seed" json:"seed"`
	Threshold  float64    `yaml:"threshold" json:"threshold"`     // default edge threshold for term graphs
	LabelWidth int        `yaml:"label_width" json:"label_width"` // wrap width for document labels
	Perplexity float64    `yaml:"perplexity" json:"perplexity"`
	TSNE       TSNEConfig `yaml:"tsne" json:"tsne"`
	MDS        MDSConfig  `yaml:"mds" json:"mds"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Seed:       42,
		Threshold:  0.3,
		LabelWidth: 20,
		Perplexity: 30,
		TSNE: TSNEConfig{
			LearningRate:      200,
			MaxIter:           1000,
			EarlyExaggeration: 12,
			ExaggerationIter:  250,
			MinGradNorm:       1e-7,
		},
		MDS: MDSConfig{
			NInit:   4,
			MaxIter: 300,
			Eps:     1e-3,
		},
	}
}

// Emphasis selects the highlighted items. Top > 0 picks the items with the
// highest mean weight; otherwise Indices lists them explicitly; when both
// are empty every item is emphasised.
type Emphasis struct {
	Top     int   `json:"top,omitempty"`
	Indices []int `json:"indices,omitempty"`
}

// Options are the per-call projection parameters.
type Options struct {
	Method   Method
	Kind     Kind
	Emphasis Emphasis
	// Threshold overrides the edge threshold. When nil, term projections use
	// Config.Threshold and document projections draw no edges.
	Threshold *float64
	// Restrict embeds only the emphasised items instead of all items.
	Restrict bool
	// Perplexity overrides Config.Perplexity for t-SNE when > 0.
	Perplexity float64
}

// Point is one embedded item.
type Point struct {
	Index      int     `json:"index"` // item index (row or column of the matrix)
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Label      string  `json:"label"`
	Emphasized bool    `json:"emphasized"`
	Color      string  `json:"color"`
}

// Edge connects two emphasised items whose similarity exceeds the threshold.
type Edge struct {
	A          int     `json:"a"`
	B          int     `json:"b"`
	Similarity float64 `json:"similarity"`
}

// Projection is the result of one projection call.
type Projection struct {
	Method     Method      `json:"method"`
	Kind       Kind        `json:"kind"`
	Points     []Point     `json:"points"`
	Emphasis   []int       `json:"emphasis"`
	Similarity [][]float64 `json:"similarity"` // among Emphasis, in Emphasis order
	Threshold  *float64    `json:"threshold,omitempty"`
	Edges      []Edge      `json:"edges"`
}

// Projector projects weight matrices.
type Projector struct {
	cfg  Config
	wrap textproc.WrapFunc
}

// New creates a projector. A nil wrap uses textproc.SplitLabel.
func New(cfg Config, wrap textproc.WrapFunc) *Projector {
	if wrap == nil {
		wrap = textproc.SplitLabel
	}
	return &Projector{cfg: cfg, wrap: wrap}
}

// Project embeds the items of m. labels has one entry per item.
func (p *Projector) Project(m *sparse.CSR, labels []string, opts Options) (*Projection, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil matrix", internalerr.ErrPrecondition)
	}

	var items *sparse.CSR
	switch opts.Kind {
	case Documents:
		items = m
	case Terms:
		items = m.Transpose()
	default:
		return nil, fmt.Errorf("%w: unknown item kind %q", internalerr.ErrPrecondition, opts.Kind)
	}

	n, _ := items.Dims()
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 items, got %d", internalerr.ErrInsufficientItems, n)
	}
	if len(labels) != n {
		return nil, fmt.Errorf("%w: %d labels for %d items", internalerr.ErrPrecondition, len(labels), n)
	}

	reducer, err := NewReducer(opts.Method, p.cfg, opts.Perplexity)
	if err != nil {
		return nil, err
	}

	threshold, err := p.threshold(opts)
	if err != nil {
		return nil, err
	}

	emphasis, err := selectEmphasis(m, opts.Kind, opts.Emphasis, n)
	if err != nil {
		return nil, err
	}

	// embedded[k] is the item index of embedding row k.
	embedded := emphasis
	if !opts.Restrict {
		embedded = make([]int, n)
		for i := range embedded {
			embedded[i] = i
		}
	} else {
		if len(embedded) < 2 {
			return nil, fmt.Errorf("%w: need at least 2 emphasised items, got %d",
				internalerr.ErrInsufficientItems, len(embedded))
		}
		if items, err = items.SelectRows(embedded); err != nil {
			return nil, err
		}
	}

	sim := Cosine(items)
	coords, err := reducer.Reduce(Input{Vectors: items, Similarity: sim})
	if err != nil {
		return nil, err
	}

	// row lookups into sim for each emphasised item
	row := make(map[int]int, len(embedded))
	for k, idx := range embedded {
		row[idx] = k
	}
	emphRows := make([]int, len(emphasis))
	for a, idx := range emphasis {
		emphRows[a] = row[idx]
	}

	out := &Projection{
		Method:     opts.Method,
		Kind:       opts.Kind,
		Points:     p.points(coords, embedded, emphasis, labels, opts.Kind),
		Emphasis:   append([]int(nil), emphasis...),
		Similarity: submatrix(sim, emphRows),
		Threshold:  threshold,
		Edges:      []Edge{},
	}
	if threshold != nil {
		out.Edges = edges(out.Similarity, emphasis, *threshold)
	}
	return out, nil
}

func (p *Projector) threshold(opts Options) (*float64, error) {
	if opts.Threshold != nil {
		t := *opts.Threshold
		if t < -1 || t > 1 {
			return nil, fmt.Errorf("%w: similarity threshold %v outside [-1, 1]", internalerr.ErrPrecondition, t)
		}
		return &t, nil
	}
	if opts.Kind == Terms {
		t := p.cfg.Threshold
		return &t, nil
	}
	return nil, nil
}

func (p *Projector) points(coords *mat.Dense, embedded, emphasis []int, labels []string, kind Kind) []Point {
	colors := colorMap(emphasis, labels)
	points := make([]Point, len(embedded))
	for k, idx := range embedded {
		label := labels[idx]
		if kind == Documents {
			label = p.wrap(label, p.cfg.LabelWidth)
		}
		color, emphasized := colors[idx]
		if !emphasized {
			color = NeutralColor
		}
		points[k] = Point{
			Index:      idx,
			X:          coords.At(k, 0),
			Y:          coords.At(k, 1),
			Label:      label,
			Emphasized: emphasized,
			Color:      color,
		}
	}
	return points
}

// selectEmphasis resolves e into item indices. Top-N ranking uses the
// column means of m for terms and its row means for documents; ties go to
// the lower index.
func selectEmphasis(m *sparse.CSR, kind Kind, e Emphasis, n int) ([]int, error) {
	switch {
	case e.Top > 0:
		means := m.RowMeans()
		if kind == Terms {
			means = m.ColMeans()
		}
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool { return means[idx[a]] > means[idx[b]] })
		return idx[:min(e.Top, n)], nil

	case len(e.Indices) > 0:
		seen := make(map[int]struct{}, len(e.Indices))
		idx := make([]int, 0, len(e.Indices))
		for _, i := range e.Indices {
			if i < 0 || i >= n {
				return nil, fmt.Errorf("%w: emphasis index %d outside [0, %d)", internalerr.ErrPrecondition, i, n)
			}
			if _, dup := seen[i]; dup {
				return nil, fmt.Errorf("%w: duplicate emphasis index %d", internalerr.ErrPrecondition, i)
			}
			seen[i] = struct{}{}
			idx = append(idx, i)
		}
		return idx, nil
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx, nil
}

// edges lists every unordered pair of emphasised items with similarity
// strictly above threshold. sim is indexed like emphasis.
func edges(sim [][]float64, emphasis []int, threshold float64) []Edge {
	out := []Edge{}
	for a := range emphasis {
		for b := a + 1; b < len(emphasis); b++ {
			if s := sim[a][b]; s > threshold {
				out = append(out, Edge{A: emphasis[a], B: emphasis[b], Similarity: s})
			}
		}
	}
	return out
}
