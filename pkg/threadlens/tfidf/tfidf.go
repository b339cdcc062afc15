// Package tfidf builds the document-by-term weight matrix.
//
// Weights follow the smoothed TF-IDF scheme:
//
//	idf(t)    = ln((1 + n) / (1 + df(t))) + 1
//	w(d, t)   = count(d, t) * idf(t)
//
// and every document row is scaled to unit Euclidean length. The retained
// vocabulary is limited to terms found in at least MinDocFreq documents and,
// among those, the MaxTerms most frequent across the corpus.
package tfidf

import (
	"fmt"
	"math"
	"sort"

	"github.com/cognicore/threadlens/pkg/threadlens/ingest"
	"github.com/cognicore/threadlens/pkg/threadlens/internalerr"
	"github.com/cognicore/threadlens/pkg/threadlens/sparse"
)

const (
	DefaultMaxTerms   = 1000
	DefaultMinDocFreq = 2
)

// Config controls vocabulary pruning.
type Config struct {
	MaxTerms   int `yaml:"max_terms" json:"max_terms"`
	MinDocFreq int `yaml:"min_doc_freq" json:"min_doc_freq"`
}

// DefaultConfig returns the default pruning rules.
func DefaultConfig() Config {
	return Config{MaxTerms: DefaultMaxTerms, MinDocFreq: DefaultMinDocFreq}
}

// Validate checks each parameter on its own.
func (c Config) Validate() error {
	if c.MaxTerms < 1 {
		return fmt.Errorf("%w: max_terms must be >= 1, got %d", internalerr.ErrPrecondition, c.MaxTerms)
	}
	if c.MinDocFreq < 1 {
		return fmt.Errorf("%w: min_doc_freq must be >= 1, got %d", internalerr.ErrPrecondition, c.MinDocFreq)
	}
	return nil
}

// Matrix is a weighted document-by-term matrix with its feature vocabulary.
// Vocabulary[j], DocFreq[j] and IDF[j] describe column j of Weights.
type Matrix struct {
	Weights    *sparse.CSR
	Vocabulary []string
	DocFreq    []int
	IDF        []float64
}

// Shape returns (documents, terms).
func (m *Matrix) Shape() (int, int) { return m.Weights.Dims() }

// Column returns the column index of term.
func (m *Matrix) Column(term string) (int, bool) {
	j := sort.SearchStrings(m.Vocabulary, term)
	if j < len(m.Vocabulary) && m.Vocabulary[j] == term {
		return j, true
	}
	return 0, false
}

// Builder fits the weight matrix over a corpus.
type Builder struct {
	cfg       Config
	tokenizer *ingest.Tokenizer
}

// NewBuilder creates a builder. The tokenizer carries the stop-word set.
func NewBuilder(cfg Config, tokenizer *ingest.Tokenizer) *Builder {
	return &Builder{cfg: cfg, tokenizer: tokenizer}
}

// Build fits the vocabulary and weights over texts. Texts are used as given;
// any preprocessing is the caller's responsibility.
func (b *Builder) Build(texts []string) (*Matrix, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no documents", internalerr.ErrEmptyCorpus)
	}
	if b.cfg.MinDocFreq > len(texts) {
		return nil, fmt.Errorf("%w: min_doc_freq %d exceeds %d documents",
			internalerr.ErrEmptyVocabulary, b.cfg.MinDocFreq, len(texts))
	}

	counts := ingest.Count(b.tokenizer, texts)
	vocab := b.selectVocabulary(counts)
	if len(vocab) == 0 {
		return nil, fmt.Errorf("%w: no term occurs in %d or more documents",
			internalerr.ErrEmptyVocabulary, b.cfg.MinDocFreq)
	}

	n := float64(counts.NumDocs())
	column := make(map[string]int, len(vocab))
	df := make([]int, len(vocab))
	idf := make([]float64, len(vocab))
	for j, term := range vocab {
		column[term] = j
		df[j] = counts.DocFreq[term]
		idf[j] = math.Log((1+n)/(1+float64(df[j]))) + 1
	}

	sb := sparse.NewBuilder(len(vocab))
	for _, doc := range counts.Docs {
		row := make(map[int]float64, len(doc))
		cols := make([]int, 0, len(doc))
		for term, c := range doc {
			j, ok := column[term]
			if !ok {
				continue
			}
			row[j] = float64(c) * idf[j]
			cols = append(cols, j)
		}
		// sum in column order so the norm is reproducible bit for bit
		sort.Ints(cols)
		var ss float64
		for _, j := range cols {
			ss += row[j] * row[j]
		}
		if ss > 0 {
			norm := math.Sqrt(ss)
			for j := range row {
				row[j] /= norm
			}
		}
		if err := sb.AddRow(row); err != nil {
			return nil, err
		}
	}

	return &Matrix{
		Weights:    sb.Build(),
		Vocabulary: vocab,
		DocFreq:    df,
		IDF:        idf,
	}, nil
}

// selectVocabulary applies the document-frequency floor and the size cap,
// returning the survivors in lexical order.
func (b *Builder) selectVocabulary(c ingest.Counts) []string {
	var kept []string
	for term, df := range c.DocFreq {
		if df >= b.cfg.MinDocFreq {
			kept = append(kept, term)
		}
	}

	if len(kept) > b.cfg.MaxTerms {
		sort.Slice(kept, func(i, j int) bool {
			fi, fj := c.TermFreq[kept[i]], c.TermFreq[kept[j]]
			if fi != fj {
				return fi > fj
			}
			return kept[i] < kept[j]
		})
		kept = kept[:b.cfg.MaxTerms]
	}

	sort.Strings(kept)
	return kept
}
