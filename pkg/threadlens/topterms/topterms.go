// Package topterms selects the highest-scoring terms from a ranked score
// collection. Three shapes are accepted, modelled as a closed union:
//
//   - Table: parallel term and score columns
//   - Mapping: term -> score
//   - Series: an ordered sequence of (term, score) pairs
//
// Every shape normalises to one canonical Series ordered by descending score.
// Ties keep input order; Mapping has no input order, so its ties are broken
// lexically.
package topterms

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cognicore/threadlens/pkg/threadlens/internalerr"
)

// Score pairs a term with its score.
type Score struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

// Ranked is implemented by Table, Mapping and Series only.
type Ranked interface {
	normalize() (Series, error)
}

// Table is a column-oriented score table.
type Table struct {
	Terms  []string  `json:"terms"`
	Scores []float64 `json:"scores"`
}

// Mapping maps terms to scores.
type Mapping map[string]float64

// Series is an ordered sequence of scores.
type Series []Score

func (t Table) normalize() (Series, error) {
	if len(t.Terms) != len(t.Scores) {
		return nil, fmt.Errorf("%w: table has %d terms but %d scores",
			internalerr.ErrPrecondition, len(t.Terms), len(t.Scores))
	}
	s := make(Series, len(t.Terms))
	for i := range t.Terms {
		s[i] = Score{Term: t.Terms[i], Score: t.Scores[i]}
	}
	return s.sorted(), nil
}

func (m Mapping) normalize() (Series, error) {
	terms := make([]string, 0, len(m))
	for term := range m {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	s := make(Series, len(terms))
	for i, term := range terms {
		s[i] = Score{Term: term, Score: m[term]}
	}
	return s.sorted(), nil
}

func (s Series) normalize() (Series, error) {
	out := make(Series, len(s))
	copy(out, s)
	return out.sorted(), nil
}

func (s Series) sorted() Series {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Score > s[j].Score })
	return s
}

// Terms returns the terms of s in order.
func (s Series) Terms() []string {
	out := make([]string, len(s))
	for i, sc := range s {
		out[i] = sc.Term
	}
	return out
}

// Rank returns the canonical ordering of r.
func Rank(r Ranked) (Series, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil score collection", internalerr.ErrUnsupportedInput)
	}
	return r.normalize()
}

// Top returns the n highest-scoring terms of r; fewer when r holds fewer.
func Top(r Ranked, n int) ([]string, error) {
	s, err := Rank(r)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	if n < len(s) {
		s = s[:n]
	}
	return s.Terms(), nil
}

// FromValue adapts a dynamically typed value, such as decoded JSON, into a
// Ranked collection. Anything that is not one of the three shapes fails with
// ErrUnsupportedInput.
func FromValue(v any) (Ranked, error) {
	switch x := v.(type) {
	case Table:
		return x, nil
	case Mapping:
		return x, nil
	case Series:
		return x, nil
	case map[string]float64:
		return Mapping(x), nil
	case []Score:
		return Series(x), nil
	case map[string]any:
		if t, ok := tableFromObject(x); ok {
			return t, nil
		}
		if m, ok := mappingFromObject(x); ok {
			return m, nil
		}
	case []any:
		if s, ok := seriesFromArray(x); ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %T", internalerr.ErrUnsupportedInput, v)
}

// FromJSON decodes data and adapts it with FromValue. Accepted documents:
//
//	{"terms": ["a", "b"], "scores": [0.5, 0.2]}   table
//	{"a": 0.5, "b": 0.2}                          mapping
//	[{"term": "a", "score": 0.5}, ...]            series
func FromJSON(data []byte) (Ranked, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrUnsupportedInput, err)
	}
	return FromValue(v)
}

func tableFromObject(obj map[string]any) (Table, bool) {
	if len(obj) != 2 {
		return Table{}, false
	}
	rawTerms, ok1 := obj["terms"].([]any)
	rawScores, ok2 := obj["scores"].([]any)
	if !ok1 || !ok2 {
		return Table{}, false
	}
	t := Table{Terms: make([]string, len(rawTerms)), Scores: make([]float64, len(rawScores))}
	for i, v := range rawTerms {
		s, ok := v.(string)
		if !ok {
			return Table{}, false
		}
		t.Terms[i] = s
	}
	for i, v := range rawScores {
		f, ok := v.(float64)
		if !ok {
			return Table{}, false
		}
		t.Scores[i] = f
	}
	return t, true
}

func mappingFromObject(obj map[string]any) (Mapping, bool) {
	m := make(Mapping, len(obj))
	for k, v := range obj {
		f, ok := v.(float64)
		if !ok {
			return nil, false
		}
		m[k] = f
	}
	return m, true
}

func seriesFromArray(arr []any) (Series, bool) {
	s := make(Series, len(arr))
	for i, v := range arr {
		obj, ok := v.(map[string]any)
		if !ok || len(obj) != 2 {
			return nil, false
		}
		term, ok1 := obj["term"].(string)
		score, ok2 := obj["score"].(float64)
		if !ok1 || !ok2 {
			return nil, false
		}
		s[i] = Score{Term: term, Score: score}
	}
	return s, true
}
