// Package timeseries counts term occurrences per calendar day.
package timeseries

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cognicore/threadlens/pkg/threadlens/internalerr"
	"github.com/cognicore/threadlens/pkg/threadlens/posts"
	"github.com/cognicore/threadlens/pkg/threadlens/textproc"
)

const dateLayout = "2006-01-02"

// Options controls text assembly.
type Options struct {
	Preprocess      textproc.Func
	IncludeSelftext bool
}

// Series is the daily count of each requested term. Counts[term][i] is the
// count on Dates[i].
type Series struct {
	Dates  []string         `json:"dates"`
	Terms  []string         `json:"terms"`
	Counts map[string][]int `json:"counts"`
}

// Daily counts each term per UTC day of the posts' creation time. Every
// term must occur somewhere in the preprocessed corpus.
func Daily(ps []posts.Post, terms []string, opts Options) (*Series, error) {
	if len(ps) == 0 {
		return nil, fmt.Errorf("%w: no posts", internalerr.ErrEmptyCorpus)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: no terms requested", internalerr.ErrPrecondition)
	}

	days := make(map[string]map[string]int)
	vocab := make(map[string]struct{})
	for _, p := range ps {
		day := p.Time().Format(dateLayout)
		counts, ok := days[day]
		if !ok {
			counts = make(map[string]int)
			days[day] = counts
		}
		for _, tok := range strings.Fields(posts.Text(p, opts.Preprocess, opts.IncludeSelftext)) {
			counts[tok]++
			vocab[tok] = struct{}{}
		}
	}

	var missing []string
	for _, term := range terms {
		if _, ok := vocab[term]; !ok {
			missing = append(missing, term)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: terms not in vocabulary: %s",
			internalerr.ErrPrecondition, strings.Join(missing, ", "))
	}

	dates := make([]string, 0, len(days))
	for day := range days {
		dates = append(dates, day)
	}
	sort.Strings(dates)

	out := &Series{
		Dates:  dates,
		Terms:  append([]string(nil), terms...),
		Counts: make(map[string][]int, len(terms)),
	}
	for _, term := range terms {
		series := make([]int, len(dates))
		for i, day := range dates {
			series[i] = days[day][term]
		}
		out.Counts[term] = series
	}
	return out, nil
}

// Time parses a date of the series back into a UTC time.
func Time(date string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, date, time.UTC)
}
