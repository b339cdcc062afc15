package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/threadlens/pkg/threadlens/ingest"
	"github.com/cognicore/threadlens/pkg/threadlens/internalerr"
	"github.com/cognicore/threadlens/pkg/threadlens/stoplist"
	"github.com/cognicore/threadlens/pkg/threadlens/textproc"
)

// Stoplist is a YAML stop-word file:
//
//	terms:
//	  - reddit
//	  - eli5
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist reads a stop-word file. Terms are trimmed and lowercased;
// blank entries are dropped.
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidConfig, path, err)
	}

	terms := sl.Terms[:0]
	for _, t := range sl.Terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}
	sl.Terms = terms
	return &sl, nil
}

// Components holds the text-processing collaborators built from a Config
type Components struct {
	Stoplist     *stoplist.Manager
	Preprocessor *textproc.Preprocessor
	Tokenizer    *ingest.Tokenizer
}

// Components builds the stop-word list, preprocessor and tokenizer.
// The English list is always the base; the configured stoplist file and
// extra words are added on top.
func (c Config) Components() (*Components, error) {
	stops := stoplist.NewEnglish(c.Analysis.ExtraStopwords...)

	if c.Analysis.Stoplist != "" {
		sl, err := LoadStoplist(c.Analysis.Stoplist)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		for _, term := range sl.Terms {
			stops.Add(term)
		}
	}

	return &Components{
		Stoplist:     stops,
		Preprocessor: textproc.NewPreprocessor(stops, c.Analysis.Stem),
		Tokenizer:    ingest.NewTokenizer(stops),
	}, nil
}
