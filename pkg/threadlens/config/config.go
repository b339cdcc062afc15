package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/threadlens/pkg/threadlens/internalerr"
	"github.com/cognicore/threadlens/pkg/threadlens/projection"
	"github.com/cognicore/threadlens/pkg/threadlens/tfidf"
	"github.com/cognicore/threadlens/pkg/threadlens/vocab"
)

// Config is the full threadlens configuration file.
type Config struct {
	Analysis   Analysis   `yaml:"analysis"`
	Projection Projection `yaml:"projection"`
	Server     Server     `yaml:"server"`
	Store      Store      `yaml:"store"`
}

// Analysis configures text assembly, the vocabulary analyzer and the
// matrix builder.
type Analysis struct {
	MaxTerms        int      `yaml:"max_terms"`
	MinDocFreq      int      `yaml:"min_doc_freq"`
	MinFreq         int      `yaml:"min_freq"`
	IncludeSelftext bool     `yaml:"include_selftext"`
	Stem            bool     `yaml:"stem"`
	Stoplist        string   `yaml:"stoplist"`        // optional YAML stoplist path
	ExtraStopwords  []string `yaml:"extra_stopwords"` // appended to the English list
}

// Projection configures the similarity projector.
type Projection struct {
	Method            string `yaml:"method"`
	projection.Config `yaml:",inline"`
}

// Server configures the HTTP API.
type Server struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Store selects the persistence backend. An empty Path keeps data in memory.
type Store struct {
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Analysis: Analysis{
			MaxTerms:   tfidf.DefaultMaxTerms,
			MinDocFreq: tfidf.DefaultMinDocFreq,
			MinFreq:    vocab.DefaultMinFreq,
			Stem:       true,
		},
		Projection: Projection{
			Method: string(projection.MethodTSNE),
			Config: projection.DefaultConfig(),
		},
		Server: Server{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load reads a YAML config file over Default. Keys absent from the file
// keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every field and reports all offending ones.
func (c Config) Validate() error {
	var errs []error
	bad := func(field string, v any) {
		errs = append(errs, fmt.Errorf("%w: %s = %v", internalerr.ErrInvalidConfig, field, v))
	}

	a := c.Analysis
	if a.MaxTerms < 1 {
		bad("analysis.max_terms", a.MaxTerms)
	}
	if a.MinDocFreq < 1 {
		bad("analysis.min_doc_freq", a.MinDocFreq)
	}
	if a.MinFreq < 0 {
		bad("analysis.min_freq", a.MinFreq)
	}

	p := c.Projection
	if _, err := projection.ParseMethod(p.Method); err != nil {
		bad("projection.method", p.Method)
	}
	if p.Threshold < -1 || p.Threshold > 1 {
		bad("projection.threshold", p.Threshold)
	}
	if p.LabelWidth < 1 {
		bad("projection.label_width", p.LabelWidth)
	}
	if p.Perplexity <= 0 {
		bad("projection.perplexity", p.Perplexity)
	}
	if p.TSNE.MaxIter < 1 {
		bad("projection.tsne.max_iter", p.TSNE.MaxIter)
	}
	if p.TSNE.EarlyExaggeration < 1 {
		bad("projection.tsne.early_exaggeration", p.TSNE.EarlyExaggeration)
	}
	if p.TSNE.ExaggerationIter < 0 {
		bad("projection.tsne.exaggeration_iter", p.TSNE.ExaggerationIter)
	}
	if p.MDS.NInit < 1 {
		bad("projection.mds.n_init", p.MDS.NInit)
	}
	if p.MDS.MaxIter < 1 {
		bad("projection.mds.max_iter", p.MDS.MaxIter)
	}
	if p.MDS.Eps <= 0 {
		bad("projection.mds.eps", p.MDS.Eps)
	}

	if c.Server.Addr == "" {
		bad("server.addr", `""`)
	}
	return errors.Join(errs...)
}
