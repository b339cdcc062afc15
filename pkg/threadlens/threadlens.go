package threadlens

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cognicore/threadlens/pkg/threadlens/config"
	"github.com/cognicore/threadlens/pkg/threadlens/ingest"
	"github.com/cognicore/threadlens/pkg/threadlens/internalerr"
	"github.com/cognicore/threadlens/pkg/threadlens/posts"
	"github.com/cognicore/threadlens/pkg/threadlens/projection"
	"github.com/cognicore/threadlens/pkg/threadlens/report"
	"github.com/cognicore/threadlens/pkg/threadlens/stoplist"
	"github.com/cognicore/threadlens/pkg/threadlens/store"
	"github.com/cognicore/threadlens/pkg/threadlens/textproc"
	"github.com/cognicore/threadlens/pkg/threadlens/tfidf"
	"github.com/cognicore/threadlens/pkg/threadlens/timeseries"
	"github.com/cognicore/threadlens/pkg/threadlens/topterms"
	"github.com/cognicore/threadlens/pkg/threadlens/vocab"
)

// Engine is the corpus analysis facade
type Engine struct {
	store      store.Store
	preprocess textproc.Func
	tokenizer  *ingest.Tokenizer
	analysis   AnalyzeOptions
	projector  *projection.Projector
	projCfg    projection.Config
	method     projection.Method
	now        func() time.Time
}

// AnalyzeOptions are the per-run analysis parameters. Zero values and a
// nil IncludeSelftext take the engine defaults.
type AnalyzeOptions struct {
	MaxTerms        int   `json:"max_terms,omitempty"`
	MinDocFreq      int   `json:"min_doc_freq,omitempty"`
	MinFreq         int   `json:"min_freq,omitempty"` // vocabulary report threshold; falls back to MinDocFreq
	IncludeSelftext *bool `json:"include_selftext,omitempty"`
}

// Selftext reports whether post bodies are included.
func (o AnalyzeOptions) Selftext() bool {
	return o.IncludeSelftext != nil && *o.IncludeSelftext
}

// Bool returns a pointer to v, for AnalyzeOptions.IncludeSelftext.
func Bool(v bool) *bool { return &v }

// Options configures an Engine. Zero values fall back to the English
// stop-word list, the default preprocessor and the default parameters.
type Options struct {
	Store      store.Store // optional; only snapshot operations need it
	Preprocess textproc.Func
	Tokenizer  *ingest.Tokenizer
	Analysis   AnalyzeOptions
	Projection projection.Config
	Method     projection.Method // default projection method
	Wrap       textproc.WrapFunc
	Now        func() time.Time
}

// New creates an Engine with the given dependencies
func New(opts Options) *Engine {
	if opts.Preprocess == nil || opts.Tokenizer == nil {
		stops := stoplist.NewEnglish()
		if opts.Preprocess == nil {
			opts.Preprocess = textproc.NewPreprocessor(stops, true).Func()
		}
		if opts.Tokenizer == nil {
			opts.Tokenizer = ingest.NewTokenizer(stops)
		}
	}
	if opts.Analysis.MaxTerms == 0 {
		opts.Analysis.MaxTerms = tfidf.DefaultMaxTerms
	}
	if opts.Analysis.MinDocFreq == 0 {
		opts.Analysis.MinDocFreq = tfidf.DefaultMinDocFreq
	}
	if opts.Projection == (projection.Config{}) {
		opts.Projection = projection.DefaultConfig()
	}
	if opts.Method == "" {
		opts.Method = projection.MethodTSNE
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		store:      opts.Store,
		preprocess: opts.Preprocess,
		tokenizer:  opts.Tokenizer,
		analysis:   opts.Analysis,
		projector:  projection.New(opts.Projection, opts.Wrap),
		projCfg:    opts.Projection,
		method:     opts.Method,
		now:        opts.Now,
	}
}

// FromConfig builds an Engine from a loaded configuration.
func FromConfig(cfg config.Config, st store.Store) (*Engine, error) {
	comp, err := cfg.Components()
	if err != nil {
		return nil, err
	}
	method, err := projection.ParseMethod(cfg.Projection.Method)
	if err != nil {
		return nil, err
	}
	return New(Options{
		Store:      st,
		Preprocess: comp.Preprocessor.Func(),
		Tokenizer:  comp.Tokenizer,
		Analysis: AnalyzeOptions{
			MaxTerms:        cfg.Analysis.MaxTerms,
			MinDocFreq:      cfg.Analysis.MinDocFreq,
			MinFreq:         cfg.Analysis.MinFreq,
			IncludeSelftext: Bool(cfg.Analysis.IncludeSelftext),
		},
		Projection: cfg.Projection.Config,
		Method:     method,
	}), nil
}

// Close cleanly shuts down the engine and its store
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Preprocess exposes the engine's text normaliser.
func (e *Engine) Preprocess(text string) string { return e.preprocess(text) }

// Analyze runs the vocabulary analyzer, matrix builder and aggregator over
// posts. Zero-valued options take the engine defaults.
func (e *Engine) Analyze(ps []posts.Post, opts AnalyzeOptions) (*report.Report, error) {
	opts = e.withDefaults(opts)
	texts := posts.Texts(ps, e.preprocess, opts.Selftext())
	return e.AnalyzeTexts(texts, opts)
}

// AnalyzeTexts is Analyze over already assembled, preprocessed texts.
func (e *Engine) AnalyzeTexts(texts []string, opts AnalyzeOptions) (*report.Report, error) {
	opts = e.withDefaults(opts)
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no documents", internalerr.ErrEmptyCorpus)
	}

	v, err := vocab.NewAnalyzer(nil, e.tokenizer).Analyze(texts, opts.MinFreq)
	if err != nil {
		return nil, fmt.Errorf("analyze vocabulary: %w", err)
	}

	m, err := tfidf.NewBuilder(tfidf.Config{MaxTerms: opts.MaxTerms, MinDocFreq: opts.MinDocFreq}, e.tokenizer).Build(texts)
	if err != nil {
		return nil, fmt.Errorf("build matrix: %w", err)
	}

	return report.Build(m, v)
}

func (e *Engine) withDefaults(opts AnalyzeOptions) AnalyzeOptions {
	if opts.MaxTerms == 0 {
		opts.MaxTerms = e.analysis.MaxTerms
	}
	if opts.MinDocFreq == 0 {
		opts.MinDocFreq = e.analysis.MinDocFreq
	}
	if opts.MinFreq == 0 {
		opts.MinFreq = e.analysis.MinFreq
	}
	if opts.MinFreq == 0 {
		opts.MinFreq = opts.MinDocFreq
	}
	if opts.IncludeSelftext == nil {
		opts.IncludeSelftext = Bool(e.analysis.Selftext())
	}
	return opts
}

// Project embeds the documents or terms of rep. For terms, nil labels
// default to the feature vocabulary; documents need one label per row.
// An empty method uses the engine default.
func (e *Engine) Project(rep *report.Report, labels []string, opts projection.Options) (*projection.Projection, error) {
	if rep == nil || rep.Matrix == nil {
		return nil, fmt.Errorf("%w: projection needs an analysis report", internalerr.ErrPrecondition)
	}
	if opts.Method == "" {
		opts.Method = e.method
	}
	if labels == nil && opts.Kind == projection.Terms {
		labels = rep.Matrix.Vocabulary
	}
	return e.projector.Project(rep.Matrix.Weights, labels, opts)
}

// TermGraph lays out the n highest-scoring terms with MDS and connects
// pairs whose similarity exceeds threshold. A nil threshold uses the
// configured default.
func (e *Engine) TermGraph(rep *report.Report, n int, threshold *float64) (*projection.Projection, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: term graph needs at least 2 terms, got %d", internalerr.ErrInsufficientItems, n)
	}
	return e.Project(rep, nil, projection.Options{
		Method:    projection.MethodMDS,
		Kind:      projection.Terms,
		Emphasis:  projection.Emphasis{Top: n},
		Threshold: threshold,
		Restrict:  true,
	})
}

// TermMap lays out every term with t-SNE and highlights the nHighlight
// highest-scoring ones. Perplexity is capped at a quarter of the term count.
func (e *Engine) TermMap(rep *report.Report, nHighlight int) (*projection.Projection, error) {
	if rep == nil || rep.Matrix == nil {
		return nil, fmt.Errorf("%w: projection needs an analysis report", internalerr.ErrPrecondition)
	}
	terms := len(rep.Matrix.Vocabulary)
	perplexity := math.Min(e.projCfg.Perplexity, float64(terms)/4)
	perplexity = math.Max(1, math.Min(perplexity, float64(terms-1)))
	return e.Project(rep, nil, projection.Options{
		Method:     projection.MethodTSNE,
		Kind:       projection.Terms,
		Emphasis:   projection.Emphasis{Top: max(nHighlight, 0)},
		Perplexity: perplexity,
	})
}

// TopTerms returns the n best terms of any accepted score shape.
func (e *Engine) TopTerms(r topterms.Ranked, n int) ([]string, error) {
	return topterms.Top(r, n)
}

// Timeseries counts terms per day over posts, assembling text the same
// way Analyze does. A nil includeSelftext uses the engine default.
func (e *Engine) Timeseries(ps []posts.Post, terms []string, includeSelftext *bool) (*timeseries.Series, error) {
	selftext := e.analysis.Selftext()
	if includeSelftext != nil {
		selftext = *includeSelftext
	}
	return timeseries.Daily(ps, terms, timeseries.Options{
		Preprocess:      e.preprocess,
		IncludeSelftext: selftext,
	})
}

// Ingest stores posts under a snapshot name.
func (e *Engine) Ingest(ctx context.Context, snapshot string, ps []posts.Post) error {
	if e.store == nil {
		return fmt.Errorf("%w: engine has no store", internalerr.ErrPrecondition)
	}
	return e.store.UpsertPosts(ctx, snapshot, ps)
}

// SnapshotPosts loads the posts of a stored snapshot.
func (e *Engine) SnapshotPosts(ctx context.Context, snapshot string) ([]posts.Post, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: engine has no store", internalerr.ErrPrecondition)
	}
	return e.store.Posts(ctx, snapshot)
}

// Snapshots lists stored snapshots.
func (e *Engine) Snapshots(ctx context.Context) ([]store.Snapshot, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: engine has no store", internalerr.ErrPrecondition)
	}
	return e.store.Snapshots(ctx)
}

// RunSummaryTerms is the number of top terms recorded per run.
const RunSummaryTerms = 20

// AnalyzeSnapshot analyzes a stored snapshot and records a run summary.
func (e *Engine) AnalyzeSnapshot(ctx context.Context, snapshot string, opts AnalyzeOptions) (*report.Report, store.Run, error) {
	ps, err := e.SnapshotPosts(ctx, snapshot)
	if err != nil {
		return nil, store.Run{}, err
	}

	opts = e.withDefaults(opts)
	rep, err := e.Analyze(ps, opts)
	if err != nil {
		return nil, store.Run{}, err
	}

	created := e.now().UTC()
	run := store.Run{
		ID:        store.NewRunID(created),
		Snapshot:  snapshot,
		CreatedAt: created,
		Params: store.RunParams{
			MaxTerms:        opts.MaxTerms,
			MinDocFreq:      opts.MinDocFreq,
			MinFreq:         opts.MinFreq,
			IncludeSelftext: opts.Selftext(),
		},
		Rows:     rep.Shape.Rows,
		Cols:     rep.Shape.Cols,
		Sparsity: rep.Sparsity,
		TopTerms: rep.TopTerms(RunSummaryTerms),
	}
	if err := e.store.SaveRun(ctx, run); err != nil {
		return nil, store.Run{}, fmt.Errorf("save run: %w", err)
	}
	return rep, run, nil
}

// Run returns a recorded run by ID.
func (e *Engine) Run(ctx context.Context, id string) (store.Run, error) {
	if e.store == nil {
		return store.Run{}, fmt.Errorf("%w: engine has no store", internalerr.ErrPrecondition)
	}
	return e.store.GetRun(ctx, id)
}

// Runs lists recorded runs of a snapshot, newest first.
func (e *Engine) Runs(ctx context.Context, snapshot string, limit int) ([]store.Run, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: engine has no store", internalerr.ErrPrecondition)
	}
	return e.store.Runs(ctx, snapshot, limit)
}
