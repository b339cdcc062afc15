package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/cognicore/threadlens/internal/dataset"
	"github.com/cognicore/threadlens/pkg/threadlens"
	"github.com/cognicore/threadlens/pkg/threadlens/config"
	"github.com/cognicore/threadlens/pkg/threadlens/posts"
	"github.com/cognicore/threadlens/pkg/threadlens/store"
	"github.com/cognicore/threadlens/pkg/threadlens/store/memstore"
	"github.com/cognicore/threadlens/pkg/threadlens/store/sqlite"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	dbPath     string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "threadlens",
		Short: "Vocabulary, TF-IDF and similarity analysis of forum posts",
		Long: `threadlens analyzes collections of forum posts: vocabulary statistics,
a TF-IDF term-weight matrix, ranked terms, daily term counts and 2D
similarity projections of documents or terms.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&g.dbPath, "db", "", "SQLite database for snapshots and runs (overrides store.path)")

	root.AddCommand(
		newIngestCmd(g),
		newReportCmd(g),
		newTopCmd(),
		newProjectCmd(g),
		newTimeseriesCmd(g),
		newRunsCmd(g),
		newRowsCmd(g),
		newServeCmd(g),
	)
	return root
}

func (g *globalFlags) loadConfig() (config.Config, error) {
	if g.configPath == "" {
		return config.Default(), nil
	}
	return config.Load(g.configPath)
}

// engine builds the engine and its store from the flags and config file.
func (g *globalFlags) engine(ctx context.Context) (*threadlens.Engine, config.Config, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, cfg, fmt.Errorf("load config: %w", err)
	}

	path := cfg.Store.Path
	if g.dbPath != "" {
		path = g.dbPath
	}
	var st store.Store = memstore.New()
	if path != "" {
		if st, err = sqlite.OpenSQLite(ctx, path); err != nil {
			return nil, cfg, fmt.Errorf("open store %s: %w", path, err)
		}
	}

	engine, err := threadlens.FromConfig(cfg, st)
	if err != nil {
		st.Close()
		return nil, cfg, err
	}
	return engine, cfg, nil
}

// corpusFlags select the posts a command works on.
type corpusFlags struct {
	snapshot string
}

func (c *corpusFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&c.snapshot, "snapshot", "s", "", "Read posts from a stored snapshot instead of a file")
}

// load returns posts from the snapshot, or from the single file argument.
func (c *corpusFlags) load(ctx context.Context, engine *threadlens.Engine, args []string) ([]posts.Post, error) {
	if c.snapshot != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("give either --snapshot or a file, not both")
		}
		return engine.SnapshotPosts(ctx, c.snapshot)
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("a posts file or --snapshot is required")
	}
	return loadFile(args[0])
}

func loadFile(path string) ([]posts.Post, error) {
	ds, err := dataset.LoadFile(path)
	if err != nil {
		return nil, err
	}
	for _, line := range ds.Skipped {
		log.Printf("Warning: skipping malformed JSON at line %d in %s", line, path)
	}
	return ds.Posts, nil
}

// analysisFlags override the configured analysis parameters.
type analysisFlags struct {
	cmd             *cobra.Command
	maxTerms        int
	minDocFreq      int
	minFreq         int
	includeSelftext bool
}

func (a *analysisFlags) register(cmd *cobra.Command) {
	a.cmd = cmd
	cmd.Flags().IntVar(&a.maxTerms, "max-terms", 0, "Maximum vocabulary size (0 = config)")
	cmd.Flags().IntVar(&a.minDocFreq, "min-doc-freq", 0, "Minimum document frequency (0 = config)")
	cmd.Flags().IntVar(&a.minFreq, "min-freq", 0, "Vocabulary report frequency threshold (0 = config)")
	registerSelftext(cmd, &a.includeSelftext)
}

func (a *analysisFlags) options() threadlens.AnalyzeOptions {
	return threadlens.AnalyzeOptions{
		MaxTerms:        a.maxTerms,
		MinDocFreq:      a.minDocFreq,
		MinFreq:         a.minFreq,
		IncludeSelftext: selftextOverride(a.cmd, a.includeSelftext),
	}
}

func registerSelftext(cmd *cobra.Command, v *bool) {
	cmd.Flags().BoolVar(v, "selftext", false, "Include post bodies (default from analysis.include_selftext)")
}

// selftextOverride is nil unless --selftext was given, so the configured
// default applies.
func selftextOverride(cmd *cobra.Command, v bool) *bool {
	if cmd == nil || !cmd.Flags().Changed("selftext") {
		return nil
	}
	return threadlens.Bool(v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
