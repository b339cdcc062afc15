package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/threadlens/pkg/threadlens/posts"
	"github.com/cognicore/threadlens/pkg/threadlens/projection"
)

func newProjectCmd(g *globalFlags) *cobra.Command {
	var (
		corpus     corpusFlags
		analysis   analysisFlags
		kind       string
		method     string
		emphTop    int
		emphIdx    []int
		threshold  float64
		restrict   bool
		perplexity float64
		graph      int
		termMap    int
	)
	cmd := &cobra.Command{
		Use:   "project [posts-file]",
		Short: "Print a 2D similarity projection of documents or terms as JSON",
		Long: `Analyze the posts and embed their documents or terms in 2D with t-SNE or MDS.

--graph N lays out the N best terms with MDS and connects similar pairs.
--map N lays out every term with t-SNE and highlights the N best.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if graph > 0 && termMap > 0 {
				return fmt.Errorf("--graph and --map are mutually exclusive")
			}
			ctx := cmd.Context()
			engine, _, err := g.engine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()

			ps, err := corpus.load(ctx, engine, args)
			if err != nil {
				return err
			}
			rep, err := engine.Analyze(ps, analysis.options())
			if err != nil {
				return err
			}

			var th *float64
			if cmd.Flags().Changed("threshold") {
				th = &threshold
			}

			var out *projection.Projection
			switch {
			case graph > 0:
				out, err = engine.TermGraph(rep, graph, th)
			case termMap > 0:
				out, err = engine.TermMap(rep, termMap)
			default:
				opts := projection.Options{
					Kind:       projection.Kind(kind),
					Emphasis:   projection.Emphasis{Top: emphTop, Indices: emphIdx},
					Threshold:  th,
					Restrict:   restrict,
					Perplexity: perplexity,
				}
				if method != "" {
					if opts.Method, err = projection.ParseMethod(method); err != nil {
						return err
					}
				}
				var labels []string
				if opts.Kind == projection.Documents {
					labels = posts.Titles(ps)
				}
				out, err = engine.Project(rep, labels, opts)
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	corpus.register(cmd)
	analysis.register(cmd)
	cmd.Flags().StringVarP(&kind, "kind", "k", string(projection.Documents), "Items to embed: documents or terms")
	cmd.Flags().StringVarP(&method, "method", "m", "", "Reduction: tsne or mds (default from config)")
	cmd.Flags().IntVar(&emphTop, "top", 0, "Emphasise the n items with the highest mean weight")
	cmd.Flags().IntSliceVar(&emphIdx, "emphasize", nil, "Emphasise these item indices")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.3, "Similarity threshold for edges")
	cmd.Flags().BoolVar(&restrict, "restrict", false, "Embed only the emphasised items")
	cmd.Flags().Float64Var(&perplexity, "perplexity", 0, "t-SNE perplexity (0 = config)")
	cmd.Flags().IntVar(&graph, "graph", 0, "Term graph of the n best terms")
	cmd.Flags().IntVar(&termMap, "map", 0, "Term map highlighting the n best terms")
	return cmd
}
