package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/cognicore/threadlens/pkg/threadlens/report"
)

func newReportCmd(g *globalFlags) *cobra.Command {
	var (
		corpus   corpusFlags
		analysis analysisFlags
		top      int
	)
	cmd := &cobra.Command{
		Use:   "report [posts-file]",
		Short: "Print the analysis report as JSON",
		Long: `Print vocabulary statistics, ranked mean TF-IDF scores, matrix shape and
sparsity. Reports over a stored snapshot are recorded as runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine, _, err := g.engine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()

			if corpus.snapshot != "" && len(args) == 0 {
				rep, run, err := engine.AnalyzeSnapshot(ctx, corpus.snapshot, analysis.options())
				if err != nil {
					return err
				}
				log.Printf("Recorded run %s for snapshot %q", run.ID, corpus.snapshot)
				return writeReport(cmd, rep, top)
			}

			ps, err := corpus.load(ctx, engine, args)
			if err != nil {
				return err
			}
			rep, err := engine.Analyze(ps, analysis.options())
			if err != nil {
				return err
			}
			return writeReport(cmd, rep, top)
		},
	}
	corpus.register(cmd)
	analysis.register(cmd)
	cmd.Flags().IntVarP(&top, "top", "n", 0, "Only print the n best scores (0 = all)")
	return cmd
}

func writeReport(cmd *cobra.Command, rep *report.Report, top int) error {
	if top > 0 && top < len(rep.Scores) {
		trimmed := *rep
		trimmed.Scores = trimmed.Scores[:top]
		rep = &trimmed
	}
	return writeJSON(cmd.OutOrStdout(), rep)
}
