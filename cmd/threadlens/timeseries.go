package main

import (
	"github.com/spf13/cobra"
)

func newTimeseriesCmd(g *globalFlags) *cobra.Command {
	var (
		corpus          corpusFlags
		terms           []string
		includeSelftext bool
	)
	cmd := &cobra.Command{
		Use:   "timeseries [posts-file]",
		Short: "Print daily counts of the given terms as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			series, err := engine.Timeseries(ps, terms, selftextOverride(cmd, includeSelftext))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), series)
		},
	}
	corpus.register(cmd)
	cmd.Flags().StringSliceVarP(&terms, "terms", "t", nil, "Terms to count (preprocessed form)")
	registerSelftext(cmd, &includeSelftext)
	cmd.MarkFlagRequired("terms")
	return cmd
}
