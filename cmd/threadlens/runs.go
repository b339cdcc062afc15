package main

import (
	"github.com/spf13/cobra"
)

func newRunsCmd(g *globalFlags) *cobra.Command {
	var (
		snapshot string
		id       string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded analysis runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine, _, err := g.engine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()

			if id != "" {
				run, err := engine.Run(ctx, id)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), run)
			}

			runs, err := engine.Runs(ctx, snapshot, limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), runs)
		},
	}
	cmd.Flags().StringVarP(&snapshot, "snapshot", "s", "", "Only runs of this snapshot")
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Maximum number of runs")
	cmd.Flags().StringVar(&id, "id", "", "Show a single run by ID")
	cmd.MarkFlagsMutuallyExclusive("id", "snapshot")
	return cmd
}
