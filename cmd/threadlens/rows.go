package main

import (
	"github.com/spf13/cobra"

	"github.com/cognicore/threadlens/pkg/threadlens/posts"
)

func newRowsCmd(g *globalFlags) *cobra.Command {
	var corpus corpusFlags
	cmd := &cobra.Command{
		Use:   "rows [posts-file]",
		Short: "Print post metadata rows (title, selftext, url, domain, time, author) as JSON",
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
			return writeJSON(cmd.OutOrStdout(), posts.Rows(ps))
		},
	}
	corpus.register(cmd)
	return cmd
}
