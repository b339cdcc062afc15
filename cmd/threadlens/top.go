package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cognicore/threadlens/pkg/threadlens/topterms"
)

func newTopCmd() *cobra.Command {
	var (
		n      int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "top <scores-file>",
		Short: "Print the best terms of a JSON score file",
		Long: `Print the best terms of a score file in any of the accepted shapes:

  {"terms": ["a", "b"], "scores": [0.5, 0.2]}
  {"a": 0.5, "b": 0.2}
  [{"term": "a", "score": 0.5}, {"term": "b", "score": 0.2}]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			ranked, err := topterms.FromJSON(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			terms, err := topterms.Top(ranked, n)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), terms)
			}
			for _, term := range terms {
				fmt.Fprintln(cmd.OutOrStdout(), term)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "n", "n", 5, "Number of terms")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print a JSON array")
	return cmd
}
