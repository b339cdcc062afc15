package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

func newIngestCmd(g *globalFlags) *cobra.Command {
	var snapshot string
	cmd := &cobra.Command{
		Use:   "ingest <posts-file>",
		Short: "Store posts from a JSONL, JSON array or listing file as a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if snapshot == "" {
				return fmt.Errorf("--snapshot is required")
			}
			ctx := cmd.Context()
			engine, cfg, err := g.engine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()
			if g.dbPath == "" && cfg.Store.Path == "" {
				return fmt.Errorf("ingest needs a database: pass --db or set store.path")
			}

			ps, err := loadFile(args[0])
			if err != nil {
				return err
			}
			if err := engine.Ingest(ctx, snapshot, ps); err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			log.Printf("Stored %d posts in snapshot %q", len(ps), snapshot)
			return nil
		},
	}
	cmd.Flags().StringVarP(&snapshot, "snapshot", "s", "", "Snapshot name (required)")
	return cmd
}
