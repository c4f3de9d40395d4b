// Package cmd - stats command
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"odoo-graph/core/graph"
	"odoo-graph/internal/config"
)

// statsCmd prints node counts per label
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print graph node counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		exec, err := connect(ctx)
		if err != nil {
			return err
		}
		defer exec.Close(ctx)

		loader := graph.NewLoader(exec, config.Get().BatchSize)
		stats, err := loader.Stats(ctx)
		if err != nil {
			return err
		}
		printStats(stats)
		return nil
	},
}
