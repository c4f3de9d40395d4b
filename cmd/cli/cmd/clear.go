// Package cmd - clear command
package cmd

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"odoo-graph/core/graph"
	"odoo-graph/core/incremental"
	"odoo-graph/internal/config"
)

var clearYes bool

// clearCmd empties the graph and the incremental state
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every node and relationship, and reset the state file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if !clearYes {
			confirmed, _ := pterm.DefaultInteractiveConfirm.
				WithDefaultValue(false).
				Show("This deletes the whole graph. Continue?")
			if !confirmed {
				pterm.Info.Println("Aborted")
				return nil
			}
		}

		exec, err := connect(ctx)
		if err != nil {
			return err
		}
		defer exec.Close(ctx)

		cfg := config.Get()
		loader := graph.NewLoader(exec, cfg.BatchSize)
		if err := loader.Clear(ctx); err != nil {
			return err
		}
		if err := incremental.NewStore(cfg.StateFile()).Clear(); err != nil {
			return err
		}

		pterm.Success.Println("Graph and state cleared")
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip the confirmation prompt")
}
