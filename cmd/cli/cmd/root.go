// Package cmd provides the CLI commands for odoo-graph.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"odoo-graph/adapters/neo4j"
	"odoo-graph/core/graph"
	"odoo-graph/internal/config"
	"odoo-graph/internal/logging"
)

var verbose bool

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "odoo-graph",
	Short: "Analyze Odoo module dependencies into a property graph",
	Long: `odoo-graph is an incremental static analyzer for Odoo source trees.

It discovers modules, extracts models, fields and views without executing
any Odoo code, and materializes the result as a labeled property graph in
Neo4j for dependency and impact queries.

Examples:
  odoo-graph load --source /opt/odoo/addons
  odoo-graph query model-children res.partner
  odoo-graph visualize model-hierarchy sale.order -o sale_order.html`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(visualizeCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	cfg := config.Get()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	_ = logging.Initialize(cfg.Logging)
}

// connect opens the graph store or fails the command
func connect(ctx context.Context) (graph.Executor, error) {
	return neo4j.Connect(ctx, config.Get().Neo4j)
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("odoo-graph version 0.1.0")
	},
}
