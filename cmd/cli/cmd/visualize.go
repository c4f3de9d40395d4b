// Package cmd - visualize commands
package cmd

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"odoo-graph/core/visualize"
)

var (
	visualizeOutput string
	visualizeDepth  int
)

// visualizeCmd groups the HTML renderers
var visualizeCmd = &cobra.Command{
	Use:   "visualize",
	Short: "Render graph neighborhoods as HTML",
}

func init() {
	visualizeCmd.PersistentFlags().StringVarP(&visualizeOutput, "output", "o", "", "output HTML path")
	visualizeHierarchyCmd.Flags().IntVar(&visualizeDepth, "depth", 3, "inheritance depth to follow")

	visualizeCmd.AddCommand(visualizeHierarchyCmd)
	visualizeCmd.AddCommand(visualizeModuleCmd)
}

var visualizeHierarchyCmd = &cobra.Command{
	Use:   "model-hierarchy <model>",
	Short: "Render a model's inheritance hierarchy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		exec, err := connect(ctx)
		if err != nil {
			return err
		}
		defer exec.Close(ctx)

		output := visualizeOutput
		if output == "" {
			output = "model_hierarchy.html"
		}
		v := visualize.NewVisualizer(exec)
		if err := v.ModelHierarchy(ctx, args[0], output, visualizeDepth); err != nil {
			return err
		}
		pterm.Success.Printfln("Wrote %s", output)
		return nil
	},
}

var visualizeModuleCmd = &cobra.Command{
	Use:   "module-deps <module>",
	Short: "Render a module's dependency neighborhood",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		exec, err := connect(ctx)
		if err != nil {
			return err
		}
		defer exec.Close(ctx)

		output := visualizeOutput
		if output == "" {
			output = "module_dependencies.html"
		}
		v := visualize.NewVisualizer(exec)
		if err := v.ModuleDependencies(ctx, args[0], output); err != nil {
			return err
		}
		pterm.Success.Printfln("Wrote %s", output)
		return nil
	},
}
