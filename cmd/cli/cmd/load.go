// Package cmd - load command
package cmd

import (
	"context"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"odoo-graph/core/discovery"
	"odoo-graph/core/pipeline"
	"odoo-graph/internal/config"
)

var (
	loadSource string
	loadFull   bool
	loadClear  bool
	loadExport string
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load an Odoo source tree into the graph",
	Long: `Discover modules, parse models and views, and load the result into
the graph store. Runs incrementally by default: only modules with changed
files are re-parsed.

Examples:
  odoo-graph load --source /opt/odoo/addons
  odoo-graph load --full --clear`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVarP(&loadSource, "source", "s", "", "path to the Odoo source tree")
	loadCmd.Flags().BoolVar(&loadFull, "full", false, "force a full reload, skipping change detection")
	loadCmd.Flags().BoolVar(&loadClear, "clear", false, "clear the graph before loading")
	loadCmd.Flags().StringVar(&loadExport, "export-modules", "", "also write the discovered module list as JSON")
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	exec, err := connect(ctx)
	if err != nil {
		return err
	}
	defer exec.Close(ctx)

	p := pipeline.New(config.Get(), exec)
	report, err := p.Run(ctx, pipeline.Options{
		SourcePath: loadSource,
		Full:       loadFull,
		Clear:      loadClear || loadFull,
	})
	if err != nil {
		return err
	}

	if loadExport != "" {
		if err := discovery.ExportJSON(report.Modules, loadExport); err != nil {
			pterm.Warning.Printfln("module export failed: %v", err)
		}
	}

	if report.NoChanges {
		pterm.Success.Println("No changes since last run")
		return nil
	}

	pterm.Success.Printfln("Load completed in %s", report.Duration.Round(10*time.Millisecond))
	if report.Load != nil && report.Load.Errors > 0 {
		pterm.Warning.Printfln("%d items failed to load; see logs", report.Load.Errors)
	}
	for _, name := range report.SkippedModules {
		pterm.Warning.Printfln("module skipped: %s", name)
	}

	if report.Stats != nil {
		printStats(report.Stats)
	}
	return nil
}

func printStats(stats map[string]int64) {
	data := pterm.TableData{{"Type", "Count"}}
	for _, key := range []string{"modules", "models", "views", "fields"} {
		data = append(data, []string{key, strconv.FormatInt(stats[key], 10)})
	}
	_ = pterm.DefaultTable.WithHasHeader(true).WithData(data).Render()
}
