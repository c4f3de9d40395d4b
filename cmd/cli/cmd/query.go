// Package cmd - query commands
package cmd

import (
	"context"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"odoo-graph/core/query"
)

// queryCmd groups the read-side queries
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the dependency graph",
}

var queryFieldType string

func init() {
	queryFieldsCmd.Flags().StringVarP(&queryFieldType, "type", "t", "", "filter by field type")

	queryCmd.AddCommand(queryChildrenCmd)
	queryCmd.AddCommand(queryParentsCmd)
	queryCmd.AddCommand(queryViewsCmd)
	queryCmd.AddCommand(queryFieldsCmd)
	queryCmd.AddCommand(queryRelationsCmd)
	queryCmd.AddCommand(queryImpactCmd)
	queryCmd.AddCommand(querySearchCmd)
	queryCmd.AddCommand(queryModuleDepsCmd)
}

// withEngine opens the store and hands an engine to fn
func withEngine(fn func(ctx context.Context, engine *query.Engine) error) error {
	ctx := context.Background()
	exec, err := connect(ctx)
	if err != nil {
		return err
	}
	defer exec.Close(ctx)
	return fn(ctx, query.NewEngine(exec))
}

// renderRows prints rows as a table with the given columns, keyed into
// each row
func renderRows(title string, columns []string, keys []string, rows []query.Row) {
	if len(rows) == 0 {
		pterm.Info.Printfln("No results for %s", title)
		return
	}
	data := pterm.TableData{columns}
	for _, row := range rows {
		line := make([]string, len(keys))
		for i, key := range keys {
			switch v := row[key].(type) {
			case string:
				line[i] = v
			case int64:
				line[i] = strconv.FormatInt(v, 10)
			case nil:
				line[i] = "-"
			default:
				line[i] = pterm.Sprintf("%v", v)
			}
		}
		data = append(data, line)
	}
	pterm.DefaultSection.Println(title)
	_ = pterm.DefaultTable.WithHasHeader(true).WithData(data).Render()
}

var queryChildrenCmd = &cobra.Command{
	Use:   "model-children <model>",
	Short: "List models inheriting from a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, engine *query.Engine) error {
			rows, err := engine.ModelChildren(ctx, args[0])
			if err != nil {
				return err
			}
			renderRows("Models inheriting from "+args[0],
				[]string{"Model", "Module", "Type"},
				[]string{"name", "module", "model_type"}, rows)
			return nil
		})
	},
}

var queryParentsCmd = &cobra.Command{
	Use:   "model-parents <model>",
	Short: "List the models a model inherits from",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, engine *query.Engine) error {
			rows, err := engine.ModelParents(ctx, args[0])
			if err != nil {
				return err
			}
			renderRows("Parents of "+args[0],
				[]string{"Model", "Module", "Type"},
				[]string{"name", "module", "model_type"}, rows)
			return nil
		})
	},
}

var queryViewsCmd = &cobra.Command{
	Use:   "model-views <model>",
	Short: "List the views of a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, engine *query.Engine) error {
			rows, err := engine.ViewsForModel(ctx, args[0])
			if err != nil {
				return err
			}
			renderRows("Views of "+args[0],
				[]string{"XML ID", "Name", "Type", "Module"},
				[]string{"xml_id", "name", "view_type", "module"}, rows)
			return nil
		})
	},
}

var queryFieldsCmd = &cobra.Command{
	Use:   "model-fields <model>",
	Short: "List the fields of a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, engine *query.Engine) error {
			rows, err := engine.ModelFields(ctx, args[0], queryFieldType)
			if err != nil {
				return err
			}
			renderRows("Fields of "+args[0],
				[]string{"Field", "Type"},
				[]string{"name", "field_type"}, rows)
			return nil
		})
	},
}

var queryRelationsCmd = &cobra.Command{
	Use:   "model-relations <model>",
	Short: "List the models referenced by a model's fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, engine *query.Engine) error {
			rows, err := engine.ModelRelations(ctx, args[0])
			if err != nil {
				return err
			}
			renderRows("Relations of "+args[0],
				[]string{"Field", "Type", "Target Model"},
				[]string{"field_name", "field_type", "target_model"}, rows)
			return nil
		})
	},
}

var queryImpactCmd = &cobra.Command{
	Use:   "model-impact <model>",
	Short: "Summarize what depends on a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, engine *query.Engine) error {
			impact, err := engine.ModelImpact(ctx, args[0])
			if err != nil {
				return err
			}
			if impact == nil {
				pterm.Info.Printfln("Model %s not found", args[0])
				return nil
			}
			data := pterm.TableData{
				{"Metric", "Count"},
				{"Child models", strconv.FormatInt(impact.ChildrenCount, 10)},
				{"Views", strconv.FormatInt(impact.ViewsCount, 10)},
				{"Related models", strconv.FormatInt(impact.RelatedCount, 10)},
			}
			pterm.DefaultSection.Println("Impact of " + impact.Model)
			return pterm.DefaultTable.WithHasHeader(true).WithData(data).Render()
		})
	},
}

var querySearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search models by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, engine *query.Engine) error {
			rows, err := engine.SearchModels(ctx, args[0])
			if err != nil {
				return err
			}
			renderRows("Models matching "+args[0],
				[]string{"Model", "Module", "Description"},
				[]string{"name", "module", "description"}, rows)
			return nil
		})
	},
}

var queryModuleDepsCmd = &cobra.Command{
	Use:   "module-deps <module>",
	Short: "List the dependencies of a module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, engine *query.Engine) error {
			rows, err := engine.ModuleDependencies(ctx, args[0])
			if err != nil {
				return err
			}
			renderRows("Dependencies of "+args[0],
				[]string{"Module", "Version"},
				[]string{"name", "version"}, rows)
			return nil
		})
	},
}
