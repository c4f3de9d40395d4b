package graph

import (
	"context"

	"go.uber.org/zap"

	"odoo-graph/core/transform"
	"odoo-graph/internal/errors"
	"odoo-graph/internal/logging"
)

// StepSummary reports one load sub-step
type StepSummary struct {
	Step             string
	Items            int
	Batches          int
	CommittedBatches int
	FailedBatches    int
	Errors           int
}

// Summary aggregates a whole load
type Summary struct {
	Steps            []StepSummary
	BatchesProcessed int
	Errors           int
}

// Progress is called after every committed or failed batch of a sub-step
type Progress func(step string, batch, total int)

// Loader writes datasets to the graph store
type Loader struct {
	exec      Executor
	batchSize int

	// OnProgress, when set, receives per-batch progress
	OnProgress Progress
}

// NewLoader creates a loader. Batch sizes below 1 fall back to 1000.
func NewLoader(exec Executor, batchSize int) *Loader {
	if batchSize < 1 {
		batchSize = 1000
	}
	return &Loader{exec: exec, batchSize: batchSize}
}

// SetupSchema applies constraints and indexes. Failures are warnings:
// the store may already carry them.
func (l *Loader) SetupSchema(ctx context.Context) {
	for _, query := range ConstraintQueries() {
		if err := l.exec.Write(ctx, query, nil); err != nil {
			logging.Warn("schema bootstrap statement failed", zap.Error(err))
		}
	}
}

// Clear deletes every node and relationship
func (l *Loader) Clear(ctx context.Context) error {
	for _, query := range CleanupQueries() {
		if err := l.exec.Write(ctx, query, nil); err != nil {
			return errors.Wrap(errors.TypeGraph, "clearing graph", err)
		}
	}
	return nil
}

// step binds a sub-step name to its upsert statement and parameter name
type step struct {
	name   string
	cypher string
	param  string
	rows   []transform.Row
}

// Load writes the dataset in two strict phases: all nodes, then all
// relationships, each phase in a fixed sub-order. Relationship merges
// create missing endpoints as placeholder nodes carrying only the
// identity key, so references to modules outside the corpus still
// resolve. Returns an error only on cancellation; batch failures are
// isolated and counted.
func (l *Loader) Load(ctx context.Context, ds *transform.Dataset) (*Summary, error) {
	steps := []step{
		// Phase 1: nodes
		{"modules", mergeModules, "modules", ds.Modules},
		{"models", mergeModels, "models", ds.Models},
		{"views", mergeViews, "views", ds.Views},
		{"fields", mergeFields, "fields", ds.Fields},
		// Phase 2: relationships
		{"module dependencies", mergeModuleDependencies, "deps", ds.ModuleDependencies},
		{"module contains model", mergeModelModules, "rels", ds.ModelModules},
		{"model inheritance", mergeModelInheritances, "inh", ds.ModelInheritances},
		{"model delegation", mergeModelDelegations, "dels", ds.ModelDelegations},
		{"model has field", mergeFieldModels, "rels", ds.FieldModels},
		{"field references", mergeFieldReferences, "refs", ds.FieldReferences},
		{"module contains view", mergeViewModules, "rels", ds.ViewModules},
		{"view for model", mergeViewModels, "rels", ds.ViewModels},
		{"view inheritance", mergeViewInheritances, "inh", ds.ViewInheritances},
	}

	summary := &Summary{}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return summary, errors.Wrap(errors.TypeGraph, "load cancelled", err)
		}
		stepSummary := l.runStep(ctx, s)
		summary.Steps = append(summary.Steps, stepSummary)
		summary.BatchesProcessed += stepSummary.CommittedBatches
		summary.Errors += stepSummary.Errors
	}
	return summary, nil
}

// runStep chunks a sub-step into batches, one transaction each. A failed
// batch logs, counts its items as errors, and the sub-step continues.
func (l *Loader) runStep(ctx context.Context, s step) StepSummary {
	total := len(s.rows)
	summary := StepSummary{Step: s.name, Items: total}
	if total == 0 {
		return summary
	}

	summary.Batches = (total + l.batchSize - 1) / l.batchSize
	logging.Debug("loading step",
		zap.String("step", s.name), zap.Int("items", total), zap.Int("batches", summary.Batches))

	for start := 0; start < total; start += l.batchSize {
		end := start + l.batchSize
		if end > total {
			end = total
		}
		batch := s.rows[start:end]
		batchNum := start/l.batchSize + 1

		params := map[string]interface{}{s.param: rowsToAny(batch)}
		if err := l.exec.Write(ctx, s.cypher, params); err != nil {
			summary.FailedBatches++
			summary.Errors += len(batch)
			logging.Warn("batch failed",
				zap.String("step", s.name),
				zap.Int("batch", batchNum),
				zap.Int("of", summary.Batches),
				zap.Error(err))
		} else {
			summary.CommittedBatches++
		}
		if l.OnProgress != nil {
			l.OnProgress(s.name, batchNum, summary.Batches)
		}
	}

	return summary
}

// rowsToAny converts the batch for driver parameter encoding
func rowsToAny(rows []transform.Row) []interface{} {
	out := make([]interface{}, len(rows))
	for i, row := range rows {
		out[i] = map[string]interface{}(row)
	}
	return out
}

// Stats counts nodes per label
func (l *Loader) Stats(ctx context.Context) (map[string]int64, error) {
	stats := make(map[string]int64, 4)
	for key, label := range map[string]string{
		"modules": NodeModule,
		"models":  NodeModel,
		"views":   NodeView,
		"fields":  NodeField,
	} {
		rows, err := l.exec.Read(ctx, "MATCH (n:"+label+") RETURN count(n) AS count", nil)
		if err != nil {
			return nil, errors.Wrap(errors.TypeGraph, "counting "+key, err)
		}
		if len(rows) == 1 {
			if n, ok := rows[0]["count"].(int64); ok {
				stats[key] = n
			}
		}
	}
	return stats, nil
}
