// Package pipeline drives the whole run: discovery, change detection,
// bounded-parallel parsing, transformation, graph load and state commit.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"odoo-graph/core/discovery"
	"odoo-graph/core/graph"
	"odoo-graph/core/incremental"
	"odoo-graph/core/parse"
	"odoo-graph/core/transform"
	"odoo-graph/core/types"
	"odoo-graph/internal/config"
	"odoo-graph/internal/logging"
)

// Options selects run behavior
type Options struct {
	// SourcePath overrides the configured corpus root
	SourcePath string

	// Full forces a complete re-parse, skipping change detection
	Full bool

	// Clear empties the graph before loading
	Clear bool

	// Quiet suppresses progress output
	Quiet bool
}

// Report summarizes a run
type Report struct {
	RunID            string
	Modules          []types.Module
	ModulesFound     int
	ModulesProcessed int
	SkippedModules   []string
	ModelsParsed     int
	ViewsParsed      int
	Strategy         incremental.Strategy
	NoChanges        bool
	Load             *graph.Summary
	Stats            map[string]int64
	Duration         time.Duration
}

// Pipeline wires the stages together. The state store is owned here and
// written once at end-of-run; parsing workers never touch it.
type Pipeline struct {
	cfg  *config.Config
	exec graph.Executor
}

// New creates a pipeline over an open executor
func New(cfg *config.Config, exec graph.Executor) *Pipeline {
	return &Pipeline{cfg: cfg, exec: exec}
}

// Run executes the pipeline. Single files, modules and batches fail
// without aborting; only an unreadable root, an unreachable store or
// cancellation abort the run.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.NewString()}
	log := logging.Logger.With(zap.String("run_id", report.RunID))

	sourcePath := opts.SourcePath
	if sourcePath == "" {
		sourcePath = p.cfg.SourcePath
	}

	scanner, err := discovery.NewScanner(sourcePath)
	if err != nil {
		return report, err
	}
	modules, err := scanner.Scan(ctx)
	if err != nil {
		return report, err
	}
	report.Modules = modules
	report.ModulesFound = len(modules)
	p.progress(opts, "%d modules found", len(modules))

	store := incremental.NewStore(p.cfg.StateFile())
	detector := incremental.NewDetector(store, p.cfg.ChangeThreshold)

	if opts.Full {
		report.Strategy = incremental.Strategy{FullReload: true, Modules: modules, Reason: "forced full reload"}
	} else {
		report.Strategy = detector.Strategy(modules)
	}
	log.Info("update strategy",
		zap.Bool("full_reload", report.Strategy.FullReload),
		zap.String("reason", report.Strategy.Reason),
		zap.Int("modules", len(report.Strategy.Modules)))
	p.progress(opts, "strategy: %s", report.Strategy.Reason)

	loader := graph.NewLoader(p.exec, p.cfg.BatchSize)
	loader.SetupSchema(ctx)

	if opts.Clear {
		if err := loader.Clear(ctx); err != nil {
			return report, err
		}
		p.progress(opts, "graph cleared")
	}

	toProcess := report.Strategy.Modules
	if !report.Strategy.FullReload && len(toProcess) == 0 {
		report.NoChanges = true
		report.Duration = time.Since(start)
		p.progress(opts, "nothing to do")
		return report, nil
	}

	models, views, skipped := p.parseModules(ctx, toProcess)
	report.ModulesProcessed = len(toProcess) - len(skipped)
	report.SkippedModules = skipped
	report.ModelsParsed = len(models)
	report.ViewsParsed = len(views)
	p.progress(opts, "%d models and %d views parsed", len(models), len(views))

	dataset := transform.Build(modules, models, views)

	if !opts.Quiet {
		loader.OnProgress = func(step string, batch, total int) {
			if batch == total {
				pterm.Info.Printfln("  %s: %d/%d batches (100%%)", step, batch, total)
			}
		}
	}
	summary, err := loader.Load(ctx, dataset)
	report.Load = summary
	if err != nil {
		return report, err
	}
	if summary.Errors > 0 {
		log.Warn("load completed with errors", zap.Int("errors", summary.Errors))
	}

	// State commits only after a successful load; a failed run leaves
	// the previous state intact.
	for _, module := range toProcess {
		detector.MarkProcessed(module.Path)
	}
	if err := store.Save(); err != nil {
		log.Warn("state not persisted", zap.Error(err))
	}

	if stats, err := loader.Stats(ctx); err == nil {
		report.Stats = stats
	} else {
		log.Warn("stats unavailable", zap.Error(err))
	}

	report.Duration = time.Since(start)
	return report, nil
}

// parseModules fans the per-module parse over a bounded worker pool.
// Workers share nothing; results drain in completion order. A failing or
// panicking module is logged and skipped.
func (p *Pipeline) parseModules(ctx context.Context, modules []types.Module) ([]types.Model, []types.View, []string) {
	var (
		mu      sync.Mutex
		models  []types.Model
		views   []types.View
		skipped []string
	)

	workers := p.cfg.MaxWorkers
	if workers < 1 {
		workers = 4
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for _, module := range modules {
		module := module
		eg.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					logging.Error("module parser panicked",
						zap.String("module", module.Name), zap.Any("panic", r))
					mu.Lock()
					skipped = append(skipped, module.Name)
					mu.Unlock()
				}
			}()

			if egCtx.Err() != nil {
				return nil
			}

			moduleModels := parse.NewModelParser(module.Name).ParseDirectory(egCtx, module.Path)
			moduleViews := parse.NewViewParser(module.Name).ParseDirectory(module.Path)

			mu.Lock()
			models = append(models, moduleModels...)
			views = append(views, moduleViews...)
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	return models, views, skipped
}

func (p *Pipeline) progress(opts Options, format string, args ...interface{}) {
	if opts.Quiet {
		return
	}
	pterm.Success.Printfln(format, args...)
}
