package incremental

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"odoo-graph/core/discovery"
	"odoo-graph/core/parse"
	"odoo-graph/core/types"
)

// Strategy is the update plan for a run
type Strategy struct {
	// FullReload selects a complete re-parse and re-load
	FullReload bool

	// Modules are the modules to process this run
	Modules []types.Module

	// Reason explains the choice, for operators
	Reason string
}

// Detector decides between incremental and full runs
type Detector struct {
	store     *Store
	threshold float64
}

// NewDetector creates a detector. The threshold is the changed/total
// module ratio above which a full reload wins; values outside (0, 1]
// fall back to 0.30.
func NewDetector(store *Store, threshold float64) *Detector {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.30
	}
	return &Detector{store: store, threshold: threshold}
}

// RelevantFiles lists the files whose hashes drive change detection for
// a module: the manifest, every non-test source file outside cache
// directories, and every markup file under the subtree.
func RelevantFiles(modulePath string) []string {
	var files []string

	if manifest := discovery.FindManifest(modulePath); manifest != "" {
		files = append(files, manifest)
	}

	_ = filepath.WalkDir(modulePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == parse.CacheDirName {
				return filepath.SkipDir
			}
			return nil
		}
		switch filepath.Ext(path) {
		case ".py":
			if isManifestName(filepath.Base(path)) {
				return nil
			}
			if parse.SourceFileRelevant(path) {
				files = append(files, path)
			}
		case ".xml":
			files = append(files, path)
		}
		return nil
	})

	return files
}

func isManifestName(name string) bool {
	for _, manifest := range discovery.ManifestFiles {
		if name == manifest {
			return true
		}
	}
	return false
}

// ModuleChanged reports whether any relevant file of a module changed
func (d *Detector) ModuleChanged(modulePath string) bool {
	for _, path := range RelevantFiles(modulePath) {
		if d.store.HasChanged(path) {
			return true
		}
	}
	return false
}

// ChangedModules filters modules down to those with at least one changed
// relevant file
func (d *Detector) ChangedModules(modules []types.Module) []types.Module {
	var changed []types.Module
	for _, module := range modules {
		if d.ModuleChanged(module.Path) {
			changed = append(changed, module)
		}
	}
	return changed
}

// Strategy computes the update plan for the given module set
func (d *Detector) Strategy(modules []types.Module) Strategy {
	if d.store.LastUpdate() == "" {
		return Strategy{FullReload: true, Modules: modules, Reason: "first run"}
	}

	changed := d.ChangedModules(modules)

	ratio := 0.0
	if len(modules) > 0 {
		ratio = float64(len(changed)) / float64(len(modules))
	}
	if ratio > d.threshold {
		return Strategy{
			FullReload: true,
			Modules:    modules,
			Reason:     fmt.Sprintf("many changes (%.0f%% of modules)", ratio*100),
		}
	}

	return Strategy{
		FullReload: false,
		Modules:    changed,
		Reason:     fmt.Sprintf("%d modules modified", len(changed)),
	}
}

// MarkProcessed records current hashes for every relevant file of a module
func (d *Detector) MarkProcessed(modulePath string) {
	for _, path := range RelevantFiles(modulePath) {
		d.store.UpdateFile(path)
	}
}
