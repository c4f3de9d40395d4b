// Package discovery finds Odoo modules on disk. A directory is a module
// when it carries a recognized manifest file; the manifest is evaluated
// under the literal whitelist, never executed.
package discovery

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"

	"odoo-graph/core/pyast"
	"odoo-graph/core/types"
	"odoo-graph/internal/errors"
	"odoo-graph/internal/logging"
)

// ManifestFiles are the recognized manifest names, preferred first
var ManifestFiles = []string{"__manifest__.py", "__openerp__.py"}

// Scanner walks a root directory for Odoo modules
type Scanner struct {
	rootPath string
	parser   *pyast.Parser
}

// NewScanner creates a scanner for the given root. The root must exist.
func NewScanner(rootPath string) (*Scanner, error) {
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeScan, err, "source path %s is not readable", rootPath)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.TypeScan, "source path %s is not a directory", rootPath)
	}
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, errors.Wrap(errors.TypeScan, "resolving source path", err)
	}
	return &Scanner{rootPath: abs, parser: pyast.NewParser()}, nil
}

// Scan walks the root and returns every module found. Individual manifest
// failures skip that module and never abort the scan.
func (s *Scanner) Scan(ctx context.Context) ([]types.Module, error) {
	var modules []types.Module

	err := filepath.WalkDir(s.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.Warn("skipping unreadable path", logging.Path(path))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		manifest := FindManifest(path)
		if manifest == "" {
			return nil
		}
		module, ok := s.parseModule(ctx, path, manifest)
		if ok {
			modules = append(modules, module)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.TypeScan, "walking source tree", err)
	}

	return modules, nil
}

// FindManifest returns the manifest path inside dir, or "" when dir is not
// a module
func FindManifest(dir string) string {
	for _, name := range ManifestFiles {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func (s *Scanner) parseModule(ctx context.Context, modulePath, manifestPath string) (types.Module, bool) {
	content, err := os.ReadFile(manifestPath)
	if err != nil {
		logging.Warn("unreadable manifest, module skipped", logging.Path(manifestPath))
		return types.Module{}, false
	}

	data, clean, err := s.parser.EvalManifest(ctx, content)
	if err != nil {
		logging.Warn("invalid manifest expression, module skipped", logging.Path(manifestPath))
		return types.Module{}, false
	}
	if !clean {
		logging.Warn("manifest contains non-literal values, using defaults", logging.Path(manifestPath))
	}

	description := stringOr(data["summary"], "")
	if description == "" {
		description = stringOr(data["description"], "")
	}

	return types.Module{
		Name:        filepath.Base(modulePath),
		Path:        modulePath,
		Version:     stringOr(data["version"], "1.0"),
		Depends:     pyast.StringList(data["depends"]),
		Description: description,
		Author:      stringOr(data["author"], ""),
		Category:    stringOr(data["category"], "Uncategorized"),
		Installable: boolOr(data["installable"], true),
		AutoInstall: boolOr(data["auto_install"], false),
	}, true
}

func stringOr(v interface{}, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func boolOr(v interface{}, fallback bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}

// ExportJSON writes the discovered module list as indented JSON
func ExportJSON(modules []types.Module, outputPath string) error {
	data, err := json.MarshalIndent(modules, "", "  ")
	if err != nil {
		return errors.Wrap(errors.TypeScan, "encoding module list", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return errors.Wrap(errors.TypeScan, "writing module list", err)
	}
	return nil
}

// DependencyGraph maps each module name to its declared dependencies
func DependencyGraph(modules []types.Module) map[string][]string {
	graph := make(map[string][]string, len(modules))
	for _, module := range modules {
		graph[module.Name] = module.Depends
	}
	return graph
}
