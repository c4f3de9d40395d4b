// Package transform turns parsed modules, models and views into the
// normalized node and relationship collections the loader writes. It is a
// pure function of its input: no I/O, no graph store, deterministic
// output order.
package transform

import (
	"encoding/json"
	"sort"

	"odoo-graph/core/types"
)

// Row is one node or relationship record, keyed the way the loader's
// queries expect
type Row = map[string]interface{}

// Dataset is the normalized load unit. Node collections come first, then
// relationship collections in load order.
type Dataset struct {
	Modules []Row
	Models  []Row
	Views   []Row
	Fields  []Row

	ModuleDependencies []Row
	ModelModules       []Row
	ModelInheritances  []Row
	ModelDelegations   []Row
	FieldModels        []Row
	FieldReferences    []Row
	ViewModules        []Row
	ViewModels         []Row
	ViewInheritances   []Row
}

// Build normalizes the parsed records. Models without an effective name
// are dropped with their fields; views without an external id or model
// are dropped; inheritance and field-reference edges are de-duplicated;
// field attributes are serialized to canonical key-sorted JSON.
func Build(modules []types.Module, models []types.Model, views []types.View) *Dataset {
	ds := &Dataset{}

	for _, module := range modules {
		ds.Modules = append(ds.Modules, Row{
			"name":         module.Name,
			"path":         module.Path,
			"version":      module.Version,
			"description":  module.Description,
			"author":       module.Author,
			"category":     module.Category,
			"installable":  module.Installable,
			"auto_install": module.AutoInstall,
		})
		for _, dep := range module.Depends {
			ds.ModuleDependencies = append(ds.ModuleDependencies, Row{
				"from": module.Name,
				"to":   dep,
			})
		}
	}

	seenInherits := make(map[[2]string]bool)
	seenDelegations := make(map[[2]string]bool)
	seenReferences := make(map[[3]string]bool)

	for _, model := range models {
		if model.Name == "" {
			continue
		}

		ds.Models = append(ds.Models, Row{
			"name":         model.Name,
			"description":  model.Description,
			"module":       model.Module,
			"file_path":    model.FilePath,
			"class_name":   model.ClassName,
			"model_type":   string(model.Type()),
			"is_abstract":  model.IsAbstract,
			"is_extension": model.IsExtension,
			"is_transient": model.IsTransient,
		})
		ds.ModelModules = append(ds.ModelModules, Row{
			"model":  model.Name,
			"module": model.Module,
		})

		for _, parent := range model.Inherits {
			key := [2]string{model.Name, parent}
			if seenInherits[key] {
				continue
			}
			seenInherits[key] = true
			ds.ModelInheritances = append(ds.ModelInheritances, Row{
				"child":  model.Name,
				"parent": parent,
			})
		}

		for parent, field := range model.InheritsDelegation {
			key := [2]string{model.Name, parent}
			if seenDelegations[key] {
				continue
			}
			seenDelegations[key] = true
			ds.ModelDelegations = append(ds.ModelDelegations, Row{
				"child":  model.Name,
				"parent": parent,
				"field":  field,
			})
		}

		for _, field := range model.Fields {
			if field.Name == "" {
				continue
			}
			ds.Fields = append(ds.Fields, Row{
				"model_name": model.Name,
				"field_name": field.Name,
				"field_type": field.FieldType,
				"attributes": attributesJSON(field.Attributes),
			})
			ds.FieldModels = append(ds.FieldModels, Row{
				"model_name": model.Name,
				"field_name": field.Name,
			})
			if field.RelatedModel != "" {
				key := [3]string{model.Name, field.Name, field.RelatedModel}
				if seenReferences[key] {
					continue
				}
				seenReferences[key] = true
				ds.FieldReferences = append(ds.FieldReferences, Row{
					"model_name":    model.Name,
					"field_name":    field.Name,
					"related_model": field.RelatedModel,
				})
			}
		}
	}

	for _, view := range views {
		if view.XMLID == "" || view.Model == "" {
			continue
		}
		ds.Views = append(ds.Views, Row{
			"xml_id":    view.XMLID,
			"name":      view.Name,
			"model":     view.Model,
			"view_type": view.ViewType,
			"module":    view.Module,
			"file_path": view.FilePath,
			"priority":  view.Priority,
		})
		ds.ViewModules = append(ds.ViewModules, Row{
			"view_xml_id": view.XMLID,
			"module":      view.Module,
		})
		ds.ViewModels = append(ds.ViewModels, Row{
			"view_xml_id": view.XMLID,
			"model":       view.Model,
		})
		if view.InheritID != "" {
			ds.ViewInheritances = append(ds.ViewInheritances, Row{
				"child":  view.XMLID,
				"parent": view.InheritID,
			})
		}
	}

	ds.sort()
	return ds
}

// attributesJSON serializes field attributes with stable key order, so
// re-loading identical input writes identical strings
func attributesJSON(attrs map[string]interface{}) string {
	if len(attrs) == 0 {
		return "{}"
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// sort orders every collection by identity, keeping declaration order
// for identical keys
func (ds *Dataset) sort() {
	byKeys := func(rows []Row, keys ...string) {
		sort.SliceStable(rows, func(i, j int) bool {
			for _, key := range keys {
				a, _ := rows[i][key].(string)
				b, _ := rows[j][key].(string)
				if a != b {
					return a < b
				}
			}
			return false
		})
	}

	byKeys(ds.Modules, "name")
	byKeys(ds.Models, "name", "module")
	byKeys(ds.Views, "xml_id")
	byKeys(ds.Fields, "model_name", "field_name")
	byKeys(ds.ModuleDependencies, "from", "to")
	byKeys(ds.ModelModules, "model", "module")
	byKeys(ds.ModelInheritances, "child", "parent")
	byKeys(ds.ModelDelegations, "child", "parent")
	byKeys(ds.FieldModels, "model_name", "field_name")
	byKeys(ds.FieldReferences, "model_name", "field_name", "related_model")
	byKeys(ds.ViewModules, "view_xml_id")
	byKeys(ds.ViewModels, "view_xml_id")
	byKeys(ds.ViewInheritances, "child", "parent")
}

// Counts summarizes the dataset for progress reporting
func (ds *Dataset) Counts() map[string]int {
	return map[string]int{
		"modules":             len(ds.Modules),
		"models":              len(ds.Models),
		"views":               len(ds.Views),
		"fields":              len(ds.Fields),
		"module_dependencies": len(ds.ModuleDependencies),
		"model_inheritances":  len(ds.ModelInheritances),
		"field_references":    len(ds.FieldReferences),
	}
}
