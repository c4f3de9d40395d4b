// Package query provides read-side queries over the built graph
package query

import (
	"context"

	"odoo-graph/core/graph"
	"odoo-graph/internal/errors"
)

// Row is one query result record
type Row = map[string]interface{}

// Engine runs predefined dependency and impact queries
type Engine struct {
	exec graph.Executor
}

// NewEngine creates an engine over an open executor
func NewEngine(exec graph.Executor) *Engine {
	return &Engine{exec: exec}
}

// ModelChildren lists the models inheriting from a model
func (e *Engine) ModelChildren(ctx context.Context, modelName string) ([]Row, error) {
	cypher := `
MATCH (child:` + graph.NodeModel + `)-[:` + graph.RelInherits + `]->(parent:` + graph.NodeModel + ` {name: $model_name})
RETURN child.name AS name, child.module AS module, child.model_type AS model_type
ORDER BY child.name`
	return e.run(ctx, cypher, Row{"model_name": modelName})
}

// ModelParents lists the models a model inherits from
func (e *Engine) ModelParents(ctx context.Context, modelName string) ([]Row, error) {
	cypher := `
MATCH (child:` + graph.NodeModel + ` {name: $model_name})-[:` + graph.RelInherits + `]->(parent:` + graph.NodeModel + `)
RETURN parent.name AS name, parent.module AS module, parent.model_type AS model_type
ORDER BY parent.name`
	return e.run(ctx, cypher, Row{"model_name": modelName})
}

// ViewsForModel lists the views bound to a model
func (e *Engine) ViewsForModel(ctx context.Context, modelName string) ([]Row, error) {
	cypher := `
MATCH (v:` + graph.NodeView + `)-[:` + graph.RelViewFor + `]->(m:` + graph.NodeModel + ` {name: $model_name})
RETURN v.xml_id AS xml_id, v.name AS name, v.view_type AS view_type, v.module AS module
ORDER BY v.view_type, v.priority`
	return e.run(ctx, cypher, Row{"model_name": modelName})
}

// ViewExtensions lists the views extending a view
func (e *Engine) ViewExtensions(ctx context.Context, viewXMLID string) ([]Row, error) {
	cypher := `
MATCH (child:` + graph.NodeView + `)-[:` + graph.RelExtends + `]->(parent:` + graph.NodeView + ` {xml_id: $view_xml_id})
RETURN child.xml_id AS xml_id, child.name AS name, child.module AS module
ORDER BY child.xml_id`
	return e.run(ctx, cypher, Row{"view_xml_id": viewXMLID})
}

// ModelFields lists the fields of a model, optionally filtered by type
func (e *Engine) ModelFields(ctx context.Context, modelName, fieldType string) ([]Row, error) {
	params := Row{"model_name": modelName}
	filter := ""
	if fieldType != "" {
		filter = " {field_type: $field_type}"
		params["field_type"] = fieldType
	}
	cypher := `
MATCH (m:` + graph.NodeModel + ` {name: $model_name})-[:` + graph.RelHasField + `]->(f:` + graph.NodeField + filter + `)
RETURN f.name AS name, f.field_type AS field_type
ORDER BY f.name`
	return e.run(ctx, cypher, params)
}

// ModelRelations lists the models a model references through fields
func (e *Engine) ModelRelations(ctx context.Context, modelName string) ([]Row, error) {
	cypher := `
MATCH (m:` + graph.NodeModel + ` {name: $model_name})-[:` + graph.RelHasField + `]->(f:` + graph.NodeField + `)
MATCH (f)-[:` + graph.RelRelatesTo + `]->(target:` + graph.NodeModel + `)
RETURN f.name AS field_name, f.field_type AS field_type, target.name AS target_model
ORDER BY f.name`
	return e.run(ctx, cypher, Row{"model_name": modelName})
}

// ModuleDependencies lists the modules a module depends on
func (e *Engine) ModuleDependencies(ctx context.Context, moduleName string) ([]Row, error) {
	cypher := `
MATCH (m:` + graph.NodeModule + ` {name: $module_name})-[:` + graph.RelDependsOn + `]->(dep:` + graph.NodeModule + `)
RETURN dep.name AS name, dep.version AS version
ORDER BY dep.name`
	return e.run(ctx, cypher, Row{"module_name": moduleName})
}

// ModuleDependents lists the modules depending on a module
func (e *Engine) ModuleDependents(ctx context.Context, moduleName string) ([]Row, error) {
	cypher := `
MATCH (dependent:` + graph.NodeModule + `)-[:` + graph.RelDependsOn + `]->(m:` + graph.NodeModule + ` {name: $module_name})
RETURN dependent.name AS name, dependent.version AS version
ORDER BY dependent.name`
	return e.run(ctx, cypher, Row{"module_name": moduleName})
}

// SearchModels finds models whose name contains a term
func (e *Engine) SearchModels(ctx context.Context, term string) ([]Row, error) {
	cypher := `
MATCH (m:` + graph.NodeModel + `)
WHERE m.name CONTAINS $search_term
RETURN m.name AS name, m.module AS module, m.description AS description
ORDER BY m.name
LIMIT 50`
	return e.run(ctx, cypher, Row{"search_term": term})
}

// Impact summarizes how many models, views and related models hang off a
// model
type Impact struct {
	Model         string
	ChildrenCount int64
	ViewsCount    int64
	RelatedCount  int64
}

// ModelImpact computes the impact summary for a model. Returns nil when
// the model does not exist.
func (e *Engine) ModelImpact(ctx context.Context, modelName string) (*Impact, error) {
	cypher := `
MATCH (m:` + graph.NodeModel + ` {name: $model_name})
OPTIONAL MATCH (child:` + graph.NodeModel + `)-[:` + graph.RelInherits + `]->(m)
OPTIONAL MATCH (v:` + graph.NodeView + `)-[:` + graph.RelViewFor + `]->(m)
OPTIONAL MATCH (m)-[:` + graph.RelHasField + `]->(f:` + graph.NodeField + `)-[:` + graph.RelRelatesTo + `]->(related:` + graph.NodeModel + `)
WITH m,
     count(DISTINCT child) AS children_count,
     count(DISTINCT v) AS views_count,
     count(DISTINCT related) AS related_models_count
RETURN m.name AS model, children_count, views_count, related_models_count`

	rows, err := e.run(ctx, cypher, Row{"model_name": modelName})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]
	impact := &Impact{}
	impact.Model, _ = row["model"].(string)
	impact.ChildrenCount, _ = row["children_count"].(int64)
	impact.ViewsCount, _ = row["views_count"].(int64)
	impact.RelatedCount, _ = row["related_models_count"].(int64)
	return impact, nil
}

func (e *Engine) run(ctx context.Context, cypher string, params Row) ([]Row, error) {
	rows, err := e.exec.Read(ctx, cypher, params)
	if err != nil {
		return nil, errors.Wrap(errors.TypeGraph, "query failed", err)
	}
	return rows, nil
}
