// Package visualize renders interactive HTML views of the graph
package visualize

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"os"

	"odoo-graph/core/graph"
	"odoo-graph/internal/errors"
)

// node and edge feed the vis-network page
type node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Title string `json:"title"`
	Color string `json:"color"`
}

type edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

const (
	colorRoot  = "#ff6b6b"
	colorOther = "#4dabf7"
)

// Visualizer builds HTML pages from graph neighborhoods
type Visualizer struct {
	exec graph.Executor
}

// NewVisualizer creates a visualizer over an open executor
func NewVisualizer(exec graph.Executor) *Visualizer {
	return &Visualizer{exec: exec}
}

// ModelHierarchy renders the inheritance neighborhood of a model up to
// the given depth into an HTML file
func (v *Visualizer) ModelHierarchy(ctx context.Context, modelName, outputPath string, depth int) error {
	if depth < 1 {
		depth = 3
	}
	cypher := fmt.Sprintf(`
MATCH (root:%[1]s {name: $model_name})
OPTIONAL MATCH path1 = (child:%[1]s)-[:%[2]s*..%[3]d]->(root)
OPTIONAL MATCH path2 = (root)-[:%[2]s*..%[3]d]->(parent:%[1]s)
WITH root, collect(path1) + collect(path2) AS paths
UNWIND paths AS path
UNWIND relationships(path) AS rel
WITH root, startNode(rel) AS source, endNode(rel) AS target
RETURN DISTINCT
    root.name AS root_name,
    source.name AS source,
    target.name AS target,
    source.module AS source_module,
    target.module AS target_module`,
		graph.NodeModel, graph.RelInherits, depth)

	rows, err := v.exec.Read(ctx, cypher, map[string]interface{}{"model_name": modelName})
	if err != nil {
		return errors.Wrap(errors.TypeGraph, "fetching hierarchy", err)
	}
	if len(rows) == 0 {
		return errors.Newf(errors.TypeNotFound, "model %s has no inheritance edges", modelName)
	}

	nodes, edges := collectGraph(rows, modelName, "source_module", "target_module")
	title := fmt.Sprintf("Inheritance hierarchy: %s", modelName)
	return renderPage(outputPath, title, nodes, edges)
}

// ModuleDependencies renders the dependency neighborhood of a module
// into an HTML file
func (v *Visualizer) ModuleDependencies(ctx context.Context, moduleName, outputPath string) error {
	cypher := `
MATCH (root:` + graph.NodeModule + ` {name: $module_name})
OPTIONAL MATCH (root)-[:` + graph.RelDependsOn + `]->(dep:` + graph.NodeModule + `)
OPTIONAL MATCH (dependent:` + graph.NodeModule + `)-[:` + graph.RelDependsOn + `]->(root)
WITH root,
     collect(DISTINCT dep.name) AS deps,
     collect(DISTINCT dependent.name) AS dependents
RETURN root.name AS root_name, deps, dependents`

	rows, err := v.exec.Read(ctx, cypher, map[string]interface{}{"module_name": moduleName})
	if err != nil {
		return errors.Wrap(errors.TypeGraph, "fetching dependencies", err)
	}
	if len(rows) == 0 {
		return errors.Newf(errors.TypeNotFound, "module %s not found", moduleName)
	}

	nodes := []node{{ID: moduleName, Label: moduleName, Title: "module", Color: colorRoot}}
	var edges []edge
	seen := map[string]bool{moduleName: true}

	appendNames := func(value interface{}, out bool) {
		list, _ := value.([]interface{})
		for _, item := range list {
			name, ok := item.(string)
			if !ok || name == "" {
				continue
			}
			if !seen[name] {
				seen[name] = true
				nodes = append(nodes, node{ID: name, Label: name, Title: "module", Color: colorOther})
			}
			if out {
				edges = append(edges, edge{From: moduleName, To: name, Label: "depends on"})
			} else {
				edges = append(edges, edge{From: name, To: moduleName, Label: "depends on"})
			}
		}
	}
	appendNames(rows[0]["deps"], true)
	appendNames(rows[0]["dependents"], false)

	title := fmt.Sprintf("Module dependencies: %s", moduleName)
	return renderPage(outputPath, title, nodes, edges)
}

// collectGraph turns source/target rows into deduplicated nodes and edges
func collectGraph(rows []map[string]interface{}, rootName, sourceModuleKey, targetModuleKey string) ([]node, []edge) {
	var nodes []node
	var edges []edge
	seen := make(map[string]bool)

	color := func(name string) string {
		if name == rootName {
			return colorRoot
		}
		return colorOther
	}
	add := func(name, module string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		nodes = append(nodes, node{ID: name, Label: name, Title: module, Color: color(name)})
	}

	for _, row := range rows {
		source, _ := row["source"].(string)
		target, _ := row["target"].(string)
		sourceModule, _ := row[sourceModuleKey].(string)
		targetModule, _ := row[targetModuleKey].(string)
		add(source, sourceModule)
		add(target, targetModule)
		if source != "" && target != "" {
			edges = append(edges, edge{From: source, To: target, Label: "inherits"})
		}
	}
	if !seen[rootName] {
		nodes = append(nodes, node{ID: rootName, Label: rootName, Color: colorRoot})
	}
	return nodes, edges
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <script src="https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"></script>
  <style>
    body { font-family: sans-serif; margin: 0; }
    h1 { font-size: 18px; padding: 12px 16px; margin: 0; }
    #graph { width: 100%; height: 800px; border-top: 1px solid #ddd; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div id="graph"></div>
  <script>
    const nodes = new vis.DataSet({{.Nodes}});
    const edges = new vis.DataSet({{.Edges}});
    const container = document.getElementById("graph");
    new vis.Network(container, {nodes, edges}, {
      nodes: {font: {size: 16}, shape: "dot", size: 14},
      edges: {arrows: {to: {enabled: true}}, smooth: {type: "continuous"}},
      physics: {enabled: true, stabilization: {iterations: 100}}
    });
  </script>
</body>
</html>
`))

func renderPage(outputPath, title string, nodes []node, edges []edge) error {
	nodesJSON, err := json.Marshal(nodes)
	if err != nil {
		return errors.Wrap(errors.TypeInternal, "encoding nodes", err)
	}
	edgesJSON, err := json.Marshal(edges)
	if err != nil {
		return errors.Wrap(errors.TypeInternal, "encoding edges", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return errors.Wrap(errors.TypeInternal, "creating output file", err)
	}
	defer f.Close()

	return pageTemplate.Execute(f, map[string]interface{}{
		"Title": title,
		"Nodes": template.JS(nodesJSON),
		"Edges": template.JS(edgesJSON),
	})
}
