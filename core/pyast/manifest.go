package pyast

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// EvalManifest evaluates a manifest file as a single mapping expression
// under the literal whitelist.
//
// A file that does not parse, or whose top-level expression is not a
// mapping, returns an error (the module is skipped). A mapping that
// violates the whitelist anywhere inside returns an empty map with
// ok=false: the caller still emits the module with default fields and
// logs a warning.
func (p *Parser) EvalManifest(ctx context.Context, src []byte) (map[string]interface{}, bool, error) {
	tree, err := p.Parse(ctx, src)
	if err != nil {
		return nil, false, err
	}
	defer tree.Close()

	if HasErrors(tree) {
		return nil, false, fmt.Errorf("manifest has syntax errors")
	}

	expr := manifestExpression(tree.RootNode())
	if expr == nil {
		return nil, false, fmt.Errorf("manifest is empty")
	}
	for expr.Type() == "parenthesized_expression" {
		expr = firstExpression(expr)
		if expr == nil {
			return nil, false, fmt.Errorf("manifest is empty")
		}
	}
	if expr.Type() != "dictionary" {
		return nil, false, fmt.Errorf("manifest is not a mapping (got %s)", expr.Type())
	}

	value, ok := Literal(expr, src)
	if !ok {
		return map[string]interface{}{}, false, nil
	}
	return value.(map[string]interface{}), true, nil
}

// manifestExpression finds the first expression statement of the file
func manifestExpression(root *sitter.Node) *sitter.Node {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() == "expression_statement" {
			return firstExpression(child)
		}
	}
	return nil
}
