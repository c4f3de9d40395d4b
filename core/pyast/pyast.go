// Package pyast provides restricted static evaluation over Python syntax
// trees. Source is parsed with tree-sitter and never executed; the
// evaluator accepts literal scalars, sequences and mappings plus the three
// reserved names True, False and None. Everything else is rejected.
package pyast

import (
	"context"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Parser wraps a tree-sitter parser configured for Python.
// A Parser is not safe for concurrent use; create one per goroutine.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a Python parser
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// Parse parses Python source into a syntax tree. The caller owns the tree
// and must Close it.
func (p *Parser) Parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	return p.parser.ParseCtx(ctx, nil, src)
}

// HasErrors reports whether the tree contains syntax errors
func HasErrors(tree *sitter.Tree) bool {
	return tree.RootNode().HasError()
}

// Literal evaluates a node under the literal whitelist. The second return
// is false when the node (or anything nested in it) falls outside the
// whitelist. A successful evaluation yields one of: nil, bool, int64,
// float64, string, []interface{}, map[string]interface{}.
func Literal(node *sitter.Node, src []byte) (interface{}, bool) {
	if node == nil {
		return nil, false
	}

	switch node.Type() {
	case "true":
		return true, true
	case "false":
		return false, true
	case "none":
		return nil, true
	case "integer":
		text := strings.ReplaceAll(node.Content(src), "_", "")
		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	case "float":
		text := strings.ReplaceAll(node.Content(src), "_", "")
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	case "string":
		return stringValue(node, src)
	case "concatenated_string":
		var sb strings.Builder
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "comment" {
				continue
			}
			s, ok := stringValue(child, src)
			if !ok {
				return nil, false
			}
			sb.WriteString(s)
		}
		return sb.String(), true
	case "list", "tuple":
		items := make([]interface{}, 0, node.NamedChildCount())
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "comment" {
				continue
			}
			v, ok := Literal(child, src)
			if !ok {
				return nil, false
			}
			items = append(items, v)
		}
		return items, true
	case "dictionary":
		m := make(map[string]interface{})
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "comment" {
				continue
			}
			if child.Type() != "pair" {
				return nil, false
			}
			key, ok := Literal(child.ChildByFieldName("key"), src)
			if !ok {
				return nil, false
			}
			keyStr, ok := key.(string)
			if !ok {
				return nil, false
			}
			value, ok := Literal(child.ChildByFieldName("value"), src)
			if !ok {
				return nil, false
			}
			m[keyStr] = value
		}
		return m, true
	case "parenthesized_expression":
		return Literal(firstExpression(node), src)
	}

	return nil, false
}

// stringValue extracts the value of a string node. Interpolated f-strings
// are not literals and are rejected.
func stringValue(node *sitter.Node, src []byte) (string, bool) {
	if node.Type() != "string" {
		return "", false
	}

	var sb strings.Builder
	assembled := false
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "string_content":
			sb.WriteString(child.Content(src))
			assembled = true
		case "escape_sequence":
			sb.WriteString(unescape(child.Content(src)))
			assembled = true
		case "interpolation":
			return "", false
		}
	}
	if assembled {
		return sb.String(), true
	}

	// Empty string or a grammar without string_content nodes: trim the
	// prefix letters and quotes from the raw text.
	raw := node.Content(src)
	raw = strings.TrimLeft(raw, "rRbBuUfF")
	for _, quote := range []string{`"""`, "'''", `"`, "'"} {
		if strings.HasPrefix(raw, quote) && strings.HasSuffix(raw, quote) && len(raw) >= 2*len(quote) {
			return raw[len(quote) : len(raw)-len(quote)], true
		}
	}
	return "", false
}

func unescape(seq string) string {
	if len(seq) < 2 || seq[0] != '\\' {
		return seq
	}
	switch seq[1] {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case '\\', '\'', '"':
		return string(seq[1])
	}
	return seq
}

// firstExpression returns the first named non-comment child
func firstExpression(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "comment" {
			return child
		}
	}
	return nil
}

// Truthy applies Python truthiness to an evaluated literal
func Truthy(v interface{}) bool {
	switch value := v.(type) {
	case nil:
		return false
	case bool:
		return value
	case int64:
		return value != 0
	case float64:
		return value != 0
	case string:
		return value != ""
	case []interface{}:
		return len(value) > 0
	case map[string]interface{}:
		return len(value) > 0
	}
	return false
}

// StringList normalizes a literal that may be a single string or a
// sequence of strings, as _inherit allows
func StringList(v interface{}) []string {
	switch value := v.(type) {
	case string:
		return []string{value}
	case []interface{}:
		out := make([]string, 0, len(value))
		for _, item := range value {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
