// Package parse extracts model and view declarations from module source
// trees by static analysis. Python files are walked as syntax trees and
// markup files as documents; no user code runs.
package parse

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"odoo-graph/core/pyast"
	"odoo-graph/core/types"
	"odoo-graph/internal/logging"
)

const (
	// TestFilePrefix marks source files excluded from analysis
	TestFilePrefix = "test_"

	// CacheDirName marks directory segments excluded from analysis
	CacheDirName = "__pycache__"
)

// modelBases are the base-class attribute names that mark a model class
var modelBases = map[string]bool{
	"Model":          true,
	"TransientModel": true,
	"AbstractModel":  true,
}

// ModelParser extracts model declarations from the Python files of one
// module. Not safe for concurrent use; create one per worker.
type ModelParser struct {
	moduleName string
	parser     *pyast.Parser
}

// NewModelParser creates a parser for the named module
func NewModelParser(moduleName string) *ModelParser {
	return &ModelParser{moduleName: moduleName, parser: pyast.NewParser()}
}

// ParseDirectory parses every Python file under dir, skipping test files
// and cache directories. File-level failures are logged and skipped.
func (p *ModelParser) ParseDirectory(ctx context.Context, dir string) []types.Model {
	var models []types.Model

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.Warn("skipping unreadable path", logging.Path(path))
			return nil
		}
		if d.IsDir() {
			if d.Name() == CacheDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if !SourceFileRelevant(path) {
			return nil
		}
		found, err := p.ParseFile(ctx, path)
		if err != nil {
			logging.Warn("skipping source file", logging.Path(path))
			return nil
		}
		models = append(models, found...)
		return nil
	})

	return models
}

// SourceFileRelevant reports whether a Python file participates in
// analysis and change detection
func SourceFileRelevant(path string) bool {
	if filepath.Ext(path) != ".py" {
		return false
	}
	if strings.HasPrefix(filepath.Base(path), TestFilePrefix) {
		return false
	}
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if segment == CacheDirName {
			return false
		}
	}
	return true
}

// ParseFile parses one Python file and returns the models it declares
func (p *ModelParser) ParseFile(ctx context.Context, path string) ([]types.Model, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return p.ParseSource(ctx, content, abs)
}

// ParseSource parses Python source and returns the models it declares.
// Source with syntax errors returns an error and no models, so the
// caller skips the whole file.
func (p *ModelParser) ParseSource(ctx context.Context, src []byte, filePath string) ([]types.Model, error) {
	tree, err := p.parser.Parse(ctx, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	if pyast.HasErrors(tree) {
		return nil, fmt.Errorf("%s has syntax errors", filePath)
	}

	var models []types.Model
	p.walk(tree.RootNode(), src, filePath, &models)
	return models, nil
}

// walk visits every class definition in the tree, including decorated and
// nested ones
func (p *ModelParser) walk(node *sitter.Node, src []byte, filePath string, out *[]types.Model) {
	if node.Type() == "class_definition" {
		if model, ok := p.parseClass(node, src, filePath); ok {
			*out = append(*out, model)
		}
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		p.walk(node.NamedChild(i), src, filePath, out)
	}
}

func (p *ModelParser) parseClass(node *sitter.Node, src []byte, filePath string) (types.Model, bool) {
	isModel, directTransient := classBases(node, src)
	if !isModel {
		return types.Model{}, false
	}

	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return types.Model{}, false
	}
	className := nameNode.Content(src)

	body := node.ChildByFieldName("body")
	if body == nil {
		return types.Model{}, false
	}

	var (
		declared    string
		description string
		transient   interface{}
		inherits    []string
		delegation  map[string]string
		fields      []types.Field
	)

	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() != "expression_statement" {
			continue
		}
		assign := firstNamedChild(stmt)
		if assign == nil || assign.Type() != "assignment" {
			continue
		}
		left := assign.ChildByFieldName("left")
		right := assign.ChildByFieldName("right")
		if left == nil || right == nil || left.Type() != "identifier" {
			continue
		}

		switch target := left.Content(src); target {
		case "_name":
			if v, ok := pyast.Literal(right, src); ok {
				declared, _ = v.(string)
			}
		case "_inherit":
			if v, ok := pyast.Literal(right, src); ok {
				inherits = pyast.StringList(v)
			}
		case "_inherits":
			if v, ok := pyast.Literal(right, src); ok {
				delegation = stringMap(v)
			}
		case "_description":
			if v, ok := pyast.Literal(right, src); ok {
				description, _ = v.(string)
			}
		case "_transient":
			if v, ok := pyast.Literal(right, src); ok {
				transient = v
			}
		default:
			if field, ok := parseFieldCall(target, right, src); ok {
				fields = append(fields, field)
			}
		}
	}

	isExtension := len(inherits) > 0 && declared == ""

	effective := declared
	if isExtension && len(inherits) == 1 {
		effective = inherits[0]
	}

	return types.Model{
		Name:               effective,
		DeclaredName:       declared,
		Inherits:           inherits,
		InheritsDelegation: delegation,
		Description:        description,
		Fields:             fields,
		Module:             p.moduleName,
		FilePath:           filePath,
		ClassName:          className,
		IsAbstract:         declared == "",
		IsExtension:        isExtension,
		IsTransient:        pyast.Truthy(transient) || directTransient,
	}, true
}

// classBases inspects the superclass list for models.Model,
// models.TransientModel or models.AbstractModel. Purely syntactic; no name
// resolution.
func classBases(node *sitter.Node, src []byte) (isModel, directTransient bool) {
	supers := node.ChildByFieldName("superclasses")
	if supers == nil {
		return false, false
	}
	for i := 0; i < int(supers.NamedChildCount()); i++ {
		base := supers.NamedChild(i)
		if base.Type() != "attribute" {
			continue
		}
		object := base.ChildByFieldName("object")
		attr := base.ChildByFieldName("attribute")
		if object == nil || attr == nil || object.Type() != "identifier" {
			continue
		}
		if object.Content(src) != "models" {
			continue
		}
		name := attr.Content(src)
		if modelBases[name] {
			isModel = true
			if name == "TransientModel" {
				directTransient = true
			}
		}
	}
	return isModel, directTransient
}

// parseFieldCall recognizes assignments of the form
// name = fields.<Constructor>(...)
func parseFieldCall(name string, node *sitter.Node, src []byte) (types.Field, bool) {
	if node.Type() != "call" {
		return types.Field{}, false
	}
	fn := node.ChildByFieldName("function")
	if fn == nil || fn.Type() != "attribute" {
		return types.Field{}, false
	}
	object := fn.ChildByFieldName("object")
	attr := fn.ChildByFieldName("attribute")
	if object == nil || attr == nil || object.Type() != "identifier" || object.Content(src) != "fields" {
		return types.Field{}, false
	}
	fieldType := attr.Content(src)

	field := types.Field{
		Name:       name,
		FieldType:  fieldType,
		Attributes: map[string]interface{}{},
	}

	args := node.ChildByFieldName("arguments")
	if args == nil {
		return field, true
	}

	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() != "keyword_argument" {
			continue
		}
		keyNode := arg.ChildByFieldName("name")
		valueNode := arg.ChildByFieldName("value")
		if keyNode == nil || valueNode == nil {
			continue
		}
		value, ok := pyast.Literal(valueNode, src)
		if !ok || value == nil {
			continue
		}
		field.Attributes[keyNode.Content(src)] = value
	}

	if types.RelationalFieldTypes[fieldType] {
		field.RelatedModel = relatedModel(args, src)
	}

	return field, true
}

// relatedModel resolves the comodel of a relational field from the first
// positional string literal or the comodel_name keyword
func relatedModel(args *sitter.Node, src []byte) string {
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		switch arg.Type() {
		case "comment":
			continue
		case "keyword_argument":
			keyNode := arg.ChildByFieldName("name")
			if keyNode != nil && keyNode.Content(src) == "comodel_name" {
				if v, ok := pyast.Literal(arg.ChildByFieldName("value"), src); ok {
					if s, ok := v.(string); ok {
						return s
					}
				}
			}
		default:
			// first positional argument
			if v, ok := pyast.Literal(arg, src); ok {
				if s, ok := v.(string); ok {
					return s
				}
			}
			// a non-literal positional still consumes the slot; keep
			// looking only for comodel_name
			for j := i + 1; j < int(args.NamedChildCount()); j++ {
				kw := args.NamedChild(j)
				if kw.Type() != "keyword_argument" {
					continue
				}
				keyNode := kw.ChildByFieldName("name")
				if keyNode != nil && keyNode.Content(src) == "comodel_name" {
					if v, ok := pyast.Literal(kw.ChildByFieldName("value"), src); ok {
						if s, ok := v.(string); ok {
							return s
						}
					}
				}
			}
			return ""
		}
	}
	return ""
}

func firstNamedChild(node *sitter.Node) *sitter.Node {
	if node.NamedChildCount() == 0 {
		return nil
	}
	return node.NamedChild(0)
}

func stringMap(v interface{}) map[string]string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for key, value := range m {
		if s, ok := value.(string); ok {
			out[key] = s
		}
	}
	return out
}
