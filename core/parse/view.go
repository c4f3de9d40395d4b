package parse

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/bmatcuk/doublestar/v4"

	"odoo-graph/core/types"
	"odoo-graph/internal/logging"
)

// ViewRecordModel identifies a view record in the target framework
const ViewRecordModel = "ir.ui.view"

// DefaultViewPriority orders competing views when none is declared
const DefaultViewPriority = 16

// viewGlobs are the markup locations searched inside a module, the
// module root included
var viewGlobs = []string{"views/**/*.xml", "data/**/*.xml", "security/**/*.xml", "*.xml"}

// ViewParser extracts ir.ui.view records from the markup files of one
// module
type ViewParser struct {
	moduleName string
}

// NewViewParser creates a parser for the named module
func NewViewParser(moduleName string) *ViewParser {
	return &ViewParser{moduleName: moduleName}
}

// ParseDirectory parses every markup file under the module's view, data
// and security subtrees plus the module root. File-level failures are
// logged and skipped.
func (p *ViewParser) ParseDirectory(dir string) []types.View {
	var views []types.View
	for _, path := range MarkupFiles(dir) {
		found, err := p.ParseFile(path)
		if err != nil {
			logging.Warn("skipping markup file", logging.Path(path))
			continue
		}
		views = append(views, found...)
	}
	return views
}

// MarkupFiles returns the markup files of a module, deduplicated, in
// glob order
func MarkupFiles(dir string) []string {
	seen := make(map[string]bool)
	var files []string
	fsys := os.DirFS(dir)
	for _, pattern := range viewGlobs {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			continue
		}
		for _, match := range matches {
			full := filepath.Join(dir, filepath.FromSlash(match))
			if seen[full] {
				continue
			}
			if info, err := os.Stat(full); err != nil || info.IsDir() {
				continue
			}
			seen[full] = true
			files = append(files, full)
		}
	}
	return files
}

// ParseFile parses one markup file and returns the view records it
// declares
func (p *ViewParser) ParseFile(path string) ([]types.View, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	var views []types.View
	for _, record := range doc.FindElements("//record[@model='" + ViewRecordModel + "']") {
		if view, ok := p.parseRecord(record, abs); ok {
			views = append(views, view)
		}
	}
	return views, nil
}

// parseRecord extracts one view. A record without a local id or a model
// is skipped.
func (p *ViewParser) parseRecord(record *etree.Element, filePath string) (types.View, bool) {
	localID := record.SelectAttrValue("id", "")
	if localID == "" {
		return types.View{}, false
	}

	model := fieldText(record, "model")
	if model == "" {
		return types.View{}, false
	}

	name := fieldText(record, "name")
	if name == "" {
		name = localID
	}
	viewType := fieldText(record, "type")
	if viewType == "" {
		viewType = "form"
	}

	return types.View{
		XMLID:     p.moduleName + "." + localID,
		Name:      name,
		Model:     model,
		ViewType:  viewType,
		InheritID: fieldRef(record, "inherit_id"),
		Module:    p.moduleName,
		FilePath:  filePath,
		Priority:  parsePriority(fieldText(record, "priority")),
		Arch:      fieldArch(record),
	}, true
}

// fieldText returns the text content of <field name="..."> under record
func fieldText(record *etree.Element, name string) string {
	field := record.FindElement(".//field[@name='" + name + "']")
	if field == nil {
		return ""
	}
	return strings.TrimSpace(field.Text())
}

// fieldRef returns the ref attribute of <field name="..." ref="..."/>
func fieldRef(record *etree.Element, name string) string {
	field := record.FindElement(".//field[@name='" + name + "']")
	if field == nil {
		return ""
	}
	return field.SelectAttrValue("ref", "")
}

// fieldArch serializes the arch field's content back to markup,
// preserving child structure
func fieldArch(record *etree.Element) string {
	field := record.FindElement(".//field[@name='arch']")
	if field == nil {
		return ""
	}
	var sb strings.Builder
	if text := field.Text(); strings.TrimSpace(text) != "" {
		sb.WriteString(text)
	}
	for _, child := range field.ChildElements() {
		doc := etree.NewDocument()
		doc.SetRoot(child.Copy())
		if s, err := doc.WriteToString(); err == nil {
			sb.WriteString(s)
		}
	}
	return sb.String()
}

// parsePriority accepts only unsigned decimal text, anything else falls
// back to the default
func parsePriority(text string) int {
	if text == "" {
		return DefaultViewPriority
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return DefaultViewPriority
		}
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return DefaultViewPriority
	}
	return n
}
