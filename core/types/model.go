// Package types - model and field records
package types

// ModelType classifies a model per Odoo declaration conventions
type ModelType string

const (
	ModelTypeBase      ModelType = "base"
	ModelTypeExtension ModelType = "extension"
	ModelTypeRedefined ModelType = "redefined"
	ModelTypeMixin     ModelType = "mixin"
	ModelTypeTransient ModelType = "transient"
)

// Model represents a model class extracted from a Python source file.
// Name is the effective name: _name when declared, otherwise the single
// _inherit target for an in-place extension, otherwise empty (mixin).
type Model struct {
	// Name is the effective model name; empty for unnamed mixins
	Name string `json:"name"`

	// DeclaredName is the literal _name value, if any
	DeclaredName string `json:"declared_name"`

	// Inherits lists the _inherit targets (normalized to a list)
	Inherits []string `json:"inherits"`

	// InheritsDelegation maps _inherits parent name to the delegating field
	InheritsDelegation map[string]string `json:"inherits_delegation"`

	// Description is the _description value
	Description string `json:"description"`

	// Fields are the field definitions declared on the class
	Fields []Field `json:"fields"`

	// Module is the owning module name
	Module string `json:"module"`

	// FilePath is the absolute path of the defining file
	FilePath string `json:"file_path"`

	// ClassName is the syntactic class declaration name
	ClassName string `json:"class_name"`

	// IsAbstract is set when _name is absent
	IsAbstract bool `json:"is_abstract"`

	// IsExtension is set when the class has _inherit but no _name
	IsExtension bool `json:"is_extension"`

	// IsTransient is set by _transient or a models.TransientModel base
	IsTransient bool `json:"is_transient"`
}

// Type derives the model classification. Transience wins over everything;
// an unnamed model is a mixin; a model that names itself among its parents
// extends in place; a named model with foreign parents redefines.
func (m *Model) Type() ModelType {
	if m.IsTransient {
		return ModelTypeTransient
	}
	if m.Name == "" {
		return ModelTypeMixin
	}
	if len(m.Inherits) > 0 {
		for _, parent := range m.Inherits {
			if parent == m.Name {
				return ModelTypeExtension
			}
		}
		return ModelTypeRedefined
	}
	return ModelTypeBase
}

// RelationalFieldTypes are the field constructors that reference another model
var RelationalFieldTypes = map[string]bool{
	"Many2one":  true,
	"One2many":  true,
	"Many2many": true,
	"Reference": true,
}

// Field represents a field declared on a model via fields.<Constructor>(...)
type Field struct {
	// Name is the assignment target
	Name string `json:"name"`

	// FieldType is the constructor leaf name (Char, Many2one, ...)
	FieldType string `json:"field_type"`

	// RelatedModel is the comodel of a relational field, when literal
	RelatedModel string `json:"related_model,omitempty"`

	// Attributes holds the safe keyword arguments of the declaration
	Attributes map[string]interface{} `json:"attributes"`
}
