// Package types - view records
package types

// View represents an ir.ui.view record extracted from a markup file
type View struct {
	// XMLID is the external id, scoped as <module>.<local_id>
	XMLID string `json:"xml_id"`

	// Name is the declared view name, defaulting to the local id
	Name string `json:"name"`

	// Model is the target model name
	Model string `json:"model"`

	// ViewType is the view kind (form, tree, kanban, ...)
	ViewType string `json:"view_type"`

	// InheritID is the external id of the extended view, if any
	InheritID string `json:"inherit_id,omitempty"`

	// Module is the owning module name
	Module string `json:"module"`

	// FilePath is the absolute path of the defining file
	FilePath string `json:"file_path"`

	// Priority orders competing views, default 16
	Priority int `json:"priority"`

	// Arch is the view structure serialized back to markup
	Arch string `json:"arch"`
}

// IsExtension reports whether the view extends another view
func (v *View) IsExtension() bool {
	return v.InheritID != ""
}
