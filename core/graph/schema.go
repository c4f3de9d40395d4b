// Package graph materializes the normalized dataset into a labeled
// property graph. Writes are phased (nodes, then relationships), batched,
// and idempotent: every write is a merge on the record's identity key.
// The store itself sits behind the Executor interface; this package never
// imports a driver.
package graph

// Node labels. These are part of the external interface: downstream
// queries depend on them.
const (
	NodeModule = "OdooModule"
	NodeModel  = "OdooModel"
	NodeView   = "OdooView"
	NodeField  = "OdooField"
)

// Relationship types, in load order
const (
	RelDependsOn          = "DEPENDS_ON"
	RelContainsModel      = "CONTAINS_MODEL"
	RelInherits           = "INHERITS"
	RelInheritsDelegation = "INHERITS_DELEGATION"
	RelHasField           = "HAS_FIELD"
	RelRelatesTo          = "RELATES_TO"
	RelContainsView       = "CONTAINS_VIEW"
	RelViewFor            = "VIEW_FOR"
	RelExtends            = "EXTENDS"
)

// ConstraintQueries returns the idempotent schema bootstrap statements:
// uniqueness on each node identity plus the secondary lookup indexes.
func ConstraintQueries() []string {
	return []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (m:" + NodeModule + ") REQUIRE m.name IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (m:" + NodeModel + ") REQUIRE m.name IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (v:" + NodeView + ") REQUIRE v.xml_id IS UNIQUE",
		"CREATE INDEX IF NOT EXISTS FOR (m:" + NodeModel + ") ON (m.module)",
		"CREATE INDEX IF NOT EXISTS FOR (v:" + NodeView + ") ON (v.model)",
		"CREATE INDEX IF NOT EXISTS FOR (f:" + NodeField + ") ON (f.field_type)",
	}
}

// CleanupQueries returns the statements that empty the graph
func CleanupQueries() []string {
	return []string{
		"MATCH (n) DETACH DELETE n",
	}
}
