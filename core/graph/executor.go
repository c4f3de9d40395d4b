package graph

import "context"

// Executor is the narrow contract the core consumes from the graph
// store. Write runs one statement in its own transaction; Read runs a
// query and returns one map per record. The concrete driver lives in
// adapters.
type Executor interface {
	Write(ctx context.Context, cypher string, params map[string]interface{}) error
	Read(ctx context.Context, cypher string, params map[string]interface{}) ([]map[string]interface{}, error)
	Close(ctx context.Context) error
}
