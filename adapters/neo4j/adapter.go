// Package neo4j adapts the Bolt driver to the graph.Executor contract.
package neo4j

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"odoo-graph/internal/config"
	"odoo-graph/internal/errors"
)

// Executor implements graph.Executor over a Bolt connection pool. One
// session is opened per statement; the driver pools connections
// underneath.
type Executor struct {
	driver neo4j.DriverWithContext
}

// Connect opens a driver and verifies the store is reachable. An
// unreachable store is fatal for the caller.
func Connect(ctx context.Context, cfg config.Neo4jConfig) (*Executor, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, errors.Wrap(errors.TypeGraph, "creating graph driver", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, errors.Wrapf(errors.TypeGraph, err, "graph store unreachable at %s", cfg.URI)
	}
	return &Executor{driver: driver}, nil
}

// Write runs one statement in its own write transaction
func (e *Executor) Write(ctx context.Context, cypher string, params map[string]interface{}) error {
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		_, err = result.Consume(ctx)
		return nil, err
	})
	return err
}

// Read runs a query and returns one map per record
func (e *Executor) Read(ctx context.Context, cypher string, params map[string]interface{}) ([]map[string]interface{}, error) {
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	rows, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]interface{}, 0, len(records))
		for _, record := range records {
			row := make(map[string]interface{}, len(record.Keys))
			for i, key := range record.Keys {
				row[key] = record.Values[i]
			}
			out = append(out, row)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return rows.([]map[string]interface{}), nil
}

// Close releases the connection pool
func (e *Executor) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}
