package query

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor returns canned rows and records the last query
type fakeExecutor struct {
	rows       []Row
	lastCypher string
	lastParams map[string]interface{}
}

func (f *fakeExecutor) Write(ctx context.Context, cypher string, params map[string]interface{}) error {
	return nil
}

func (f *fakeExecutor) Read(ctx context.Context, cypher string, params map[string]interface{}) ([]Row, error) {
	f.lastCypher = cypher
	f.lastParams = params
	return f.rows, nil
}

func (f *fakeExecutor) Close(ctx context.Context) error { return nil }

func TestModelChildren(t *testing.T) {
	exec := &fakeExecutor{rows: []Row{
		{"name": "sale.order", "module": "sale", "model_type": "extension"},
	}}
	engine := NewEngine(exec)

	rows, err := engine.ModelChildren(context.Background(), "mail.thread")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "sale.order", rows[0]["name"])
	assert.Equal(t, "mail.thread", exec.lastParams["model_name"])
	assert.Contains(t, exec.lastCypher, "INHERITS")
}

func TestModelFieldsFilter(t *testing.T) {
	exec := &fakeExecutor{}
	engine := NewEngine(exec)

	_, err := engine.ModelFields(context.Background(), "res.partner", "")
	require.NoError(t, err)
	assert.NotContains(t, exec.lastCypher, "field_type: $field_type")

	_, err = engine.ModelFields(context.Background(), "res.partner", "Many2one")
	require.NoError(t, err)
	assert.Contains(t, exec.lastCypher, "field_type: $field_type")
	assert.Equal(t, "Many2one", exec.lastParams["field_type"])
}

func TestModelImpact(t *testing.T) {
	exec := &fakeExecutor{rows: []Row{{
		"model":                "res.partner",
		"children_count":       int64(12),
		"views_count":          int64(30),
		"related_models_count": int64(7),
	}}}
	engine := NewEngine(exec)

	impact, err := engine.ModelImpact(context.Background(), "res.partner")
	require.NoError(t, err)
	require.NotNil(t, impact)
	assert.Equal(t, int64(12), impact.ChildrenCount)
	assert.Equal(t, int64(30), impact.ViewsCount)
	assert.Equal(t, int64(7), impact.RelatedCount)
}

func TestModelImpactMissingModel(t *testing.T) {
	engine := NewEngine(&fakeExecutor{})
	impact, err := engine.ModelImpact(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, impact)
}

func TestSearchModelsIsBounded(t *testing.T) {
	exec := &fakeExecutor{}
	engine := NewEngine(exec)
	_, err := engine.SearchModels(context.Background(), "partner")
	require.NoError(t, err)
	assert.True(t, strings.Contains(exec.lastCypher, "LIMIT 50"))
	assert.Equal(t, "partner", exec.lastParams["search_term"])
}
