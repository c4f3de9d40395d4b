package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"odoo-graph/core/graph"
	"odoo-graph/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeExecutor records writes; reads return empty results
type fakeExecutor struct {
	writes []recordedWrite
	failOn func(index int, cypher string) error
}

type recordedWrite struct {
	cypher string
	params map[string]interface{}
}

func (f *fakeExecutor) Write(ctx context.Context, cypher string, params map[string]interface{}) error {
	index := len(f.writes)
	f.writes = append(f.writes, recordedWrite{cypher: cypher, params: params})
	if f.failOn != nil {
		return f.failOn(index, cypher)
	}
	return nil
}

func (f *fakeExecutor) Read(ctx context.Context, cypher string, params map[string]interface{}) ([]map[string]interface{}, error) {
	return []map[string]interface{}{{"count": int64(0)}}, nil
}

func (f *fakeExecutor) Close(ctx context.Context) error { return nil }

// batchRows collects all rows written under a parameter name across writes
func (f *fakeExecutor) batchRows(param string) []map[string]interface{} {
	var rows []map[string]interface{}
	for _, w := range f.writes {
		batch, ok := w.params[param].([]interface{})
		if !ok {
			continue
		}
		for _, item := range batch {
			rows = append(rows, item.(map[string]interface{}))
		}
	}
	return rows
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		BatchSize:       1000,
		MaxWorkers:      4,
		ChangeThreshold: 0.30,
		CacheDir:        filepath.Join(t.TempDir(), ".cache"),
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// extensionCorpus builds the two-module extension chain of the base
// scenario: base declares partner with a Char field, ext extends it
func extensionCorpus(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "base", "__manifest__.py"),
		`{'name': 'Base', 'depends': []}`)
	writeFile(t, filepath.Join(root, "base", "models", "partner.py"), `
class Partner(models.Model):
    _name = 'partner'

    name = fields.Char()
`)
	writeFile(t, filepath.Join(root, "ext", "__manifest__.py"),
		`{'name': 'Ext', 'depends': ['base']}`)
	writeFile(t, filepath.Join(root, "ext", "models", "partner.py"), `
class Partner(models.Model):
    _inherit = 'partner'

    vat = fields.Char()
`)
	return root
}

func TestRunExtensionChain(t *testing.T) {
	exec := &fakeExecutor{}
	p := New(testConfig(t), exec)

	report, err := p.Run(context.Background(), Options{
		SourcePath: extensionCorpus(t), Quiet: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.ModulesFound)
	assert.Equal(t, 2, report.ModulesProcessed)
	assert.True(t, report.Strategy.FullReload, "first run is a full reload")
	assert.Equal(t, 2, report.ModelsParsed)

	modules := exec.batchRows("modules")
	require.Len(t, modules, 2)

	models := exec.batchRows("models")
	require.Len(t, models, 2)
	for _, m := range models {
		assert.Equal(t, "partner", m["name"])
	}

	fields := exec.batchRows("fields")
	require.Len(t, fields, 2)
	fieldNames := map[string]bool{}
	for _, f := range fields {
		fieldNames[f["field_name"].(string)] = true
	}
	assert.True(t, fieldNames["name"])
	assert.True(t, fieldNames["vat"])

	deps := exec.batchRows("deps")
	require.Len(t, deps, 1)
	assert.Equal(t, "ext", deps[0]["from"])
	assert.Equal(t, "base", deps[0]["to"])

	// one CONTAINS_MODEL row per model-module pair, one HAS_FIELD row
	// per field
	assert.Len(t, exec.batchRows("rels"), 2+2+0)
}

func TestRunUnknownParentPlaceholder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "m1", "__manifest__.py"), `{'name': 'M1'}`)
	writeFile(t, filepath.Join(root, "m1", "models", "a.py"), `
class A(models.Model):
    _name = 'm1.model'
    _inherit = 'missing.parent'
`)

	exec := &fakeExecutor{}
	p := New(testConfig(t), exec)
	_, err := p.Run(context.Background(), Options{SourcePath: root, Quiet: true})
	require.NoError(t, err)

	inh := exec.batchRows("inh")
	require.Len(t, inh, 1)
	assert.Equal(t, "m1.model", inh[0]["child"])
	assert.Equal(t, "missing.parent", inh[0]["parent"])

	// the parent is merged by the inheritance statement, not written as
	// a phase-1 node
	for _, m := range exec.batchRows("models") {
		assert.NotEqual(t, "missing.parent", m["name"])
	}
}

func TestRunRelationalPlaceholder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "shop", "__manifest__.py"), `{'name': 'Shop'}`)
	writeFile(t, filepath.Join(root, "shop", "models", "order.py"), `
class Order(models.Model):
    _name = 'order'

    partner_id = fields.Many2one('res.partner')
`)

	exec := &fakeExecutor{}
	p := New(testConfig(t), exec)
	_, err := p.Run(context.Background(), Options{SourcePath: root, Quiet: true})
	require.NoError(t, err)

	refs := exec.batchRows("refs")
	require.Len(t, refs, 1)
	assert.Equal(t, "order", refs[0]["model_name"])
	assert.Equal(t, "partner_id", refs[0]["field_name"])
	assert.Equal(t, "res.partner", refs[0]["related_model"])

	fields := exec.batchRows("fields")
	require.Len(t, fields, 1)
	assert.Equal(t, "Many2one", fields[0]["field_type"])
}

func TestRunViewInheritance(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "module_a", "__manifest__.py"), `{'name': 'A'}`)
	writeFile(t, filepath.Join(root, "module_a", "views", "views.xml"), `
<odoo>
  <record id="view_x" model="ir.ui.view">
    <field name="model">partner</field>
    <field name="inherit_id" ref="module_b.view_y"/>
  </record>
</odoo>`)

	exec := &fakeExecutor{}
	p := New(testConfig(t), exec)
	_, err := p.Run(context.Background(), Options{SourcePath: root, Quiet: true})
	require.NoError(t, err)

	views := exec.batchRows("views")
	require.Len(t, views, 1)
	assert.Equal(t, "module_a.view_x", views[0]["xml_id"])

	inh := exec.batchRows("inh")
	require.Len(t, inh, 1)
	assert.Equal(t, "module_a.view_x", inh[0]["child"])
	assert.Equal(t, "module_b.view_y", inh[0]["parent"])
}

func TestRunIncrementalNoOp(t *testing.T) {
	root := extensionCorpus(t)
	cfg := testConfig(t)

	first := &fakeExecutor{}
	_, err := New(cfg, first).Run(context.Background(), Options{SourcePath: root, Quiet: true})
	require.NoError(t, err)

	stateBefore, err := os.ReadFile(filepath.Join(cfg.CacheDir, "state.json"))
	require.NoError(t, err)

	second := &fakeExecutor{}
	report, err := New(cfg, second).Run(context.Background(), Options{SourcePath: root, Quiet: true})
	require.NoError(t, err)

	assert.True(t, report.NoChanges)
	assert.Len(t, second.writes, len(graph.ConstraintQueries()),
		"second run writes nothing beyond schema bootstrap")

	stateAfter, err := os.ReadFile(filepath.Join(cfg.CacheDir, "state.json"))
	require.NoError(t, err)
	assert.Equal(t, string(stateBefore), string(stateAfter), "last_update unchanged")
}

func TestRunIncrementalReparsesChangedModule(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d"} {
		writeFile(t, filepath.Join(root, name, "__manifest__.py"), fmt.Sprintf(`{'name': '%s'}`, name))
		writeFile(t, filepath.Join(root, name, "models", "m.py"),
			fmt.Sprintf("class M(models.Model):\n    _name = '%s.model'\n", name))
	}
	cfg := testConfig(t)

	_, err := New(cfg, &fakeExecutor{}).Run(context.Background(), Options{SourcePath: root, Quiet: true})
	require.NoError(t, err)

	writeFile(t, filepath.Join(root, "a", "models", "m.py"),
		"class M(models.Model):\n    _name = 'a.model'\n    _description = 'changed'\n")

	exec := &fakeExecutor{}
	report, err := New(cfg, exec).Run(context.Background(), Options{SourcePath: root, Quiet: true})
	require.NoError(t, err)

	assert.False(t, report.Strategy.FullReload, "1/4 changed stays incremental")
	assert.Equal(t, 1, report.ModelsParsed, "only the changed module is re-parsed")

	// module nodes are still refreshed for the whole corpus
	assert.Len(t, exec.batchRows("modules"), 4)
	models := exec.batchRows("models")
	require.Len(t, models, 1)
	assert.Equal(t, "a.model", models[0]["name"])
}

func TestRunPartialBatchFailure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "big", "__manifest__.py"), `{'name': 'Big'}`)
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&sb, "class M%02d(models.Model):\n    _name = 'big.m%02d'\n\n", i, i)
	}
	writeFile(t, filepath.Join(root, "big", "models", "all.py"), sb.String())

	cfg := testConfig(t)
	cfg.BatchSize = 10

	exec := &fakeExecutor{}
	modelWrites := 0
	exec.failOn = func(index int, cypher string) error {
		if !strings.Contains(cypher, "UNWIND $models") {
			return nil
		}
		modelWrites++
		if modelWrites == 3 {
			return fmt.Errorf("deadlock detected")
		}
		return nil
	}

	report, err := New(cfg, exec).Run(context.Background(), Options{SourcePath: root, Quiet: true})
	require.NoError(t, err, "a failed batch is not fatal")
	require.NotNil(t, report.Load)

	var modelStep graph.StepSummary
	for _, s := range report.Load.Steps {
		if s.Step == "models" {
			modelStep = s
		}
	}
	assert.Equal(t, 5, modelStep.Batches)
	assert.Equal(t, 4, modelStep.CommittedBatches)
	assert.Equal(t, 1, modelStep.FailedBatches)

	// phase 2 still ran
	assert.NotEmpty(t, exec.batchRows("rels"))
}

func TestRunMissingSourceIsFatal(t *testing.T) {
	exec := &fakeExecutor{}
	p := New(testConfig(t), exec)
	_, err := p.Run(context.Background(), Options{
		SourcePath: filepath.Join(t.TempDir(), "nope"), Quiet: true,
	})
	assert.Error(t, err)
}
