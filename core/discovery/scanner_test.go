package discovery

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModule(t *testing.T, root, name, manifest string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "__manifest__.py"), []byte(manifest), 0644))
	return dir
}

func TestScanFindsModules(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "sale", `{
    'name': 'Sales',
    'version': '17.0.1.0',
    'depends': ['base', 'mail'],
    'summary': 'Sales management',
    'author': 'Odoo SA',
    'category': 'Sales',
    'installable': True,
    'auto_install': False,
}`)

	// legacy manifest name
	legacy := filepath.Join(root, "old_module")
	require.NoError(t, os.MkdirAll(legacy, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(legacy, "__openerp__.py"),
		[]byte(`{'name': 'Old', 'depends': []}`), 0644))

	// a plain directory is not a module
	require.NoError(t, os.MkdirAll(filepath.Join(root, "not_a_module"), 0755))

	scanner, err := NewScanner(root)
	require.NoError(t, err)
	modules, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, modules, 2)

	byName := map[string]bool{}
	for _, m := range modules {
		byName[m.Name] = true
	}
	assert.True(t, byName["sale"])
	assert.True(t, byName["old_module"])

	for _, m := range modules {
		if m.Name != "sale" {
			continue
		}
		assert.Equal(t, "17.0.1.0", m.Version)
		assert.Equal(t, []string{"base", "mail"}, m.Depends)
		assert.Equal(t, "Sales management", m.Description)
		assert.Equal(t, "Odoo SA", m.Author)
		assert.Equal(t, "Sales", m.Category)
		assert.True(t, m.Installable)
		assert.False(t, m.AutoInstall)
		assert.True(t, filepath.IsAbs(m.Path))
	}
}

func TestScanManifestDefaults(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "bare", `{}`)

	scanner, err := NewScanner(root)
	require.NoError(t, err)
	modules, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, modules, 1)

	m := modules[0]
	assert.Equal(t, "bare", m.Name)
	assert.Equal(t, "1.0", m.Version)
	assert.Equal(t, "Uncategorized", m.Category)
	assert.True(t, m.Installable)
	assert.Empty(t, m.Depends)
}

func TestScanNonLiteralManifestUsesDefaults(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "dynamic", `{'name': 'Dyn', 'version': read_version()}`)

	scanner, err := NewScanner(root)
	require.NoError(t, err)
	modules, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, modules, 1, "module is still emitted with defaults")
	assert.Equal(t, "1.0", modules[0].Version)
}

func TestScanSkipsInvalidManifest(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "broken", `['not', 'a', 'mapping']`)
	writeModule(t, root, "good", `{'name': 'ok'}`)

	scanner, err := NewScanner(root)
	require.NoError(t, err)
	modules, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "good", modules[0].Name)
}

func TestNewScannerMissingRoot(t *testing.T) {
	_, err := NewScanner(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestExportJSON(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "sale", `{'name': 'Sales', 'depends': ['base']}`)

	scanner, err := NewScanner(root)
	require.NoError(t, err)
	modules, err := scanner.Scan(context.Background())
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "modules.json")
	require.NoError(t, ExportJSON(modules, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "sale", decoded[0]["name"])
}

func TestDependencyGraph(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "a", `{'depends': ['b']}`)
	writeModule(t, root, "b", `{}`)

	scanner, err := NewScanner(root)
	require.NoError(t, err)
	modules, err := scanner.Scan(context.Background())
	require.NoError(t, err)

	graph := DependencyGraph(modules)
	assert.Equal(t, []string{"b"}, graph["a"])
	assert.Empty(t, graph["b"])
}
