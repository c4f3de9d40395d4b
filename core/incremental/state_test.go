package incremental

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHashStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.py")
	require.NoError(t, os.WriteFile(path, []byte("class A:\n    pass\n"), 0644))

	first, err := FileHash(path)
	require.NoError(t, err)
	second, err := FileHash(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64, "hex sha256")
}

func TestHasChanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.py")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))

	store := NewStore(filepath.Join(dir, "state.json"))

	assert.True(t, store.HasChanged(path), "missing entry counts as changed")

	store.UpdateFile(path)
	assert.False(t, store.HasChanged(path))

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0644))
	assert.True(t, store.HasChanged(path))

	assert.False(t, store.HasChanged(filepath.Join(dir, "missing.py")),
		"unreadable files are not reported as changed")
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "cache", "state.json")
	filePath := filepath.Join(dir, "f.py")
	require.NoError(t, os.WriteFile(filePath, []byte("content"), 0644))

	store := NewStore(statePath)
	store.UpdateFile(filePath)
	store.SetModuleState("sale", map[string]interface{}{"models": 3})
	require.NoError(t, store.Save())

	// no leftover temp file from the atomic write
	_, err := os.Stat(statePath + ".tmp")
	assert.True(t, os.IsNotExist(err))

	// the persisted document has the fixed top-level keys
	data, err := os.ReadFile(statePath)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "last_update")
	assert.Contains(t, raw, "files")
	assert.Contains(t, raw, "modules")

	reloaded := NewStore(statePath)
	assert.NotEmpty(t, reloaded.LastUpdate())
	assert.False(t, reloaded.HasChanged(filePath))
	assert.NotNil(t, reloaded.ModuleState("sale"))
}

func TestLoadCorruptState(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(statePath, []byte("{broken"), 0644))

	store := NewStore(statePath)
	assert.Empty(t, store.LastUpdate())
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	filePath := filepath.Join(dir, "f.py")
	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0644))

	store := NewStore(statePath)
	store.UpdateFile(filePath)
	require.NoError(t, store.Save())

	require.NoError(t, store.Clear())
	assert.Empty(t, store.LastUpdate())
	assert.True(t, store.HasChanged(filePath))
	_, err := os.Stat(statePath)
	assert.True(t, os.IsNotExist(err))
}
