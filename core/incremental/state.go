// Package incremental implements content-addressed change detection. A
// JSON state file maps absolute paths to SHA-256 hashes; a detector turns
// the hashes into an update strategy for the next run.
package incremental

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"odoo-graph/internal/errors"
	"odoo-graph/internal/logging"
)

// State is the persisted run state. The zero value is a valid empty state.
type State struct {
	// LastUpdate is the ISO-8601 timestamp of the last successful run,
	// null before the first one
	LastUpdate *string `json:"last_update"`

	// Files maps absolute path to hex SHA-256 of content
	Files map[string]string `json:"files"`

	// Modules holds opaque per-module data
	Modules map[string]interface{} `json:"modules"`
}

// Store owns the state file. It is used from a single goroutine; parsing
// workers never touch it.
type Store struct {
	path  string
	state State
}

// NewStore loads the state file, falling back to an empty state when the
// file is missing or unreadable
func NewStore(path string) *Store {
	store := &Store{path: path}
	store.state = loadState(path)
	return store
}

func loadState(path string) State {
	empty := State{Files: map[string]string{}, Modules: map[string]interface{}{}}

	data, err := os.ReadFile(path)
	if err != nil {
		return empty
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		logging.Warn("state file is corrupt, starting fresh", logging.Path(path))
		return empty
	}
	if state.Files == nil {
		state.Files = map[string]string{}
	}
	if state.Modules == nil {
		state.Modules = map[string]interface{}{}
	}
	return state
}

// LastUpdate returns the timestamp of the last successful run, or ""
func (s *Store) LastUpdate() string {
	if s.state.LastUpdate == nil {
		return ""
	}
	return *s.state.LastUpdate
}

// Save stamps the state with the current time and persists it atomically
// (write to a temp file, then rename)
func (s *Store) Save() error {
	now := time.Now().Format(time.RFC3339)
	s.state.LastUpdate = &now

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Wrap(errors.TypeState, "creating cache directory", err)
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return errors.Wrap(errors.TypeState, "encoding state", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(errors.TypeState, "writing state file", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(errors.TypeState, "replacing state file", err)
	}
	return nil
}

// FileHash computes the hex SHA-256 of a file's content
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HasChanged reports whether a file differs from its stored hash. A
// missing state entry counts as changed; an unreadable file does not.
func (s *Store) HasChanged(path string) bool {
	current, err := FileHash(path)
	if err != nil {
		logging.Warn("cannot hash file", logging.Path(path))
		return false
	}
	previous, ok := s.state.Files[path]
	return !ok || previous != current
}

// UpdateFile records the current hash of a file
func (s *Store) UpdateFile(path string) {
	current, err := FileHash(path)
	if err != nil {
		logging.Warn("cannot hash file", logging.Path(path))
		return
	}
	s.state.Files[path] = current
}

// ChangedFiles filters paths down to those that changed
func (s *Store) ChangedFiles(paths []string) []string {
	var changed []string
	for _, path := range paths {
		if s.HasChanged(path) {
			changed = append(changed, path)
		}
	}
	return changed
}

// ModuleState returns the opaque data stored for a module
func (s *Store) ModuleState(name string) interface{} {
	return s.state.Modules[name]
}

// SetModuleState stores opaque data for a module
func (s *Store) SetModuleState(name string, data interface{}) {
	s.state.Modules[name] = data
}

// Clear resets the in-memory state and removes the state file
func (s *Store) Clear() error {
	s.state = State{Files: map[string]string{}, Modules: map[string]interface{}{}}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.TypeState, "removing state file", err)
	}
	return nil
}
