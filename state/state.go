// Package state persists per-workspace key-value state under
// <dir>/.kiln/state.yml. Each workspace root keeps its own independent
// state file, so checkouts of the same project do not share entries.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// State represents local kiln state as a generic map of key-value pairs.
// Any kiln component can store arbitrary state data under its own keys.
type State map[string]interface{}

// Store reads and writes the state file of one directory. Reads always hit
// the file, so external edits are picked up; writes are serialized through
// an internal mutex and land atomically via a temp-file rename.
type Store struct {
	mu  sync.Mutex
	dir string
}

// New returns a Store bound to dir. The state file itself is created
// lazily on first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// ForCurrentDir returns a Store bound to the current working directory.
func ForCurrentDir() (*Store, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get current directory: %w", err)
	}
	return New(cwd), nil
}

// Path returns the location of the state file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, ".kiln", "state.yml")
}

// Load reads the full state map. A missing file yields an empty state.
func (s *Store) Load() (State, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return make(State), nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	if st == nil {
		st = make(State)
	}
	return st, nil
}

// Save writes the full state map, replacing the previous file contents.
// The write goes through a temp file in the same directory and a rename,
// so a crash mid-write never leaves a truncated state file behind.
func (s *Store) Save(st State) error {
	path := s.Path()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.yml")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod state file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Get retrieves the value stored under key and decodes it into out, which
// must be a pointer. It reports whether the key was present. Passing a nil
// out just probes for existence.
func (s *Store) Get(key string, out interface{}) (bool, error) {
	st, err := s.Load()
	if err != nil {
		return false, err
	}

	raw, ok := st[key]
	if !ok {
		return false, nil
	}
	if out == nil {
		return true, nil
	}

	// Values round-trip through YAML so callers get their own types back
	// instead of the map[string]interface{} the file decoded to.
	buf, err := yaml.Marshal(raw)
	if err != nil {
		return true, fmt.Errorf("re-encode state value %q: %w", key, err)
	}
	if err := yaml.Unmarshal(buf, out); err != nil {
		return true, fmt.Errorf("decode state value %q: %w", key, err)
	}
	return true, nil
}

// GetString is a convenience accessor for string values. It returns the
// empty string when the key is absent or holds a non-string.
func (s *Store) GetString(key string) (string, error) {
	st, err := s.Load()
	if err != nil {
		return "", err
	}
	val, ok := st[key]
	if !ok {
		return "", nil
	}
	str, ok := val.(string)
	if !ok {
		return "", nil
	}
	return str, nil
}

// Set stores value under key, preserving all other entries.
func (s *Store) Set(key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.Load()
	if err != nil {
		return err
	}
	st[key] = value
	return s.Save(st)
}

// Delete removes a key from the state.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.Load()
	if err != nil {
		return err
	}
	delete(st, key)
	return s.Save(st)
}
