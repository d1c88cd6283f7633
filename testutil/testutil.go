// Package testutil provides shared helpers for kiln tests.
package testutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// ThreeConfigYAML declares one command-less, one complete, and one
// incomplete build configuration; the standard workspace fixture.
const ThreeConfigYAML = `version: "1.0"
build_configurations:
  - name: release
    directory: /ws/app/build/release
  - name: debug
    directory: /ws/app/build/debug
    commands:
      build: cmake --build build/debug
  - name: ""
    directory: /ws/app/build/broken
`

// IsolateEnv keeps a test away from the developer's real global config,
// XDG directories, and any ambient overlay.
func IsolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("KILN_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("KILN_CONFIG_OVERLAY", "")
}

// WriteWorkspace writes yaml as dir's kiln.yml.
func WriteWorkspace(t *testing.T, dir, yaml string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kiln.yml"), []byte(yaml), 0644))
}

// NewWorkspace creates a temp workspace whose kiln.yml holds yaml.
func NewWorkspace(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	WriteWorkspace(t, dir, yaml)
	return dir
}

// DiscardLogger returns a logger whose output is dropped.
func DiscardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
