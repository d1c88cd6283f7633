package main

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/grovetools/tend/pkg/fs"
	"github.com/grovetools/tend/pkg/harness"
)

// findKilnBinary finds the kiln binary under test. It relies on the
// Makefile setting the PATH to include the local ./bin directory.
func findKilnBinary() (string, error) {
	path, err := exec.LookPath("kiln")
	if err != nil {
		return "", fmt.Errorf("could not find 'kiln' binary in PATH. Ensure 'make test-e2e' is used")
	}
	return path, nil
}

// writeGlobalConfig writes yaml as the sandboxed user's global kiln
// config under XDG_CONFIG_HOME.
func writeGlobalConfig(ctx *harness.Context, yaml string) error {
	globalConfigDir := filepath.Join(ctx.ConfigDir(), "kiln")
	if err := fs.CreateDir(globalConfigDir); err != nil {
		return fmt.Errorf("failed to create global config dir: %w", err)
	}
	return fs.WriteString(filepath.Join(globalConfigDir, "kiln.yml"), yaml)
}

// simpleWorkspaceYAML declares a workspace with one complete and one
// incomplete build configuration.
const simpleWorkspaceYAML = `version: "1.0"
name: e2e-workspace
build_configurations:
  - name: Debug
    directory: build/debug
    commands:
      build: cmake --build build/debug
      clean: cmake --build build/debug --target clean
  - name: Release
    directory: build/release
  - name: Broken
`
