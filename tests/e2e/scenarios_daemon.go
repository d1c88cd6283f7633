package main

import (
	"fmt"
	"path/filepath"

	"github.com/grovetools/tend/pkg/assert"
	"github.com/grovetools/tend/pkg/fs"
	"github.com/grovetools/tend/pkg/harness"
)

// KilnDaemonStatusStoppedScenario verifies the status command's
// script-friendly behavior when no daemon is running.
func KilnDaemonStatusStoppedScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "kiln-daemon-status-stopped",
		Description: "Verifies that `kiln daemon status` reports Stopped with a non-zero exit code.",
		Tags:        []string{"kiln", "daemon"},
		Steps: []harness.Step{
			{
				Name: "Status without a daemon",
				Func: func(ctx *harness.Context) error {
					workDir := ctx.NewDir("daemon-status")
					if err := fs.WriteString(filepath.Join(workDir, "kiln.yml"), simpleWorkspaceYAML); err != nil {
						return err
					}

					kilnBinary, err := findKilnBinary()
					if err != nil {
						return err
					}

					cmd := ctx.Command(kilnBinary, "daemon", "status").Dir(workDir)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)

					if result.ExitCode == 0 {
						return fmt.Errorf("expected non-zero exit code when the daemon is stopped")
					}
					return assert.Contains(result.Stdout, "Stopped", "the stopped state should be reported")
				},
			},
			{
				Name: "Stop without a daemon is a no-op",
				Func: func(ctx *harness.Context) error {
					workDir := ctx.NewDir("daemon-stop")
					kilnBinary, err := findKilnBinary()
					if err != nil {
						return err
					}

					cmd := ctx.Command(kilnBinary, "daemon", "stop").Dir(workDir)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
					if result.Error != nil {
						return fmt.Errorf("`kiln daemon stop` should succeed when nothing runs: %w", result.Error)
					}
					return assert.Contains(result.Stdout, "not running", "the no-op should be explained")
				},
			},
		},
	}
}

// KilnSchemaScenario verifies the embedded JSON Schema is printed.
func KilnSchemaScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "kiln-schema",
		Description: "Verifies that `kiln schema` prints the configuration JSON Schema.",
		Tags:        []string{"kiln", "schema"},
		Steps: []harness.Step{
			{
				Name: "Schema output names the core properties",
				Func: func(ctx *harness.Context) error {
					kilnBinary, err := findKilnBinary()
					if err != nil {
						return err
					}

					cmd := ctx.Command(kilnBinary, "schema")
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
					if result.Error != nil {
						return fmt.Errorf("`kiln schema` failed: %w", result.Error)
					}

					if err := assert.Contains(result.Stdout, "build_configurations", "schema should describe build configurations"); err != nil {
						return err
					}
					if err := assert.Contains(result.Stdout, "workspaces", "schema should describe workspace patterns"); err != nil {
						return err
					}
					return assert.Contains(result.Stdout, "$schema", "output should be a JSON Schema document")
				},
			},
		},
	}
}

// KilnVersionScenario verifies the binary runs and reports its version.
func KilnVersionScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "kiln-version",
		Description: "Verifies that the kiln binary runs and prints version information.",
		Tags:        []string{"kiln", "smoke"},
		Steps: []harness.Step{
			{
				Name: "Version command",
				Func: func(ctx *harness.Context) error {
					kilnBinary, err := findKilnBinary()
					if err != nil {
						return err
					}

					cmd := ctx.Command(kilnBinary, "version")
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)

					if err := assert.Equal(0, result.ExitCode, "kiln binary should run successfully"); err != nil {
						return err
					}
					return assert.Contains(result.Stdout, "Version:", "version fields should be printed")
				},
			},
		},
	}
}
