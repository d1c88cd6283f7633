package main

import (
	"fmt"
	"path/filepath"

	"github.com/grovetools/tend/pkg/assert"
	"github.com/grovetools/tend/pkg/fs"
	"github.com/grovetools/tend/pkg/harness"
)

// KilnUseAndActiveScenario walks the selection lifecycle: pick a
// configuration by name, read it back, clear it.
func KilnUseAndActiveScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "kiln-use-and-active",
		Description: "Verifies that `kiln use <name>` sets the selection `kiln active` reports, and --clear removes it.",
		Tags:        []string{"kiln", "active"},
		Steps: []harness.Step{
			{
				Name: "Select a configuration by name",
				Func: func(ctx *harness.Context) error {
					projectDir := ctx.NewDir("use-test")
					if err := fs.WriteString(filepath.Join(projectDir, "kiln.yml"), simpleWorkspaceYAML); err != nil {
						return err
					}
					ctx.Set("projectDir", projectDir)

					kilnBinary, err := findKilnBinary()
					if err != nil {
						return err
					}
					ctx.Set("kilnBinary", kilnBinary)

					cmd := ctx.Command(kilnBinary, "use", "Debug").Dir(projectDir)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
					if result.Error != nil {
						return fmt.Errorf("`kiln use Debug` failed: %w", result.Error)
					}

					return assert.Contains(result.Stdout, "Now using", "selection should be confirmed")
				},
			},
			{
				Name: "Active reports the selection",
				Func: func(ctx *harness.Context) error {
					projectDir := ctx.GetString("projectDir")
					kilnBinary := ctx.GetString("kilnBinary")

					cmd := ctx.Command(kilnBinary, "active").Dir(projectDir)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
					if result.Error != nil {
						return fmt.Errorf("`kiln active` failed: %w", result.Error)
					}

					return assert.Contains(result.Stdout, "Debug (build/debug)", "the selected configuration should be reported")
				},
			},
			{
				Name: "The configs listing marks the active entry",
				Func: func(ctx *harness.Context) error {
					projectDir := ctx.GetString("projectDir")
					kilnBinary := ctx.GetString("kilnBinary")

					cmd := ctx.Command(kilnBinary, "configs").Dir(projectDir)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
					if result.Error != nil {
						return fmt.Errorf("`kiln configs` failed: %w", result.Error)
					}

					if err := assert.Contains(result.Stdout, "* Debug", "the active configuration should be marked"); err != nil {
						return err
					}
					return assert.Contains(result.Stdout, "Release", "other configurations should still be listed")
				},
			},
			{
				Name: "Clearing removes the selection",
				Func: func(ctx *harness.Context) error {
					projectDir := ctx.GetString("projectDir")
					kilnBinary := ctx.GetString("kilnBinary")

					cmd := ctx.Command(kilnBinary, "use", "--clear").Dir(projectDir)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
					if result.Error != nil {
						return fmt.Errorf("`kiln use --clear` failed: %w", result.Error)
					}
					if err := assert.Contains(result.Stdout, "cleared", "the clear should be confirmed"); err != nil {
						return err
					}

					cmd = ctx.Command(kilnBinary, "active").Dir(projectDir)
					result = cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
					if result.Error != nil {
						return fmt.Errorf("`kiln active` failed after clear: %w", result.Error)
					}
					return assert.Contains(result.Stdout, "<none>", "a cleared root should report <none>")
				},
			},
		},
	}
}

// KilnUseUnknownConfigScenario verifies the error path for a name that is
// not declared.
func KilnUseUnknownConfigScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "kiln-use-unknown-config",
		Description: "Verifies that selecting an undeclared configuration fails with guidance.",
		Tags:        []string{"kiln", "active", "errors"},
		Steps: []harness.Step{
			{
				Name: "Unknown name is rejected",
				Func: func(ctx *harness.Context) error {
					projectDir := ctx.NewDir("unknown-test")
					if err := fs.WriteString(filepath.Join(projectDir, "kiln.yml"), simpleWorkspaceYAML); err != nil {
						return err
					}

					kilnBinary, err := findKilnBinary()
					if err != nil {
						return err
					}

					cmd := ctx.Command(kilnBinary, "use", "Nonexistent").Dir(projectDir)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)

					if result.ExitCode == 0 {
						return fmt.Errorf("expected non-zero exit code for an unknown configuration")
					}
					if err := assert.Contains(result.Stderr, "not found in kiln.yml", "the error should explain the name is unknown"); err != nil {
						return err
					}
					return assert.Contains(result.Stderr, "kiln configs", "the error should point at the listing command")
				},
			},
		},
	}
}

// KilnStateSnapshotScenario verifies the selection persists in
// .kiln/state.yml and survives across processes.
func KilnStateSnapshotScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "kiln-state-snapshot",
		Description: "Verifies that selections persist under .kiln/state.yml and are re-read by later invocations.",
		Tags:        []string{"kiln", "state"},
		Steps: []harness.Step{
			{
				Name: "Selection lands in the state file",
				Func: func(ctx *harness.Context) error {
					projectDir := ctx.NewDir("state-test")
					if err := fs.WriteString(filepath.Join(projectDir, "kiln.yml"), simpleWorkspaceYAML); err != nil {
						return err
					}
					ctx.Set("projectDir", projectDir)

					kilnBinary, err := findKilnBinary()
					if err != nil {
						return err
					}
					ctx.Set("kilnBinary", kilnBinary)

					cmd := ctx.Command(kilnBinary, "use", "Release").Dir(projectDir)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
					if result.Error != nil {
						return fmt.Errorf("`kiln use Release` failed: %w", result.Error)
					}

					statePath := filepath.Join(projectDir, ".kiln", "state.yml")
					stateContent, err := fs.ReadString(statePath)
					if err != nil {
						return fmt.Errorf("state file should exist at %s: %w", statePath, err)
					}
					if err := assert.Contains(stateContent, "buildcfg.active", "the snapshot key should be present"); err != nil {
						return err
					}
					return assert.Contains(stateContent, "Release", "the snapshot should carry the selected name")
				},
			},
			{
				Name: "A fresh process reads the snapshot back",
				Func: func(ctx *harness.Context) error {
					projectDir := ctx.GetString("projectDir")
					kilnBinary := ctx.GetString("kilnBinary")

					cmd := ctx.Command(kilnBinary, "active", "--json").Dir(projectDir)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
					if result.Error != nil {
						return fmt.Errorf("`kiln active --json` failed: %w", result.Error)
					}

					if err := assert.Contains(result.Stdout, `"name": "Release"`, "JSON output should carry the persisted selection"); err != nil {
						return err
					}
					return assert.Contains(result.Stdout, `"directory": "build/release"`, "JSON output should carry the directory")
				},
			},
		},
	}
}
