package main

import (
	"fmt"
	"path/filepath"

	"github.com/grovetools/tend/pkg/assert"
	"github.com/grovetools/tend/pkg/fs"
	"github.com/grovetools/tend/pkg/harness"
)

// KilnConfigsListScenario verifies the declared listing includes
// incomplete entries, flagged as such.
func KilnConfigsListScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "kiln-configs-list",
		Description: "Verifies that `kiln configs` lists every declared configuration, marking incomplete ones.",
		Tags:        []string{"kiln", "configs"},
		Steps: []harness.Step{
			{
				Name: "Declared listing keeps incomplete entries",
				Func: func(ctx *harness.Context) error {
					projectDir := ctx.NewDir("configs-list")
					if err := fs.WriteString(filepath.Join(projectDir, "kiln.yml"), simpleWorkspaceYAML); err != nil {
						return err
					}

					kilnBinary, err := findKilnBinary()
					if err != nil {
						return err
					}

					cmd := ctx.Command(kilnBinary, "configs").Dir(projectDir)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
					if result.Error != nil {
						return fmt.Errorf("`kiln configs` failed: %w", result.Error)
					}

					output := result.Stdout
					if err := assert.Contains(output, "Debug", "complete configuration should be listed"); err != nil {
						return err
					}
					if err := assert.Contains(output, "Release", "second configuration should be listed"); err != nil {
						return err
					}
					if err := assert.Contains(output, "Broken", "incomplete configuration should still be listed"); err != nil {
						return err
					}
					return assert.Contains(output, "(incomplete)", "incomplete configuration should be flagged")
				},
			},
		},
	}
}

// KilnConfigsValidFilterScenario verifies --valid drops incomplete
// entries and --json emits the raw records.
func KilnConfigsValidFilterScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "kiln-configs-valid-filter",
		Description: "Verifies that `kiln configs --valid` drops incomplete entries.",
		Tags:        []string{"kiln", "configs"},
		Steps: []harness.Step{
			{
				Name: "Valid filter drops incomplete entries",
				Func: func(ctx *harness.Context) error {
					projectDir := ctx.NewDir("configs-valid")
					if err := fs.WriteString(filepath.Join(projectDir, "kiln.yml"), simpleWorkspaceYAML); err != nil {
						return err
					}
					ctx.Set("projectDir", projectDir)

					kilnBinary, err := findKilnBinary()
					if err != nil {
						return err
					}
					ctx.Set("kilnBinary", kilnBinary)

					cmd := ctx.Command(kilnBinary, "configs", "--valid").Dir(projectDir)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
					if result.Error != nil {
						return fmt.Errorf("`kiln configs --valid` failed: %w", result.Error)
					}

					if err := assert.Contains(result.Stdout, "Debug", "valid configuration should be listed"); err != nil {
						return err
					}
					return assert.NotContains(result.Stdout, "Broken", "incomplete configuration should be filtered out")
				},
			},
			{
				Name: "JSON output carries the full records",
				Func: func(ctx *harness.Context) error {
					projectDir := ctx.GetString("projectDir")
					kilnBinary := ctx.GetString("kilnBinary")

					cmd := ctx.Command(kilnBinary, "configs", "--valid", "--json").Dir(projectDir)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
					if result.Error != nil {
						return fmt.Errorf("`kiln configs --valid --json` failed: %w", result.Error)
					}

					if err := assert.Contains(result.Stdout, `"name": "Debug"`, "JSON should carry names"); err != nil {
						return err
					}
					if err := assert.Contains(result.Stdout, `"build": "cmake --build build/debug"`, "JSON should carry commands"); err != nil {
						return err
					}
					return assert.NotContains(result.Stdout, `"name": "Broken"`, "JSON should not carry filtered entries")
				},
			},
		},
	}
}
