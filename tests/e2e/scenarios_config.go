package main

import (
	"fmt"
	"path/filepath"

	"github.com/grovetools/tend/pkg/assert"
	"github.com/grovetools/tend/pkg/fs"
	"github.com/grovetools/tend/pkg/harness"
)

// KilnConfigLayeringScenario verifies that global, project, and override
// configs are merged in the documented order.
func KilnConfigLayeringScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "kiln-config-layering",
		Description: "Verifies that global, project, and override configs are merged correctly.",
		Tags:        []string{"kiln", "config"},
		Steps: []harness.Step{
			{
				Name: "Setup layered configuration and verify merge order",
				Func: func(ctx *harness.Context) error {
					projectDir := ctx.NewDir("layering-test")

					// Global config contributes workspace patterns.
					globalYAML := `name: global-name
version: "1.0"
workspaces:
  - /tmp/kiln-e2e/*
`
					if err := writeGlobalConfig(ctx, globalYAML); err != nil {
						return err
					}

					// Project config declares the build configurations.
					projectYAML := `name: project-name
version: "1.0"
build_configurations:
  - name: Debug
    directory: build/debug
`
					if err := fs.WriteString(filepath.Join(projectDir, "kiln.yml"), projectYAML); err != nil {
						return err
					}

					// Override replaces the name only.
					overrideYAML := `name: override-name`
					if err := fs.WriteString(filepath.Join(projectDir, "kiln.override.yml"), overrideYAML); err != nil {
						return err
					}

					kilnBinary, err := findKilnBinary()
					if err != nil {
						return err
					}

					// ctx.Command automatically uses the sandboxed HOME directory.
					cmd := ctx.Command(kilnBinary, "config", "show", "--layers").Dir(projectDir)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
					if result.Error != nil {
						return fmt.Errorf("`kiln config show --layers` failed: %w", result.Error)
					}

					output := result.Stdout
					if err := assert.Contains(output, "GLOBAL CONFIG", "global layer should be shown"); err != nil {
						return err
					}
					if err := assert.Contains(output, "PROJECT CONFIG", "project layer should be shown"); err != nil {
						return err
					}
					if err := assert.Contains(output, "OVERRIDE CONFIG", "override layer should be shown"); err != nil {
						return err
					}
					if err := assert.Contains(output, "FINAL MERGED CONFIG", "final config block should exist"); err != nil {
						return err
					}
					if err := assert.Contains(output, "name: override-name", "override name should win"); err != nil {
						return err
					}
					if err := assert.Contains(output, "build_configurations:", "project configurations should survive the merge"); err != nil {
						return err
					}
					return assert.Contains(output, "/tmp/kiln-e2e/*", "global workspaces should survive the merge")
				},
			},
		},
	}
}

// KilnConfigOverridePrecedenceScenario verifies project values beat global
// values for the same key, and override files beat both.
func KilnConfigOverridePrecedenceScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "kiln-config-override-precedence",
		Description: "Verifies that project config overrides global config for the same key.",
		Tags:        []string{"kiln", "config", "override"},
		Steps: []harness.Step{
			{
				Name: "Overlapping keys resolve to the most specific layer",
				Func: func(ctx *harness.Context) error {
					projectDir := ctx.NewDir("precedence-test")

					globalYAML := `name: global-name
version: "1.0"
default_root: /global/root
`
					if err := writeGlobalConfig(ctx, globalYAML); err != nil {
						return err
					}

					projectYAML := `name: project-name
version: "1.0"
default_root: /project/root
`
					if err := fs.WriteString(filepath.Join(projectDir, "kiln.yml"), projectYAML); err != nil {
						return err
					}

					kilnBinary, err := findKilnBinary()
					if err != nil {
						return err
					}

					cmd := ctx.Command(kilnBinary, "config", "show").Dir(projectDir)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
					if result.Error != nil {
						return fmt.Errorf("`kiln config show` failed: %w", result.Error)
					}

					if err := assert.Contains(result.Stdout, "name: project-name", "project name should override global"); err != nil {
						return err
					}
					if err := assert.Contains(result.Stdout, "default_root: /project/root", "project default_root should override global"); err != nil {
						return err
					}
					return assert.NotContains(result.Stdout, "/global/root", "global value should be shadowed")
				},
			},
		},
	}
}

// KilnConfigMissingScenario verifies behavior in a directory without any
// kiln.yml anywhere up the tree.
func KilnConfigMissingScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "kiln-config-missing",
		Description: "Verifies that commands fail helpfully when no kiln.yml can be found.",
		Tags:        []string{"kiln", "config"},
		Steps: []harness.Step{
			{
				Name: "Validate fails with guidance when no config exists",
				Func: func(ctx *harness.Context) error {
					emptyDir := ctx.NewDir("no-config")

					kilnBinary, err := findKilnBinary()
					if err != nil {
						return err
					}

					cmd := ctx.Command(kilnBinary, "config", "validate").Dir(emptyDir)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)

					if result.ExitCode == 0 {
						return fmt.Errorf("expected non-zero exit code, got 0")
					}
					return assert.Contains(result.Stderr, "kiln.yml", "the error should name the missing file")
				},
			},
		},
	}
}

// KilnConfigValidateScenario verifies schema validation of good and bad
// config files.
func KilnConfigValidateScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "kiln-config-validate",
		Description: "Verifies that `kiln config validate` accepts valid files and rejects invalid ones.",
		Tags:        []string{"kiln", "config", "schema"},
		Steps: []harness.Step{
			{
				Name: "A valid kiln.yml passes",
				Func: func(ctx *harness.Context) error {
					projectDir := ctx.NewDir("valid-config")
					if err := fs.WriteString(filepath.Join(projectDir, "kiln.yml"), simpleWorkspaceYAML); err != nil {
						return err
					}

					kilnBinary, err := findKilnBinary()
					if err != nil {
						return err
					}

					cmd := ctx.Command(kilnBinary, "config", "validate").Dir(projectDir)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
					if result.Error != nil {
						return fmt.Errorf("`kiln config validate` failed on a valid file: %w", result.Error)
					}
					return assert.Contains(result.Stdout, "is valid", "valid file should be reported as valid")
				},
			},
			{
				Name: "A structurally broken kiln.yml fails",
				Func: func(ctx *harness.Context) error {
					projectDir := ctx.NewDir("invalid-config")
					badYAML := `version: 42
name: [not, a, string]
build_configurations: "nope"
`
					if err := fs.WriteString(filepath.Join(projectDir, "kiln.yml"), badYAML); err != nil {
						return err
					}

					kilnBinary, err := findKilnBinary()
					if err != nil {
						return err
					}

					cmd := ctx.Command(kilnBinary, "config", "validate").Dir(projectDir)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)

					if result.ExitCode == 0 {
						return fmt.Errorf("expected non-zero exit code for an invalid file")
					}
					return assert.Contains(result.Stdout, "has problems", "invalid file should list its problems")
				},
			},
		},
	}
}

// KilnConfigEnvOverlayScenario verifies the KILN_CONFIG_OVERLAY layer is
// merged between the global and project layers.
func KilnConfigEnvOverlayScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "kiln-config-env-overlay",
		Description: "Verifies that KILN_CONFIG_OVERLAY contributes a config layer.",
		Tags:        []string{"kiln", "config", "overlay"},
		Steps: []harness.Step{
			{
				Name: "Overlay file shows up in the layer listing",
				Func: func(ctx *harness.Context) error {
					projectDir := ctx.NewDir("overlay-test")
					if err := fs.WriteString(filepath.Join(projectDir, "kiln.yml"), simpleWorkspaceYAML); err != nil {
						return err
					}

					overlayPath := filepath.Join(ctx.NewDir("overlay-files"), "ci.yml")
					if err := fs.WriteString(overlayPath, "name: overlay-name\n"); err != nil {
						return err
					}

					kilnBinary, err := findKilnBinary()
					if err != nil {
						return err
					}

					// The overlay only comes from the environment, so the
					// command runs under a shell that exports it.
					line := fmt.Sprintf("KILN_CONFIG_OVERLAY=%s %s config show --layers", overlayPath, kilnBinary)
					cmd := ctx.Command("sh", "-c", line).Dir(projectDir)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
					if result.Error != nil {
						return fmt.Errorf("`kiln config show --layers` failed: %w", result.Error)
					}

					if err := assert.Contains(result.Stdout, "ENV OVERLAY CONFIG", "overlay layer should be shown"); err != nil {
						return err
					}
					return assert.Contains(result.Stdout, "overlay-name", "overlay values should be listed")
				},
			},
		},
	}
}
