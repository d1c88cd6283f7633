package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/grovetools/tend/pkg/assert"
	"github.com/grovetools/tend/pkg/fs"
	"github.com/grovetools/tend/pkg/harness"
)

// KilnRootsScenario verifies workspace-root expansion from glob patterns,
// default-root promotion, and exclusion patterns.
func KilnRootsScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "kiln-roots",
		Description: "Verifies that `kiln roots` expands workspace patterns, promotes the default, and honors excludes.",
		Tags:        []string{"kiln", "roots"},
		Steps: []harness.Step{
			{
				Name: "Glob expansion lists every matching root",
				Func: func(ctx *harness.Context) error {
					parent := ctx.NewDir("workspace-set")
					alpha := filepath.Join(parent, "app-alpha")
					beta := filepath.Join(parent, "app-beta")
					scratch := filepath.Join(parent, "scratch-tmp")
					for _, dir := range []string{alpha, beta, scratch} {
						if err := fs.CreateDir(dir); err != nil {
							return fmt.Errorf("failed to create workspace dir %s: %w", dir, err)
						}
						if err := fs.WriteString(filepath.Join(dir, "kiln.yml"), simpleWorkspaceYAML); err != nil {
							return err
						}
					}
					ctx.Set("alpha", alpha)
					ctx.Set("beta", beta)
					ctx.Set("scratch", scratch)

					globalYAML := fmt.Sprintf(`version: "1.0"
workspaces:
  - %s/*
workspace_excludes:
  - scratch-*
`, parent)
					if err := writeGlobalConfig(ctx, globalYAML); err != nil {
						return err
					}

					kilnBinary, err := findKilnBinary()
					if err != nil {
						return err
					}
					ctx.Set("kilnBinary", kilnBinary)

					cmd := ctx.Command(kilnBinary, "roots").Dir(alpha)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
					if result.Error != nil {
						return fmt.Errorf("`kiln roots` failed: %w", result.Error)
					}

					output := result.Stdout
					if err := assert.Contains(output, "app-alpha", "first root should be listed"); err != nil {
						return err
					}
					if err := assert.Contains(output, "app-beta", "second root should be listed"); err != nil {
						return err
					}
					if err := assert.NotContains(output, "scratch-tmp", "excluded root should not be listed"); err != nil {
						return err
					}
					return assert.Contains(output, "(default)", "the default root should be marked")
				},
			},
			{
				Name: "default_root promotes a specific root",
				Func: func(ctx *harness.Context) error {
					beta := ctx.GetString("beta")
					alpha := ctx.GetString("alpha")
					kilnBinary := ctx.GetString("kilnBinary")

					parent := filepath.Dir(beta)
					globalYAML := fmt.Sprintf(`version: "1.0"
workspaces:
  - %s/*
workspace_excludes:
  - scratch-*
default_root: %s
`, parent, beta)
					if err := writeGlobalConfig(ctx, globalYAML); err != nil {
						return err
					}

					cmd := ctx.Command(kilnBinary, "roots", "--json").Dir(alpha)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
					if result.Error != nil {
						return fmt.Errorf("`kiln roots --json` failed: %w", result.Error)
					}

					// The default root is the first array element.
					firstIdx := strings.Index(result.Stdout, "app-beta")
					otherIdx := strings.Index(result.Stdout, "app-alpha")
					if firstIdx < 0 || otherIdx < 0 {
						return fmt.Errorf("both roots should appear in JSON output:\n%s", result.Stdout)
					}
					if firstIdx > otherIdx {
						return fmt.Errorf("promoted default root should be listed first:\n%s", result.Stdout)
					}
					return nil
				},
			},
		},
	}
}
