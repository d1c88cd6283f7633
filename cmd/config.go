package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kilntools/kiln/cli"
	"github.com/kilntools/kiln/config"
	"github.com/kilntools/kiln/schema"
	"github.com/kilntools/kiln/tui/theme"
)

// NewConfigCmd creates the `config` command group.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate kiln configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigValidateCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long: `Display the effective configuration for the current directory.

The effective configuration is built by merging layers:
1. Global config (~/.config/kiln/kiln.yml)
2. Overlay config (KILN_CONFIG_OVERLAY, if set)
3. Workspace config (kiln.yml)
4. Override files (kiln.override.yml)

Use --layers to see each layer before merging, which is useful for
debugging configuration issues.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			handler := cli.NewErrorHandler(opts.Verbose)

			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get current directory: %w", err)
			}

			if layers, _ := cmd.Flags().GetBool("layers"); layers {
				layered, err := config.LoadLayered(cwd)
				if err != nil {
					return handler.Handle(err)
				}
				printConfigLayers(layered)
				return nil
			}

			cfg, err := config.LoadEffective(cwd)
			if err != nil {
				return handler.Handle(err)
			}

			if opts.JSONOutput {
				jsonData, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal configuration to JSON: %w", err)
				}
				fmt.Println(string(jsonData))
				return nil
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal configuration: %w", err)
			}
			fmt.Print(string(data))
			return nil
		},
	}

	cmd.Flags().Bool("layers", false, "Show each configuration layer before merging")

	return cmd
}

func printConfigLayers(layered *config.LayeredConfig) {
	printLayer := func(title string, path string, cfg *config.Config) {
		if cfg == nil {
			return
		}
		fmt.Printf("--- # %s\n", title)
		if path != "" {
			fmt.Printf("# Source: %s\n", path)
		}
		data, _ := yaml.Marshal(cfg)
		fmt.Println(string(data))
	}

	printLayer("GLOBAL CONFIG", layered.FilePaths[config.SourceGlobal], layered.Global)
	if layered.EnvOverlay != nil {
		printLayer("ENV OVERLAY CONFIG", layered.EnvOverlay.Path, layered.EnvOverlay.Config)
	}
	printLayer("PROJECT CONFIG", layered.FilePaths[config.SourceProject], layered.Project)
	for _, override := range layered.Overrides {
		printLayer("OVERRIDE CONFIG", override.Path, override.Config)
	}
	printLayer("FINAL MERGED CONFIG", "", layered.Final)
}

func newConfigValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a configuration file",
		Long: `Validate a kiln configuration file.

Two passes run: the raw document is checked against the JSON Schema, so
unknown keys and type mismatches surface even when loading would drop
them silently, and then a full load applies defaults and the semantic
checks. Without an argument the workspace's kiln.yml is validated.

Examples:
  # Validate the workspace configuration
  kiln config validate

  # Validate a specific file
  kiln config validate ./kiln.override.yml
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			handler := cli.NewErrorHandler(opts.Verbose)

			var path string
			if len(args) > 0 {
				path = args[0]
			} else {
				cwd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("failed to get current directory: %w", err)
				}
				path, err = config.FindConfigFile(cwd)
				if err != nil {
					return handler.Handle(err)
				}
			}

			problems := validateConfigFile(path)

			if opts.JSONOutput {
				out := map[string]interface{}{
					"path":   path,
					"valid":  len(problems) == 0,
					"errors": problems,
				}
				jsonData, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal validation result to JSON: %w", err)
				}
				fmt.Println(string(jsonData))
			} else if len(problems) == 0 {
				fmt.Printf("%s %s is valid\n",
					theme.DefaultTheme.Success.Render(theme.IconSuccess), path)
			} else {
				fmt.Printf("%s %s has problems:\n",
					theme.DefaultTheme.Error.Render(theme.IconError), path)
				for _, p := range problems {
					fmt.Printf("  %s %s\n", theme.DefaultTheme.Error.Render(theme.IconBullet), p)
				}
			}

			if len(problems) > 0 {
				os.Exit(1)
			}
			return nil
		},
	}

	return cmd
}

// validateConfigFile runs both validation passes and collects the problems.
func validateConfigFile(path string) []string {
	var problems []string

	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("cannot read file: %v", err)}
	}

	// Schema pass runs on the raw document rather than the parsed struct,
	// so typos in key names are not silently dropped.
	raw := map[string]interface{}{}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return append(problems, fmt.Sprintf("cannot parse file: %v", err))
	}

	validator, err := schema.NewValidator()
	if err != nil {
		problems = append(problems, fmt.Sprintf("schema unavailable: %v", err))
	} else if err := validator.Validate(raw); err != nil {
		problems = append(problems, err.Error())
	}

	// Full load applies defaults plus structural and semantic validation.
	if _, err := config.Load(path); err != nil {
		problems = append(problems, err.Error())
	}

	return problems
}
