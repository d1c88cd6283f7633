package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/kilntools/kiln/pkg/buildcfg"
)

// GenerateSchema generates the JSON Schema embedded in the schema package.
// It reflects the Config struct from types.go but excludes the Extensions
// field; extension sections are unknown keys and validate against their own
// schemas.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Unknown top-level keys are extension sections, so the schema
		// must tolerate additional properties.
		AllowAdditionalProperties: true,
		// Expand struct references instead of using $ref for cleaner base schema.
		ExpandedStruct: true,
		// Use YAML field names for property names
		FieldNameTag: "yaml",
	}

	// Create a temporary struct that omits the Extensions field so it's
	// not included in the schema. Version is optional here because
	// defaults are applied after validation.
	type BaseConfig struct {
		Name                string                    `yaml:"name,omitempty" jsonschema:"description=Name of the workspace or workspace set"`
		Version             string                    `yaml:"version,omitempty" jsonschema:"description=Configuration version (e.g. '1.0')"`
		Workspaces          []string                  `yaml:"workspaces,omitempty" jsonschema:"description=Glob patterns for workspace root directories"`
		WorkspaceExcludes   []string                  `yaml:"workspace_excludes,omitempty" jsonschema:"description=Patterns excluding directories from workspace expansion"`
		DefaultRoot         string                    `yaml:"default_root,omitempty" jsonschema:"description=Explicit default workspace root"`
		BuildConfigurations []*buildcfg.Configuration `yaml:"build_configurations,omitempty" jsonschema:"description=Build configurations available in this workspace"`
		Settings            *Settings                 `yaml:"settings,omitempty" jsonschema:"description=General behavior switches"`
		TUI                 *TUIConfig                `yaml:"tui,omitempty" jsonschema:"description=TUI appearance settings"`
		Daemon              *DaemonConfig             `yaml:"daemon,omitempty" jsonschema:"description=Configuration for the kiln daemon (kilnd)"`
		Compdb              *CompdbConfig             `yaml:"compdb,omitempty" jsonschema:"description=Compilation-database merge settings"`
	}

	schema := r.Reflect(&BaseConfig{})
	schema.Title = "Kiln Configuration"
	schema.Description = "Base schema for kiln.yml properties."
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return json.MarshalIndent(schema, "", "  ")
}
