package config

import (
	"fmt"

	"github.com/kilntools/kiln/pkg/buildcfg"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

//go:generate go run ../tools/schema-generator/
//go:generate sh -c "cd .. && go run ./tools/schema-composer/"

// Settings holds general behavior switches.
type Settings struct {
	// AutoInference enables build-tree scanning when no build
	// configurations are declared (default: true).
	AutoInference *bool `json:"auto_inference,omitempty" yaml:"auto_inference,omitempty" toml:"auto_inference,omitempty" jsonschema:"description=Infer build configurations from the build/ directory when none are declared (default: true)"`
}

// TUIConfig holds TUI-specific settings.
type TUIConfig struct {
	Icons  string `json:"icons,omitempty" yaml:"icons,omitempty" toml:"icons,omitempty" jsonschema:"description=Icon set to use: nerd or ascii,enum=nerd,enum=ascii"`
	Theme  string `json:"theme,omitempty" yaml:"theme,omitempty" toml:"theme,omitempty" jsonschema:"description=Color theme for terminal interfaces (built-in: ember and terminal)"`
	Preset string `json:"preset,omitempty" yaml:"preset,omitempty" toml:"preset,omitempty" jsonschema:"description=Keybinding preset (vim / emacs / arrows),enum=vim,enum=emacs,enum=arrows"`

	// Keybindings rebinds individual actions, e.g. {"confirm": ["enter"],
	// "quit": ["q", "ctrl+c"]}. Unknown action names are ignored.
	Keybindings map[string][]string `json:"keybindings,omitempty" yaml:"keybindings,omitempty" toml:"keybindings,omitempty" jsonschema:"description=Per-action keybinding overrides"`
}

// DaemonConfig holds configuration for the kiln daemon (kilnd).
type DaemonConfig struct {
	ConfigWatch      *bool  `json:"config_watch,omitempty" yaml:"config_watch,omitempty" toml:"config_watch,omitempty" jsonschema:"description=Enable config file watching (default: true)"`
	ConfigDebounceMs int    `json:"config_debounce_ms,omitempty" yaml:"config_debounce_ms,omitempty" toml:"config_debounce_ms,omitempty" jsonschema:"description=Debounce window for rapid config changes in milliseconds (default: 100)"`
	SocketPath       string `json:"socket_path,omitempty" yaml:"socket_path,omitempty" toml:"socket_path,omitempty" jsonschema:"description=Override path for the kilnd unix socket"`
}

// CompdbConfig configures compilation-database merging.
type CompdbConfig struct {
	Endpoint  string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" toml:"endpoint,omitempty" jsonschema:"description=HTTP endpoint of a compile_commands.json merge service"`
	OutputDir string `json:"output_dir,omitempty" yaml:"output_dir,omitempty" toml:"output_dir,omitempty" jsonschema:"description=Directory where merged databases are written (default: XDG cache)"`
}

// Config represents the kiln.yml configuration. A per-workspace kiln.yml
// declares that root's build configurations; the global file under the XDG
// config directory contributes workspace patterns and shared settings.
type Config struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty" jsonschema:"description=Name of the workspace or workspace set"`
	Version string `json:"version,omitempty" yaml:"version" toml:"version" jsonschema:"description=Configuration version (e.g. 1.0)"`

	// Workspaces lists glob patterns naming workspace root directories.
	// The first root produced by expansion is the default root unless
	// DefaultRoot overrides it.
	Workspaces        []string `json:"workspaces,omitempty" yaml:"workspaces,omitempty" toml:"workspaces,omitempty" jsonschema:"description=Glob patterns for workspace root directories"`
	WorkspaceExcludes []string `json:"workspace_excludes,omitempty" yaml:"workspace_excludes,omitempty" toml:"workspace_excludes,omitempty" jsonschema:"description=Patterns excluding directories from workspace expansion"`
	DefaultRoot       string   `json:"default_root,omitempty" yaml:"default_root,omitempty" toml:"default_root,omitempty" jsonschema:"description=Explicit default workspace root (defaults to the first expanded root)"`

	// BuildConfigurations declares the build configurations of the
	// workspace this file belongs to. Incomplete entries are kept here
	// verbatim; filtering happens at query time.
	BuildConfigurations []*buildcfg.Configuration `json:"build_configurations,omitempty" yaml:"build_configurations,omitempty" toml:"build_configurations,omitempty" jsonschema:"description=Build configurations available in this workspace"`

	Settings Settings      `json:"settings,omitempty" yaml:"settings,omitempty" toml:"settings,omitempty" jsonschema:"description=General behavior switches"`
	TUI      *TUIConfig    `json:"tui,omitempty" yaml:"tui,omitempty" toml:"tui,omitempty" jsonschema:"description=TUI appearance settings"`
	Daemon   *DaemonConfig `json:"daemon,omitempty" yaml:"daemon,omitempty" toml:"daemon,omitempty" jsonschema:"description=Configuration for the kiln daemon (kilnd)"`
	Compdb   *CompdbConfig `json:"compdb,omitempty" yaml:"compdb,omitempty" toml:"compdb,omitempty" jsonschema:"description=Compilation-database merge settings"`

	// Extensions captures all other top-level keys for extensibility.
	// TOML files do not populate extensions.
	Extensions map[string]interface{} `json:"extensions,omitempty" yaml:",inline" toml:"-" jsonschema:"-"`
}

// UnmarshalYAML implements custom YAML unmarshaling to migrate legacy keys.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig struct {
		Name                string                    `yaml:"name,omitempty"`
		Version             string                    `yaml:"version"`
		Workspaces          []string                  `yaml:"workspaces,omitempty"`
		WorkspaceExcludes   []string                  `yaml:"workspace_excludes,omitempty"`
		DefaultRoot         string                    `yaml:"default_root,omitempty"`
		BuildConfigurations []*buildcfg.Configuration `yaml:"build_configurations,omitempty"`
		Settings            Settings                  `yaml:"settings,omitempty"`
		TUI                 *TUIConfig                `yaml:"tui,omitempty"`
		Daemon              *DaemonConfig             `yaml:"daemon,omitempty"`
		Compdb              *CompdbConfig             `yaml:"compdb,omitempty"`
		Extensions          map[string]interface{}    `yaml:",inline"`

		// --- Legacy fields ---
		BuildConfigs []*buildcfg.Configuration `yaml:"build_configs,omitempty"` // Old name for build_configurations
		Roots        []string                  `yaml:"roots,omitempty"`         // Old name for workspaces
	}

	var raw rawConfig
	if err := node.Decode(&raw); err != nil {
		return err
	}

	c.Name = raw.Name
	c.Version = raw.Version
	c.WorkspaceExcludes = raw.WorkspaceExcludes
	c.DefaultRoot = raw.DefaultRoot
	c.Settings = raw.Settings
	c.TUI = raw.TUI
	c.Daemon = raw.Daemon
	c.Compdb = raw.Compdb
	c.Extensions = raw.Extensions

	// `build_configs` was renamed to `build_configurations`
	if len(raw.BuildConfigurations) > 0 {
		c.BuildConfigurations = raw.BuildConfigurations
	} else {
		c.BuildConfigurations = raw.BuildConfigs
	}

	// `roots` was renamed to `workspaces`
	if len(raw.Workspaces) > 0 {
		c.Workspaces = raw.Workspaces
	} else {
		c.Workspaces = raw.Roots
	}

	return nil
}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.Daemon != nil && c.Daemon.ConfigDebounceMs <= 0 {
		c.Daemon.ConfigDebounceMs = 100
	}
}

// ConfigWatchEnabled reports whether the daemon should watch config files.
func (c *Config) ConfigWatchEnabled() bool {
	if c.Daemon == nil || c.Daemon.ConfigWatch == nil {
		return true
	}
	return *c.Daemon.ConfigWatch
}

// AutoInferenceEnabled reports whether build-tree inference is on.
func (c *Config) AutoInferenceEnabled() bool {
	if c.Settings.AutoInference == nil {
		return true
	}
	return *c.Settings.AutoInference
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded kiln.yml into the provided target struct. The target must be a
// pointer. This provides a type-safe way for extensions to access their
// custom configuration sections.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		// The target struct simply remains zero-valued.
		return nil
	}

	// Use mapstructure to decode the generic map[string]interface{} into
	// the strongly-typed target struct, matching on yaml tags.
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}

// ConfigSource identifies the origin of a configuration value.
type ConfigSource string

const (
	SourceDefault    ConfigSource = "default"
	SourceGlobal     ConfigSource = "global"
	SourceEnvOverlay ConfigSource = "env-overlay" // KILN_CONFIG_OVERLAY
	SourceProject    ConfigSource = "project"
	SourceOverride   ConfigSource = "override"
	SourceUnknown    ConfigSource = "unknown"
)

// OverrideSource holds a raw configuration from an override file and its path.
type OverrideSource struct {
	Path   string
	Config *Config
}

// LayeredConfig holds the raw configuration from each source file, as well
// as the final merged configuration, for analysis purposes.
type LayeredConfig struct {
	Default    *Config                 // Config with only default values applied.
	Global     *Config                 // Raw config from the global file.
	EnvOverlay *OverrideSource         // Raw config from KILN_CONFIG_OVERLAY.
	Project    *Config                 // Raw config from the workspace file.
	Overrides  []OverrideSource        // Raw configs from override files, in order of application.
	Final      *Config                 // The fully merged and validated config.
	FilePaths  map[ConfigSource]string // Maps sources to their file paths.
}
