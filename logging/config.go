package logging

//go:generate sh -c "cd .. && go run ./tools/logging-schema-generator/"

// Config is the `logging:` extension section of kiln.yml. Every field has
// an environment-variable override so log behavior can be changed without
// touching config files; the env var always wins.
type Config struct {
	// Level is the minimum level emitted: debug, info, warn, or error.
	// Overridden by KILN_LOG_LEVEL.
	Level string `yaml:"level"`

	// ReportCaller adds file, line, and function to each entry.
	// Overridden by KILN_LOG_CALLER=true. Expensive; intended for
	// debugging kiln itself.
	ReportCaller bool `yaml:"report_caller"`

	// File routes entries to a per-component log file.
	File FileSinkConfig `yaml:"file"`

	// Format shapes the rendered output.
	Format FormatConfig `yaml:"format"`
}

// FileSinkConfig configures the file sink. When Path is empty the file
// lands under the workspace's .kiln/logs directory, named after the
// component.
type FileSinkConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Format  string `yaml:"format,omitempty"` // text (default) or json
}

// FormatConfig controls entry rendering.
type FormatConfig struct {
	// Preset selects a renderer: default (rich text), simple (bare
	// text), or json.
	Preset string `yaml:"preset"`

	// DisableTimestamp and DisableComponent trim those columns from the
	// text presets.
	DisableTimestamp bool `yaml:"disable_timestamp"`
	DisableComponent bool `yaml:"disable_component"`

	// StructuredToStderr picks when structured entries also reach
	// stderr: auto (only on a TTY), always, or never.
	StructuredToStderr string `yaml:"structured_to_stderr"`
}
