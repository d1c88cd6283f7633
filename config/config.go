package config

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kilntools/kiln/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// configFileNames lists the recognized workspace config file names, in
// precedence order.
var configFileNames = []string{
	"kiln.yml",
	"kiln.yaml",
	"kiln.toml",
	".kiln.yml",
	".kiln.yaml",
}

// Load reads and parses a kiln configuration file. The format is chosen by
// file extension: .toml parses as TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	if isTOML(path) {
		cfg, err := parseConfig(data, true)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration").
				WithDetail("path", path)
		}
		return finalize(cfg)
	}

	return LoadFromBytes(data)
}

// LoadDefault finds and loads the configuration with hierarchical merging:
// 1. Global config (~/.config/kiln/kiln.yml)  - base layer
// 2. Workspace config (kiln.yml)              - overrides global
// 3. Local override (kiln.override.yml)       - overrides all
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}

	return LoadFrom(cwd)
}

// LoadFrom loads configuration with hierarchical merging starting from the
// given directory.
func LoadFrom(startDir string) (*Config, error) {
	return LoadFromWithLogger(startDir, logrus.New())
}

// LoadFromWithLogger loads configuration with hierarchical merging and logging.
func LoadFromWithLogger(startDir string, logger *logrus.Logger) (*Config, error) {
	// Find the workspace config file first (it's required)
	projectPath, err := FindConfigFile(startDir)
	if err != nil {
		return nil, err
	}

	logger.WithField("path", projectPath).Debug("Loading workspace configuration")

	var finalConfig *Config

	// 1. Load global config if it exists (optional)
	globalPath := getXDGConfigPath()
	if globalPath != "" {
		if _, err := os.Stat(globalPath); err == nil {
			logger.WithField("path", globalPath).Debug("Loading global configuration")
			if globalConfig, err := loadRaw(globalPath); err == nil {
				finalConfig = globalConfig
			} else {
				logger.WithError(err).Warn("Failed to parse global configuration, continuing without it")
			}
		}
	}

	// 2. Apply the KILN_CONFIG_OVERLAY file when set (optional)
	if overlayPath := os.Getenv("KILN_CONFIG_OVERLAY"); overlayPath != "" {
		logger.WithField("path", overlayPath).Debug("Loading overlay configuration")
		if overlayConfig, err := loadRaw(overlayPath); err == nil {
			if finalConfig == nil {
				finalConfig = overlayConfig
			} else {
				finalConfig = mergeConfigs(finalConfig, overlayConfig)
			}
		} else {
			logger.WithError(err).Warn("Failed to load overlay configuration, continuing without it")
		}
	}

	// 3. Load and merge the workspace config (required)
	projectConfig, err := loadRaw(projectPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse workspace config").
			WithDetail("path", projectPath)
	}

	if finalConfig == nil {
		finalConfig = projectConfig
	} else {
		logger.Debug("Merging workspace configuration over global configuration")
		finalConfig = mergeConfigs(finalConfig, projectConfig)
	}

	// 4. Load and merge override files if they exist (optional)
	projectDir := filepath.Dir(projectPath)
	for _, overridePath := range overrideFilePaths(projectDir) {
		if _, err := os.Stat(overridePath); err == nil {
			logger.WithField("path", overridePath).Debug("Loading local override configuration")

			overrideConfig, err := loadRaw(overridePath)
			if err != nil {
				logger.WithError(err).Warn("Failed to parse override file, skipping")
				continue
			}

			finalConfig = mergeConfigs(finalConfig, overrideConfig)
		}
	}

	// Set defaults and validate
	finalConfig.SetDefaults()

	// Apply build-tree inference (enabled by default)
	if finalConfig.AutoInferenceEnabled() {
		finalConfig.InferBuildConfigurations(projectDir)
	}

	if err := finalConfig.Validate(); err != nil {
		return nil, err
	}

	if err := finalConfig.ValidateSemantics(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "semantic validation failed")
	}

	logger.Debug("Configuration loaded and validated successfully")

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		configData, err := yaml.Marshal(finalConfig)
		if err == nil {
			logger.Debugf("Merged configuration:\n%s", string(configData))
		}
	}

	return finalConfig, nil
}

// LoadEffective loads configuration the way LoadFrom does, but tolerates
// environments without a workspace config file: the global and overlay
// layers still apply, over plain defaults when neither exists. Commands
// that must work outside any workspace load through this.
func LoadEffective(startDir string) (*Config, error) {
	cfg, err := LoadFrom(startDir)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, errors.ErrCodeConfigNotFound) {
		return nil, err
	}

	merged := &Config{}
	if globalPath := getXDGConfigPath(); globalPath != "" {
		if _, statErr := os.Stat(globalPath); statErr == nil {
			if globalConfig, loadErr := loadRaw(globalPath); loadErr == nil {
				merged = globalConfig
			}
		}
	}
	if overlayPath := os.Getenv("KILN_CONFIG_OVERLAY"); overlayPath != "" {
		if overlayConfig, loadErr := loadRaw(overlayPath); loadErr == nil {
			merged = mergeConfigs(merged, overlayConfig)
		}
	}

	merged.SetDefaults()
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	if err := merged.ValidateSemantics(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "semantic validation failed")
	}
	return merged, nil
}

// LoadFromBytes parses YAML configuration from a byte slice, validating it
// against the embedded schema.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg, err := parseConfig(data, false)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
	}

	// Validate against schema
	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to create validator")
	}

	if err := validator.Validate(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "schema validation failed")
	}

	return finalize(cfg)
}

// finalize applies defaults and both validation passes.
func finalize(cfg *Config) (*Config, error) {
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.ValidateSemantics(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "semantic validation failed")
	}

	return cfg, nil
}

// parseConfig decodes raw file content after env-var expansion.
func parseConfig(data []byte, asTOML bool) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	if asTOML {
		if err := toml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, err
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// loadRaw reads a single config file without validation or defaults.
func loadRaw(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseConfig(data, isTOML(path))
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// overrideFileNames lists the recognized local override file names, in
// order of application.
var overrideFileNames = []string{
	"kiln.override.yml",
	"kiln.override.yaml",
	".kiln.override.yml",
	".kiln.override.yaml",
}

// overrideFilePaths returns the candidate override files for a directory,
// in order of application.
func overrideFilePaths(dir string) []string {
	paths := make([]string, len(overrideFileNames))
	for i, name := range overrideFileNames {
		paths[i] = filepath.Join(dir, name)
	}
	return paths
}

// findConfigIn checks a single directory for a workspace config file,
// without walking up.
func findConfigIn(dir string) (string, bool) {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// FindConfigFile searches for kiln configuration files with the following
// precedence:
// 1. Current directory up to filesystem root
// 2. Git repository root (if in a git repo)
// 3. XDG config directory (~/.config/kiln/kiln.yml)
func FindConfigFile(startDir string) (string, error) {
	// 1. Search from current directory up to filesystem root
	dir := startDir
	for {
		if path, ok := findConfigIn(dir); ok {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	// 2. Check git repository root if we're in a git repo
	if gitRoot, err := getGitRoot(startDir); err == nil && gitRoot != "" {
		if path, ok := findConfigIn(gitRoot); ok {
			return path, nil
		}
	}

	// 3. Check XDG config directory
	if xdgConfigPath := getXDGConfigPath(); xdgConfigPath != "" {
		if info, err := os.Stat(xdgConfigPath); err == nil && !info.IsDir() {
			return xdgConfigPath, nil
		}
	}

	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

// FindWorkspaceRoot walks up from startDir to the nearest directory that
// contains a workspace config file and returns that directory. Unlike
// FindConfigFile it never falls back to the global XDG file, because the
// global config directory is not a workspace.
func FindWorkspaceRoot(startDir string) (string, error) {
	dir := startDir
	for {
		if _, ok := findConfigIn(dir); ok {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.RootNotFound(startDir)
		}
		dir = parent
	}
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// Handle default values: ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

// getGitRoot attempts to find the git repository root
func getGitRoot(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// getXDGConfigPath returns the XDG config path for kiln
func getXDGConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "kiln", "kiln.yml")
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", "kiln", "kiln.yml")
	}

	return ""
}

// LoadLayered finds and loads all configuration layers (global, overlay,
// workspace, overrides) without merging them, for analysis purposes. It
// also computes the final merged config.
func LoadLayered(startDir string) (*LayeredConfig, error) {
	layeredConfig := &LayeredConfig{
		Overrides: make([]OverrideSource, 0),
		FilePaths: make(map[ConfigSource]string),
	}

	// 1. Determine Default layer
	defaultCfg := &Config{}
	defaultCfg.SetDefaults()
	layeredConfig.Default = defaultCfg

	// 2. Load Global layer (optional)
	globalPath := getXDGConfigPath()
	if globalPath != "" {
		if _, err := os.Stat(globalPath); err == nil {
			if globalConfig, err := loadRaw(globalPath); err == nil {
				layeredConfig.Global = globalConfig
				layeredConfig.FilePaths[SourceGlobal] = globalPath
			}
		}
	}

	// 3. Load overlay layer from KILN_CONFIG_OVERLAY (optional)
	if overlayPath := os.Getenv("KILN_CONFIG_OVERLAY"); overlayPath != "" {
		if overlayConfig, err := loadRaw(overlayPath); err == nil {
			layeredConfig.EnvOverlay = &OverrideSource{Path: overlayPath, Config: overlayConfig}
			layeredConfig.FilePaths[SourceEnvOverlay] = overlayPath
		}
	}

	// 4. Load workspace layer (required)
	projectPath, err := FindConfigFile(startDir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to find workspace config file")
	}
	projectConfig, err := loadRaw(projectPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse workspace config").WithDetail("path", projectPath)
	}
	layeredConfig.Project = projectConfig
	layeredConfig.FilePaths[SourceProject] = projectPath

	// 5. Load override layers (optional)
	projectDir := filepath.Dir(projectPath)
	for _, overridePath := range overrideFilePaths(projectDir) {
		if _, err := os.Stat(overridePath); err == nil {
			overrideConfig, err := loadRaw(overridePath)
			if err != nil {
				continue // Skip unreadable override files
			}
			layeredConfig.Overrides = append(layeredConfig.Overrides, OverrideSource{
				Path:   overridePath,
				Config: overrideConfig,
			})
		}
	}

	// 6. Compute the final merged config
	finalConfig := &Config{}

	if layeredConfig.Global != nil {
		finalConfig = layeredConfig.Global
	}
	if layeredConfig.EnvOverlay != nil {
		finalConfig = mergeConfigs(finalConfig, layeredConfig.EnvOverlay.Config)
	}
	if layeredConfig.Project != nil {
		finalConfig = mergeConfigs(finalConfig, layeredConfig.Project)
	}
	for _, override := range layeredConfig.Overrides {
		finalConfig = mergeConfigs(finalConfig, override.Config)
	}

	finalConfig.SetDefaults()
	if finalConfig.AutoInferenceEnabled() {
		finalConfig.InferBuildConfigurations(projectDir)
	}
	if err := finalConfig.Validate(); err != nil {
		return nil, err
	}
	if err := finalConfig.ValidateSemantics(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "semantic validation failed")
	}

	layeredConfig.Final = finalConfig

	return layeredConfig, nil
}
