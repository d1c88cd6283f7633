package config

import (
	"path/filepath"
)

// LoadWithOverrides loads configuration from a specific file plus any
// override files sitting next to it.
func LoadWithOverrides(baseFile string) (*Config, error) {
	config, err := Load(baseFile)
	if err != nil {
		return nil, err
	}

	for _, overrideFile := range overrideFilePaths(filepath.Dir(baseFile)) {
		override, err := loadRaw(overrideFile)
		if err != nil {
			continue
		}
		config = mergeConfigs(config, override)
	}

	return config, nil
}

// mergeConfigs merges override configuration into base. Scalars and slices
// replace when set in the override; extension maps merge one level deep.
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Name != "" {
		result.Name = override.Name
	}
	if override.Version != "" {
		result.Version = override.Version
	}
	if len(override.Workspaces) > 0 {
		result.Workspaces = override.Workspaces
	}
	if len(override.WorkspaceExcludes) > 0 {
		result.WorkspaceExcludes = override.WorkspaceExcludes
	}
	if override.DefaultRoot != "" {
		result.DefaultRoot = override.DefaultRoot
	}
	if len(override.BuildConfigurations) > 0 {
		result.BuildConfigurations = override.BuildConfigurations
	}
	if override.Settings.AutoInference != nil {
		result.Settings.AutoInference = override.Settings.AutoInference
	}

	result.TUI = mergeTUI(result.TUI, override.TUI)
	result.Daemon = mergeDaemon(result.Daemon, override.Daemon)
	result.Compdb = mergeCompdb(result.Compdb, override.Compdb)

	// Merge extensions
	if override.Extensions != nil {
		if result.Extensions == nil {
			result.Extensions = make(map[string]interface{})
		}
		for key, value := range override.Extensions {
			// If both base and override carry the same extension key as a
			// map, merge the maps; otherwise the override wins outright.
			if baseValue, exists := result.Extensions[key]; exists {
				if baseMap, baseOk := baseValue.(map[string]interface{}); baseOk {
					if overrideMap, overrideOk := value.(map[string]interface{}); overrideOk {
						mergedMap := make(map[string]interface{})
						for k, v := range baseMap {
							mergedMap[k] = v
						}
						for k, v := range overrideMap {
							mergedMap[k] = v
						}
						result.Extensions[key] = mergedMap
						continue
					}
				}
			}
			result.Extensions[key] = value
		}
	}

	return &result
}

func mergeTUI(base, override *TUIConfig) *TUIConfig {
	if override == nil {
		return base
	}
	if base == nil {
		cp := *override
		return &cp
	}
	result := *base
	if override.Icons != "" {
		result.Icons = override.Icons
	}
	if override.Theme != "" {
		result.Theme = override.Theme
	}
	return &result
}

func mergeDaemon(base, override *DaemonConfig) *DaemonConfig {
	if override == nil {
		return base
	}
	if base == nil {
		cp := *override
		return &cp
	}
	result := *base
	if override.ConfigWatch != nil {
		result.ConfigWatch = override.ConfigWatch
	}
	if override.ConfigDebounceMs > 0 {
		result.ConfigDebounceMs = override.ConfigDebounceMs
	}
	if override.SocketPath != "" {
		result.SocketPath = override.SocketPath
	}
	return &result
}

func mergeCompdb(base, override *CompdbConfig) *CompdbConfig {
	if override == nil {
		return base
	}
	if base == nil {
		cp := *override
		return &cp
	}
	result := *base
	if override.Endpoint != "" {
		result.Endpoint = override.Endpoint
	}
	if override.OutputDir != "" {
		result.OutputDir = override.OutputDir
	}
	return &result
}
