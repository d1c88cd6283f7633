package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestHierarchicalMerging tests the three-level configuration merge:
// global -> project -> override
func TestHierarchicalMerging(t *testing.T) {
	tmpDir := t.TempDir()

	// Create a fake home directory for the global config
	fakeHome := filepath.Join(tmpDir, "home")
	fakeConfigDir := filepath.Join(fakeHome, ".config", "kiln")
	if err := os.MkdirAll(fakeConfigDir, 0755); err != nil {
		t.Fatal(err)
	}

	t.Setenv("HOME", fakeHome)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("KILN_CONFIG_OVERLAY", "")

	// Global config contributes workspace patterns and a theme
	globalConfig := `
version: "1.0"
workspaces:
  - ~/work/*
default_root: /ws/app
tui:
  theme: ember
  icons: nerd
`
	if err := os.WriteFile(filepath.Join(fakeConfigDir, "kiln.yml"), []byte(globalConfig), 0644); err != nil {
		t.Fatal(err)
	}

	// Workspace config declares build configurations and overrides the theme
	projectDir := filepath.Join(tmpDir, "project")
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		t.Fatal(err)
	}

	projectConfig := `
version: "1.0"
name: app
build_configurations:
  - name: debug
    directory: /ws/app/build/debug
tui:
  theme: terminal
`
	if err := os.WriteFile(filepath.Join(projectDir, "kiln.yml"), []byte(projectConfig), 0644); err != nil {
		t.Fatal(err)
	}

	// Local override replaces the default root
	overrideConfig := `
default_root: /ws/lib
`
	if err := os.WriteFile(filepath.Join(projectDir, "kiln.override.yml"), []byte(overrideConfig), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(projectDir)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	// From the global layer
	if len(cfg.Workspaces) != 1 || cfg.Workspaces[0] != "~/work/*" {
		t.Errorf("Expected workspaces from global config, got %v", cfg.Workspaces)
	}
	if cfg.TUI == nil || cfg.TUI.Icons != "nerd" {
		t.Errorf("Expected icons from global config, got %+v", cfg.TUI)
	}

	// Project layer overrides global
	if cfg.Name != "app" {
		t.Errorf("Expected name 'app', got '%s'", cfg.Name)
	}
	if cfg.TUI.Theme != "terminal" {
		t.Errorf("Expected project theme to win, got '%s'", cfg.TUI.Theme)
	}
	if len(cfg.BuildConfigurations) != 1 || cfg.BuildConfigurations[0].Name != "debug" {
		t.Errorf("Expected build configurations from project config, got %v", cfg.BuildConfigurations)
	}

	// Override layer wins over everything
	if cfg.DefaultRoot != "/ws/lib" {
		t.Errorf("Expected override default_root '/ws/lib', got '%s'", cfg.DefaultRoot)
	}
}

// TestEnvOverlayLayer verifies that KILN_CONFIG_OVERLAY sits between the
// global and workspace layers.
func TestEnvOverlayLayer(t *testing.T) {
	tmpDir := t.TempDir()

	fakeHome := filepath.Join(tmpDir, "home")
	if err := os.MkdirAll(fakeHome, 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOME", fakeHome)
	t.Setenv("XDG_CONFIG_HOME", "")

	overlayPath := filepath.Join(tmpDir, "overlay.yml")
	overlayConfig := `
default_root: /ws/overlay
tui:
  theme: terminal
`
	if err := os.WriteFile(overlayPath, []byte(overlayConfig), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KILN_CONFIG_OVERLAY", overlayPath)

	projectDir := filepath.Join(tmpDir, "project")
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		t.Fatal(err)
	}
	projectConfig := `
version: "1.0"
tui:
  theme: ember
`
	if err := os.WriteFile(filepath.Join(projectDir, "kiln.yml"), []byte(projectConfig), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(projectDir)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	// Overlay contributes values the workspace config does not set
	if cfg.DefaultRoot != "/ws/overlay" {
		t.Errorf("Expected overlay default_root, got '%s'", cfg.DefaultRoot)
	}

	// Workspace config still wins over the overlay
	if cfg.TUI == nil || cfg.TUI.Theme != "ember" {
		t.Errorf("Expected workspace theme to win over overlay, got %+v", cfg.TUI)
	}
}

func TestMergeConfigs(t *testing.T) {
	boolPtr := func(b bool) *bool { return &b }

	base := &Config{
		Version:     "1.0",
		DefaultRoot: "/ws/app",
		Settings:    Settings{AutoInference: boolPtr(true)},
		Daemon:      &DaemonConfig{ConfigDebounceMs: 100},
		Extensions: map[string]interface{}{
			"logging": map[string]interface{}{
				"level":  "info",
				"format": map[string]interface{}{"preset": "default"},
			},
		},
	}

	override := &Config{
		DefaultRoot: "/ws/lib",
		Settings:    Settings{AutoInference: boolPtr(false)},
		Daemon:      &DaemonConfig{SocketPath: "/tmp/kilnd.sock"},
		Extensions: map[string]interface{}{
			"logging": map[string]interface{}{
				"level": "debug",
			},
		},
	}

	merged := mergeConfigs(base, override)

	if merged.Version != "1.0" {
		t.Errorf("Expected base version to survive, got '%s'", merged.Version)
	}
	if merged.DefaultRoot != "/ws/lib" {
		t.Errorf("Expected override default_root, got '%s'", merged.DefaultRoot)
	}
	if merged.Settings.AutoInference == nil || *merged.Settings.AutoInference {
		t.Error("Expected override auto_inference=false to win")
	}

	// Daemon fields merge rather than replace wholesale
	if merged.Daemon.ConfigDebounceMs != 100 {
		t.Errorf("Expected base debounce to survive, got %d", merged.Daemon.ConfigDebounceMs)
	}
	if merged.Daemon.SocketPath != "/tmp/kilnd.sock" {
		t.Errorf("Expected override socket path, got '%s'", merged.Daemon.SocketPath)
	}

	// Extension maps merge one level deep
	loggingExt, ok := merged.Extensions["logging"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected logging extension map, got %T", merged.Extensions["logging"])
	}
	if loggingExt["level"] != "debug" {
		t.Errorf("Expected override level 'debug', got %v", loggingExt["level"])
	}
	if _, ok := loggingExt["format"]; !ok {
		t.Error("Expected base 'format' key to survive the merge")
	}
}

func TestMergeConfigsDoesNotMutateBase(t *testing.T) {
	base := &Config{DefaultRoot: "/ws/app"}
	override := &Config{DefaultRoot: "/ws/lib"}

	_ = mergeConfigs(base, override)

	if base.DefaultRoot != "/ws/app" {
		t.Errorf("Base config mutated: %s", base.DefaultRoot)
	}
}
