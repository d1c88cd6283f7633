package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kilntools/kiln/pkg/buildcfg"
)

// writeBuildTree creates build/<name> under root with the given marker file.
func writeBuildTree(t *testing.T, root, name, marker string) string {
	t.Helper()
	dir := filepath.Join(root, "build", name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, marker), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestInferBuildConfigurations(t *testing.T) {
	root := t.TempDir()

	debugDir := writeBuildTree(t, root, "Debug", "CMakeCache.txt")
	releaseDir := writeBuildTree(t, root, "Release", "build.ninja")

	// Not a build tree: no marker file
	if err := os.MkdirAll(filepath.Join(root, "build", "CMakeFiles"), 0755); err != nil {
		t.Fatal(err)
	}

	// Not a directory at all
	if err := os.WriteFile(filepath.Join(root, "build", "install_manifest.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{Version: "1.0"}
	cfg.InferBuildConfigurations(root)

	if len(cfg.BuildConfigurations) != 2 {
		t.Fatalf("Expected 2 inferred configurations, got %d: %v", len(cfg.BuildConfigurations), cfg.BuildConfigurations)
	}

	byName := map[string]*buildcfg.Configuration{}
	for _, bc := range cfg.BuildConfigurations {
		byName[bc.Name] = bc
	}

	if bc := byName["Debug"]; bc == nil || bc.Directory != debugDir {
		t.Errorf("Expected Debug configuration at %s, got %+v", debugDir, bc)
	}
	if bc := byName["Release"]; bc == nil || bc.Directory != releaseDir {
		t.Errorf("Expected Release configuration at %s, got %+v", releaseDir, bc)
	}

	// Inferred entries carry no commands
	for name, bc := range byName {
		if bc.Commands != nil {
			t.Errorf("Expected no commands on inferred configuration %s", name)
		}
	}
}

// Declared configurations suppress inference entirely.
func TestInferenceDoesNotOverrideDeclaredConfigurations(t *testing.T) {
	root := t.TempDir()
	writeBuildTree(t, root, "Debug", "CMakeCache.txt")

	declared := &buildcfg.Configuration{Name: "custom", Directory: "/elsewhere"}
	cfg := &Config{Version: "1.0", BuildConfigurations: []*buildcfg.Configuration{declared}}
	cfg.InferBuildConfigurations(root)

	if len(cfg.BuildConfigurations) != 1 || cfg.BuildConfigurations[0] != declared {
		t.Errorf("Expected declared configurations to survive untouched, got %v", cfg.BuildConfigurations)
	}
}

func TestInferenceWithoutBuildDirectory(t *testing.T) {
	cfg := &Config{Version: "1.0"}
	cfg.InferBuildConfigurations(t.TempDir())

	if len(cfg.BuildConfigurations) != 0 {
		t.Errorf("Expected no configurations, got %v", cfg.BuildConfigurations)
	}
}

func TestIsBuildTreeMarkers(t *testing.T) {
	tests := []struct {
		name   string
		marker string
		want   bool
	}{
		{"cmake cache", "CMakeCache.txt", true},
		{"compilation database", "compile_commands.json", true},
		{"ninja", "build.ninja", true},
		{"make", "Makefile", true},
		{"unrelated file", "notes.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, tt.marker), []byte("x"), 0644); err != nil {
				t.Fatal(err)
			}
			if got := isBuildTree(dir); got != tt.want {
				t.Errorf("isBuildTree with %s = %v, want %v", tt.marker, got, tt.want)
			}
		})
	}
}
