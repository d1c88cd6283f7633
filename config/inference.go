package config

import (
	"os"
	"path/filepath"

	"github.com/kilntools/kiln/pkg/buildcfg"
)

// buildTreeMarkers are the files whose presence identifies a directory as a
// generated build tree.
var buildTreeMarkers = []string{
	"CMakeCache.txt",
	"compile_commands.json",
	"build.ninja",
	"Makefile",
}

// InferBuildConfigurations scans <root>/build for per-configuration build
// trees and synthesizes configuration entries from them. It does nothing
// when the file already declares build configurations, so inference never
// overrides explicit declarations.
//
// A layout like
//
//	build/Debug/CMakeCache.txt
//	build/Release/CMakeCache.txt
//
// yields configurations named "Debug" and "Release" pointing at those
// directories, with no commands attached.
func (c *Config) InferBuildConfigurations(root string) {
	if len(c.BuildConfigurations) > 0 {
		return
	}

	buildDir := filepath.Join(root, "build")
	entries, err := os.ReadDir(buildDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(buildDir, entry.Name())
		if !isBuildTree(dir) {
			continue
		}
		c.BuildConfigurations = append(c.BuildConfigurations, &buildcfg.Configuration{
			Name:      entry.Name(),
			Directory: dir,
		})
	}
}

// isBuildTree reports whether dir looks like a generated build tree.
func isBuildTree(dir string) bool {
	for _, marker := range buildTreeMarkers {
		if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}
