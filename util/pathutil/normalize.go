package pathutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizeForLookup creates a canonical, case-normalized path suitable for
// use as a registry key or in comparisons. It performs the following steps:
// 1. Makes the path absolute.
// 2. Evaluates any symbolic links.
// 3. On case-insensitive OSes (macOS, Windows), converts the path to lowercase.
//
// Workspace roots are keyed by the result, so the same directory reached
// through different spellings maps to one registry entry.
func NormalizeForLookup(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	canonicalPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		// If symlink evaluation fails (e.g., path doesn't exist yet),
		// fall back to the absolute path.
		canonicalPath = absPath
	}

	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		return strings.ToLower(canonicalPath), nil
	}

	return canonicalPath, nil
}

// ComparePaths checks if two paths refer to the same location, respecting OS
// case sensitivity.
func ComparePaths(path1, path2 string) (bool, error) {
	norm1, err := NormalizeForLookup(path1)
	if err != nil {
		return false, err
	}
	norm2, err := NormalizeForLookup(path2)
	if err != nil {
		return false, err
	}
	return norm1 == norm2, nil
}

// CanonicalPath returns the absolute path with correct filesystem case.
// Unlike NormalizeForLookup, this preserves the actual case from the
// filesystem, which matters when the path is handed to external tools.
//
// filepath.EvalSymlinks does NOT canonicalize case on macOS, so each path
// component is looked up against the directory listing to recover the case
// the filesystem stores.
func CanonicalPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		resolved = absPath
	}

	// Case is already trustworthy on case-sensitive filesystems.
	if runtime.GOOS != "darwin" && runtime.GOOS != "windows" {
		return resolved, nil
	}

	if resolved == "/" {
		return "/", nil
	}

	var parts []string
	isAbsolute := strings.HasPrefix(resolved, "/")
	for _, p := range strings.Split(resolved, string(filepath.Separator)) {
		if p != "" {
			parts = append(parts, p)
		}
	}

	var result string
	if isAbsolute {
		result = "/"
	}

	for _, part := range parts {
		entries, err := os.ReadDir(result)
		if err != nil {
			result = filepath.Join(result, part)
			continue
		}

		found := false
		for _, entry := range entries {
			if strings.EqualFold(entry.Name(), part) {
				result = filepath.Join(result, entry.Name())
				found = true
				break
			}
		}

		if !found {
			result = filepath.Join(result, part)
		}
	}

	return result, nil
}
