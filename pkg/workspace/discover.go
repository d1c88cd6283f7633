package workspace

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/patternmatcher"
	"github.com/sirupsen/logrus"

	"github.com/kilntools/kiln/config"
	"github.com/kilntools/kiln/util/pathutil"
)

// expandPattern expands ~ and environment variables in a workspace pattern
// and anchors relative patterns at baseDir.
func expandPattern(pattern, baseDir string) string {
	p := os.ExpandEnv(pattern)
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(baseDir, p)
	}
	return p
}

// discoverRoots computes the ordered workspace root set for a configuration.
// Roots come from the `workspaces:` glob patterns when declared, anchored at
// the primary root (the nearest ancestor of startDir carrying a kiln config
// file); without patterns the primary root is the only root. The result
// holds canonical lookup keys with the default root first, and may be empty.
func discoverRoots(cfg *config.Config, startDir string, logger *logrus.Entry) []string {
	primary := ""
	if dir, err := config.FindWorkspaceRoot(startDir); err == nil {
		primary = dir
	}

	var candidates []string
	if len(cfg.Workspaces) == 0 {
		if primary != "" {
			candidates = append(candidates, primary)
		}
	} else {
		base := primary
		if base == "" {
			base = startDir
		}
		for _, pattern := range cfg.Workspaces {
			expanded := expandPattern(pattern, base)
			matches, err := filepath.Glob(expanded)
			if err != nil {
				logger.WithError(err).Warnf("Skipping malformed workspace pattern %q", pattern)
				continue
			}
			for _, match := range matches {
				if info, err := os.Stat(match); err == nil && info.IsDir() {
					candidates = append(candidates, match)
				}
			}
		}
	}

	candidates = applyExcludes(candidates, cfg.WorkspaceExcludes, logger)

	// Canonicalize and deduplicate, preserving expansion order.
	seen := make(map[string]bool, len(candidates))
	roots := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		key, err := pathutil.NormalizeForLookup(candidate)
		if err != nil {
			logger.WithError(err).Warnf("Skipping workspace root %q", candidate)
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		roots = append(roots, key)
	}

	if cfg.DefaultRoot != "" {
		if def := resolveDefaultRoot(cfg.DefaultRoot, logger); def != "" {
			roots = promoteDefault(roots, def)
		}
	}

	return roots
}

// applyExcludes drops candidates matched by the workspace_excludes patterns.
// Patterns are matched against both the root's base name and its full
// slash-separated path, so name patterns ("scratch-*") and path patterns
// ("home/*/archive") both apply.
func applyExcludes(candidates, patterns []string, logger *logrus.Entry) []string {
	if len(patterns) == 0 || len(candidates) == 0 {
		return candidates
	}

	pm, err := patternmatcher.New(patterns)
	if err != nil {
		logger.WithError(err).Warn("Ignoring malformed workspace_excludes patterns")
		return candidates
	}

	kept := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if isExcluded(pm, candidate) {
			continue
		}
		kept = append(kept, candidate)
	}
	return kept
}

func isExcluded(pm *patternmatcher.PatternMatcher, root string) bool {
	if ok, err := pm.MatchesOrParentMatches(filepath.Base(root)); err == nil && ok {
		return true
	}
	rel := strings.TrimPrefix(filepath.ToSlash(root), "/")
	if ok, err := pm.MatchesOrParentMatches(rel); err == nil && ok {
		return true
	}
	return false
}

// resolveDefaultRoot turns the configured default_root into a lookup key.
// A default that does not exist on disk is ignored rather than fabricated.
func resolveDefaultRoot(defaultRoot string, logger *logrus.Entry) string {
	expanded, err := pathutil.Expand(defaultRoot)
	if err != nil {
		logger.WithError(err).Warnf("Ignoring default_root %q", defaultRoot)
		return ""
	}
	if info, err := os.Stat(expanded); err != nil || !info.IsDir() {
		logger.Warnf("Ignoring default_root %q: not a directory", defaultRoot)
		return ""
	}
	key, err := pathutil.NormalizeForLookup(expanded)
	if err != nil {
		return ""
	}
	return key
}

// promoteDefault moves def to the front of roots, inserting it when the
// exclusion filter or patterns did not produce it.
func promoteDefault(roots []string, def string) []string {
	for i, root := range roots {
		if root != def {
			continue
		}
		if i == 0 {
			return roots
		}
		out := make([]string, 0, len(roots))
		out = append(out, def)
		out = append(out, roots[:i]...)
		out = append(out, roots[i+1:]...)
		return out
	}
	return append([]string{def}, roots...)
}
