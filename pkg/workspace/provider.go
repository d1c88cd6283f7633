// Package workspace resolves the set of workspace roots a kiln process
// serves, from configured glob patterns or from walk-up discovery.
package workspace

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/kilntools/kiln/config"
	"github.com/kilntools/kiln/util/pathutil"
)

// Provider acts as a read-only, in-memory snapshot of resolved workspace
// roots. It provides fast lookups and the default-root ordering the registry
// consumes.
//
// The caching strategy is explicit and consumer-controlled: the Provider
// resolves once at construction, and long-running services decide when the
// snapshot is stale by calling Reload with a freshly loaded configuration.
type Provider struct {
	startDir string
	logger   *logrus.Entry

	mu    sync.RWMutex
	roots []string
}

// NewProvider resolves workspace roots for the given configuration,
// anchored at startDir (usually the current working directory).
func NewProvider(cfg *config.Config, startDir string, logger *logrus.Entry) *Provider {
	p := &Provider{startDir: startDir, logger: logger}
	p.roots = discoverRoots(cfg, startDir, logger)
	return p
}

// Roots returns the resolved workspace roots as canonical lookup keys. The
// first element is the default root. The slice may be empty in environments
// with no workspace configuration at all.
func (p *Provider) Roots() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.roots))
	copy(out, p.roots)
	return out
}

// DefaultRoot returns the default workspace root, or "" when none resolve.
func (p *Provider) DefaultRoot() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.roots) == 0 {
		return ""
	}
	return p.roots[0]
}

// Reload re-resolves the root set from a freshly loaded configuration.
func (p *Provider) Reload(cfg *config.Config) {
	roots := discoverRoots(cfg, p.startDir, p.logger)
	p.mu.Lock()
	p.roots = roots
	p.mu.Unlock()
}

// ResolveRoot maps an arbitrary path to the workspace root containing it.
// An exact match wins; otherwise the most specific (longest) root whose
// directory contains the path is returned. The second result reports
// whether any root matched.
func (p *Provider) ResolveRoot(path string) (string, bool) {
	key, err := pathutil.NormalizeForLookup(path)
	if err != nil {
		return "", false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	var best string
	for _, root := range p.roots {
		if key == root {
			return root, true
		}
		if strings.HasPrefix(key, root+string(filepath.Separator)) && len(root) > len(best) {
			best = root
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// Contains reports whether root is part of the current snapshot.
func (p *Provider) Contains(root string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, r := range p.roots {
		if r == root {
			return true
		}
	}
	return false
}
