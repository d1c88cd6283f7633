package config

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/kilntools/kiln/pkg/buildcfg"
)

// RootLister enumerates the workspace roots whose configurations a Source
// serves. The workspace Provider satisfies it.
type RootLister interface {
	Roots() []string
}

// rootEntry caches one root's loaded configuration list. stale entries are
// reloaded on the next query but keep serving their last value if the
// reload fails, so a half-written config file cannot wipe a root's list.
type rootEntry struct {
	configs []*buildcfg.Configuration
	stale   bool
}

// Source serves per-root build-configuration lists from each root's kiln
// config, layered the same way the CLI loads it (global, overlay, workspace
// file, overrides) and including inferred build trees. Results are cached
// per root until Invalidate marks them stale.
type Source struct {
	roots  RootLister
	logger *logrus.Entry

	mu    sync.Mutex
	cache map[string]*rootEntry

	changes chan struct{}
	ready   chan struct{}
	once    sync.Once
}

// NewSource creates a Source over the given roots. The logger is injected
// because this package sits below the logging package.
func NewSource(roots RootLister, logger *logrus.Entry) *Source {
	return &Source{
		roots:   roots,
		logger:  logger,
		cache:   make(map[string]*rootEntry),
		changes: make(chan struct{}, 1),
		ready:   make(chan struct{}),
	}
}

// Configurations returns root's current build-configuration list, loading
// it on first access and after invalidation. The returned slice is shared;
// callers must not modify it. Roots whose configuration cannot be loaded
// serve their last known list, or an empty one when never loaded.
func (s *Source) Configurations(root string) []*buildcfg.Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configurationsLocked(root)
}

func (s *Source) configurationsLocked(root string) []*buildcfg.Configuration {
	if entry, ok := s.cache[root]; ok && !entry.stale {
		return entry.configs
	}

	configs, err := s.loadRoot(root)
	if err != nil {
		s.logger.WithError(err).WithField("root", root).Warn("Failed to load root configuration")
		if entry, ok := s.cache[root]; ok {
			// Keep the previous list and retry on the next query.
			return entry.configs
		}
		s.cache[root] = &rootEntry{configs: []*buildcfg.Configuration{}, stale: true}
		return s.cache[root].configs
	}

	s.cache[root] = &rootEntry{configs: configs}
	return configs
}

// loadRoot builds the effective configuration for one root. Roots carrying
// their own config file get the full layered load anchored there; roots
// registered purely by workspace pattern still see the global and overlay
// layers plus build-tree inference under the root itself.
func (s *Source) loadRoot(root string) ([]*buildcfg.Configuration, error) {
	if _, ok := findConfigIn(root); ok {
		cfg, err := LoadFromWithLogger(root, s.logger.Logger)
		if err != nil {
			return nil, err
		}
		return cfg.BuildConfigurations, nil
	}

	cfg := &Config{}
	if globalPath := getXDGConfigPath(); globalPath != "" {
		if globalConfig, err := loadRaw(globalPath); err == nil {
			cfg = globalConfig
		}
	}
	if overlayPath := os.Getenv("KILN_CONFIG_OVERLAY"); overlayPath != "" {
		if overlayConfig, err := loadRaw(overlayPath); err == nil {
			cfg = mergeConfigs(cfg, overlayConfig)
		}
	}

	cfg.SetDefaults()
	if cfg.AutoInferenceEnabled() {
		cfg.InferBuildConfigurations(root)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ValidateSemantics(); err != nil {
		return nil, err
	}
	return cfg.BuildConfigurations, nil
}

// Invalidate marks one root's cache entry stale and signals Changes.
func (s *Source) Invalidate(root string) {
	s.mu.Lock()
	if entry, ok := s.cache[root]; ok {
		entry.stale = true
	}
	s.mu.Unlock()
	s.signal()
}

// InvalidateAll marks every cached entry stale and signals Changes.
func (s *Source) InvalidateAll() {
	s.mu.Lock()
	for _, entry := range s.cache {
		entry.stale = true
	}
	s.mu.Unlock()
	s.signal()
}

// signal notifies Changes without blocking. Pending signals coalesce;
// consumers re-read current state per signal, so collapsed bursts lose
// nothing.
func (s *Source) signal() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Changes returns the change-signal stream. One signal may cover several
// invalidations.
func (s *Source) Changes() <-chan struct{} {
	return s.changes
}

// Ready returns a channel closed once Warm has loaded every root.
func (s *Source) Ready() <-chan struct{} {
	return s.ready
}

// Warm loads the configuration of every current root and marks the Source
// ready. Callers run it once at startup, before or alongside consumers
// that block on Ready.
func (s *Source) Warm() {
	s.mu.Lock()
	for _, root := range s.roots.Roots() {
		s.configurationsLocked(root)
	}
	s.mu.Unlock()

	s.once.Do(func() { close(s.ready) })
}
