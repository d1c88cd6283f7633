package daemon

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/kilntools/kiln/config"
	"github.com/kilntools/kiln/errors"
	"github.com/kilntools/kiln/pkg/buildcfg"
	"github.com/kilntools/kiln/pkg/paths"
	"github.com/kilntools/kiln/pkg/registry"
	"github.com/kilntools/kiln/pkg/workspace"
	"github.com/kilntools/kiln/state"
)

// LocalClient implements Client by loading configurations and the persisted
// selection snapshot directly. It is used when the daemon is not running,
// providing the same API but executing all operations in-process.
type LocalClient struct {
	cfg      *config.Config
	provider *workspace.Provider
	source   *config.Source
	store    *state.Store
	logger   *logrus.Entry
}

// NewLocalClient creates a LocalClient anchored at the current working
// directory.
func NewLocalClient() (*LocalClient, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return NewLocalClientAt(cwd)
}

// NewLocalClientAt creates a LocalClient anchored at startDir. Workspace
// roots, configurations, and the selection snapshot all resolve relative to
// that directory, the same way the daemon resolves them.
func NewLocalClientAt(startDir string) (*LocalClient, error) {
	// One-shot CLI calls stay quiet; the daemon is where verbose
	// component logging lives.
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	entry := logrus.NewEntry(logger)

	cfg, err := config.LoadEffective(startDir)
	if err != nil {
		return nil, err
	}

	provider := workspace.NewProvider(cfg, startDir, entry)
	return &LocalClient{
		cfg:      cfg,
		provider: provider,
		source:   config.NewSource(provider, entry),
		store:    state.New(SnapshotDir(provider.DefaultRoot())),
		logger:   entry,
	}, nil
}

// SnapshotDir returns the directory whose .kiln/state.yml holds the
// registry snapshot: the default workspace root when one resolves, the XDG
// data directory otherwise. The daemon anchors its store the same way, so
// local and remote mode read and write the same file.
func SnapshotDir(defaultRoot string) string {
	if defaultRoot != "" {
		return defaultRoot
	}
	return paths.DataDir()
}

// resolveRoot maps the empty root to the default root.
func (c *LocalClient) resolveRoot(root string) string {
	if root != "" {
		return root
	}
	return c.provider.DefaultRoot()
}

// GetRoots returns the resolved workspace roots, default root first.
func (c *LocalClient) GetRoots(ctx context.Context) ([]string, error) {
	return c.provider.Roots(), nil
}

// GetConfigs returns a root's declared configuration list, unfiltered.
func (c *LocalClient) GetConfigs(ctx context.Context, root string) ([]*buildcfg.Configuration, error) {
	resolved := c.resolveRoot(root)
	if resolved == "" {
		return nil, nil
	}
	return c.source.Configurations(resolved), nil
}

// GetValidConfigs returns only well-formed configurations, sorted by name.
func (c *LocalClient) GetValidConfigs(ctx context.Context, root string) ([]*buildcfg.Configuration, error) {
	configs, err := c.GetConfigs(ctx, root)
	if err != nil {
		return nil, err
	}
	return buildcfg.Valid(configs), nil
}

// GetActive reads a root's active configuration from the persisted
// snapshot. An absent selection yields a nil Config, not an error.
func (c *LocalClient) GetActive(ctx context.Context, root string) (*ActiveConfig, error) {
	resolved := c.resolveRoot(root)
	if resolved == "" {
		return &ActiveConfig{}, nil
	}

	active, _, err := registry.LoadActiveSnapshot(c.store)
	if err != nil {
		return nil, err
	}
	return &ActiveConfig{Root: resolved, Config: active[resolved]}, nil
}

// GetAllActive returns the persisted per-root selection map.
func (c *LocalClient) GetAllActive(ctx context.Context) (map[string]*buildcfg.Configuration, error) {
	active, _, err := registry.LoadActiveSnapshot(c.store)
	if err != nil {
		return nil, err
	}
	return active, nil
}

// SetActive selects a root's configuration by name and persists the
// updated snapshot before returning.
func (c *LocalClient) SetActive(ctx context.Context, root, name string) (*ActiveConfig, error) {
	resolved := c.resolveRoot(root)
	if resolved == "" {
		return nil, errors.New(errors.ErrCodeNoWorkspace, "no workspace roots available")
	}

	var cfg *buildcfg.Configuration
	for _, candidate := range buildcfg.Valid(c.source.Configurations(resolved)) {
		if candidate.Name == name {
			cfg = candidate
			break
		}
	}
	if cfg == nil {
		return nil, errors.UnknownConfig(resolved, name)
	}

	if err := c.writeSelection(resolved, cfg); err != nil {
		return nil, err
	}
	return &ActiveConfig{Root: resolved, Config: cfg}, nil
}

// ClearActive drops a root's selection. The root stays in the snapshot as
// an explicit null so a later daemon restore sees the clear.
func (c *LocalClient) ClearActive(ctx context.Context, root string) error {
	resolved := c.resolveRoot(root)
	if resolved == "" {
		return errors.New(errors.ErrCodeNoWorkspace, "no workspace roots available")
	}
	return c.writeSelection(resolved, nil)
}

func (c *LocalClient) writeSelection(root string, cfg *buildcfg.Configuration) error {
	active, _, err := registry.LoadActiveSnapshot(c.store)
	if err != nil {
		return err
	}
	active[root] = cfg
	return registry.SaveActiveSnapshot(c.store, active)
}

// GetRunningConfig returns an error since there is no running daemon to
// describe. Use `kiln config show` for the effective configuration.
func (c *LocalClient) GetRunningConfig(ctx context.Context) (*ConfigInfo, error) {
	return nil, errors.DaemonNotRunning(paths.SocketPath())
}

// StreamChanges returns an error since streaming is only available via the
// daemon.
func (c *LocalClient) StreamChanges(ctx context.Context) (<-chan StreamEvent, error) {
	return nil, errors.DaemonNotRunning(paths.SocketPath()).
		WithDetail("hint", "start the daemon with 'kiln daemon start' for real-time updates")
}

// Config returns the effective configuration the client loaded.
func (c *LocalClient) Config() *config.Config {
	return c.cfg
}

// IsRunning returns false since this is the local fallback client.
func (c *LocalClient) IsRunning() bool {
	return false
}

// Close is a no-op for LocalClient.
func (c *LocalClient) Close() error {
	return nil
}

// Ensure LocalClient implements Client. It deliberately does not implement
// Merger.
var _ Client = (*LocalClient)(nil)
