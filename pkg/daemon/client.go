// Package daemon provides a client for interacting with the kiln daemon
// (kilnd). It implements a transparent fallback pattern: when the daemon is
// running, calls go over its Unix-socket API; when it is not, the same
// interface is served by direct library calls in-process.
package daemon

import (
	"context"
	"time"

	"github.com/kilntools/kiln/config"
	"github.com/kilntools/kiln/pkg/buildcfg"
)

// Client is the interface both RemoteClient (socket API) and LocalClient
// (direct calls) implement. The empty root selects the default workspace
// root on every per-root method.
type Client interface {
	// GetRoots returns the known workspace roots, default root first.
	GetRoots(ctx context.Context) ([]string, error)

	// GetConfigs returns a root's declared configuration list, unfiltered.
	GetConfigs(ctx context.Context, root string) ([]*buildcfg.Configuration, error)

	// GetValidConfigs returns only well-formed configurations, sorted by name.
	GetValidConfigs(ctx context.Context, root string) ([]*buildcfg.Configuration, error)

	// GetActive returns a root's active configuration. Config is nil when
	// the root has no selection.
	GetActive(ctx context.Context, root string) (*ActiveConfig, error)

	// GetAllActive returns the per-root selection map. Explicitly cleared
	// roots appear with a nil value.
	GetAllActive(ctx context.Context) (map[string]*buildcfg.Configuration, error)

	// SetActive selects a root's configuration by name. It returns once the
	// selection has been persisted.
	SetActive(ctx context.Context, root, name string) (*ActiveConfig, error)

	// ClearActive drops a root's selection.
	ClearActive(ctx context.Context, root string) error

	// GetRunningConfig returns the settings the daemon runs with plus the
	// effective configuration it loaded. LocalClient returns an error since
	// there is no running daemon to describe.
	GetRunningConfig(ctx context.Context) (*ConfigInfo, error)

	// StreamChanges subscribes to configuration changes. The first event is
	// a snapshot; the channel closes when the context ends or the connection
	// is lost. LocalClient returns an error since streaming is only
	// available via the daemon.
	StreamChanges(ctx context.Context) (<-chan StreamEvent, error)

	// IsRunning returns true if the daemon is available and responding.
	IsRunning() bool

	// Close cleans up any resources used by the client.
	Close() error
}

// Merger is the optional compilation-database merge capability of a Client.
// Probe with a type assertion; LocalClient does not implement it because
// the forwarder configuration lives with the daemon.
type Merger interface {
	// MergeCompilationDatabases merges the compilation databases of the
	// given build directories and returns the merged artifact's path.
	MergeCompilationDatabases(ctx context.Context, directories []string) (string, error)
}

// Event types carried by StreamEvent.Type.
const (
	EventSnapshot = "snapshot"
	EventChange   = "change"
)

// StreamEvent is one frame pushed by the daemon's stream endpoint. The
// frame sent right after connecting has Type EventSnapshot and carries
// only Active; every later frame has Type EventChange and names the root
// whose selection changed. Active holds the current selections with
// cleared roots dropped.
type StreamEvent struct {
	Type   string                             `json:"type"`
	Root   string                             `json:"root,omitempty"`
	Config *buildcfg.Configuration            `json:"config,omitempty"`
	Active map[string]*buildcfg.Configuration `json:"active"`
}

// ActiveConfig pairs a resolved workspace root with its active
// configuration. Config is nil when the root has no selection.
type ActiveConfig struct {
	Root   string                  `json:"root"`
	Config *buildcfg.Configuration `json:"config"`
}

// RunningConfig mirrors the server's wire type describing the settings
// kilnd is actually running with.
type RunningConfig struct {
	SocketPath       string    `json:"socket_path"`
	ConfigWatch      bool      `json:"config_watch"`
	ConfigDebounceMs int       `json:"config_debounce_ms"`
	MergeEndpoint    string    `json:"merge_endpoint,omitempty"`
	Version          string    `json:"version"`
	StartedAt        time.Time `json:"started_at"`
}

// ConfigInfo is the /api/config payload: the daemon's running settings plus
// the effective workspace configuration it loaded.
type ConfigInfo struct {
	Daemon *RunningConfig `json:"daemon,omitempty"`
	Config *config.Config `json:"config,omitempty"`
}

// Request and response bodies shared with the server.
type setActiveRequest struct {
	Root  string `json:"root,omitempty"`
	Name  string `json:"name,omitempty"`
	Clear bool   `json:"clear,omitempty"`
}

type mergeRequest struct {
	Directories []string `json:"directories"`
}

type mergedResponse struct {
	Path string `json:"path"`
}

type rootsResponse struct {
	Roots   []string `json:"roots"`
	Default string   `json:"default,omitempty"`
}
