// Package registry owns the per-workspace active build-configuration map
// and the change streams derived from it.
package registry

import (
	"context"

	"github.com/kilntools/kiln/pkg/buildcfg"
)

// snapshotKey is the single store key under which the active map persists.
const snapshotKey = "buildcfg.active"

// Source supplies each workspace root's declared build configurations.
// Implementations cache as they see fit; the registry treats every call as
// the current truth.
type Source interface {
	// Configurations returns the raw declared list for a root, unfiltered.
	Configurations(root string) []*buildcfg.Configuration
	// Changes signals that some root's configuration content changed. The
	// signal carries no payload; receivers re-query what they care about.
	Changes() <-chan struct{}
	// Ready is closed once the initial load has completed.
	Ready() <-chan struct{}
}

// RootLister names the workspace roots. The first element is the default
// root. The list may be empty in bare environments; consumers degrade to
// absent values rather than failing.
type RootLister interface {
	Roots() []string
}

// Store persists the registry snapshot as a durable key/value record.
// *state.Store satisfies this.
type Store interface {
	Get(key string, out interface{}) (bool, error)
	Set(key string, value interface{}) error
}

// Merger is the optional compilation-database merge capability. When the
// registry is constructed without one, MergedCompilationDatabase fails with
// ErrCodeMergeUnsupported.
type Merger interface {
	Merge(ctx context.Context, directories []string) (string, error)
}

// MergeRequest names the build directories whose compilation databases
// should be merged.
type MergeRequest struct {
	Directories []string `json:"directories"`
}

// Change is the canonical event emitted on every SetActive call, whether or
// not the value differs from the previous one.
type Change struct {
	// Root is the workspace root whose entry was just set.
	Root string `json:"root"`
	// Config is the just-set value; nil means the root was cleared.
	Config *buildcfg.Configuration `json:"config"`
	// Active is the compacted view of the whole map at emission time:
	// cleared roots are dropped, so it contains non-nil values only.
	Active map[string]*buildcfg.Configuration `json:"active"`
}

// snapshotEntry is one row of the persisted active map. Rows are ordered by
// root so the snapshot bytes are deterministic.
type snapshotEntry struct {
	Root   string                  `yaml:"root" json:"root"`
	Config *buildcfg.Configuration `yaml:"config" json:"config"`
}

// persistRequest carries one full snapshot through the persist queue.
type persistRequest struct {
	snapshot []snapshotEntry
	done     chan error
}
