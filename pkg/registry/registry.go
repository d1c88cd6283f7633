package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/kilntools/kiln/errors"
	"github.com/kilntools/kiln/pkg/buildcfg"
)

// Registry is the authoritative in-memory store mapping workspace roots to
// their active build configuration. It is thread-safe and supports pub/sub
// for real-time updates.
//
// A nil map value means the root was explicitly cleared; a missing key means
// the root was never touched. The map is never handed out for external
// mutation; every read returns a copy or a single pointer.
type Registry struct {
	source Source
	roots  RootLister
	store  Store
	merger Merger
	logger *logrus.Entry

	mu          sync.RWMutex
	active      map[string]*buildcfg.Configuration
	subscribers map[chan Change]struct{}
	activeSubs  map[chan *buildcfg.Configuration]struct{}

	persistCh chan persistRequest
	ready     chan struct{}
	readyOnce sync.Once
}

// New creates a Registry over the given collaborators. merger may be nil,
// in which case the merge capability is reported as unsupported.
func New(source Source, roots RootLister, store Store, merger Merger, logger *logrus.Entry) *Registry {
	return &Registry{
		source:      source,
		roots:       roots,
		store:       store,
		merger:      merger,
		logger:      logger,
		active:      make(map[string]*buildcfg.Configuration),
		subscribers: make(map[chan Change]struct{}),
		activeSubs:  make(map[chan *buildcfg.Configuration]struct{}),
		persistCh:   make(chan persistRequest, 100),
		ready:       make(chan struct{}),
	}
}

// resolveRoot maps the empty root to the default root. It returns "" when
// no root resolves.
func (r *Registry) resolveRoot(root string) string {
	if root != "" {
		return root
	}
	roots := r.roots.Roots()
	if len(roots) == 0 {
		return ""
	}
	return roots[0]
}

// ActiveConfig returns the active configuration for a root. The empty root
// resolves to the default root. It returns nil when no root resolves, the
// root was never touched, or the root was explicitly cleared. It never
// errors and has no side effects.
func (r *Registry) ActiveConfig(root string) *buildcfg.Configuration {
	resolved := r.resolveRoot(root)
	if resolved == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active[resolved]
}

// AllActiveConfigs returns a snapshot copy of the whole map, including
// cleared (nil-valued) roots. Mutating the returned map does not affect the
// registry.
func (r *Registry) AllActiveConfigs() map[string]*buildcfg.Configuration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*buildcfg.Configuration, len(r.active))
	for root, cfg := range r.active {
		out[root] = cfg
	}
	return out
}

// SetActive replaces a single root's entry and notifies subscribers. The
// empty root resolves to the default root; when nothing resolves the call
// is a no-op and the returned channel yields nil immediately.
//
// Memory and notifications are synchronous: a read right after SetActive
// returns observes the new value. Persistence is write-through but
// asynchronous; the returned 1-buffered channel delivers the persist
// result for callers that need durability, and may be ignored by those
// that do not. Every call fires a change event, including no-op rewrites
// of the same value.
func (r *Registry) SetActive(root string, cfg *buildcfg.Configuration) <-chan error {
	done := make(chan error, 1)

	resolved := r.resolveRoot(root)
	if resolved == "" {
		close(done)
		return done
	}

	r.mu.Lock()
	r.active[resolved] = cfg

	change := Change{
		Root:   resolved,
		Config: cfg,
		Active: r.compactLocked(),
	}
	snapshot := r.snapshotLocked()
	r.broadcastLocked(change)

	// Enqueued under the lock so the persist order matches the emission
	// order; the worker applies snapshots strictly in queue order.
	r.persistCh <- persistRequest{snapshot: snapshot, done: done}
	r.mu.Unlock()

	return done
}

// Configs returns the raw declared configuration list for a root, exactly
// as the source reports it. The empty root resolves to the default root.
func (r *Registry) Configs(root string) []*buildcfg.Configuration {
	resolved := r.resolveRoot(root)
	if resolved == "" {
		return nil
	}
	return r.source.Configurations(resolved)
}

// ValidConfigs returns the root's declared configurations filtered and
// sorted by buildcfg.Valid.
func (r *Registry) ValidConfigs(root string) []*buildcfg.Configuration {
	return buildcfg.Valid(r.Configs(root))
}

// MergedCompilationDatabase forwards a merge request to the configured
// capability and returns the path of the merged artifact. The registry
// never caches or manages the artifact. Without a merger the call fails
// with ErrCodeMergeUnsupported.
func (r *Registry) MergedCompilationDatabase(ctx context.Context, req MergeRequest) (string, error) {
	if r.merger == nil {
		return "", errors.MergeUnsupported()
	}
	return r.merger.Merge(ctx, req.Directories)
}

// HasMerger reports whether the merge capability is present.
func (r *Registry) HasMerger() bool {
	return r.merger != nil
}

// Ready returns a channel closed once the source finished its initial load
// and the persisted snapshot has been restored. Calls before readiness are
// permitted but may observe an empty map.
func (r *Registry) Ready() <-chan struct{} {
	return r.ready
}

// Subscribe creates a new subscription to the canonical change stream.
func (r *Registry) Subscribe() chan Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan Change, 100) // Buffered
	r.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (r *Registry) Unsubscribe(ch chan Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subscribers, ch)
	close(ch)
}

// SubscribeActive creates a subscription to the legacy single-value view:
// each change delivers just the configuration that was set (nil for a
// clear). It is a projection of the canonical stream, not independent
// state.
func (r *Registry) SubscribeActive() chan *buildcfg.Configuration {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan *buildcfg.Configuration, 100)
	r.activeSubs[ch] = struct{}{}
	return ch
}

// UnsubscribeActive removes a single-value subscription and closes its
// channel.
func (r *Registry) UnsubscribeActive(ch chan *buildcfg.Configuration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.activeSubs, ch)
	close(ch)
}

// Start restores the persisted snapshot once the source is ready, then
// consumes source change signals and runs the persist queue until ctx ends.
func (r *Registry) Start(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.persistLoop(ctx)
	}()

	select {
	case <-r.source.Ready():
	case <-ctx.Done():
		wg.Wait()
		return ctx.Err()
	}

	r.loadSnapshot()
	r.readyOnce.Do(func() { close(r.ready) })

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil
		case _, ok := <-r.source.Changes():
			if !ok {
				// Source closed its stream; keep serving and persisting.
				<-ctx.Done()
				wg.Wait()
				return nil
			}
			r.revalidateDefault()
		}
	}
}

// RevalidateRoot clears the root's active configuration when it no longer
// matches, by name and directory, any entry in the root's valid list. It
// reports whether a clear was issued. Roots with no active configuration
// are left untouched.
func (r *Registry) RevalidateRoot(root string) bool {
	resolved := r.resolveRoot(root)
	if resolved == "" {
		return false
	}

	active := r.ActiveConfig(resolved)
	if active == nil {
		return false
	}

	valid := buildcfg.Valid(r.source.Configurations(resolved))
	if buildcfg.Contains(valid, active) {
		return false
	}

	r.logger.WithFields(logrus.Fields{
		"root":   resolved,
		"config": active.String(),
	}).Info("Active configuration no longer valid, clearing")
	r.SetActive(resolved, nil)
	return true
}

// revalidateDefault applies the revalidation protocol to the default root
// only. Other roots keep possibly-stale actives until something addresses
// them directly; RevalidateRoot is exported for callers that want a wider
// sweep.
func (r *Registry) revalidateDefault() {
	r.RevalidateRoot("")
}

// loadSnapshot replaces the in-memory map with the persisted snapshot when
// one exists.
func (r *Registry) loadSnapshot() {
	active, found, err := LoadActiveSnapshot(r.store)
	if err != nil {
		r.logger.WithError(err).Warn("Failed to load active-configuration snapshot")
		return
	}
	if !found {
		return
	}

	r.mu.Lock()
	r.active = active
	r.mu.Unlock()

	r.logger.WithField("roots", len(active)).Debug("Restored active-configuration snapshot")
}

// persistLoop applies queued snapshots in order until ctx ends, then
// flushes what is already queued so no awaiting caller is stranded.
func (r *Registry) persistLoop(ctx context.Context) {
	for {
		select {
		case req := <-r.persistCh:
			r.persist(req)
		case <-ctx.Done():
			for {
				select {
				case req := <-r.persistCh:
					r.persist(req)
				default:
					return
				}
			}
		}
	}
}

func (r *Registry) persist(req persistRequest) {
	err := r.store.Set(snapshotKey, req.snapshot)
	if err != nil {
		r.logger.WithError(err).Error("Failed to persist active-configuration snapshot")
	}
	req.done <- err
	close(req.done)
}

// snapshotLocked renders the full map as root-ordered rows, cleared roots
// included. Callers hold r.mu.
func (r *Registry) snapshotLocked() []snapshotEntry {
	entries := make([]snapshotEntry, 0, len(r.active))
	for root, cfg := range r.active {
		entries = append(entries, snapshotEntry{Root: root, Config: cfg})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Root < entries[j].Root })
	return entries
}

// compactLocked renders the map with cleared roots dropped. Callers hold
// r.mu.
func (r *Registry) compactLocked() map[string]*buildcfg.Configuration {
	out := make(map[string]*buildcfg.Configuration, len(r.active))
	for root, cfg := range r.active {
		if cfg == nil {
			continue
		}
		out[root] = cfg
	}
	return out
}

// broadcastLocked fans a change out to both streams. Callers hold r.mu.
func (r *Registry) broadcastLocked(change Change) {
	for ch := range r.subscribers {
		select {
		case ch <- change:
		default:
			// Non-blocking send to prevent slow clients from stalling the daemon
		}
	}
	for ch := range r.activeSubs {
		select {
		case ch <- change.Config:
		default:
		}
	}
}
