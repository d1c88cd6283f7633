package registry

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kilnerrors "github.com/kilntools/kiln/errors"
	"github.com/kilntools/kiln/pkg/buildcfg"
	"github.com/kilntools/kiln/state"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// fakeSource is an in-memory Source whose content tests mutate directly.
type fakeSource struct {
	mu      sync.Mutex
	configs map[string][]*buildcfg.Configuration
	changes chan struct{}
	ready   chan struct{}
}

func newFakeSource() *fakeSource {
	ready := make(chan struct{})
	close(ready)
	return &fakeSource{
		configs: make(map[string][]*buildcfg.Configuration),
		changes: make(chan struct{}, 16),
		ready:   ready,
	}
}

func (s *fakeSource) Configurations(root string) []*buildcfg.Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configs[root]
}

func (s *fakeSource) Changes() <-chan struct{} { return s.changes }
func (s *fakeSource) Ready() <-chan struct{}  { return s.ready }

func (s *fakeSource) set(root string, configs ...*buildcfg.Configuration) {
	s.mu.Lock()
	s.configs[root] = configs
	s.mu.Unlock()
}

func (s *fakeSource) signal() { s.changes <- struct{}{} }

// staticRoots is a fixed RootLister.
type staticRoots []string

func (s staticRoots) Roots() []string { return s }

// fakeMerger records the directories it was asked to merge.
type fakeMerger struct {
	dirs []string
	path string
	err  error
}

func (m *fakeMerger) Merge(_ context.Context, directories []string) (string, error) {
	m.dirs = directories
	return m.path, m.err
}

type failingStore struct{ err error }

func (f *failingStore) Get(string, interface{}) (bool, error) { return false, nil }
func (f *failingStore) Set(string, interface{}) error         { return f.err }

// startRegistry runs Start in the background and blocks until readiness.
func startRegistry(t *testing.T, r *Registry) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	select {
	case <-r.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("registry never became ready")
	}
}

func newTestRegistry(t *testing.T, source Source, roots RootLister) *Registry {
	t.Helper()
	r := New(source, roots, state.New(t.TempDir()), nil, testLogger())
	startRegistry(t, r)
	return r
}

func recvChange(t *testing.T, ch chan Change) Change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
	return Change{}
}

func recvActive(t *testing.T, ch chan *buildcfg.Configuration) *buildcfg.Configuration {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for active event")
	}
	return nil
}

func awaitPersist(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for persist")
	}
}

func TestActiveConfigUntouchedRootIsNil(t *testing.T) {
	r := newTestRegistry(t, newFakeSource(), staticRoots{"/ws/app"})

	assert.Nil(t, r.ActiveConfig("/ws/app"))
	assert.Nil(t, r.ActiveConfig("/never/seen"))
	assert.Empty(t, r.AllActiveConfigs())
}

func TestSetActiveThenGetReturnsSamePointer(t *testing.T) {
	r := newTestRegistry(t, newFakeSource(), staticRoots{"/ws/app"})

	cfg := &buildcfg.Configuration{Name: "debug", Directory: "/ws/app/build/debug"}
	done := r.SetActive("/ws/app", cfg)

	// Memory is updated before persistence confirms.
	assert.Same(t, cfg, r.ActiveConfig("/ws/app"))
	awaitPersist(t, done)
}

func TestSetActiveEmptyRootResolvesToDefault(t *testing.T) {
	r := newTestRegistry(t, newFakeSource(), staticRoots{"/ws/app", "/ws/lib"})

	cfg := &buildcfg.Configuration{Name: "release", Directory: "/ws/app/build/release"}
	awaitPersist(t, r.SetActive("", cfg))

	assert.Same(t, cfg, r.ActiveConfig("/ws/app"))
	assert.Same(t, cfg, r.ActiveConfig(""), "empty root reads resolve to the default root")
	assert.Nil(t, r.ActiveConfig("/ws/lib"))
}

func TestSetActiveWithoutRootsIsNoOp(t *testing.T) {
	r := newTestRegistry(t, newFakeSource(), staticRoots{})

	done := r.SetActive("", &buildcfg.Configuration{Name: "debug", Directory: "/d"})
	select {
	case err, ok := <-done:
		assert.NoError(t, err)
		assert.False(t, ok, "no-op completion channel is closed without a value")
	case <-time.After(time.Second):
		t.Fatal("no-op SetActive should complete immediately")
	}

	assert.Nil(t, r.ActiveConfig(""))
	assert.Empty(t, r.AllActiveConfigs())
}

func TestSetActiveSameValueTwiceFiresTwice(t *testing.T) {
	r := newTestRegistry(t, newFakeSource(), staticRoots{"/ws/app"})

	sub := r.Subscribe()
	defer r.Unsubscribe(sub)

	cfg := &buildcfg.Configuration{Name: "debug", Directory: "/ws/app/build/debug"}
	awaitPersist(t, r.SetActive("/ws/app", cfg))
	awaitPersist(t, r.SetActive("/ws/app", cfg))

	first := recvChange(t, sub)
	second := recvChange(t, sub)

	// No coalescing: both calls notify, and the map shape is unchanged.
	assert.Equal(t, first, second)
	assert.Same(t, cfg, r.ActiveConfig("/ws/app"))
	assert.Len(t, r.AllActiveConfigs(), 1)
}

func TestTwoRootsAreIndependent(t *testing.T) {
	r := newTestRegistry(t, newFakeSource(), staticRoots{"/ws/a", "/ws/b"})

	cfgA := &buildcfg.Configuration{Name: "debug", Directory: "/ws/a/build/debug"}
	cfgB := &buildcfg.Configuration{Name: "release", Directory: "/ws/b/build/release"}

	awaitPersist(t, r.SetActive("/ws/a", cfgA))
	awaitPersist(t, r.SetActive("/ws/b", cfgB))

	assert.Same(t, cfgA, r.ActiveConfig("/ws/a"))
	assert.Same(t, cfgB, r.ActiveConfig("/ws/b"))

	// Clearing A leaves B untouched.
	awaitPersist(t, r.SetActive("/ws/a", nil))
	assert.Nil(t, r.ActiveConfig("/ws/a"))
	assert.Same(t, cfgB, r.ActiveConfig("/ws/b"))
}

func TestClearCompactsChangeViewButKeepsMapEntry(t *testing.T) {
	r := newTestRegistry(t, newFakeSource(), staticRoots{"/ws/a", "/ws/b"})

	cfgA := &buildcfg.Configuration{Name: "debug", Directory: "/ws/a/build/debug"}
	cfgB := &buildcfg.Configuration{Name: "release", Directory: "/ws/b/build/release"}
	awaitPersist(t, r.SetActive("/ws/a", cfgA))
	awaitPersist(t, r.SetActive("/ws/b", cfgB))

	sub := r.Subscribe()
	defer r.Unsubscribe(sub)

	awaitPersist(t, r.SetActive("/ws/a", nil))

	change := recvChange(t, sub)
	assert.Equal(t, "/ws/a", change.Root)
	assert.Nil(t, change.Config)

	// The event's compacted view drops the cleared root entirely,
	// while the authoritative map keeps it as an explicit nil.
	assert.NotContains(t, change.Active, "/ws/a")
	assert.Same(t, cfgB, change.Active["/ws/b"])

	all := r.AllActiveConfigs()
	cleared, ok := all["/ws/a"]
	assert.True(t, ok)
	assert.Nil(t, cleared)
}

func TestAllActiveConfigsIsACopy(t *testing.T) {
	r := newTestRegistry(t, newFakeSource(), staticRoots{"/ws/app"})

	cfg := &buildcfg.Configuration{Name: "debug", Directory: "/ws/app/build/debug"}
	awaitPersist(t, r.SetActive("/ws/app", cfg))

	snapshot := r.AllActiveConfigs()
	snapshot["/ws/app"] = nil
	snapshot["/intruder"] = cfg

	assert.Same(t, cfg, r.ActiveConfig("/ws/app"), "mutating the returned map must not affect the registry")
	assert.Len(t, r.AllActiveConfigs(), 1)
}

func TestCanonicalStreamCarriesJustSetValueAndMultiRootView(t *testing.T) {
	r := newTestRegistry(t, newFakeSource(), staticRoots{"/ws/a", "/ws/b"})

	sub := r.Subscribe()
	defer r.Unsubscribe(sub)
	legacy := r.SubscribeActive()
	defer r.UnsubscribeActive(legacy)

	cfgA := &buildcfg.Configuration{Name: "debug", Directory: "/ws/a/build/debug"}
	cfgB := &buildcfg.Configuration{Name: "asan", Directory: "/ws/b/build/asan"}

	awaitPersist(t, r.SetActive("/ws/a", cfgA))
	awaitPersist(t, r.SetActive("/ws/b", cfgB))

	first := recvChange(t, sub)
	assert.Equal(t, "/ws/a", first.Root)
	assert.Same(t, cfgA, first.Config)
	assert.Equal(t, map[string]*buildcfg.Configuration{"/ws/a": cfgA}, first.Active)

	second := recvChange(t, sub)
	assert.Equal(t, "/ws/b", second.Root)
	assert.Same(t, cfgB, second.Config)
	assert.Len(t, second.Active, 2)

	// The legacy projection sees the same sequence, values only.
	assert.Same(t, cfgA, recvActive(t, legacy))
	assert.Same(t, cfgB, recvActive(t, legacy))
}

func TestSnapshotRoundTripAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	st := state.New(dir)
	roots := staticRoots{"/ws/a", "/ws/b"}

	cfg := &buildcfg.Configuration{
		Name:      "debug",
		Directory: "/ws/a/build/debug",
		Commands:  &buildcfg.CommandSet{Build: "ninja", Clean: "ninja clean"},
	}

	first := New(newFakeSource(), roots, st, nil, testLogger())
	startRegistry(t, first)

	awaitPersist(t, first.SetActive("/ws/a", cfg))
	awaitPersist(t, first.SetActive("/ws/b", nil)) // explicitly cleared root persists too

	// A fresh registry over the same store restores the same world.
	second := New(newFakeSource(), roots, st, nil, testLogger())
	startRegistry(t, second)

	restored := second.AllActiveConfigs()
	require.Len(t, restored, 2)

	got, ok := restored["/ws/a"]
	require.True(t, ok)
	require.NotNil(t, got)
	assert.Equal(t, cfg.Name, got.Name)
	assert.Equal(t, cfg.Directory, got.Directory)
	require.NotNil(t, got.Commands)
	assert.Equal(t, *cfg.Commands, *got.Commands)

	cleared, ok := restored["/ws/b"]
	assert.True(t, ok, "cleared roots survive the round trip")
	assert.Nil(t, cleared)
}

func TestDefaultRootRevalidationClears(t *testing.T) {
	source := newFakeSource()
	source.set("/ws/app",
		&buildcfg.Configuration{Name: "debug", Directory: "/ws/app/build/debug"},
		&buildcfg.Configuration{Name: "release", Directory: "/ws/app/build/release"},
	)

	r := newTestRegistry(t, source, staticRoots{"/ws/app"})

	// The active value matches a declared entry by target, not by pointer.
	active := &buildcfg.Configuration{Name: "debug", Directory: "/ws/app/build/debug"}
	awaitPersist(t, r.SetActive("", active))

	sub := r.Subscribe()
	defer r.Unsubscribe(sub)
	legacy := r.SubscribeActive()
	defer r.UnsubscribeActive(legacy)

	// The debug tree disappears from the source.
	source.set("/ws/app",
		&buildcfg.Configuration{Name: "release", Directory: "/ws/app/build/release"},
	)
	source.signal()

	change := recvChange(t, sub)
	assert.Equal(t, "/ws/app", change.Root)
	assert.Nil(t, change.Config)
	assert.Nil(t, recvActive(t, legacy))

	assert.Nil(t, r.ActiveConfig(""))
	all := r.AllActiveConfigs()
	cleared, ok := all["/ws/app"]
	assert.True(t, ok)
	assert.Nil(t, cleared)
}

func TestRevalidationKeepsMatchingTarget(t *testing.T) {
	source := newFakeSource()
	source.set("/ws/app", &buildcfg.Configuration{Name: "debug", Directory: "/ws/app/build/debug"})

	r := newTestRegistry(t, source, staticRoots{"/ws/app"})

	// Same name and directory, different pointer and different commands:
	// still the same target, so revalidation leaves it alone.
	active := &buildcfg.Configuration{
		Name:      "debug",
		Directory: "/ws/app/build/debug",
		Commands:  &buildcfg.CommandSet{Build: "make"},
	}
	awaitPersist(t, r.SetActive("", active))

	assert.False(t, r.RevalidateRoot(""))
	assert.Same(t, active, r.ActiveConfig(""))
}

func TestRevalidationIgnoresNonDefaultRoots(t *testing.T) {
	source := newFakeSource()
	source.set("/ws/a", &buildcfg.Configuration{Name: "debug", Directory: "/ws/a/build/debug"})
	source.set("/ws/b", &buildcfg.Configuration{Name: "debug", Directory: "/ws/b/build/debug"})

	r := newTestRegistry(t, source, staticRoots{"/ws/a", "/ws/b"})

	staleB := &buildcfg.Configuration{Name: "gone", Directory: "/ws/b/build/gone"}
	awaitPersist(t, r.SetActive("/ws/b", staleB))

	// The default-root sweep does not touch /ws/b even though its active
	// value is stale.
	source.set("/ws/a") // empty the default root's list
	source.signal()

	assert.Eventually(t, func() bool {
		return r.ActiveConfig("/ws/b") == staleB
	}, time.Second, 10*time.Millisecond)

	// An explicit sweep of the non-default root does clear it.
	assert.True(t, r.RevalidateRoot("/ws/b"))
	assert.Nil(t, r.ActiveConfig("/ws/b"))
}

func TestRevalidationSkipsClearedAndUntouchedRoots(t *testing.T) {
	source := newFakeSource()
	r := newTestRegistry(t, source, staticRoots{"/ws/app"})

	assert.False(t, r.RevalidateRoot(""), "untouched root has nothing to clear")

	awaitPersist(t, r.SetActive("", nil))
	assert.False(t, r.RevalidateRoot(""), "cleared root has nothing to clear")
}

func TestConfigsAndValidConfigs(t *testing.T) {
	k1 := &buildcfg.CommandSet{Build: "ninja"}
	k2 := &buildcfg.CommandSet{Build: "make"}

	source := newFakeSource()
	source.set("/ws/app",
		&buildcfg.Configuration{Name: "debug", Directory: "/d", Commands: k1},
		&buildcfg.Configuration{Name: "", Directory: "/e", Commands: k2},
	)

	r := newTestRegistry(t, source, staticRoots{"/ws/app"})

	raw := r.Configs("")
	require.Len(t, raw, 2, "raw list is unfiltered")

	valid := r.ValidConfigs("")
	require.Len(t, valid, 1)
	assert.Equal(t, "debug", valid[0].Name)
	assert.Same(t, k1, valid[0].Commands, "filtering preserves command identity")
}

func TestConfigsWithoutRootsIsNil(t *testing.T) {
	r := newTestRegistry(t, newFakeSource(), staticRoots{})

	assert.Nil(t, r.Configs(""))
	assert.Empty(t, r.ValidConfigs(""))
}

func TestMergedCompilationDatabaseWithoutCapability(t *testing.T) {
	r := newTestRegistry(t, newFakeSource(), staticRoots{"/ws/app"})

	assert.False(t, r.HasMerger())
	_, err := r.MergedCompilationDatabase(context.Background(), MergeRequest{Directories: []string{"/d"}})
	require.Error(t, err)
	assert.Equal(t, kilnerrors.ErrCodeMergeUnsupported, kilnerrors.GetCode(err))
}

func TestMergedCompilationDatabaseForwards(t *testing.T) {
	merger := &fakeMerger{path: "/tmp/kiln/merged/compile_commands.json"}
	r := New(newFakeSource(), staticRoots{"/ws/app"}, state.New(t.TempDir()), merger, testLogger())
	startRegistry(t, r)

	assert.True(t, r.HasMerger())

	dirs := []string{"/ws/app/build/debug", "/ws/lib/build/debug"}
	path, err := r.MergedCompilationDatabase(context.Background(), MergeRequest{Directories: dirs})
	require.NoError(t, err)
	assert.Equal(t, merger.path, path)
	assert.Equal(t, dirs, merger.dirs)
}

func TestReadyWaitsForSource(t *testing.T) {
	source := newFakeSource()
	source.ready = make(chan struct{}) // not ready yet

	r := New(source, staticRoots{"/ws/app"}, state.New(t.TempDir()), nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Start(ctx) }()

	select {
	case <-r.Ready():
		t.Fatal("registry must not be ready before its source")
	case <-time.After(50 * time.Millisecond):
	}

	close(source.ready)

	select {
	case <-r.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("registry never became ready after the source")
	}
}

func TestPersistFailureSurfacesOnCompletionChannel(t *testing.T) {
	boom := kilnerrors.StateIO("/state/state.yml", assert.AnError)
	r := New(newFakeSource(), staticRoots{"/ws/app"}, &failingStore{err: boom}, nil, testLogger())
	startRegistry(t, r)

	done := r.SetActive("/ws/app", &buildcfg.Configuration{Name: "debug", Directory: "/d"})

	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for persist result")
	}

	// Memory keeps the value even though persistence failed.
	assert.NotNil(t, r.ActiveConfig("/ws/app"))
}

func TestPersistOrderMatchesEmissionOrder(t *testing.T) {
	dir := t.TempDir()
	st := state.New(dir)
	r := New(newFakeSource(), staticRoots{"/ws/app"}, st, nil, testLogger())
	startRegistry(t, r)

	var last <-chan error
	for i := 0; i < 20; i++ {
		cfg := &buildcfg.Configuration{Name: "debug", Directory: "/ws/app/build/debug"}
		if i%2 == 1 {
			cfg = nil
		}
		last = r.SetActive("/ws/app", cfg)
	}
	awaitPersist(t, last)

	// 20 sets ended on nil; the stored snapshot must reflect the last one.
	var entries []struct {
		Root   string                  `yaml:"root"`
		Config *buildcfg.Configuration `yaml:"config"`
	}
	found, err := st.Get("buildcfg.active", &entries)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, entries, 1)
	assert.Equal(t, "/ws/app", entries[0].Root)
	assert.Nil(t, entries[0].Config)
}
