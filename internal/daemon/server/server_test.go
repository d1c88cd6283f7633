package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilntools/kiln/config"
	"github.com/kilntools/kiln/pkg/buildcfg"
	"github.com/kilntools/kiln/pkg/registry"
	"github.com/kilntools/kiln/state"
	"github.com/kilntools/kiln/testutil"
)

func discardLogger() *logrus.Entry {
	return testutil.DiscardLogger()
}

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

func (s *fakeSource) Ready() <-chan struct{} { return s.ready }

// fakeRoots satisfies both the registry's RootLister and the server's
// RootProvider.
type fakeRoots []string

func (f fakeRoots) Roots() []string { return f }
func (f fakeRoots) DefaultRoot() string {
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

type fakeMerger struct {
	dirs []string
	path string
}

func (m *fakeMerger) Merge(_ context.Context, directories []string) (string, error) {
	m.dirs = directories
	return m.path, nil
}

type testEnv struct {
	ts  *httptest.Server
	reg *registry.Registry
}

func newTestEnv(t *testing.T, merger registry.Merger) *testEnv {
	t.Helper()

	source := newFakeSource()
	source.configs["/ws/app"] = []*buildcfg.Configuration{
		{Name: "release", Directory: "/ws/app/build/release"},
		{Name: "debug", Directory: "/ws/app/build/debug", Commands: &buildcfg.CommandSet{Build: "ninja"}},
		{Name: "", Directory: "/ws/app/build/broken"},
	}

	roots := fakeRoots{"/ws/app"}
	reg := registry.New(source, roots, state.New(t.TempDir()), merger, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = reg.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	select {
	case <-reg.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("registry never became ready")
	}

	cfg := &config.Config{Version: "1.0", Name: "test-workspace"}
	srv := New(discardLogger(), reg, roots, cfg)
	srv.SetRunningConfig(&RunningConfig{
		SocketPath:       "/run/kiln/kilnd.sock",
		ConfigWatch:      true,
		ConfigDebounceMs: 100,
		Version:          "0.0.0-test",
		StartedAt:        time.Now(),
	})

	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, reg: reg}
}

func (e *testEnv) get(t *testing.T, path string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(e.ts.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (e *testEnv) send(t *testing.T, method, path string, body interface{}, out interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(method, e.ts.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := http.Get(env.ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))
}

func TestRootsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	var got rootsResponse
	resp := env.get(t, "/api/roots", &got)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"/ws/app"}, got.Roots)
	assert.Equal(t, "/ws/app", got.Default)
}

func TestConfigsEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	var raw []*buildcfg.Configuration
	env.get(t, "/api/configs", &raw)
	assert.Len(t, raw, 3, "raw list is unfiltered")

	var valid []*buildcfg.Configuration
	env.get(t, "/api/configs/valid", &valid)
	require.Len(t, valid, 2)
	assert.Equal(t, "debug", valid[0].Name, "valid list is sorted by name")
	assert.Equal(t, "release", valid[1].Name)
}

func TestActiveLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	var before activeResponse
	env.get(t, "/api/active", &before)
	assert.Equal(t, "/ws/app", before.Root)
	assert.Nil(t, before.Config)

	var set activeResponse
	resp := env.send(t, http.MethodPut, "/api/active", setActiveRequest{Name: "debug"}, &set)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, set.Config)
	assert.Equal(t, "debug", set.Config.Name)

	var after activeResponse
	env.get(t, "/api/active", &after)
	require.NotNil(t, after.Config)
	assert.Equal(t, "debug", after.Config.Name)

	var all map[string]*buildcfg.Configuration
	env.get(t, "/api/active/all", &all)
	require.Contains(t, all, "/ws/app")
	assert.Equal(t, "debug", all["/ws/app"].Name)

	var cleared activeResponse
	resp = env.send(t, http.MethodPut, "/api/active", setActiveRequest{Clear: true}, &cleared)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, cleared.Config)

	// The cleared root stays in the map as an explicit null.
	env.get(t, "/api/active/all", &all)
	v, ok := all["/ws/app"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestSetActiveUnknownName(t *testing.T) {
	env := newTestEnv(t, nil)

	var kerr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	resp := env.send(t, http.MethodPut, "/api/active", setActiveRequest{Name: "nope"}, &kerr)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "UNKNOWN_CONFIG", kerr.Code)
}

func TestSetActiveRequiresNameOrClear(t *testing.T) {
	env := newTestEnv(t, nil)

	var kerr struct {
		Code string `json:"code"`
	}
	resp := env.send(t, http.MethodPut, "/api/active", setActiveRequest{}, &kerr)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", kerr.Code)
}

func TestActiveMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.send(t, http.MethodDelete, "/api/active", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMergedWithoutMerger(t *testing.T) {
	env := newTestEnv(t, nil)

	var kerr struct {
		Code string `json:"code"`
	}
	resp := env.send(t, http.MethodPost, "/api/merged", mergedRequest{Directories: []string{"/d"}}, &kerr)

	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	assert.Equal(t, "MERGE_UNSUPPORTED", kerr.Code)
}

func TestMergedForwards(t *testing.T) {
	merger := &fakeMerger{path: "/cache/compile_commands.json"}
	env := newTestEnv(t, merger)

	var got mergedResponse
	resp := env.send(t, http.MethodPost, "/api/merged", mergedRequest{
		Directories: []string{"/ws/app/build/debug"},
	}, &got)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, merger.path, got.Path)
	assert.Equal(t, []string{"/ws/app/build/debug"}, merger.dirs)
}

func TestMergedRequiresPost(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.get(t, "/api/merged", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestConfigEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	var got configResponse
	env.get(t, "/api/config", &got)

	require.NotNil(t, got.Daemon)
	assert.Equal(t, "/run/kiln/kilnd.sock", got.Daemon.SocketPath)
	assert.True(t, got.Daemon.ConfigWatch)

	require.NotNil(t, got.Config)
	assert.Equal(t, "test-workspace", got.Config.Name)
}

func TestStreamDeliversSnapshotThenChanges(t *testing.T) {
	env := newTestEnv(t, nil)

	wsURL := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/api/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var snapshot streamEvent
	require.NoError(t, conn.ReadJSON(&snapshot))
	assert.Equal(t, "snapshot", snapshot.Type)
	assert.Empty(t, snapshot.Active)

	// The first frame has been read, so the subscription is in place.
	env.send(t, http.MethodPut, "/api/active", setActiveRequest{Name: "debug"}, nil)

	var change streamEvent
	require.NoError(t, conn.ReadJSON(&change))
	assert.Equal(t, "change", change.Type)
	assert.Equal(t, "/ws/app", change.Root)
	require.NotNil(t, change.Config)
	assert.Equal(t, "debug", change.Config.Name)
	require.Contains(t, change.Active, "/ws/app")

	// A clear arrives with no config and a compacted map.
	env.send(t, http.MethodPut, "/api/active", setActiveRequest{Clear: true}, nil)

	var clear streamEvent
	require.NoError(t, conn.ReadJSON(&clear))
	assert.Equal(t, "change", clear.Type)
	assert.Nil(t, clear.Config)
	assert.NotContains(t, clear.Active, "/ws/app")
}
