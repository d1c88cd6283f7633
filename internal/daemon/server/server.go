// Package server provides the HTTP server for kilnd.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/kilntools/kiln/config"
	"github.com/kilntools/kiln/errors"
	"github.com/kilntools/kiln/pkg/buildcfg"
	"github.com/kilntools/kiln/pkg/registry"
)

// RunningConfig describes the settings the daemon is actually running
// with. It is exposed via /api/config so clients can verify what is
// active without parsing config files themselves.
type RunningConfig struct {
	SocketPath       string    `json:"socket_path"`
	ConfigWatch      bool      `json:"config_watch"`
	ConfigDebounceMs int       `json:"config_debounce_ms"`
	MergeEndpoint    string    `json:"merge_endpoint,omitempty"`
	Version          string    `json:"version"`
	StartedAt        time.Time `json:"started_at"`
}

// RootProvider lists workspace roots for the API endpoints.
type RootProvider interface {
	Roots() []string
	DefaultRoot() string
}

// Server manages the daemon's HTTP server over a Unix socket.
type Server struct {
	logger        *logrus.Entry
	server        *http.Server
	registry      *registry.Registry
	roots         RootProvider
	config        *config.Config
	runningConfig *RunningConfig
	upgrader      websocket.Upgrader
}

// New creates a Server over the given registry and root provider. cfg is
// the effective workspace configuration served by /api/config.
func New(logger *logrus.Entry, reg *registry.Registry, roots RootProvider, cfg *config.Config) *Server {
	return &Server{
		logger:   logger,
		registry: reg,
		roots:    roots,
		config:   cfg,
		upgrader: websocket.Upgrader{
			// Connections arrive over the local Unix socket only.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// SetRunningConfig sets the running configuration for the server.
func (s *Server) SetRunningConfig(cfg *RunningConfig) {
	s.runningConfig = cfg
}

// ListenAndServe starts the daemon on the given unix socket path.
// It blocks until the server stops or fails.
func (s *Server) ListenAndServe(socketPath string) error {
	// Cleanup stale socket
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}

	// Set restrictive permissions on socket
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	// The stream endpoint upgrades to a websocket, which hijacks the
	// connection; that keeps the server on plain HTTP/1.1.
	s.server = &http.Server{
		Handler: s.handler(),
	}

	s.logger.WithField("socket", socketPath).Info("Daemon listening")
	return s.server.Serve(listener)
}

// handler wires the routes. Split out so tests can serve the mux without
// a socket.
func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/roots", s.handleRoots)
	mux.HandleFunc("/api/configs", s.handleConfigs)
	mux.HandleFunc("/api/configs/valid", s.handleValidConfigs)
	mux.HandleFunc("/api/active", s.handleActive)
	mux.HandleFunc("/api/active/all", s.handleActiveAll)
	mux.HandleFunc("/api/merged", s.handleMerged)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/stream", s.handleStream)

	return mux
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// rootsResponse is the /api/roots payload.
type rootsResponse struct {
	Roots   []string `json:"roots"`
	Default string   `json:"default,omitempty"`
}

// activeResponse is the /api/active payload for GET and PUT.
type activeResponse struct {
	Root   string                  `json:"root"`
	Config *buildcfg.Configuration `json:"config"`
}

// setActiveRequest is the PUT /api/active body. Name selects a valid
// configuration of the root by display name; Clear drops the selection.
type setActiveRequest struct {
	Root  string `json:"root,omitempty"`
	Name  string `json:"name,omitempty"`
	Clear bool   `json:"clear,omitempty"`
}

// mergedRequest is the POST /api/merged body.
type mergedRequest struct {
	Directories []string `json:"directories"`
}

// mergedResponse is the POST /api/merged payload.
type mergedResponse struct {
	Path string `json:"path"`
}

// configResponse is the /api/config payload: the settings the daemon runs
// with plus the effective workspace configuration it loaded.
type configResponse struct {
	Daemon *RunningConfig `json:"daemon,omitempty"`
	Config *config.Config `json:"config,omitempty"`
}

// streamEvent matches the daemon.StreamEvent wire type for /api/stream.
type streamEvent struct {
	Type   string                             `json:"type"`
	Root   string                             `json:"root,omitempty"`
	Config *buildcfg.Configuration            `json:"config,omitempty"`
	Active map[string]*buildcfg.Configuration `json:"active"`
}

// handleRoots returns the known workspace roots, default first.
func (s *Server) handleRoots(w http.ResponseWriter, r *http.Request) {
	roots := s.roots.Roots()
	if roots == nil {
		roots = []string{}
	}
	writeJSON(w, rootsResponse{Roots: roots, Default: s.roots.DefaultRoot()})
}

// handleConfigs returns the unfiltered configuration list for ?root=
// (default root when omitted).
func (s *Server) handleConfigs(w http.ResponseWriter, r *http.Request) {
	configs := s.registry.Configs(r.URL.Query().Get("root"))
	if configs == nil {
		configs = []*buildcfg.Configuration{}
	}
	writeJSON(w, configs)
}

// handleValidConfigs returns only well-formed configurations, sorted by
// name.
func (s *Server) handleValidConfigs(w http.ResponseWriter, r *http.Request) {
	configs := s.registry.ValidConfigs(r.URL.Query().Get("root"))
	if configs == nil {
		configs = []*buildcfg.Configuration{}
	}
	writeJSON(w, configs)
}

// handleActive serves the active configuration of one root. GET reads it;
// PUT selects by name or clears, answering after the selection has been
// persisted.
func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		root := r.URL.Query().Get("root")
		resolved := root
		if resolved == "" {
			resolved = s.roots.DefaultRoot()
		}
		writeJSON(w, activeResponse{Root: resolved, Config: s.registry.ActiveConfig(root)})

	case http.MethodPut:
		var req setActiveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
			return
		}
		s.setActive(w, req)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) setActive(w http.ResponseWriter, req setActiveRequest) {
	root := req.Root
	if root == "" {
		root = s.roots.DefaultRoot()
	}
	if root == "" {
		writeError(w, http.StatusNotFound, errors.New(errors.ErrCodeNoWorkspace, "no workspace roots available"))
		return
	}

	var cfg *buildcfg.Configuration
	if !req.Clear {
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidInput, "request needs a configuration name or clear"))
			return
		}
		for _, candidate := range s.registry.ValidConfigs(root) {
			if candidate.Name == req.Name {
				cfg = candidate
				break
			}
		}
		if cfg == nil {
			writeError(w, http.StatusNotFound, errors.UnknownConfig(root, req.Name))
			return
		}
	}

	if err := <-s.registry.SetActive(root, cfg); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"root":   root,
		"config": cfg.String(),
	}).Info("Active configuration updated")
	writeJSON(w, activeResponse{Root: root, Config: cfg})
}

// handleActiveAll returns the full per-root selection map. Explicitly
// cleared roots appear with a null config.
func (s *Server) handleActiveAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.registry.AllActiveConfigs())
}

// handleMerged forwards a compilation-database merge request.
func (s *Server) handleMerged(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.registry.HasMerger() {
		writeError(w, http.StatusNotImplemented, errors.MergeUnsupported())
		return
	}

	var req mergedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
		return
	}

	path, err := s.registry.MergedCompilationDatabase(r.Context(), registry.MergeRequest{Directories: req.Directories})
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, mergedResponse{Path: path})
}

// handleConfig returns the running configuration and the effective
// workspace configuration as JSON.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, configResponse{Daemon: s.runningConfig, Config: s.config})
}

// handleStream upgrades to a websocket and pushes registry changes. The
// first frame is a snapshot of the current selections so clients have
// data right away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Debug("Stream upgrade failed")
		return
	}
	defer conn.Close()

	ch := s.registry.Subscribe()
	defer s.registry.Unsubscribe(ch)

	s.logger.Debug("Stream client connected")

	snapshot := streamEvent{Type: "snapshot", Active: compactActive(s.registry.AllActiveConfigs())}
	if err := conn.WriteJSON(snapshot); err != nil {
		return
	}

	// Reads only serve to detect the peer closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			s.logger.Debug("Stream client disconnected")
			return
		case <-r.Context().Done():
			return
		case change, ok := <-ch:
			if !ok {
				return
			}
			evt := streamEvent{
				Type:   "change",
				Root:   change.Root,
				Config: change.Config,
				Active: change.Active,
			}
			if err := conn.WriteJSON(evt); err != nil {
				s.logger.WithError(err).Debug("Stream write failed")
				return
			}
		}
	}
}

// compactActive drops explicitly-cleared roots from a selection map.
func compactActive(active map[string]*buildcfg.Configuration) map[string]*buildcfg.Configuration {
	out := make(map[string]*buildcfg.Configuration, len(active))
	for root, cfg := range active {
		if cfg != nil {
			out[root] = cfg
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeError renders structured errors as JSON so clients can recover the
// error code across the socket.
func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if kilnErr, ok := err.(*errors.KilnError); ok {
		json.NewEncoder(w).Encode(kilnErr)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"message": err.Error()})
}
