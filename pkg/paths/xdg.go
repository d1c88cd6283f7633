// Package paths provides XDG-compliant path resolution for kiln.
//
// Resolution order:
// 1. KILN_HOME (portable root) → $KILN_HOME/{config,data,state,cache,run}
// 2. XDG env vars → $XDG_*_HOME/kiln
// 3. Platform defaults → ~/.config/kiln, ~/.local/share/kiln, etc.
package paths

import (
	"os"
	"path/filepath"
)

// base resolves one of the XDG base directories. portable is the
// subdirectory used under KILN_HOME, xdgVar the XDG variable consulted
// next, and fallback the home-relative default.
func base(portable, xdgVar string, fallback ...string) string {
	if kilnHome := os.Getenv("KILN_HOME"); kilnHome != "" {
		return filepath.Join(kilnHome, portable)
	}
	if dir := os.Getenv(xdgVar); dir != "" {
		return dir
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(append([]string{homeDir}, fallback...)...)
	}
	return ""
}

// ConfigDir returns the kiln configuration directory, home of the global
// kiln.yml.
func ConfigDir() string {
	b := base("config", "XDG_CONFIG_HOME", ".config")
	if b == "" {
		return ""
	}
	return filepath.Join(b, "kiln")
}

// DataDir returns the kiln data directory.
func DataDir() string {
	b := base("data", "XDG_DATA_HOME", ".local", "share")
	if b == "" {
		return ""
	}
	return filepath.Join(b, "kiln")
}

// StateDir returns the kiln state directory. Runtime state, the daemon
// pidfile, and fallback socket placement live here.
func StateDir() string {
	b := base("state", "XDG_STATE_HOME", ".local", "state")
	if b == "" {
		return ""
	}
	return filepath.Join(b, "kiln")
}

// CacheDir returns the kiln cache directory for regenerable data such as
// merged compilation databases.
func CacheDir() string {
	b := base("cache", "XDG_CACHE_HOME", ".cache")
	if b == "" {
		return ""
	}
	return filepath.Join(b, "kiln")
}

// LogDir returns the directory for component log files.
func LogDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}

// RuntimeDir returns the kiln runtime directory for sockets and pipes.
// Uses XDG_RUNTIME_DIR when available (Linux), falls back to StateDir
// on systems without it.
func RuntimeDir() string {
	if kilnHome := os.Getenv("KILN_HOME"); kilnHome != "" {
		return filepath.Join(kilnHome, "run")
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "kiln")
	}
	return StateDir()
}

// SocketPath returns the path to the kiln daemon unix socket.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), "kilnd.sock")
}

// PidFilePath returns the path to the kiln daemon PID file.
func PidFilePath() string {
	return filepath.Join(StateDir(), "kilnd.pid")
}

// EnsureDirs creates all kiln directories if they don't exist.
func EnsureDirs() error {
	dirs := []string{
		ConfigDir(),
		DataDir(),
		StateDir(),
		CacheDir(),
		LogDir(),
		RuntimeDir(),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
