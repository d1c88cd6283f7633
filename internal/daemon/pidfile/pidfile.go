// Package pidfile guards against a second kilnd instance by recording the
// daemon's PID in a well-known file.
package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kilntools/kiln/errors"
	"github.com/kilntools/kiln/pkg/process"
)

// Acquire claims the pidfile for the current process. When the file names a
// live process the claim fails with ErrCodeDaemonStartFailed; a pidfile
// left behind by a dead daemon is taken over silently.
func Acquire(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create pid directory: %w", err)
	}

	if pid, err := Read(path); err == nil {
		if process.IsAlive(pid) {
			return errors.New(errors.ErrCodeDaemonStartFailed,
				fmt.Sprintf("kilnd already running with PID %d", pid)).
				WithDetail("pid", pid)
		}
		// Stale pidfile from a dead daemon; take it over.
		_ = os.Remove(path)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return fmt.Errorf("failed to write pid file: %w", err)
	}
	return nil
}

// Release removes the pidfile.
func Release(path string) error {
	return os.Remove(path)
}

// Read parses the PID recorded at path.
func Read(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(content)))
}

// IsRunning reports whether the pidfile names a live daemon, and which PID
// it names. A missing pidfile means not running, not an error.
func IsRunning(path string) (bool, int, error) {
	pid, err := Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return process.IsAlive(pid), pid, nil
}
