// Package process holds small process-inspection helpers used by the
// daemon lifecycle commands.
package process

import (
	"os"
	"syscall"
)

// IsAlive reports whether a process with the given PID is still running.
// It works by sending signal 0, which probes for existence on Unix-like
// systems (macOS, Linux) without delivering anything.
func IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	// FindProcess never fails on Unix, even for dead PIDs.
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// nil: alive and ours. EPERM: alive but owned by someone else.
	// ESRCH: gone.
	err = proc.Signal(syscall.Signal(0))
	return err == nil || os.IsPermission(err)
}

// Terminate asks the process to shut down with SIGTERM. Callers poll
// IsAlive afterwards to observe the exit.
func Terminate(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(syscall.SIGTERM)
}
