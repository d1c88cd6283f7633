package daemon

import (
	"net"
	"os"
	"time"

	"github.com/kilntools/kiln/pkg/paths"
)

// NewClient returns a Client backed by the daemon when it is reachable,
// falling back to in-process library calls otherwise.
//
// This implements the "transparent daemon" pattern: callers don't need to
// know whether the daemon is running or not. The same API works in both
// modes. Socket probe failures fall through silently; an error from the
// local fallback (a malformed config file, usually) is the caller's to
// report.
func NewClient() (Client, error) {
	socketPath := paths.SocketPath()
	if _, err := os.Stat(socketPath); err == nil {
		// Socket file exists, try to connect
		conn, err := net.DialTimeout("unix", socketPath, 100*time.Millisecond)
		if err == nil {
			conn.Close()
			if client, err := NewRemoteClient(socketPath); err == nil {
				return client, nil
			}
		}
	}

	return NewLocalClient()
}
