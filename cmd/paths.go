package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilntools/kiln/pkg/paths"
)

// PathsOutput represents the XDG-compliant paths used by kiln.
type PathsOutput struct {
	ConfigDir  string `json:"config_dir"`
	DataDir    string `json:"data_dir"`
	StateDir   string `json:"state_dir"`
	CacheDir   string `json:"cache_dir"`
	RuntimeDir string `json:"runtime_dir"`
	SocketPath string `json:"socket_path"`
	PidFile    string `json:"pid_file"`
}

func NewPathsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Print the XDG-compliant paths used by kiln",
		Long: `Print the XDG-compliant paths used by kiln.

This command outputs the paths in JSON format by default, making it easy
to parse from scripts and other tools.

The paths follow the XDG Base Directory Specification:
- config_dir: Configuration files (the global kiln.yml)
- data_dir: Persistent data (the active-configuration state file)
- state_dir: Runtime state (daemon pid file)
- cache_dir: Temporary/regenerable data (merged compilation databases)
- runtime_dir: Sockets and other per-session files
- socket_path: The kilnd unix socket
- pid_file: The kilnd pid file

Set KILN_HOME to gather all of these under one directory (portable mode).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := PathsOutput{
				ConfigDir:  paths.ConfigDir(),
				DataDir:    paths.DataDir(),
				StateDir:   paths.StateDir(),
				CacheDir:   paths.CacheDir(),
				RuntimeDir: paths.RuntimeDir(),
				SocketPath: paths.SocketPath(),
				PidFile:    paths.PidFilePath(),
			}

			jsonData, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal paths to JSON: %w", err)
			}
			fmt.Println(string(jsonData))
			return nil
		},
	}

	return cmd
}
