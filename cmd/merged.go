package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kilntools/kiln/cli"
	"github.com/kilntools/kiln/errors"
	"github.com/kilntools/kiln/pkg/daemon"
	"github.com/kilntools/kiln/pkg/paths"
	"github.com/kilntools/kiln/tui/theme"
)

// NewMergedCmd creates the `merged` command.
func NewMergedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merged [directory...]",
		Short: "Merge compilation databases of build directories",
		Long: `Merge the compilation databases of the given build directories into a
single artifact and print its path.

Without arguments, the directories of all active configurations are
merged. Merging goes through the daemon's configured compdb endpoint, so
it requires a running daemon and a compdb.endpoint setting in kiln.yml.

Examples:
  # Merge the active configurations' databases
  kiln merged

  # Merge explicit build directories
  kiln merged ~/src/app/build/debug ~/src/lib/build/debug
`,
		RunE: runMergedE,
	}

	return cmd
}

func runMergedE(cmd *cobra.Command, args []string) error {
	opts := cli.GetOptions(cmd)
	handler := cli.NewErrorHandler(opts.Verbose)

	client, err := daemon.NewClient()
	if err != nil {
		return handler.Handle(err)
	}
	defer client.Close()

	// Merging is an optional capability; only the daemon-backed client
	// carries it.
	merger, ok := client.(daemon.Merger)
	if !ok {
		return handler.Handle(errors.DaemonNotRunning(paths.SocketPath()).
			WithDetail("hint", "compilation-database merging goes through the daemon"))
	}

	directories := args
	if len(directories) == 0 {
		active, err := client.GetAllActive(cmd.Context())
		if err != nil {
			return handler.Handle(err)
		}
		for _, cfg := range active {
			if cfg != nil && cfg.Directory != "" {
				directories = append(directories, cfg.Directory)
			}
		}
		sort.Strings(directories)
	}

	if len(directories) == 0 {
		return handler.Handle(errors.New(errors.ErrCodeInvalidInput,
			"no build directories to merge").
			WithDetail("hint", "activate a configuration with 'kiln use' or pass directories explicitly"))
	}

	path, err := merger.MergeCompilationDatabases(cmd.Context(), directories)
	if err != nil {
		return handler.Handle(err)
	}

	if opts.JSONOutput {
		jsonData, err := json.MarshalIndent(map[string]string{"path": path}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal merge result to JSON: %w", err)
		}
		fmt.Println(string(jsonData))
		return nil
	}

	fmt.Printf("%s Merged %d compilation database(s)\n",
		theme.DefaultTheme.Success.Render(theme.IconSuccess), len(directories))
	fmt.Println(path)
	return nil
}
