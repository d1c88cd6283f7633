package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kilntools/kiln/cli"
	"github.com/kilntools/kiln/pkg/daemon"
	"github.com/kilntools/kiln/tui/theme"
)

// NewActiveCmd creates the `active` command.
func NewActiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "active",
		Short: "Show the active build configuration",
		Long: `Show the active build configuration for a workspace root.

Without flags this reports the default root's selection. Use --root for a
specific root or --all for every root that has ever had a selection;
explicitly cleared roots show as <none>.

Examples:
  # Active configuration of the default root
  kiln active

  # Active configuration of a specific root
  kiln active --root ~/src/app

  # Every root's selection
  kiln active --all

  # Machine-readable output
  kiln active --json
`,
		RunE: runActiveE,
	}

	cmd.Flags().StringP("root", "r", "", "Workspace root to query (default: the default root)")
	cmd.Flags().Bool("all", false, "Show the selection of every known root")

	return cmd
}

func runActiveE(cmd *cobra.Command, args []string) error {
	opts := cli.GetOptions(cmd)
	handler := cli.NewErrorHandler(opts.Verbose)

	client, err := daemon.NewClient()
	if err != nil {
		return handler.Handle(err)
	}
	defer client.Close()

	all, _ := cmd.Flags().GetBool("all")
	if all {
		active, err := client.GetAllActive(cmd.Context())
		if err != nil {
			return handler.Handle(err)
		}

		if opts.JSONOutput {
			jsonData, err := json.MarshalIndent(active, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal selections to JSON: %w", err)
			}
			fmt.Println(string(jsonData))
			return nil
		}

		if len(active) == 0 {
			fmt.Println("No active configurations.")
			return nil
		}

		roots := make([]string, 0, len(active))
		for root := range active {
			roots = append(roots, root)
		}
		sort.Strings(roots)

		for _, root := range roots {
			fmt.Printf("%s  %s\n", theme.DefaultTheme.Accent.Render(root), active[root].String())
		}
		return nil
	}

	root, _ := cmd.Flags().GetString("root")
	active, err := client.GetActive(cmd.Context(), root)
	if err != nil {
		return handler.Handle(err)
	}

	if opts.JSONOutput {
		jsonData, err := json.MarshalIndent(active, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal selection to JSON: %w", err)
		}
		fmt.Println(string(jsonData))
		return nil
	}

	if active == nil || active.Root == "" {
		fmt.Println("No workspace root found.")
		return nil
	}

	fmt.Printf("%s  %s\n", theme.DefaultTheme.Accent.Render(active.Root), active.Config.String())
	return nil
}
