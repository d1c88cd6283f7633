package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilntools/kiln/cli"
	"github.com/kilntools/kiln/pkg/daemon"
	"github.com/kilntools/kiln/tui/theme"
)

// NewRootsCmd creates the `roots` command.
func NewRootsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roots",
		Short: "List the registered workspace roots",
		Long: `List the workspace roots kiln knows about, with the default root first.

Roots come from the workspaces patterns in kiln.yml. When the daemon is
running the list reflects its view; otherwise it is computed from the
configuration on disk.

Examples:
  # List roots
  kiln roots

  # List roots as JSON
  kiln roots --json
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := daemon.NewClient()
			if err != nil {
				return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
			}
			defer client.Close()

			roots, err := client.GetRoots(cmd.Context())
			if err != nil {
				return cli.NewErrorHandler(cli.GetOptions(cmd).Verbose).Handle(err)
			}

			opts := cli.GetOptions(cmd)
			if opts.JSONOutput {
				jsonData, err := json.MarshalIndent(roots, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal roots to JSON: %w", err)
				}
				fmt.Println(string(jsonData))
				return nil
			}

			if len(roots) == 0 {
				fmt.Println("No workspace roots registered.")
				return nil
			}

			// The default root is always first.
			for i, root := range roots {
				if i == 0 {
					fmt.Printf("%s %s\n", theme.DefaultTheme.Accent.Render(root), theme.DefaultTheme.Muted.Render("(default)"))
				} else {
					fmt.Println(root)
				}
			}
			return nil
		},
	}

	return cmd
}
