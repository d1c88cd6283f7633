package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilntools/kiln/cli"
	"github.com/kilntools/kiln/pkg/buildcfg"
	"github.com/kilntools/kiln/pkg/daemon"
	"github.com/kilntools/kiln/tui/theme"
)

// NewConfigsCmd creates the `configs` command.
func NewConfigsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configs",
		Short: "List the build configurations of a workspace root",
		Long: `List the build configurations declared for a workspace root.

By default every declared entry is shown, including incomplete ones that
are missing a name or directory. Use --valid to restrict the list to
well-formed configurations sorted by name, which is what the picker and
'kiln use' operate on. The active configuration is marked with an
asterisk.

Examples:
  # List all declared configurations for the default root
  kiln configs

  # List only well-formed configurations
  kiln configs --valid

  # List configurations for a specific root
  kiln configs --root ~/src/app

  # Machine-readable output
  kiln configs --valid --json
`,
		RunE: runConfigsE,
	}

	cmd.Flags().Bool("valid", false, "Show only well-formed configurations, sorted by name")
	cmd.Flags().StringP("root", "r", "", "Workspace root to list (default: the default root)")

	return cmd
}

func runConfigsE(cmd *cobra.Command, args []string) error {
	opts := cli.GetOptions(cmd)
	handler := cli.NewErrorHandler(opts.Verbose)

	client, err := daemon.NewClient()
	if err != nil {
		return handler.Handle(err)
	}
	defer client.Close()

	root, _ := cmd.Flags().GetString("root")
	validOnly, _ := cmd.Flags().GetBool("valid")

	var configs []*buildcfg.Configuration
	if validOnly {
		configs, err = client.GetValidConfigs(cmd.Context(), root)
	} else {
		configs, err = client.GetConfigs(cmd.Context(), root)
	}
	if err != nil {
		return handler.Handle(err)
	}

	// The active selection determines which entry gets marked.
	var activeCfg *buildcfg.Configuration
	if active, err := client.GetActive(cmd.Context(), root); err == nil && active != nil {
		activeCfg = active.Config
	}

	if opts.JSONOutput {
		jsonData, err := json.MarshalIndent(configs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal configurations to JSON: %w", err)
		}
		fmt.Println(string(jsonData))
		return nil
	}

	if len(configs) == 0 {
		fmt.Println("No build configurations declared.")
		return nil
	}

	for _, c := range configs {
		marker := "  "
		if buildcfg.SameTarget(c, activeCfg) {
			marker = theme.DefaultTheme.Success.Render("* ")
		}

		name := c.Name
		if name == "" {
			name = theme.DefaultTheme.Muted.Render("<unnamed>")
		} else {
			name = theme.DefaultTheme.Accent.Render(name)
		}

		dir := c.Directory
		if dir == "" {
			dir = theme.DefaultTheme.Muted.Render("<no directory>")
		}

		line := fmt.Sprintf("%s%s  %s", marker, name, dir)
		if !c.IsValid() {
			line += "  " + theme.DefaultTheme.Warning.Render("(incomplete)")
		}
		fmt.Println(line)
	}
	return nil
}
