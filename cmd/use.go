package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/kilntools/kiln/cli"
	"github.com/kilntools/kiln/config"
	"github.com/kilntools/kiln/errors"
	"github.com/kilntools/kiln/pkg/buildcfg"
	"github.com/kilntools/kiln/pkg/daemon"
	"github.com/kilntools/kiln/tui"
	"github.com/kilntools/kiln/tui/picker"
	"github.com/kilntools/kiln/tui/theme"
)

// NewUseCmd creates the `use` command.
func NewUseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use [name]",
		Short: "Activate a build configuration",
		Long: `Activate a build configuration for a workspace root.

With a name, the matching valid configuration becomes the root's active
configuration and the selection is persisted, so it survives daemon
restarts. Without a name, an interactive picker opens listing the valid
configurations; this requires a terminal.

Examples:
  # Activate by name
  kiln use Debug

  # Pick interactively
  kiln use

  # Activate for a specific root
  kiln use Release --root ~/src/app

  # Deactivate the current configuration
  kiln use --clear
`,
		Args: cobra.MaximumNArgs(1),
		RunE: runUseE,
	}

	cmd.Flags().StringP("root", "r", "", "Workspace root to operate on (default: the default root)")
	cmd.Flags().Bool("clear", false, "Deactivate the current configuration")

	return cmd
}

func runUseE(cmd *cobra.Command, args []string) error {
	opts := cli.GetOptions(cmd)
	handler := cli.NewErrorHandler(opts.Verbose)

	client, err := daemon.NewClient()
	if err != nil {
		return handler.Handle(err)
	}
	defer client.Close()

	root, _ := cmd.Flags().GetString("root")
	clearFlag, _ := cmd.Flags().GetBool("clear")

	if clearFlag {
		if len(args) > 0 {
			return handler.Handle(errors.New(errors.ErrCodeInvalidInput,
				"--clear cannot be combined with a configuration name"))
		}
		return clearActive(cmd, client, root, opts.JSONOutput, handler)
	}

	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	if name == "" {
		if !isatty.IsTerminal(os.Stdout.Fd()) {
			return handler.Handle(errors.New(errors.ErrCodeInvalidInput,
				"a configuration name is required when not running interactively").
				WithDetail("hint", "run 'kiln configs --valid' to list the choices"))
		}

		chosen, clearRequested, err := pickConfiguration(cmd, client, root)
		if err != nil {
			return handler.Handle(err)
		}
		if clearRequested {
			return clearActive(cmd, client, root, opts.JSONOutput, handler)
		}
		if chosen == nil {
			// Picker dismissed without a choice.
			return nil
		}
		name = chosen.Name
	}

	active, err := client.SetActive(cmd.Context(), root, name)
	if err != nil {
		return handler.Handle(err)
	}

	if opts.JSONOutput {
		jsonData, err := json.MarshalIndent(active, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal active configuration to JSON: %w", err)
		}
		fmt.Println(string(jsonData))
		return nil
	}

	fmt.Printf("%s Now using %s\n",
		theme.DefaultTheme.Success.Render(theme.IconSuccess),
		theme.DefaultTheme.Accent.Render(active.Config.String()))
	return nil
}

func clearActive(cmd *cobra.Command, client daemon.Client, root string, jsonOutput bool, handler *cli.ErrorHandler) error {
	if err := client.ClearActive(cmd.Context(), root); err != nil {
		return handler.Handle(err)
	}

	if jsonOutput {
		fmt.Println(`{"active": null}`)
		return nil
	}

	fmt.Println("Active configuration cleared.")
	return nil
}

// pickConfiguration runs the interactive picker and reports the choice. The
// second return value is true when the user asked to clear the selection.
func pickConfiguration(cmd *cobra.Command, client daemon.Client, root string) (*buildcfg.Configuration, bool, error) {
	ctx := cmd.Context()

	configs, err := client.GetValidConfigs(ctx, root)
	if err != nil {
		return nil, false, err
	}
	if len(configs) == 0 {
		return nil, false, errors.New(errors.ErrCodeConfigValidation,
			"no valid build configurations to choose from")
	}

	var activeCfg *buildcfg.Configuration
	displayRoot := root
	if active, err := client.GetActive(ctx, root); err == nil && active != nil {
		activeCfg = active.Config
		if displayRoot == "" {
			displayRoot = active.Root
		}
	}

	// Keybinding preferences come from the effective configuration; a load
	// failure just means defaults.
	var cfg *config.Config
	if cwd, err := os.Getwd(); err == nil {
		cfg, _ = config.LoadEffective(cwd)
	}

	tui.InitializeTUI()

	model := picker.New(configs, activeCfg, displayRoot, cfg)
	model.SetLoader(func() ([]*buildcfg.Configuration, error) {
		return client.GetValidConfigs(ctx, root)
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, false, fmt.Errorf("failed to run configuration picker: %w", err)
	}

	if m, ok := finalModel.(*picker.Model); ok {
		return m.Selected, m.ClearRequested, nil
	}
	return nil, false, nil
}
