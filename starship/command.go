package starship

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilntools/kiln/config"
	"github.com/kilntools/kiln/logging"
	"github.com/kilntools/kiln/pkg/daemon"
)

// NewStarshipCmd creates the starship command and its subcommands.
// The binaryName parameter is used to configure the command in starship.toml
// (e.g., "kiln" will generate "command = \"kiln starship status\"").
func NewStarshipCmd(binaryName string) *cobra.Command {
	starshipCmd := &cobra.Command{
		Use:   "starship",
		Short: "Manage Starship prompt integration",
		Long:  `Provides commands to show the active build configuration in the Starship prompt.`,
	}

	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Install the kiln module to your starship.toml",
		Long: `Appends a custom module to your starship.toml configuration file to display
the active build configuration in your shell prompt. It will also attempt to
add the module to your main prompt format.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStarshipInstall(binaryName)
		},
	}

	statusCmd := &cobra.Command{
		Use:    "status",
		Short:  "Print status for Starship prompt (for internal use)",
		Hidden: true,
		RunE:   runStarshipStatus,
	}

	starshipCmd.AddCommand(installCmd)
	starshipCmd.AddCommand(statusCmd)

	return starshipCmd
}

func runStarshipInstall(binaryName string) error {
	pretty := logging.NewPrettyLogger()

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("could not get home directory: %w", err)
	}

	configPath := filepath.Join(home, ".config", "starship.toml")

	contentBytes, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("starship config not found at %s. Please ensure starship is installed and configured", configPath)
		}
		return fmt.Errorf("could not read starship config: %w", err)
	}
	content := string(contentBytes)

	// --- 1. Add or update the custom module definition ---
	moduleConfig := fmt.Sprintf(`
# Added by '%s starship install'
[custom.kiln]
description = "Shows the active kiln build configuration"
command = "%s starship status"
when = "test -f kiln.yml || test -f kiln.yaml || test -f .kiln/state.yml"
format = " $output "
`, binaryName, binaryName)

	// Check if [custom.kiln] already exists
	if strings.Contains(content, "[custom.kiln]") {
		// If it exists, check if the command matches
		if !strings.Contains(content, fmt.Sprintf(`command = "%s starship status"`, binaryName)) {
			// Different command exists - don't overwrite a manual setup
			pretty.InfoPretty("[custom.kiln] already exists with a different command.")
			pretty.InfoPretty("Keeping the existing configuration to avoid conflicts.")
		} else {
			// Same command - replace the entire section
			startIdx := strings.Index(content, "[custom.kiln]")
			if startIdx != -1 {
				afterKiln := content[startIdx:]
				nextSectionIdx := strings.Index(afterKiln[1:], "\n[")

				var endIdx int
				if nextSectionIdx != -1 {
					endIdx = startIdx + nextSectionIdx + 1
				} else {
					endIdx = len(content)
				}

				content = content[:startIdx] + moduleConfig + content[endIdx:]
				pretty.Success("Updated the existing kiln starship module.")
			}
		}
	} else {
		content += moduleConfig
		pretty.Success("Added the [custom.kiln] module to the starship config.")
	}

	// --- 2. Add the module to the prompt format if not already present ---
	if strings.Contains(content, "${custom.kiln}") || strings.Contains(content, "$custom.kiln") {
		pretty.Success("kiln module already in the starship format.")
	} else {
		// Try to insert it after git_metrics, which is a common element.
		target := "$git_metrics\\"
		if strings.Contains(content, target) {
			replacement := target + "\n${custom.kiln}\\"
			content = strings.Replace(content, target, replacement, 1)
			pretty.Success("Added the kiln module to the starship format.")
		} else {
			pretty.WarnPretty("Could not automatically add '${custom.kiln}' to your starship format.")
			pretty.InfoPretty("Add it manually to the 'format' string in " + configPath)
		}
	}

	// --- 3. Write the updated config back ---
	err = os.WriteFile(configPath, []byte(content), 0o644)
	if err != nil {
		return fmt.Errorf("failed to write updated starship config: %w", err)
	}

	pretty.Path("Updated", configPath)
	pretty.InfoPretty("Restart your shell to pick up the new prompt module.")
	return nil
}

func runStarshipStatus(cmd *cobra.Command, args []string) error {
	// The prompt redraws constantly, so this path must be fast and silent:
	// any failure prints nothing and exits zero.
	cwd, err := os.Getwd()
	if err != nil {
		return nil
	}

	projectConfig, err := config.FindConfigFile(cwd)
	if err != nil {
		return nil
	}
	root := filepath.Dir(projectConfig)

	client, err := daemon.NewClient()
	if err != nil {
		return nil
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 500*time.Millisecond)
	defer cancel()

	active, err := client.GetActive(ctx, root)
	if err != nil {
		return nil
	}

	// Call all registered providers and collect their output
	var outputs []string
	for _, provider := range providers {
		output, err := provider(active)
		if err != nil {
			// Silently ignore provider errors
			continue
		}
		if output != "" {
			outputs = append(outputs, output)
		}
	}

	// Print all non-empty outputs, joined by separator
	if len(outputs) > 0 {
		fmt.Print(strings.Join(outputs, " | "))
	}

	return nil
}
