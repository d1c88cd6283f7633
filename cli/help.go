package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/kilntools/kiln/tui/theme"
)

// Help output wraps to the terminal width, clamped so it stays readable on
// very wide or very narrow terminals.
const (
	helpMaxWidth = 60
	helpMinWidth = 40
)

// SetStyledHelp replaces a command's help renderer with the kiln one.
func SetStyledHelp(cmd *cobra.Command) {
	cmd.SetHelpFunc(renderHelp)
}

// ApplyStyledHelpRecursive installs the styled help and usage renderers on a
// command tree. Call it after every subcommand has been added.
func ApplyStyledHelpRecursive(cmd *cobra.Command) {
	cmd.SetHelpFunc(renderHelp)
	cmd.SetUsageFunc(func(*cobra.Command) error {
		// Errors already render through the ErrorHandler; the default
		// usage dump would just bury them.
		return nil
	})
	for _, sub := range cmd.Commands() {
		ApplyStyledHelpRecursive(sub)
	}
}

func helpWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < helpMinWidth {
		return helpMaxWidth
	}
	if width > helpMaxWidth {
		return helpMaxWidth
	}
	return width
}

// wrap re-flows text to width, keeping blank lines and short lines as-is.
func wrap(text string, width int) []string {
	if width <= 0 {
		width = helpMaxWidth
	}

	var out []string
	for _, paragraph := range strings.Split(text, "\n") {
		if len(paragraph) <= width {
			out = append(out, paragraph)
			continue
		}
		line := ""
		for _, word := range strings.Fields(paragraph) {
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) <= width:
				line += " " + word
			default:
				out = append(out, line)
				line = word
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// splitExamples separates a Long description into prose and the example
// block, when the description carries an "Examples:" section.
func splitExamples(long string) (description, examples string) {
	for _, marker := range []string{"\nExamples:\n", "\nExample:\n"} {
		if idx := strings.Index(long, marker); idx != -1 {
			return strings.TrimSpace(long[:idx]), strings.TrimSpace(long[idx+len(marker):])
		}
	}
	return long, ""
}

func renderHelp(cmd *cobra.Command, _ []string) {
	t := theme.DefaultTheme
	title := lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Orange)
	section := lipgloss.NewStyle().Italic(true).Foreground(t.Colors.Orange)
	subName := lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Blue)
	flagName := lipgloss.NewStyle().Foreground(t.Colors.Violet)

	width := helpWidth() - 2

	fmt.Println(" " + title.Render(strings.ToUpper(cmd.CommandPath())))

	description, examples := "", ""
	if cmd.Long != "" {
		description, examples = splitExamples(cmd.Long)
	} else {
		description = cmd.Short
	}

	if cmd.Short != "" {
		for _, line := range wrap(cmd.Short, width) {
			fmt.Println(" " + t.Italic.Render(line))
		}
	}
	if description != "" && description != cmd.Short {
		fmt.Println()
		for _, line := range wrap(description, width) {
			fmt.Println(" " + line)
		}
	}

	if cmd.Runnable() || cmd.HasSubCommands() {
		fmt.Println("\n " + section.Render("USAGE"))
		if cmd.Runnable() {
			fmt.Printf(" %s\n", cmd.UseLine())
		}
		if cmd.HasSubCommands() {
			fmt.Printf(" %s [command]\n", cmd.CommandPath())
		}
	}

	if cmd.HasAvailableSubCommands() {
		nameWidth := 0
		for _, sub := range cmd.Commands() {
			if sub.IsAvailableCommand() && len(sub.Name()) > nameWidth {
				nameWidth = len(sub.Name())
			}
		}
		fmt.Println("\n " + section.Render("COMMANDS"))
		for _, sub := range cmd.Commands() {
			if !sub.IsAvailableCommand() {
				continue
			}
			fmt.Printf(" %s%s  %s\n",
				subName.Render(sub.Name()),
				strings.Repeat(" ", nameWidth-len(sub.Name())),
				sub.Short)
		}
	}

	renderFlags(cmd, t, section, flagName)

	example := cmd.Example
	if example == "" {
		example = examples
	}
	if example != "" {
		fmt.Println("\n " + section.Render("EXAMPLES"))
		renderExampleBlock(t, example, cmd.CommandPath())
	}

	if cmd.HasSubCommands() {
		fmt.Printf("\n Use \"%s [command] --help\" for more information.\n", cmd.CommandPath())
	}
}

// renderFlags prints local flags: a compact inline list on parent commands,
// one line per flag on leaf commands.
func renderFlags(cmd *cobra.Command, t *theme.Theme, section, flagStyle lipgloss.Style) {
	var visible []*pflag.Flag
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if !f.Hidden {
			visible = append(visible, f)
		}
	})
	if len(visible) == 0 {
		return
	}

	if cmd.HasAvailableSubCommands() {
		names := make([]string, 0, len(visible))
		for _, f := range visible {
			if f.Shorthand != "" {
				names = append(names, fmt.Sprintf("-%s/--%s", f.Shorthand, f.Name))
			} else {
				names = append(names, "--"+f.Name)
			}
		}
		fmt.Println("\n " + t.Muted.Render("Flags: "+strings.Join(names, ", ")))
		return
	}

	fmt.Println("\n " + section.Render("FLAGS"))
	nameWidth := 0
	for _, f := range visible {
		if n := len(flagLabel(f)); n > nameWidth {
			nameWidth = n
		}
	}
	for _, f := range visible {
		label := flagLabel(f)
		usage := f.Usage
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "[]" {
			usage += t.Muted.Render(fmt.Sprintf(" (default: %s)", f.DefValue))
		}
		fmt.Printf(" %s%s  %s\n", flagStyle.Render(label),
			strings.Repeat(" ", nameWidth-len(label)), usage)
	}
}

func flagLabel(f *pflag.Flag) string {
	if f.Shorthand != "" {
		return fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	}
	return fmt.Sprintf("    --%s", f.Name)
}

// renderExampleBlock prints an example block with comments muted and the
// command words highlighted.
func renderExampleBlock(t *theme.Theme, examples, cmdPath string) {
	rootName := strings.Split(cmdPath, " ")[0]
	mainStyle := lipgloss.NewStyle().Foreground(t.Colors.Cyan)
	subStyle := lipgloss.NewStyle().Foreground(t.Colors.Blue)
	flagStyle := lipgloss.NewStyle().Foreground(t.Colors.Violet)

	for _, line := range strings.Split(examples, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			fmt.Println()
		case strings.HasPrefix(trimmed, "#"):
			fmt.Println(" " + t.Muted.Render(trimmed))
		default:
			words := strings.Fields(trimmed)
			for i, word := range words {
				switch {
				case i == 0 && word == rootName:
					words[i] = mainStyle.Render(word)
				case i == 1 && !strings.HasPrefix(word, "-"):
					words[i] = subStyle.Render(word)
				case strings.HasPrefix(word, "-"):
					words[i] = flagStyle.Render(word)
				}
			}
			fmt.Println("   " + strings.Join(words, " "))
		}
	}
}
