// Package theme centralizes the lipgloss styles shared by kiln's CLI
// output and TUI components.
package theme

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/kilntools/kiln/config"
)

const defaultThemeName = "ember"

// --- Ember palette, kiln's house style ---
const (
	emberDarkGreen              = "#9CBA7F"
	emberDarkYellow             = "#E8B75F"
	emberDarkRed                = "#E85A51"
	emberDarkOrange             = "#F28C48"
	emberDarkCyan               = "#6FA8A3"
	emberDarkBlue               = "#7A9EC2"
	emberDarkViolet             = "#A083C4"
	emberDarkLightText          = "#E8E3D3"
	emberDarkMutedText          = "#8A8578"
	emberDarkBorder             = "#4A4440"
	emberDarkSelectedBackground = "#3A322C"
	emberDarkSubtleBackground   = "#262220"

	emberLightGreen              = "#5A7D43"
	emberLightYellow             = "#9C7B2F"
	emberLightRed                = "#B03A33"
	emberLightOrange             = "#B5622B"
	emberLightCyan               = "#3D7A74"
	emberLightBlue               = "#456E94"
	emberLightViolet             = "#6E5491"
	emberLightLightText          = "#33302A"
	emberLightMutedText          = "#7D786C"
	emberLightBorder             = "#C9C2B2"
	emberLightSelectedBackground = "#EDE5D4"
	emberLightSubtleBackground   = "#F6F1E6"
)

// --- Terminal (ANSI-friendly) palette ---
const (
	terminalGreen              = "2"
	terminalYellow             = "3"
	terminalRed                = "1"
	terminalOrange             = "208"
	terminalCyan               = "6"
	terminalBlue               = "4"
	terminalViolet             = "5"
	terminalLightText          = "7"
	terminalMutedText          = "8"
	terminalBorder             = "8"
	terminalSelectedBackground = "8"
	terminalSubtleBackground   = "0"
)

// Colors encapsulates the palette used by a theme. lipgloss.TerminalColor
// allows a mix of adaptive and static colors.
type Colors struct {
	Green              lipgloss.TerminalColor
	Yellow             lipgloss.TerminalColor
	Red                lipgloss.TerminalColor
	Orange             lipgloss.TerminalColor
	Cyan               lipgloss.TerminalColor
	Blue               lipgloss.TerminalColor
	Violet             lipgloss.TerminalColor
	LightText          lipgloss.TerminalColor
	MutedText          lipgloss.TerminalColor
	Border             lipgloss.TerminalColor
	SelectedBackground lipgloss.TerminalColor
	SubtleBackground   lipgloss.TerminalColor
}

// DefaultColors exposes the active color palette selected for the current
// terminal.
var DefaultColors Colors

// Theme holds the pre-configured styles used across kiln.
type Theme struct {
	Colors Colors

	// Headers and titles
	Header lipgloss.Style
	Title  lipgloss.Style

	// Status indicators
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Text styles
	Bold     lipgloss.Style
	Italic   lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style

	// Table styles
	TableHeader lipgloss.Style
	TableRow    lipgloss.Style

	// Container styles
	Box lipgloss.Style

	// Interactive elements
	Placeholder lipgloss.Style
	Cursor      lipgloss.Style

	// Special styles
	Highlight lipgloss.Style
	Accent    lipgloss.Style
}

var themeRegistry = map[string]func() Colors{
	"ember":    newEmberColors,
	"terminal": newTerminalColors,
}

var themeAliases = map[string]string{
	"ember-dark":  "ember",
	"ember-light": "ember",
	"ansi":        "terminal",
}

// DefaultTheme is the theme instance used by kiln unless a command builds
// its own.
var DefaultTheme = initDefaultTheme()

// NewTheme creates a theme based on the configured theme selection.
func NewTheme() *Theme {
	return newThemeFromName(getThemeName())
}

// NewThemeWithName constructs a theme from a specific palette name.
func NewThemeWithName(name string) *Theme {
	return newThemeFromName(name)
}

// RenderStatus renders text with the appropriate status style.
func RenderStatus(status, text string) string {
	switch status {
	case "success":
		return DefaultTheme.Success.Render(text)
	case "error":
		return DefaultTheme.Error.Render(text)
	case "warning":
		return DefaultTheme.Warning.Render(text)
	case "info":
		return DefaultTheme.Info.Render(text)
	default:
		return text
	}
}

func initDefaultTheme() *Theme {
	colors := resolveThemeColors(getThemeName())
	DefaultColors = colors
	return newThemeFromColors(colors)
}

func newThemeFromName(name string) *Theme {
	return newThemeFromColors(resolveThemeColors(name))
}

func newThemeFromColors(colors Colors) *Theme {
	return &Theme{
		Colors: colors,

		Header: lipgloss.NewStyle().
			Bold(true).
			MarginTop(1).
			MarginBottom(1),

		Title: lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			MarginBottom(1),

		Success: lipgloss.NewStyle().
			Foreground(colors.Green).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(colors.Red).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(colors.Yellow).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(colors.Cyan).
			Bold(true),

		Bold: lipgloss.NewStyle().
			Bold(true),

		Italic: lipgloss.NewStyle().
			Italic(true),

		Normal: lipgloss.NewStyle(),

		Muted: lipgloss.NewStyle().
			Faint(true),

		Selected: lipgloss.NewStyle().
			Background(colors.SelectedBackground).
			Foreground(colors.LightText),

		TableHeader: lipgloss.NewStyle().
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colors.Border),

		TableRow: lipgloss.NewStyle(),

		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Border).
			Padding(1, 2).
			Margin(1, 0),

		Placeholder: lipgloss.NewStyle().
			Foreground(colors.MutedText).
			Italic(true),

		Cursor: lipgloss.NewStyle().
			Foreground(colors.Orange).
			Bold(true),

		Highlight: lipgloss.NewStyle().
			Foreground(colors.Orange).
			Bold(true),

		Accent: lipgloss.NewStyle().
			Foreground(colors.Violet).
			Bold(true),
	}
}

func resolveThemeColors(name string) Colors {
	key := normalizeThemeName(name)
	if alias, ok := themeAliases[key]; ok {
		key = alias
	}
	if builder, ok := themeRegistry[key]; ok {
		return builder()
	}
	return themeRegistry[defaultThemeName]()
}

func normalizeThemeName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.ReplaceAll(normalized, "_", "-")
	return normalized
}

func getThemeName() string {
	if theme := normalizeThemeName(os.Getenv("KILN_THEME")); theme != "" {
		return theme
	}

	cfg, err := config.LoadDefault()
	if err != nil || cfg == nil || cfg.TUI == nil {
		return defaultThemeName
	}
	if theme := normalizeThemeName(cfg.TUI.Theme); theme != "" {
		return theme
	}

	return defaultThemeName
}

func newEmberColors() Colors {
	return Colors{
		Green:              lipgloss.AdaptiveColor{Light: emberLightGreen, Dark: emberDarkGreen},
		Yellow:             lipgloss.AdaptiveColor{Light: emberLightYellow, Dark: emberDarkYellow},
		Red:                lipgloss.AdaptiveColor{Light: emberLightRed, Dark: emberDarkRed},
		Orange:             lipgloss.AdaptiveColor{Light: emberLightOrange, Dark: emberDarkOrange},
		Cyan:               lipgloss.AdaptiveColor{Light: emberLightCyan, Dark: emberDarkCyan},
		Blue:               lipgloss.AdaptiveColor{Light: emberLightBlue, Dark: emberDarkBlue},
		Violet:             lipgloss.AdaptiveColor{Light: emberLightViolet, Dark: emberDarkViolet},
		LightText:          lipgloss.AdaptiveColor{Light: emberLightLightText, Dark: emberDarkLightText},
		MutedText:          lipgloss.AdaptiveColor{Light: emberLightMutedText, Dark: emberDarkMutedText},
		Border:             lipgloss.AdaptiveColor{Light: emberLightBorder, Dark: emberDarkBorder},
		SelectedBackground: lipgloss.AdaptiveColor{Light: emberLightSelectedBackground, Dark: emberDarkSelectedBackground},
		SubtleBackground:   lipgloss.AdaptiveColor{Light: emberLightSubtleBackground, Dark: emberDarkSubtleBackground},
	}
}

func newTerminalColors() Colors {
	return Colors{
		Green:              lipgloss.Color(terminalGreen),
		Yellow:             lipgloss.Color(terminalYellow),
		Red:                lipgloss.Color(terminalRed),
		Orange:             lipgloss.Color(terminalOrange),
		Cyan:               lipgloss.Color(terminalCyan),
		Blue:               lipgloss.Color(terminalBlue),
		Violet:             lipgloss.Color(terminalViolet),
		LightText:          lipgloss.Color(terminalLightText),
		MutedText:          lipgloss.Color(terminalMutedText),
		Border:             lipgloss.Color(terminalBorder),
		SelectedBackground: lipgloss.Color(terminalSelectedBackground),
		SubtleBackground:   lipgloss.Color(terminalSubtleBackground),
	}
}
