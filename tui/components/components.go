package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/kilntools/kiln/tui/theme"
)

// RenderHeader creates a consistent header for TUIs
func RenderHeader(title string, subtitle ...string) string {
	t := theme.DefaultTheme

	header := t.Header.Render(fmt.Sprintf("%s %s", theme.IconActive, title))

	if len(subtitle) > 0 && subtitle[0] != "" {
		sub := t.Muted.Render(subtitle[0])
		return lipgloss.JoinVertical(lipgloss.Left, header, sub)
	}

	return header
}

// RenderFooter creates a consistent footer for TUIs
func RenderFooter(content string, width int) string {
	footerStyle := lipgloss.NewStyle().
		Foreground(theme.DefaultColors.MutedText).
		Width(width).
		Align(lipgloss.Center).
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(theme.DefaultColors.Border).
		MarginTop(1)

	return footerStyle.Render(content)
}

// RenderKeyValue creates a key-value display
func RenderKeyValue(key, value string) string {
	t := theme.DefaultTheme
	return fmt.Sprintf("%s %s", t.Muted.Render(key+":"), value)
}
