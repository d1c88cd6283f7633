package picker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kilntools/kiln/pkg/buildcfg"
	"github.com/kilntools/kiln/tui/components"
	"github.com/kilntools/kiln/tui/theme"
)

// View renders the picker.
func (m *Model) View() string {
	if m.width > 0 && (m.width < 40 || m.height < 10) {
		return "Terminal too small. Please resize."
	}

	if m.help.ShowAll {
		return m.help.View()
	}

	t := theme.DefaultTheme

	header := components.RenderHeader("Select Build Configuration", shortenPath(m.root))

	body := strings.Join(m.visibleRows(), "\n")
	if len(m.filtered) == 0 {
		body = t.Muted.Render("No configurations match.")
	}

	sections := []string{header, "", body}

	if detail := m.detailLine(); detail != "" {
		sections = append(sections, "", detail)
	}

	if m.filterInput.Focused() || m.filterInput.Value() != "" {
		sections = append(sections, "", m.filterInput.View())
	}

	if m.status != "" {
		sections = append(sections, "", t.Muted.Render(m.status))
	}

	footerWidth := m.width - 2
	if footerWidth < 0 {
		footerWidth = 0
	}
	sections = append(sections, components.RenderFooter(m.help.View(), footerWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// visibleRows renders the slice of the filtered list that fits the window.
func (m *Model) visibleRows() []string {
	t := theme.DefaultTheme

	start := m.scrollOffset
	end := start + m.listHeight()
	if end > len(m.filtered) {
		end = len(m.filtered)
	}
	if start > end {
		start = end
	}

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		c := m.filtered[i]

		marker := " "
		if buildcfg.SameTarget(c, m.active) {
			marker = t.Success.Render(theme.IconActive)
		}

		cursor := "  "
		name := t.Normal.Render(c.Name)
		if i == m.cursor {
			cursor = t.Highlight.Render(theme.IconSelect) + " "
			name = t.Selected.Render(c.Name)
		}

		dir := t.Muted.Render(shortenPath(c.Directory))
		rows = append(rows, fmt.Sprintf("%s%s %s  %s", cursor, marker, name, dir))
	}

	if len(m.filtered) > m.listHeight() {
		rows = append(rows, t.Muted.Render(
			fmt.Sprintf("showing %d-%d of %d", start+1, end, len(m.filtered)),
		))
	}

	return rows
}

// detailLine summarizes the highlighted configuration under the list.
func (m *Model) detailLine() string {
	if len(m.filtered) == 0 || m.cursor >= len(m.filtered) {
		return ""
	}
	c := m.filtered[m.cursor]

	parts := []string{components.RenderKeyValue("directory", shortenPath(c.Directory))}
	if c.Commands != nil {
		if c.Commands.Build != "" {
			parts = append(parts, components.RenderKeyValue("build", c.Commands.Build))
		}
		if c.Commands.Clean != "" {
			parts = append(parts, components.RenderKeyValue("clean", c.Commands.Clean))
		}
	}
	return strings.Join(parts, "  ")
}

// shortenPath replaces the home directory prefix with a tilde (~).
func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if strings.HasPrefix(path, home) {
		return filepath.Join("~", strings.TrimPrefix(path, home))
	}

	return path
}
