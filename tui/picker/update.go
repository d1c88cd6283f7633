package picker

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kilntools/kiln/pkg/buildcfg"
	"github.com/kilntools/kiln/tui/keymap"
)

// Update handles messages and updates the model accordingly.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetSize(m.width, m.height)
		return m, nil

	case configsLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.all = msg.configs
		m.status = ""
		m.applyFilter()
		m.ensureCursorVisible()
		return m, nil

	case tea.KeyMsg:
		if m.help.ShowAll {
			var cmd tea.Cmd
			m.help, cmd = m.help.Update(msg)
			return m, cmd
		}

		if m.filterInput.Focused() {
			return m.updateFilterInput(msg)
		}

		// Multi-key sequences run before single-key matching so a pending
		// 'g' is not swallowed by another binding.
		if result, idx := m.seq.Process(msg, keymap.CommonSequenceBindings(m.keys)...); result != keymap.SequenceNone {
			if result == keymap.SequenceMatch {
				m.seq.Clear()
				if idx == 0 { // Top
					m.cursor = 0
					m.scrollOffset = 0
				}
			}
			return m, nil
		}
		m.seq.Clear()

		switch {
		case key.Matches(msg, m.keys.Search):
			m.filterInput.Focus()
			return m, textinput.Blink

		case key.Matches(msg, m.keys.ClearSearch):
			m.filterInput.SetValue("")
			m.applyFilter()

		case key.Matches(msg, m.keys.Confirm):
			if len(m.filtered) > 0 && m.cursor < len(m.filtered) {
				m.Selected = m.filtered[m.cursor]
				return m, tea.Quit
			}

		case key.Matches(msg, m.keys.Clear):
			m.ClearRequested = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Refresh):
			if m.loader != nil {
				m.status = "refreshing..."
				return m, reloadConfigs(m.loader)
			}

		case key.Matches(msg, m.keys.Quit),
			key.Matches(msg, m.keys.Back),
			key.Matches(msg, m.keys.Cancel):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.Toggle()

		case key.Matches(msg, m.keys.Bottom), key.Matches(msg, m.keys.End):
			if len(m.filtered) > 0 {
				m.cursor = len(m.filtered) - 1
				m.ensureCursorVisible()
			}

		case key.Matches(msg, m.keys.Home):
			m.cursor = 0
			m.scrollOffset = 0

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.ensureCursorVisible()
			}

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
				m.ensureCursorVisible()
			}

		case key.Matches(msg, m.keys.PageUp):
			m.cursor -= m.listHeight()
			if m.cursor < 0 {
				m.cursor = 0
			}
			m.ensureCursorVisible()

		case key.Matches(msg, m.keys.PageDown):
			m.cursor += m.listHeight()
			if m.cursor >= len(m.filtered) {
				m.cursor = len(m.filtered) - 1
			}
			if m.cursor < 0 {
				m.cursor = 0
			}
			m.ensureCursorVisible()
		}
	}

	return m, nil
}

// updateFilterInput handles keys while the filter field is focused. Only
// non-typable keys are intercepted so every letter reaches the input.
func (m *Model) updateFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Cancel):
		m.filterInput.Blur()
		return m, nil

	case key.Matches(msg, m.keys.ClearSearch):
		m.filterInput.SetValue("")
		m.applyFilter()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		if len(m.filtered) > 0 && m.cursor < len(m.filtered) {
			m.Selected = m.filtered[m.cursor]
			return m, tea.Quit
		}
		return m, nil

	case msg.Type == tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
			m.ensureCursorVisible()
		}
		return m, nil

	case msg.Type == tea.KeyDown:
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
			m.ensureCursorVisible()
		}
		return m, nil

	default:
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		m.applyFilter()
		m.cursor = 0
		m.scrollOffset = 0
		return m, cmd
	}
}

// applyFilter narrows the configuration list by case-insensitive substring
// match on name and directory.
func (m *Model) applyFilter() {
	needle := strings.ToLower(strings.TrimSpace(m.filterInput.Value()))
	if needle == "" {
		m.filtered = m.all
	} else {
		var out []*buildcfg.Configuration
		for _, c := range m.all {
			if strings.Contains(strings.ToLower(c.Name), needle) ||
				strings.Contains(strings.ToLower(c.Directory), needle) {
				out = append(out, c)
			}
		}
		m.filtered = out
	}

	if m.cursor >= len(m.filtered) {
		m.cursor = len(m.filtered) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// ensureCursorVisible adjusts the scroll offset so the cursor stays inside
// the visible window.
func (m *Model) ensureCursorVisible() {
	visible := m.listHeight()

	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+visible {
		m.scrollOffset = m.cursor - visible + 1
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

// listHeight returns the number of rows available for the configuration
// list after the surrounding chrome.
func (m *Model) listHeight() int {
	h := m.height - 10
	if h < 3 {
		h = 3
	}
	return h
}
