// Package picker implements the interactive configuration picker behind
// `kiln use`. It presents the build configurations of a workspace root as a
// filterable list; the confirmed choice is reported through the Selected
// field once the program finishes.
package picker

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kilntools/kiln/config"
	"github.com/kilntools/kiln/pkg/buildcfg"
	"github.com/kilntools/kiln/tui/components/help"
	"github.com/kilntools/kiln/tui/keymap"
)

// Loader re-fetches the configuration list on demand. The picker invokes it
// from a background command when the user requests a refresh.
type Loader func() ([]*buildcfg.Configuration, error)

// Model represents the state of the configuration picker TUI.
type Model struct {
	all      []*buildcfg.Configuration // The full configuration list for the root.
	filtered []*buildcfg.Configuration // The list narrowed by the filter input.
	active   *buildcfg.Configuration
	root     string

	keys        keymap.Base
	seq         *keymap.SequenceState
	help        help.Model
	filterInput textinput.Model
	loader      Loader

	cursor       int
	scrollOffset int
	width        int
	height       int
	status       string

	// Selected holds the confirmed configuration after the program ends.
	// It stays nil when the picker is dismissed without a choice.
	Selected *buildcfg.Configuration

	// ClearRequested is set when the user asks to deactivate the current
	// configuration instead of choosing a new one.
	ClearRequested bool
}

// New creates a picker over the given configurations. active marks the
// configuration currently applied to the root; cfg supplies keybinding
// preferences and may be nil.
func New(configs []*buildcfg.Configuration, active *buildcfg.Configuration, root string, cfg *config.Config) *Model {
	keys := keymap.Load(cfg)

	ti := textinput.New()
	ti.Placeholder = "type to filter"
	ti.Prompt = "/ "

	h := help.New(keys)
	h.Title = "Configuration Picker"

	m := &Model{
		all:         configs,
		active:      active,
		root:        root,
		keys:        keys,
		seq:         keymap.NewSequenceState(),
		help:        h,
		filterInput: ti,
	}
	m.applyFilter()
	m.moveCursorToActive()
	return m
}

// SetLoader installs the refresh callback invoked on the refresh keybinding.
func (m *Model) SetLoader(l Loader) {
	m.loader = l
}

// Init is the first command that will be executed.
func (m *Model) Init() tea.Cmd {
	return nil
}

// moveCursorToActive positions the cursor on the active configuration so
// the picker opens with the current choice highlighted.
func (m *Model) moveCursorToActive() {
	if m.active == nil {
		return
	}
	for i, c := range m.filtered {
		if buildcfg.SameTarget(c, m.active) {
			m.cursor = i
			return
		}
	}
}
