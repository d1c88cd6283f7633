// Package keymap defines the keybindings shared by kiln's terminal
// interfaces: a base set with vim, emacs and arrow-key presets, overridable
// per action from the tui section of kiln.yml.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/kilntools/kiln/config"
)

// Base contains the standard keybindings used across kiln TUIs.
// Prioritizes vim-style navigation and standard actions.
type Base struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Top      key.Binding // gg sequence
	Bottom   key.Binding // G

	// Core actions
	Confirm key.Binding
	Cancel  key.Binding
	Back    key.Binding
	Refresh key.Binding
	Clear   key.Binding

	// Search
	Search      key.Binding
	ClearSearch key.Binding

	// System
	Quit key.Binding
	Help key.Binding
}

// NewBase creates a new Base keymap with the default keybindings (vim style).
func NewBase() Base {
	return DefaultVim()
}

// DefaultVim returns the default vim-style keymap.
func DefaultVim() Base {
	return Base{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("ctrl+u", "pgup"),
			key.WithHelp("C-u", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("ctrl+d", "pgdown"),
			key.WithHelp("C-d", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "start"),
		),
		End: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("end", "end"),
		),
		Top: key.NewBinding(
			key.WithKeys("gg"),
			key.WithHelp("gg", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "bottom"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "cancel"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "refresh"),
		),
		Clear: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear selection"),
		),

		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		ClearSearch: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "clear search"),
		),

		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

// DefaultEmacs returns an emacs-style keymap.
func DefaultEmacs() Base {
	b := DefaultVim()
	b.Up = key.NewBinding(
		key.WithKeys("ctrl+p", "up"),
		key.WithHelp("C-p", "up"),
	)
	b.Down = key.NewBinding(
		key.WithKeys("ctrl+n", "down"),
		key.WithHelp("C-n", "down"),
	)
	b.PageUp = key.NewBinding(
		key.WithKeys("alt+v", "pgup"),
		key.WithHelp("M-v", "page up"),
	)
	b.PageDown = key.NewBinding(
		key.WithKeys("ctrl+v", "pgdown"),
		key.WithHelp("C-v", "page down"),
	)
	b.Top = key.NewBinding(
		key.WithKeys("alt+<", "home"),
		key.WithHelp("M-<", "top"),
	)
	b.Bottom = key.NewBinding(
		key.WithKeys("alt+>", "end"),
		key.WithHelp("M->", "bottom"),
	)
	b.Search = key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("C-s", "search"),
	)
	return b
}

// DefaultArrows returns a simplified keymap using primarily arrow keys.
func DefaultArrows() Base {
	b := DefaultVim()
	b.Up = key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("up", "up"),
	)
	b.Down = key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("down", "down"),
	)
	b.PageUp = key.NewBinding(
		key.WithKeys("pgup", "shift+up"),
		key.WithHelp("PgUp", "page up"),
	)
	b.PageDown = key.NewBinding(
		key.WithKeys("pgdown", "shift+down"),
		key.WithHelp("PgDn", "page down"),
	)
	b.Top = key.NewBinding(
		key.WithKeys("home", "ctrl+home"),
		key.WithHelp("Home", "top"),
	)
	b.Bottom = key.NewBinding(
		key.WithKeys("end", "ctrl+end"),
		key.WithHelp("End", "bottom"),
	)
	return b
}

// Load creates a Base keymap based on configuration. It starts with the
// selected preset (vim/emacs/arrows), then applies per-action overrides
// from tui.keybindings.
func Load(cfg *config.Config) Base {
	preset := "vim"
	if cfg != nil && cfg.TUI != nil && cfg.TUI.Preset != "" {
		preset = cfg.TUI.Preset
	}

	var base Base
	switch preset {
	case "emacs":
		base = DefaultEmacs()
	case "arrows":
		base = DefaultArrows()
	default:
		base = DefaultVim()
	}

	if cfg == nil || cfg.TUI == nil || len(cfg.TUI.Keybindings) == 0 {
		return base
	}

	for action, keys := range cfg.TUI.Keybindings {
		if binding := base.binding(action); binding != nil {
			updateBinding(binding, keys)
		}
	}

	return base
}

// binding maps an action name from tui.keybindings to the binding it
// rebinds. Unknown names return nil and are ignored.
func (b *Base) binding(action string) *key.Binding {
	switch action {
	case "up":
		return &b.Up
	case "down":
		return &b.Down
	case "page_up":
		return &b.PageUp
	case "page_down":
		return &b.PageDown
	case "home":
		return &b.Home
	case "end":
		return &b.End
	case "top":
		return &b.Top
	case "bottom":
		return &b.Bottom
	case "confirm":
		return &b.Confirm
	case "cancel":
		return &b.Cancel
	case "back":
		return &b.Back
	case "refresh":
		return &b.Refresh
	case "clear":
		return &b.Clear
	case "search":
		return &b.Search
	case "clear_search":
		return &b.ClearSearch
	case "quit":
		return &b.Quit
	case "help":
		return &b.Help
	}
	return nil
}

// updateBinding replaces a binding's keys while preserving the help description.
func updateBinding(binding *key.Binding, keys []string) {
	if len(keys) > 0 {
		helpDesc := binding.Help().Desc
		*binding = key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(keys[0], helpDesc),
		)
	}
}

// Sections organizes the base bindings for structured help display.
func (b Base) Sections() []Section {
	return []Section{
		NavigationSection(b.Up, b.Down, b.PageUp, b.PageDown, b.Top, b.Bottom),
		ActionsSection(b.Confirm, b.Clear, b.Refresh, b.Back),
		SearchSection(b.Search, b.ClearSearch),
		SystemSection(b.Help, b.Quit),
	}
}

// ShortHelp returns the bindings shown on the one-line help footer.
func (b Base) ShortHelp() []key.Binding {
	return []key.Binding{b.Confirm, b.Search, b.Quit}
}
