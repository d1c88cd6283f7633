package keymap

import "github.com/charmbracelet/bubbles/key"

// Standard section names - use these for consistency across kiln TUIs.
// Using these constants keeps help displays uniform.
const (
	SectionNavigation = "Navigation"
	SectionActions    = "Actions"
	SectionSearch     = "Search"
	SectionSystem     = "System"
)

// Section represents a logical grouping of keybindings for structured help
// display.
type Section struct {
	Name     string
	Bindings []key.Binding
}

// SectionedKeyMap is an interface for keymaps that organize their bindings
// into sections. TUIs implementing this interface get section-based help
// rendering instead of the flat FullHelp() layout.
type SectionedKeyMap interface {
	Sections() []Section
}

// NewSection creates a section with a custom name.
// Use this for TUI-specific sections that don't fit the standard categories.
func NewSection(name string, bindings ...key.Binding) Section {
	return Section{Name: name, Bindings: bindings}
}

// NavigationSection creates a Navigation section with the specified bindings.
func NavigationSection(bindings ...key.Binding) Section {
	return Section{Name: SectionNavigation, Bindings: bindings}
}

// ActionsSection creates an Actions section with the specified bindings.
func ActionsSection(bindings ...key.Binding) Section {
	return Section{Name: SectionActions, Bindings: bindings}
}

// SearchSection creates a Search section with the specified bindings.
func SearchSection(bindings ...key.Binding) Section {
	return Section{Name: SectionSearch, Bindings: bindings}
}

// SystemSection creates a System section with the specified bindings.
func SystemSection(bindings ...key.Binding) Section {
	return Section{Name: SectionSystem, Bindings: bindings}
}

// FilterEnabled returns a new slice containing only enabled bindings.
func (s Section) FilterEnabled() []key.Binding {
	var result []key.Binding
	for _, b := range s.Bindings {
		if b.Enabled() {
			result = append(result, b)
		}
	}
	return result
}

// IsEmpty returns true if the section has no enabled bindings.
func (s Section) IsEmpty() bool {
	for _, b := range s.Bindings {
		if b.Enabled() {
			return false
		}
	}
	return true
}

// With returns a new section with additional bindings appended.
// Useful for extending a base section with custom bindings.
func (s Section) With(bindings ...key.Binding) Section {
	combined := make([]key.Binding, len(s.Bindings), len(s.Bindings)+len(bindings))
	copy(combined, s.Bindings)
	combined = append(combined, bindings...)
	return Section{Name: s.Name, Bindings: combined}
}
