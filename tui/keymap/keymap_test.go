package keymap

import (
	"testing"

	"github.com/kilntools/kiln/config"
)

func TestDefaultVim(t *testing.T) {
	km := DefaultVim()

	// Test navigation keys
	if keys := km.Up.Keys(); len(keys) < 1 || keys[0] != "k" {
		t.Errorf("Expected Up to have 'k' as first key, got %v", keys)
	}
	if keys := km.Down.Keys(); len(keys) < 1 || keys[0] != "j" {
		t.Errorf("Expected Down to have 'j' as first key, got %v", keys)
	}

	// Test sequence keys
	if keys := km.Top.Keys(); len(keys) < 1 || keys[0] != "gg" {
		t.Errorf("Expected Top to have 'gg' as key, got %v", keys)
	}
	if keys := km.Bottom.Keys(); len(keys) < 1 || keys[0] != "G" {
		t.Errorf("Expected Bottom to have 'G' as key, got %v", keys)
	}
}

func TestDefaultEmacs(t *testing.T) {
	km := DefaultEmacs()

	// Test emacs navigation overrides
	if keys := km.Up.Keys(); len(keys) < 1 || keys[0] != "ctrl+p" {
		t.Errorf("Expected Up to have 'ctrl+p' as first key, got %v", keys)
	}
	if keys := km.Down.Keys(); len(keys) < 1 || keys[0] != "ctrl+n" {
		t.Errorf("Expected Down to have 'ctrl+n' as first key, got %v", keys)
	}
	if keys := km.Search.Keys(); len(keys) < 1 || keys[0] != "ctrl+s" {
		t.Errorf("Expected Search to have 'ctrl+s' as first key, got %v", keys)
	}

	// Confirm stays on enter in every preset
	if keys := km.Confirm.Keys(); len(keys) < 1 || keys[0] != "enter" {
		t.Errorf("Expected Confirm to have 'enter' as first key, got %v", keys)
	}
}

func TestDefaultArrows(t *testing.T) {
	km := DefaultArrows()

	// Arrows preset drops the letter aliases entirely
	if keys := km.Up.Keys(); len(keys) != 1 || keys[0] != "up" {
		t.Errorf("Expected Up to be exactly ['up'], got %v", keys)
	}
	if keys := km.Down.Keys(); len(keys) != 1 || keys[0] != "down" {
		t.Errorf("Expected Down to be exactly ['down'], got %v", keys)
	}
}

func TestLoad_NilConfig(t *testing.T) {
	km := Load(nil)

	// Should return vim defaults
	if keys := km.Up.Keys(); len(keys) < 1 || keys[0] != "k" {
		t.Errorf("Expected vim-style Up key, got %v", keys)
	}
}

func TestLoad_PresetSelection(t *testing.T) {
	tests := []struct {
		preset   string
		expected string // Expected first key for Up
	}{
		{"vim", "k"},
		{"emacs", "ctrl+p"},
		{"arrows", "up"},
		{"", "k"},        // Default
		{"unknown", "k"}, // Unknown falls back to vim
	}

	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			cfg := &config.Config{
				TUI: &config.TUIConfig{
					Preset: tt.preset,
				},
			}
			km := Load(cfg)

			keys := km.Up.Keys()
			if len(keys) < 1 || keys[0] != tt.expected {
				t.Errorf("Preset %q: expected Up=%q, got %v", tt.preset, tt.expected, keys)
			}
		})
	}
}

func TestLoad_KeybindingOverrides(t *testing.T) {
	cfg := &config.Config{
		TUI: &config.TUIConfig{
			Preset: "vim",
			Keybindings: map[string][]string{
				"confirm":  {"o", "enter"},
				"quit":     {"ctrl+q"},
				"teleport": {"z"}, // Unknown action, ignored
			},
		},
	}

	km := Load(cfg)

	if keys := km.Confirm.Keys(); len(keys) != 2 || keys[0] != "o" || keys[1] != "enter" {
		t.Errorf("Expected Confirm=['o', 'enter'], got %v", keys)
	}
	if keys := km.Quit.Keys(); len(keys) != 1 || keys[0] != "ctrl+q" {
		t.Errorf("Expected Quit=['ctrl+q'], got %v", keys)
	}

	// The help description survives a rebind
	if desc := km.Confirm.Help().Desc; desc == "" {
		t.Error("Expected Confirm to keep its help description after rebind")
	}

	// Untouched actions keep the preset keys
	if keys := km.Up.Keys(); len(keys) < 1 || keys[0] != "k" {
		t.Errorf("Expected Up to keep vim key 'k', got %v", keys)
	}
}

func TestLoad_OverridesOnPreset(t *testing.T) {
	cfg := &config.Config{
		TUI: &config.TUIConfig{
			Preset: "arrows",
			Keybindings: map[string][]string{
				"up": {"w"},
			},
		},
	}

	km := Load(cfg)

	// Override replaces the preset binding
	if keys := km.Up.Keys(); len(keys) != 1 || keys[0] != "w" {
		t.Errorf("Expected Up=['w'], got %v", keys)
	}
	// Sibling bindings keep the preset
	if keys := km.Down.Keys(); len(keys) != 1 || keys[0] != "down" {
		t.Errorf("Expected Down=['down'], got %v", keys)
	}
}

func TestLoad_MultipleKeys(t *testing.T) {
	cfg := &config.Config{
		TUI: &config.TUIConfig{
			Keybindings: map[string][]string{
				"up": {"w", "k", "up"},
			},
		},
	}

	km := Load(cfg)

	keys := km.Up.Keys()
	if len(keys) != 3 {
		t.Errorf("Expected 3 keys for Up, got %d: %v", len(keys), keys)
	}
	if keys[0] != "w" || keys[1] != "k" || keys[2] != "up" {
		t.Errorf("Expected ['w', 'k', 'up'], got %v", keys)
	}
}

func TestNewBase(t *testing.T) {
	km := NewBase()

	// NewBase should return vim defaults
	if keys := km.Up.Keys(); len(keys) < 1 || keys[0] != "k" {
		t.Errorf("NewBase should return vim defaults, got Up=%v", keys)
	}
}

func TestSections(t *testing.T) {
	km := DefaultVim()
	sections := km.Sections()

	expectedNames := []string{SectionNavigation, SectionActions, SectionSearch, SectionSystem}
	if len(sections) != len(expectedNames) {
		t.Fatalf("Expected %d sections, got %d", len(expectedNames), len(sections))
	}

	for i, name := range expectedNames {
		if sections[i].Name != name {
			t.Errorf("Section %d: expected name %q, got %q", i, name, sections[i].Name)
		}
		if len(sections[i].Bindings) == 0 {
			t.Errorf("Section %q is empty", name)
		}
	}
}
