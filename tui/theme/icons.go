package theme

import (
	"os"

	"github.com/kilntools/kiln/config"
)

// Nerd Font icons
const (
	nerdIconRoot    = "" // cod-project (U+EB30)
	nerdIconConfig  = "" // fa-wrench (U+F0AD)
	nerdIconActive  = "󰈸" // md-fire (U+F0238)
	nerdIconSuccess = "󰄬" // md-check (U+F012C)
	nerdIconError   = "" // cod-error (U+EA87)
	nerdIconWarning = "" // fa-warning (U+F071)
	nerdIconInfo    = "󰋼" // md-information (U+F02FC)
	nerdIconRunning = "" // fa-refresh (U+F021)
	nerdIconSelect  = "󰱒" // md-checkbox_outline (U+F0C52)
	nerdIconArrow   = "󰁔" // md-arrow_right (U+F0054)
	nerdIconBullet  = "" // oct-dot_fill (U+F444)
	nerdIconSearch  = "" // fa-search (U+F002)
)

// ASCII fallbacks
const (
	asciiIconRoot    = "◆"
	asciiIconConfig  = "⚙"
	asciiIconActive  = "*"
	asciiIconSuccess = "✓"
	asciiIconError   = "✗"
	asciiIconWarning = "⚠"
	asciiIconInfo    = "ℹ"
	asciiIconRunning = "◐"
	asciiIconSelect  = "▶"
	asciiIconArrow   = "→"
	asciiIconBullet  = "•"
	asciiIconSearch  = "⌕"
)

// Public icon variables, populated at init from the configured icon set.
var (
	IconRoot    string
	IconConfig  string
	IconActive  string
	IconSuccess string
	IconError   string
	IconWarning string
	IconInfo    string
	IconRunning string
	IconSelect  string
	IconArrow   string
	IconBullet  string
	IconSearch  string
)

// init determines which icon set to use
func init() {
	useASCII := false

	// 1. Check environment variable first
	if os.Getenv("KILN_ICONS") == "ascii" {
		useASCII = true
	} else {
		// 2. Check config file
		cfg, err := config.LoadDefault()
		if err == nil && cfg.TUI != nil && cfg.TUI.Icons == "ascii" {
			useASCII = true
		}
	}

	if useASCII {
		IconRoot = asciiIconRoot
		IconConfig = asciiIconConfig
		IconActive = asciiIconActive
		IconSuccess = asciiIconSuccess
		IconError = asciiIconError
		IconWarning = asciiIconWarning
		IconInfo = asciiIconInfo
		IconRunning = asciiIconRunning
		IconSelect = asciiIconSelect
		IconArrow = asciiIconArrow
		IconBullet = asciiIconBullet
		IconSearch = asciiIconSearch
	} else {
		IconRoot = nerdIconRoot
		IconConfig = nerdIconConfig
		IconActive = nerdIconActive
		IconSuccess = nerdIconSuccess
		IconError = nerdIconError
		IconWarning = nerdIconWarning
		IconInfo = nerdIconInfo
		IconRunning = nerdIconRunning
		IconSelect = nerdIconSelect
		IconArrow = nerdIconArrow
		IconBullet = nerdIconBullet
		IconSearch = nerdIconSearch
	}
}
