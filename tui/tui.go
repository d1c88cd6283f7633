// Package tui hosts kiln's interactive terminal surfaces. The configuration
// picker under tui/picker is the only full-screen program; this file carries
// the terminal bootstrap shared by whatever gets added next to it.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// InitializeTUI prepares the terminal for a full-screen program.
//
// Test harnesses and CI run the binary without a pty but still assert on
// styled frames; when they force color through CLICOLOR_FORCE or COLORTERM,
// the lipgloss profile is pinned to true color so rendering does not fall
// back to the dumb-terminal path. Interactive sessions keep normal terminal
// detection.
func InitializeTUI() {
	forced := os.Getenv("CLICOLOR_FORCE") == "1" ||
		os.Getenv("COLORTERM") == "truecolor"
	if forced {
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}
