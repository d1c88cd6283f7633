package picker

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kilntools/kiln/pkg/buildcfg"
)

// configsLoadedMsg is sent when a refresh round-trip completes.
type configsLoadedMsg struct {
	configs []*buildcfg.Configuration
	err     error
}

// reloadConfigs runs the loader off the UI goroutine and delivers the result
// as a configsLoadedMsg.
func reloadConfigs(load Loader) tea.Cmd {
	return func() tea.Msg {
		configs, err := load()
		return configsLoadedMsg{configs: configs, err: err}
	}
}
