package starship

import (
	"fmt"

	"github.com/kilntools/kiln/pkg/daemon"
	"github.com/kilntools/kiln/tui/theme"
)

// StatusProvider renders one prompt segment from a workspace root's active
// build configuration. Providers should return an empty string if they have
// nothing to display.
type StatusProvider func(active *daemon.ActiveConfig) (string, error)

// providers holds all registered status providers.
var providers []StatusProvider

// RegisterProvider registers a status provider to be called by the status
// command. Extensions that keep per-configuration settings in kiln.yml can
// add their own prompt segment here.
func RegisterProvider(p StatusProvider) {
	providers = append(providers, p)
}

// GetProviders returns all registered status providers.
// This is primarily used for testing.
func GetProviders() []StatusProvider {
	return providers
}

// ClearProviders removes all registered providers.
// This is primarily used for testing.
func ClearProviders() {
	providers = nil
}

// ActiveConfigProvider renders the active configuration's name. Roots with
// no selection produce no output, so the prompt segment disappears.
func ActiveConfigProvider(active *daemon.ActiveConfig) (string, error) {
	if active == nil || active.Config == nil {
		return "", nil
	}
	return fmt.Sprintf("%s %s", theme.IconActive, active.Config.Name), nil
}

func init() {
	RegisterProvider(ActiveConfigProvider)
}
