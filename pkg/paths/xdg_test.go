package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKilnHomeOverridesEverything(t *testing.T) {
	t.Setenv("KILN_HOME", "/portable/kiln")
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_RUNTIME_DIR", "/xdg/run")

	assert.Equal(t, filepath.Join("/portable/kiln", "config", "kiln"), ConfigDir())
	assert.Equal(t, filepath.Join("/portable/kiln", "state", "kiln"), StateDir())
	assert.Equal(t, filepath.Join("/portable/kiln", "run"), RuntimeDir())
	assert.Equal(t, filepath.Join("/portable/kiln", "run", "kilnd.sock"), SocketPath())
}

func TestXDGOverridesDefaults(t *testing.T) {
	t.Setenv("KILN_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_STATE_HOME", "/xdg/state")

	assert.Equal(t, filepath.Join("/xdg/config", "kiln"), ConfigDir())
	assert.Equal(t, filepath.Join("/xdg/state", "kiln"), StateDir())
	assert.Equal(t, filepath.Join("/xdg/state", "kiln", "logs"), LogDir())
	assert.Equal(t, filepath.Join("/xdg/state", "kiln", "kilnd.pid"), PidFilePath())
}

func TestRuntimeDirFallsBackToStateDir(t *testing.T) {
	t.Setenv("KILN_HOME", "")
	t.Setenv("XDG_RUNTIME_DIR", "")
	t.Setenv("XDG_STATE_HOME", "/xdg/state")

	assert.Equal(t, filepath.Join("/xdg/state", "kiln"), RuntimeDir())
}
