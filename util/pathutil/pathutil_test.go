package pathutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv("KILN_TEST_DIR", "/opt/kiln")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"home prefix", "~/workspaces", filepath.Join(home, "workspaces")},
		{"bare tilde", "~", home},
		{"env var", "$KILN_TEST_DIR/ws", "/opt/kiln/ws"},
		{"braced env var", "${KILN_TEST_DIR}/ws", "/opt/kiln/ws"},
		{"already absolute", "/ws/app", "/ws/app"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandRelativeBecomesAbsolute(t *testing.T) {
	got, err := Expand("some/relative")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestNormalizeForLookupResolvesSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation differs on windows")
	}

	dir := t.TempDir()
	real := filepath.Join(dir, "real")
	require.NoError(t, os.Mkdir(real, 0755))
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(real, link))

	normReal, err := NormalizeForLookup(real)
	require.NoError(t, err)
	normLink, err := NormalizeForLookup(link)
	require.NoError(t, err)

	assert.Equal(t, normReal, normLink, "symlinked paths must share a lookup key")

	same, err := ComparePaths(real, link)
	require.NoError(t, err)
	assert.True(t, same)
}

func TestNormalizeForLookupMissingPath(t *testing.T) {
	// A path that does not exist yet still normalizes to its absolute form.
	got, err := NormalizeForLookup("/definitely/not/here/kiln-test")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}
