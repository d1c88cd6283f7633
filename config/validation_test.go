package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	kilnerrors "github.com/kilntools/kiln/errors"
	"github.com/kilntools/kiln/pkg/buildcfg"
)

func TestValidateVersionFormat(t *testing.T) {
	testCases := []struct {
		name    string
		version string
		valid   bool
	}{
		{"empty version", "", true},
		{"simple version", "1", true},
		{"dotted version", "1.0", true},
		{"three components", "1.2.3", true},
		{"non-numeric", "one", false},
		{"trailing dot", "1.", false},
		{"leading v", "v1.0", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{Version: tc.version}
			err := cfg.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Equal(t, kilnerrors.ErrCodeConfigValidation, kilnerrors.GetCode(err))
			}
		})
	}
}

// TestValidateAcceptsIncompleteBuildConfigurations pins down that entries
// missing a name or directory load fine; they are filtered at query time.
func TestValidateAcceptsIncompleteBuildConfigurations(t *testing.T) {
	cfg := &Config{
		Version: "1.0",
		BuildConfigurations: []*buildcfg.Configuration{
			{Name: "debug"},                        // no directory
			{Directory: "/ws/app/build/release"},   // no name
			{},                                     // empty
			nil,                                    // explicit null
			{Name: "asan", Directory: "/ws/asan"},  // complete
		},
	}

	assert.NoError(t, cfg.Validate())
	assert.NoError(t, cfg.ValidateSemantics())
}

func TestValidateRejectsEmptyPatterns(t *testing.T) {
	cfg := &Config{Version: "1.0", Workspaces: []string{"~/work/*", ""}}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Version: "1.0", WorkspaceExcludes: []string{""}}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNegativeDebounce(t *testing.T) {
	cfg := &Config{Version: "1.0", Daemon: &DaemonConfig{ConfigDebounceMs: -1}}
	assert.Error(t, cfg.Validate())
}

func TestValidateSemanticsRejectsDuplicateTargets(t *testing.T) {
	cfg := &Config{
		Version: "1.0",
		BuildConfigurations: []*buildcfg.Configuration{
			{Name: "debug", Directory: "/ws/app/build/debug"},
			{Name: "debug", Directory: "/ws/app/build/debug"},
		},
	}

	err := cfg.ValidateSemantics()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate build configuration")
}

// Same name in different directories is not a duplicate; the pair is the target.
func TestValidateSemanticsAllowsSameNameDifferentDirectory(t *testing.T) {
	cfg := &Config{
		Version: "1.0",
		BuildConfigurations: []*buildcfg.Configuration{
			{Name: "debug", Directory: "/ws/app/build/debug"},
			{Name: "debug", Directory: "/ws/lib/build/debug"},
		},
	}

	assert.NoError(t, cfg.ValidateSemantics())
}

func TestValidateSemanticsCompdbEndpoint(t *testing.T) {
	cfg := &Config{Version: "1.0", Compdb: &CompdbConfig{Endpoint: "http://localhost:9876/merge"}}
	assert.NoError(t, cfg.ValidateSemantics())

	cfg = &Config{Version: "1.0", Compdb: &CompdbConfig{Endpoint: "not a url"}}
	assert.Error(t, cfg.ValidateSemantics())
}
