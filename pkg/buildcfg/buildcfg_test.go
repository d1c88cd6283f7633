package buildcfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		cfg   *Configuration
		valid bool
	}{
		{"nil", nil, false},
		{"complete", &Configuration{Name: "debug", Directory: "/ws/build/debug"}, true},
		{"missing name", &Configuration{Directory: "/ws/build/debug"}, false},
		{"missing directory", &Configuration{Name: "debug"}, false},
		{"both empty", &Configuration{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.cfg.IsValid())
		})
	}
}

func TestSameTarget(t *testing.T) {
	shared := &CommandSet{Build: "ninja"}
	other := &CommandSet{Build: "ninja"}

	a := &Configuration{Name: "debug", Directory: "/ws/build/debug", Commands: shared}
	b := &Configuration{Name: "debug", Directory: "/ws/build/debug", Commands: other}

	assert.True(t, SameTarget(a, b), "commands must not affect target identity")
	assert.False(t, SameTarget(a, &Configuration{Name: "release", Directory: "/ws/build/debug"}))
	assert.False(t, SameTarget(a, &Configuration{Name: "debug", Directory: "/ws/build/release"}))
	assert.False(t, SameTarget(a, nil))
	assert.True(t, SameTarget(nil, nil))
}

func TestEqualComparesCommandsByIdentity(t *testing.T) {
	shared := &CommandSet{Build: "ninja", Clean: "ninja clean"}

	a := &Configuration{Name: "debug", Directory: "/ws/build/debug", Commands: shared}
	b := &Configuration{Name: "debug", Directory: "/ws/build/debug", Commands: shared}
	c := &Configuration{Name: "debug", Directory: "/ws/build/debug", Commands: &CommandSet{Build: "ninja", Clean: "ninja clean"}}

	assert.True(t, Equal(a, b), "same command set instance")
	assert.False(t, Equal(a, c), "equal command values but different instance")

	noCmdA := &Configuration{Name: "debug", Directory: "/ws/build/debug"}
	noCmdB := &Configuration{Name: "debug", Directory: "/ws/build/debug"}
	assert.True(t, Equal(noCmdA, noCmdB), "nil command sets are identical")
	assert.False(t, Equal(noCmdA, a))
}

func TestValidFiltersIncompleteEntries(t *testing.T) {
	set := &CommandSet{Build: "make"}
	in := []*Configuration{
		{Name: "debug", Directory: "/ws/build/debug", Commands: set},
		{Name: "", Directory: "/ws/build/stray", Commands: &CommandSet{}},
		{Name: "release", Directory: ""},
		nil,
	}

	got := Valid(in)
	require.Len(t, got, 1)
	assert.Equal(t, "debug", got[0].Name)
	assert.Same(t, set, got[0].Commands, "surviving entries keep their command set instance")

	// The input slice is left untouched.
	assert.Len(t, in, 4)
	assert.Nil(t, in[3])
}

func TestValidSortsByNameWithCollation(t *testing.T) {
	in := []*Configuration{
		{Name: "release", Directory: "/ws/build/release"},
		{Name: "asan", Directory: "/ws/build/asan"},
		{Name: "début", Directory: "/ws/build/debut"},
		{Name: "debug", Directory: "/ws/build/debug"},
	}

	got := Valid(in)
	require.Len(t, got, 4)

	names := make([]string, len(got))
	for i, c := range got {
		names[i] = c.Name
	}
	// Collation puts "début" with the d words, not after all ASCII names
	// the way byte order would.
	assert.Equal(t, []string{"asan", "debug", "début", "release"}, names)

	// Input order is preserved in the original slice.
	assert.Equal(t, "release", in[0].Name)
}

func TestValidEmptyAndAllInvalid(t *testing.T) {
	assert.Empty(t, Valid(nil))
	assert.Empty(t, Valid([]*Configuration{{Name: "x"}, {Directory: "/y"}}))
	assert.NotNil(t, Valid(nil), "always returns a usable slice")
}

func TestContains(t *testing.T) {
	list := []*Configuration{
		{Name: "debug", Directory: "/ws/build/debug"},
		{Name: "release", Directory: "/ws/build/release"},
	}

	assert.True(t, Contains(list, &Configuration{Name: "debug", Directory: "/ws/build/debug", Commands: &CommandSet{Build: "x"}}))
	assert.False(t, Contains(list, &Configuration{Name: "debug", Directory: "/elsewhere"}))
	assert.False(t, Contains(nil, &Configuration{Name: "debug", Directory: "/ws/build/debug"}))
	assert.False(t, Contains(list, nil))
}
