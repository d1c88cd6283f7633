// Package buildcfg defines the build-configuration value type shared by the
// preference layer, the registry, and the daemon API.
package buildcfg

import (
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CommandSet carries the shell commands associated with a build
// configuration. kiln never interprets or executes these; the set travels
// as one opaque unit and is compared by pointer identity.
type CommandSet struct {
	Build string `json:"build,omitempty" yaml:"build,omitempty" toml:"build,omitempty"`
	Clean string `json:"clean,omitempty" yaml:"clean,omitempty" toml:"clean,omitempty"`
}

// Configuration is a single named build configuration within a workspace
// root. Name and Directory identify the build target; Commands is optional.
type Configuration struct {
	Name      string      `json:"name" yaml:"name" toml:"name" jsonschema:"description=Display name of the build configuration"`
	Directory string      `json:"directory" yaml:"directory" toml:"directory" jsonschema:"description=Directory containing this configuration's build tree"`
	Commands  *CommandSet `json:"commands,omitempty" yaml:"commands,omitempty" toml:"commands,omitempty" jsonschema:"description=Optional build/clean commands for this configuration"`
}

// String renders the configuration for logs and CLI output.
func (c *Configuration) String() string {
	if c == nil {
		return "<none>"
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.Directory)
}

// IsValid reports whether the configuration is well-formed: both Name and
// Directory must be non-empty. An invalid entry is not an error condition,
// it is simply excluded from the valid list.
func (c *Configuration) IsValid() bool {
	return c != nil && c.Name != "" && c.Directory != ""
}

// SameTarget reports whether a and b designate the same build target, i.e.
// Name and Directory both match. This is the equality used when an active
// configuration is revalidated against a refreshed configuration list.
func SameTarget(a, b *Configuration) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Name == b.Name && a.Directory == b.Directory
}

// Equal reports full equality: same target and the same CommandSet instance.
// Commands compare by identity, not by value.
func Equal(a, b *Configuration) bool {
	if a == nil || b == nil {
		return a == b
	}
	return SameTarget(a, b) && a.Commands == b.Commands
}

// Valid returns the well-formed subset of configs as a new slice, sorted
// ascending by Name under Unicode collation so names order the way editors
// present them rather than by raw byte value. The input slice is never
// modified. Order among duplicate names is comparator-defined.
//
// The result is recomputed on every call; configuration lists are tens of
// entries at most, so no caching is warranted.
func Valid(configs []*Configuration) []*Configuration {
	out := make([]*Configuration, 0, len(configs))
	for _, c := range configs {
		if c.IsValid() {
			out = append(out, c)
		}
	}
	// Collators keep internal buffers, so build one per call instead of
	// sharing a package-level instance across goroutines.
	coll := collate.New(language.Und)
	sort.SliceStable(out, func(i, j int) bool {
		return coll.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}

// Contains reports whether list holds a configuration matching c by target
// (Name and Directory). Used by the registry's revalidation sweep.
func Contains(list []*Configuration, c *Configuration) bool {
	for _, entry := range list {
		if SameTarget(entry, c) {
			return true
		}
	}
	return false
}
