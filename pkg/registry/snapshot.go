package registry

import (
	"sort"

	"github.com/kilntools/kiln/pkg/buildcfg"
)

// LoadActiveSnapshot reads the persisted per-root selection map from store.
// The second result reports whether a snapshot existed; when it did not,
// the map is empty rather than nil. The daemon and the local client share
// this codec so both modes read the same state file.
func LoadActiveSnapshot(store Store) (map[string]*buildcfg.Configuration, bool, error) {
	var entries []snapshotEntry
	found, err := store.Get(snapshotKey, &entries)
	if err != nil {
		return nil, false, err
	}

	active := make(map[string]*buildcfg.Configuration, len(entries))
	for _, entry := range entries {
		active[entry.Root] = entry.Config
	}
	return active, found, nil
}

// SaveActiveSnapshot persists the full selection map as root-ordered rows,
// cleared (nil-valued) roots included.
func SaveActiveSnapshot(store Store, active map[string]*buildcfg.Configuration) error {
	entries := make([]snapshotEntry, 0, len(active))
	for root, cfg := range active {
		entries = append(entries, snapshotEntry{Root: root, Config: cfg})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Root < entries[j].Root })
	return store.Set(snapshotKey, entries)
}
