package config

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/kilntools/kiln/errors"
)

var versionRegex = regexp.MustCompile(`^\d+(\.\d+)*$`)

// Validate checks if the configuration is structurally valid. Incomplete
// build configuration entries (missing name or directory) are deliberately
// accepted here; they are filtered at query time instead of rejected.
func (c *Config) Validate() error {
	if c.Version != "" && !versionRegex.MatchString(c.Version) {
		return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("invalid version format: %s", c.Version)).
			WithDetail("version", c.Version)
	}

	for i, pattern := range c.Workspaces {
		if pattern == "" {
			return errors.New(errors.ErrCodeConfigValidation, "workspace pattern cannot be empty").
				WithDetail("index", i)
		}
	}

	for i, pattern := range c.WorkspaceExcludes {
		if pattern == "" {
			return errors.New(errors.ErrCodeConfigValidation, "workspace exclude pattern cannot be empty").
				WithDetail("index", i)
		}
	}

	if c.Daemon != nil && c.Daemon.ConfigDebounceMs < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "daemon.config_debounce_ms cannot be negative").
			WithDetail("config_debounce_ms", c.Daemon.ConfigDebounceMs)
	}

	return nil
}

// ValidateSemantics performs checks that span multiple fields.
func (c *Config) ValidateSemantics() error {
	// Two complete entries must not claim the same name+directory target.
	seen := make(map[string]int)
	for _, entry := range c.BuildConfigurations {
		if entry == nil || !entry.IsValid() {
			continue
		}
		key := entry.Name + "\x00" + entry.Directory
		seen[key]++
		if seen[key] > 1 {
			return errors.New(errors.ErrCodeConfigValidation,
				fmt.Sprintf("duplicate build configuration: %s (%s)", entry.Name, entry.Directory)).
				WithDetail("name", entry.Name).
				WithDetail("directory", entry.Directory)
		}
	}

	if c.Compdb != nil && c.Compdb.Endpoint != "" {
		if _, err := url.ParseRequestURI(c.Compdb.Endpoint); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigValidation, "compdb.endpoint is not a valid URL").
				WithDetail("endpoint", c.Compdb.Endpoint)
		}
	}

	return nil
}
