package errors

import (
	"fmt"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *KilnError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *KilnError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// RootNotFound creates an unknown workspace root error
func RootNotFound(root string) *KilnError {
	return New(ErrCodeRootNotFound, fmt.Sprintf("workspace root '%s' is not registered", root)).
		WithDetail("root", root)
}

// UnknownConfig creates an error for a configuration name that does not
// exist in a root's configuration list
func UnknownConfig(root, name string) *KilnError {
	return New(ErrCodeUnknownConfig, fmt.Sprintf("no build configuration named '%s' in %s", name, root)).
		WithDetail("root", root).
		WithDetail("name", name)
}

// StateIO creates a persistence failure error
func StateIO(path string, err error) *KilnError {
	return Wrap(err, ErrCodeStateIO, fmt.Sprintf("state file operation failed: %s", path)).
		WithDetail("path", path)
}

// DaemonNotRunning creates an error for a missing daemon socket
func DaemonNotRunning(socket string) *KilnError {
	return New(ErrCodeDaemonNotRunning, "kiln daemon is not running").
		WithDetail("socket", socket)
}

// MergeUnsupported creates an error for a merge request when no merger
// is installed
func MergeUnsupported() *KilnError {
	return New(ErrCodeMergeUnsupported, "compilation database merging is not available")
}

// MergeFailed creates a merge execution failure error
func MergeFailed(err error, dirs []string) *KilnError {
	return Wrap(err, ErrCodeMergeFailed, "compilation database merge failed").
		WithDetail("directories", dirs)
}
