package cli

import (
	"fmt"
	"os"

	"github.com/kilntools/kiln/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
	}
}

// Handle provides user-friendly error messages based on error type
func (h *ErrorHandler) Handle(err error) error {
	// Check for specific error codes
	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(os.Stderr, "❌ No kiln.yml found. Create one in your workspace root to define build configurations.\n")
		return err

	case errors.ErrCodeUnknownConfig:
		if kilnErr, ok := err.(*errors.KilnError); ok {
			fmt.Fprintf(os.Stderr, "❌ Configuration '%s' not found in kiln.yml\n", kilnErr.Details["name"])
			fmt.Fprintf(os.Stderr, "Run 'kiln configs' to see available configurations.\n")
		}
		return err

	case errors.ErrCodeNoWorkspace:
		fmt.Fprintf(os.Stderr, "❌ Not inside a kiln workspace. Run this from a directory containing kiln.yml.\n")
		return err

	case errors.ErrCodeRootNotFound:
		if kilnErr, ok := err.(*errors.KilnError); ok {
			fmt.Fprintf(os.Stderr, "❌ Workspace root '%s' is not registered\n", kilnErr.Details["root"])
			fmt.Fprintf(os.Stderr, "Run 'kiln roots' to see registered workspace roots.\n")
		}
		return err

	case errors.ErrCodeDaemonNotRunning:
		fmt.Fprintf(os.Stderr, "❌ The kiln daemon is not running.\n")
		fmt.Fprintf(os.Stderr, "Start it with 'kiln daemon start'.\n")
		return err

	case errors.ErrCodeDaemonStartFailed:
		fmt.Fprintf(os.Stderr, "❌ Failed to start the kiln daemon: %v\n", err)
		fmt.Fprintf(os.Stderr, "Check 'kiln logs' for details.\n")
		return err

	case errors.ErrCodeMergeUnsupported:
		fmt.Fprintf(os.Stderr, "❌ Compilation database merging is not configured.\n")
		fmt.Fprintf(os.Stderr, "Set compdb.endpoint in kiln.yml and restart the daemon.\n")
		return err

	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigValidation:
		fmt.Fprintf(os.Stderr, "❌ Invalid configuration: %v\n", err)
		fmt.Fprintf(os.Stderr, "Run 'kiln config validate' to see all problems.\n")
		return err

	default:
		// Generic error handling
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)

		// If verbose mode, show full error details
		if h.Verbose {
			if kilnErr, ok := err.(*errors.KilnError); ok {
				fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", kilnErr.ToJSON())
			}
		}
		return err
	}
}
