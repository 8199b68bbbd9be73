package cli

import (
	"fmt"
	"os"

	"github.com/warren-tools/warren/errors"
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

// Handle prints a user-friendly message for err and returns it unchanged so
// the caller can still exit non-zero.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}

	switch errors.GetCode(err) {
	case errors.ErrCodeNotARepository:
		fmt.Fprintf(os.Stderr, "❌ Not inside a git repository.\n")

	case errors.ErrCodeProjectNotInitialized:
		fmt.Fprintf(os.Stderr, "❌ Project is not initialized. Run 'warren init' in the repository root first.\n")

	case errors.ErrCodeAlreadyInitialized:
		fmt.Fprintf(os.Stderr, "❌ Project is already initialized.\n")

	case errors.ErrCodeSessionNotFound:
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		fmt.Fprintf(os.Stderr, "Run 'warren ls' to see existing sessions.\n")

	case errors.ErrCodeNameCollision:
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		fmt.Fprintf(os.Stderr, "Pick a different session name or remove the existing one.\n")

	case errors.ErrCodeUncommittedChanges:
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		fmt.Fprintf(os.Stderr, "Commit or stash the changes, or pass --force to discard them.\n")

	case errors.ErrCodeCannotRemovePrimary, errors.ErrCodeCannotRemoveCurrent:
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)

	case errors.ErrCodeAgentNotAvailable:
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		fmt.Fprintf(os.Stderr, "Install the agent and make sure it is on your PATH.\n")

	case errors.ErrCodeRemoteUnavailable:
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		fmt.Fprintf(os.Stderr, "Check network connectivity and remote configuration, then retry.\n")

	case errors.ErrCodeCorruptRegistry:
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		fmt.Fprintf(os.Stderr, "Run 'warren repair' to back up the corrupt file and rebuild the registry.\n")

	case errors.ErrCodeSessionUnrecorded:
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		fmt.Fprintf(os.Stderr, "Run 'warren repair', or stop the process manually.\n")

	default:
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
	}

	if h.Verbose {
		if warrenErr, ok := err.(*errors.WarrenError); ok {
			fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", warrenErr.ToJSON())
		}
	}

	return err
}
