package cli

import (
	"fmt"
	"os"

	"github.com/specdeck/specdeck/errors"
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
	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(os.Stderr, "❌ Configuration not found. Create a specdeck.yml in your project root.\n")
		return err

	case errors.ErrCodeWatchRootNotFound:
		if sdErr, ok := err.(*errors.SpecdeckError); ok {
			fmt.Fprintf(os.Stderr, "❌ Workflow directory '%s' does not exist\n", sdErr.Details["root"])
			fmt.Fprintf(os.Stderr, "Create it, or point workflow.dir in specdeck.yml at the right place.\n")
		}
		return err

	case errors.ErrCodeWatchRootInvalid:
		if sdErr, ok := err.(*errors.SpecdeckError); ok {
			fmt.Fprintf(os.Stderr, "❌ Workflow path '%s' is not usable\n", sdErr.Details["root"])
		}
		return err

	case errors.ErrCodeEntityNotFound:
		if sdErr, ok := err.(*errors.SpecdeckError); ok {
			fmt.Fprintf(os.Stderr, "❌ Entity '%s' not found\n", sdErr.Details["key"])
			fmt.Fprintf(os.Stderr, "Run 'specdeck status' to see tracked entities.\n")
		}
		return err

	case errors.ErrCodeConfigValidation:
		fmt.Fprintf(os.Stderr, "❌ Invalid configuration: %v\n", err)
		return err

	default:
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)

		if h.Verbose {
			if sdErr, ok := err.(*errors.SpecdeckError); ok {
				fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", sdErr.ToJSON())
			}
		}
		return err
	}
}
