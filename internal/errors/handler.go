package errors

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Exit codes for different error types
const (
	ExitCodeSuccess          = 0
	ExitCodeGenericError     = 1
	ExitCodeValidationError  = 2
	ExitCodeAPIError         = 3
	ExitCodeNotFoundError    = 4
	ExitCodeConfigError      = 6
	ExitCodeAuthError        = 7
	ExitCodeInternalError    = 8
	ExitCodeGitError         = 9
	ExitCodeUserAbortedError = 130 // Same as Ctrl+C in bash
)

// Handler processes errors from commands and formats them appropriately
type Handler struct {
	// Writer is where error messages will be written
	Writer io.Writer
	// ExitFunc is the function called to exit the program with a specific code
	ExitFunc func(int)
	// Verbose enables more detailed error messages
	Verbose bool
}

// NewHandler creates a new Handler with default settings
func NewHandler() *Handler {
	return &Handler{
		Writer:   os.Stderr,
		ExitFunc: os.Exit,
		Verbose:  false,
	}
}

// WithWriter sets the writer for error output
func (h *Handler) WithWriter(w io.Writer) *Handler {
	h.Writer = w
	return h
}

// WithExitFunc sets the exit function
func (h *Handler) WithExitFunc(f func(int)) *Handler {
	h.ExitFunc = f
	return h
}

// WithVerbose sets the verbose flag
func (h *Handler) WithVerbose(v bool) *Handler {
	h.Verbose = v
	return h
}

// Handle processes an error and outputs it appropriately
func (h *Handler) Handle(err error) {
	if err == nil {
		return
	}

	exitCode := h.getExitCode(err)

	fmt.Fprintln(h.Writer, h.formatError(err))

	if h.ExitFunc != nil {
		h.ExitFunc(exitCode)
	}
}

// getExitCode determines the appropriate exit code based on the error type. The step
// categories are checked first: they wrap the API error that caused them.
func (h *Handler) getExitCode(err error) int {
	switch {
	case IsConnectError(err):
		return ExitCodeAuthError
	case IsDefinitionCreateError(err), IsBuildQueueError(err):
		return ExitCodeAPIError
	case IsGitOpError(err):
		return ExitCodeGitError
	case IsValidationError(err):
		return ExitCodeValidationError
	case IsAuthenticationError(err):
		return ExitCodeAuthError
	case IsAPIError(err):
		return ExitCodeAPIError
	case IsNotFound(err):
		return ExitCodeNotFoundError
	case IsConfigurationError(err):
		return ExitCodeConfigError
	case IsUserAborted(err):
		return ExitCodeUserAbortedError
	case errors.Is(err, ErrInternal):
		return ExitCodeInternalError
	default:
		return ExitCodeGenericError
	}
}

// formatError creates a formatted error message based on the error type
func (h *Handler) formatError(err error) string {
	prefix := "Error:"

	var cliErr *Error
	if errors.As(err, &cliErr) {
		var message string

		if cliErr.Category != nil {
			prefix = h.getCategoryPrefix(cliErr.Category)
		}

		if h.Verbose {
			message = cliErr.FormattedError()
		} else {
			message = cliErr.Error()
			if len(cliErr.Suggestions) > 0 {
				message = fmt.Sprintf("%s\nTip: %s", message, cliErr.Suggestions[0])
			}
		}

		return fmt.Sprintf("%s %s", prefix, message)
	}

	return fmt.Sprintf("%s %s", prefix, err.Error())
}

// getCategoryPrefix returns an appropriate prefix for the error category
func (h *Handler) getCategoryPrefix(category error) string {
	switch category {
	case ErrValidation:
		return "Validation Error:"
	case ErrAPI:
		return "API Error:"
	case ErrConnect:
		return "Connection Error:"
	case ErrDefinitionCreate:
		return "Pipeline Error:"
	case ErrBuildQueue:
		return "Build Error:"
	case ErrGitOp:
		return "Git Error:"
	case ErrResourceNotFound:
		return "Not Found:"
	case ErrConfiguration:
		return "Configuration Error:"
	case ErrAuthentication:
		return "Authentication Error:"
	case ErrUserAborted:
		return "Aborted:"
	case ErrInternal:
		return "Internal Error:"
	default:
		return "Error:"
	}
}

// HandleWithDetails processes an error with additional contextual details
func (h *Handler) HandleWithDetails(err error, operation string) {
	if err == nil {
		return
	}

	contextualErr := err
	if operation != "" {
		var cliErr *Error
		if errors.As(err, &cliErr) {
			// Copy so the caller's error is left untouched
			newSuggestions := make([]string, len(cliErr.Suggestions))
			copy(newSuggestions, cliErr.Suggestions)

			newCliErr := &Error{
				Original:    cliErr.Original,
				Category:    cliErr.Category,
				Suggestions: newSuggestions,
				Details:     cliErr.Details,
			}

			if newCliErr.Details == "" {
				newCliErr.Details = fmt.Sprintf("failed during: %s", operation)
			} else {
				newCliErr.Details = fmt.Sprintf("%s (during: %s)", newCliErr.Details, operation)
			}
			contextualErr = newCliErr
		} else {
			contextualErr = NewError(err, nil, fmt.Sprintf("failed during: %s", operation))
		}
	}

	h.Handle(contextualErr)
}

// MessageForError returns a formatted message for an error without exiting
func MessageForError(err error) string {
	if err == nil {
		return ""
	}

	handler := NewHandler()
	return handler.formatError(err)
}

// GetExitCodeForError returns the exit code for a given error
func GetExitCodeForError(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	handler := NewHandler()
	return handler.getExitCode(err)
}
