package errors

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// CommandErrorHandler provides error handling functionality for cobra commands
type CommandErrorHandler struct {
	handler *Handler
}

// NewCommandErrorHandler creates a new CommandErrorHandler
func NewCommandErrorHandler() *CommandErrorHandler {
	return &CommandErrorHandler{
		handler: NewHandler().WithExitFunc(nil),
	}
}

// WithVerbose sets the verbose flag
func (c *CommandErrorHandler) WithVerbose(verbose bool) *CommandErrorHandler {
	c.handler.WithVerbose(verbose)
	return c
}

// HandleCommandError writes err to the command's error output
func (c *CommandErrorHandler) HandleCommandError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}

	c.handler.WithWriter(cmd.ErrOrStderr())
	c.handler.HandleWithDetails(err, getCommandPath(cmd))
}

// getCommandPath returns the full path of a command (e.g., "spk hld init")
func getCommandPath(cmd *cobra.Command) string {
	if cmd == nil {
		return ""
	}

	names := []string{cmd.Name()}
	parent := cmd.Parent()

	for parent != nil {
		names = append([]string{parent.Name()}, names...)
		parent = parent.Parent()
	}

	return strings.Join(names, " ")
}

// ExecuteWithErrorHandling runs a cobra command with standardized error handling and
// returns the process exit code.
func ExecuteWithErrorHandling(cmd *cobra.Command, verbose bool) int {
	cmd.SilenceErrors = true

	errorHandler := NewCommandErrorHandler().WithVerbose(verbose)

	executed, err := cmd.ExecuteC()
	if err != nil {
		if executed == nil {
			executed = cmd
		}
		errorHandler.HandleCommandError(executed, err)
		return GetExitCodeForError(err)
	}

	return ExitCodeSuccess
}

// WrapRunE wraps a RunE function with standard error handling
func WrapRunE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err != nil && IsValidationError(err) {
			err = WithSuggestions(err, fmt.Sprintf("Try '%s --help' for more information", cmd.CommandPath()))
		}
		return err
	}
}
