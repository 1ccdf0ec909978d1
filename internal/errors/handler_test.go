package errors

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestHandler(t *testing.T) {
	t.Parallel()

	t.Run("handles nil error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		exitCode := -1

		handler := NewHandler().
			WithWriter(&buf).
			WithExitFunc(func(code int) { exitCode = code })

		handler.Handle(nil)

		if buf.Len() > 0 {
			t.Errorf("Expected no output for nil error, got: %q", buf.String())
		}
		if exitCode != -1 {
			t.Errorf("Expected exit func not to be called, got: %d", exitCode)
		}
	})

	testCases := []struct {
		name     string
		err      error
		prefix   string
		exitCode int
	}{
		{"validation", NewValidationError(nil, "repoName must be set"), "Validation Error:", ExitCodeValidationError},
		{"connect", NewConnectError(fmt.Errorf("no route"), "connecting"), "Connection Error:", ExitCodeAuthError},
		{"definition", NewDefinitionCreateError(fmt.Errorf("conflict"), "creating"), "Pipeline Error:", ExitCodeAPIError},
		{"definition wrapping validation", NewDefinitionCreateError(NewValidationError(nil, "exists"), "creating"), "Pipeline Error:", ExitCodeAPIError},
		{"build queue", NewBuildQueueError(fmt.Errorf("no agents"), "queueing"), "Build Error:", ExitCodeAPIError},
		{"git", NewGitOpError(fmt.Errorf("rejected"), "pushing"), "Git Error:", ExitCodeGitError},
		{"config", NewConfigurationError(nil, "missing org"), "Configuration Error:", ExitCodeConfigError},
		{"aborted", NewUserAbortedError(nil, "ctrl-c"), "Aborted:", ExitCodeUserAbortedError},
		{"plain", fmt.Errorf("plain failure"), "Error:", ExitCodeGenericError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			var exitCode int

			NewHandler().
				WithWriter(&buf).
				WithExitFunc(func(code int) { exitCode = code }).
				Handle(tc.err)

			if !strings.HasPrefix(buf.String(), tc.prefix) {
				t.Errorf("expected output to start with %q, got %q", tc.prefix, buf.String())
			}
			if exitCode != tc.exitCode {
				t.Errorf("expected exit code %d, got %d", tc.exitCode, exitCode)
			}
		})
	}

	t.Run("non-verbose output shows first suggestion as tip", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		err := NewConnectError(nil, "cannot reach organization", "Check --org-url", "Check the token")
		NewHandler().WithWriter(&buf).WithExitFunc(func(int) {}).Handle(err)

		if !strings.Contains(buf.String(), "Tip: Check --org-url") {
			t.Errorf("expected tip in output, got %q", buf.String())
		}
		if strings.Contains(buf.String(), "Check the token") {
			t.Errorf("expected only the first suggestion, got %q", buf.String())
		}
	})

	t.Run("HandleWithDetails does not mutate the original error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		err := NewError(nil, ErrGitOp, "push rejected")
		NewHandler().WithWriter(&buf).WithExitFunc(func(int) {}).HandleWithDetails(err, "spk hld init")

		if err.Details != "push rejected" {
			t.Errorf("original details changed to %q", err.Details)
		}
		if !strings.Contains(buf.String(), "(during: spk hld init)") {
			t.Errorf("expected operation in output, got %q", buf.String())
		}
	})
}

func TestGetExitCodeForError(t *testing.T) {
	t.Parallel()

	if code := GetExitCodeForError(nil); code != ExitCodeSuccess {
		t.Errorf("expected success for nil, got %d", code)
	}
	if code := GetExitCodeForError(fmt.Errorf("wrapped: %w", NewGitOpError(nil, "x"))); code != ExitCodeGitError {
		t.Errorf("expected git exit code through wrapping, got %d", code)
	}
}
