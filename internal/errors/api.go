package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// WrapAPIError wraps an error returned by a platform SDK with the category implied by the
// HTTP status code of the failed request. A statusCode of 0 means the status is unknown.
func WrapAPIError(err error, operation string, statusCode int) error {
	if err == nil {
		return nil
	}

	// If it's already a CLI error, add context but preserve the category
	if cliErr, ok := err.(*Error); ok {
		if operation != "" {
			if cliErr.Details == "" {
				cliErr.Details = operation
			} else {
				cliErr.Details = fmt.Sprintf("%s: %s", operation, cliErr.Details)
			}
		}
		return cliErr
	}

	if statusCode == 0 {
		return NewAPIError(err, fmt.Sprintf("API request failed during: %s", operation))
	}

	details := fmt.Sprintf("%s failed with status %d", operation, statusCode)

	switch {
	case statusCode == http.StatusNotFound:
		return NewResourceNotFoundError(err, details, suggestForNotFound(operation)...)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusNonAuthoritativeInfo:
		// Azure DevOps answers an invalid PAT with a 203 sign-in page
		return NewAuthenticationError(err, details,
			"Check that your personal access token is valid and has not expired",
			"Run 'spk setup' or pass --personal-access-token to supply a new token")
	case statusCode == http.StatusForbidden:
		return NewAuthenticationError(err, details,
			"Verify that your access token has the required scopes",
			"Build (read & execute) and Code (read & write) scopes are needed")
	case statusCode == http.StatusConflict || statusCode == http.StatusUnprocessableEntity:
		return NewValidationError(err, details, "A resource with the same name may already exist")
	case statusCode == http.StatusBadRequest:
		return NewValidationError(err, details, "Check the request parameters for invalid values")
	case statusCode >= 500:
		return NewAPIError(err, details,
			"This appears to be a server-side error",
			"Try again later or check the platform status page")
	default:
		return NewAPIError(err, details)
	}
}

// suggestForNotFound generates suggestions for a 404 Not Found error
func suggestForNotFound(operation string) []string {
	suggestions := []string{
		"Check that the resource exists and you have access to it",
	}

	switch {
	case strings.Contains(operation, "project"):
		suggestions = append(suggestions, "Verify the project name passed with --devops-project")
	case strings.Contains(operation, "repository"):
		suggestions = append(suggestions, "Verify the repository name passed with --repo-name")
	case strings.Contains(operation, "definition") || strings.Contains(operation, "pipeline"):
		suggestions = append(suggestions, "Verify the pipeline name is correct")
	}

	return suggestions
}
