// Package serviceprincipal creates Azure service principals with the az CLI.
package serviceprincipal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	bkErrors "github.com/bnookala/spk/internal/errors"
)

// Credentials are the identifiers and secret of a service principal.
type Credentials struct {
	AppID    string `json:"appId"`
	Password string `json:"password"`
	TenantID string `json:"tenant"`
}

// Runner runs an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands on the host.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Creator creates service principals scoped to a subscription.
type Creator struct {
	Runner Runner
}

func NewCreator() *Creator {
	return &Creator{Runner: ExecRunner{}}
}

// Create creates a contributor service principal named name on subscriptionID.
func (c *Creator) Create(ctx context.Context, name, subscriptionID string) (Credentials, error) {
	if name == "" || subscriptionID == "" {
		return Credentials{}, bkErrors.NewValidationError(nil, "service principal name and subscription id are required")
	}

	out, err := c.Runner.Run(ctx, "az", Args(name, subscriptionID)...)
	if err != nil {
		return Credentials{}, bkErrors.NewAPIError(err, "creating service principal",
			"Run 'az login' and check that you can create service principals in the subscription")
	}

	var creds Credentials
	if err := json.Unmarshal(out, &creds); err != nil {
		return Credentials{}, bkErrors.NewInternalError(err, "parsing az output")
	}
	if creds.AppID == "" || creds.Password == "" {
		return Credentials{}, bkErrors.NewAPIError(nil, "az did not return an app id and password")
	}

	return creds, nil
}

// Args are the az arguments that create a service principal.
func Args(name, subscriptionID string) []string {
	return []string{
		"ad", "sp", "create-for-rbac",
		"--name", name,
		"--role", "contributor",
		"--scopes", "/subscriptions/" + subscriptionID,
		"-o", "json",
	}
}
