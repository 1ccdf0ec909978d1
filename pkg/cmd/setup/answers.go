package setup

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	bkErrors "github.com/bnookala/spk/internal/errors"
	provision "github.com/bnookala/spk/internal/setup"
	"github.com/bnookala/spk/pkg/cmd/validation"
)

// readAnswers parses a key=value answers file. It uses the keys of the status log so a
// previous run's log can be replayed as is: lines without "=" and masked secrets are ignored.
// Values already set in opts win.
func readAnswers(r io.Reader, opts *validation.SetupOptions) error {
	values := map[string]string{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if workspace, ok := strings.CutPrefix(line, "workspace:"); ok {
			if opts.Workspace == "" {
				opts.Workspace = strings.TrimSpace(workspace)
			}
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			// status lines such as "Project Created: yes"
			continue
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return bkErrors.NewInternalError(err, "reading answers file")
	}

	setString := func(dst *string, key string) {
		if *dst == "" {
			*dst = values[key]
		}
	}
	setSecret := func(dst *string, key string) {
		switch values[key] {
		case provision.CredentialMask, provision.SecretMask:
			return
		}
		setString(dst, key)
	}
	setBool := func(dst *bool, key string) error {
		v, ok := values[key]
		if !ok || *dst {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return bkErrors.NewValidationError(err, fmt.Sprintf("answers file: %s must be true or false", key))
		}
		*dst = b
		return nil
	}

	setString(&opts.OrganizationName, "azdo_org_name")
	setString(&opts.ProjectName, "azdo_project_name")
	setSecret(&opts.AccessToken, "azdo_pat")
	setString(&opts.ServicePrincipalID, "az_sp_id")
	setSecret(&opts.ServicePrincipalPassword, "az_sp_password")
	setString(&opts.ServicePrincipalTenantID, "az_sp_tenant")
	setString(&opts.SubscriptionID, "az_subscription_id")
	setString(&opts.ACRName, "az_acr_name")

	if err := setBool(&opts.CreateAppRepo, "az_create_app"); err != nil {
		return err
	}
	return setBool(&opts.CreateServicePrincipal, "az_create_sp")
}
