package setup

import (
	bkIO "github.com/bnookala/spk/internal/io"
	"github.com/bnookala/spk/pkg/cmd/validation"
)

const (
	newServicePrincipal      = "Create a new one with the az CLI"
	existingServicePrincipal = "Use an existing service principal"
)

// promptMissing asks for every required value that is still empty.
func promptMissing(p bkIO.Prompter, opts *validation.SetupOptions) error {
	var err error

	if opts.OrganizationName == "" {
		if opts.OrganizationName, err = p.Input("Enter organization name", "", true); err != nil {
			return err
		}
	}
	if opts.ProjectName == "" {
		if opts.ProjectName, err = p.Input("Enter name of project to be created", "", true); err != nil {
			return err
		}
	}
	if opts.AccessToken == "" {
		if opts.AccessToken, err = p.Password("Enter your Azure DevOps personal access token"); err != nil {
			return err
		}
	}

	if !opts.CreateAppRepo {
		if opts.CreateAppRepo, err = p.Confirm("Create an app repository with a helm chart?", false); err != nil {
			return err
		}
	}
	if !opts.CreateAppRepo {
		return nil
	}

	if !opts.CreateServicePrincipal && opts.ServicePrincipalID == "" {
		choice, err := p.Select("Service principal for deployments",
			[]string{newServicePrincipal, existingServicePrincipal}, newServicePrincipal)
		if err != nil {
			return err
		}
		opts.CreateServicePrincipal = choice == newServicePrincipal
	}
	if !opts.CreateServicePrincipal {
		if opts.ServicePrincipalID == "" {
			if opts.ServicePrincipalID, err = p.Input("Enter service principal id", "", true); err != nil {
				return err
			}
		}
		if opts.ServicePrincipalPassword == "" {
			if opts.ServicePrincipalPassword, err = p.Password("Enter service principal password"); err != nil {
				return err
			}
		}
		if opts.ServicePrincipalTenantID == "" {
			if opts.ServicePrincipalTenantID, err = p.Input("Enter service principal tenant id", "", true); err != nil {
				return err
			}
		}
	}
	if opts.SubscriptionID == "" {
		if opts.SubscriptionID, err = p.Input("Enter subscription id", "", true); err != nil {
			return err
		}
	}
	return nil
}
