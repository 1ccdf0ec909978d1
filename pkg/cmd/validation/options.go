// Package validation holds the typed options of each command and validates them once, before
// any remote call is made.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/bnookala/spk/internal/config"
	bkErrors "github.com/bnookala/spk/internal/errors"
	"github.com/bnookala/spk/internal/gitops"
)

// PlatformOptions identify the organization, project and credentials of a CI/CD platform.
type PlatformOptions struct {
	Platform    string
	OrgURL      string
	AccessToken string
	Project     string
}

// Merge fills empty fields from conf.
func (o *PlatformOptions) Merge(conf *config.Config) {
	o.Platform = firstNonEmpty(o.Platform, conf.Platform())
	o.OrgURL = firstNonEmpty(o.OrgURL, conf.OrgURL())
	o.AccessToken = firstNonEmpty(o.AccessToken, conf.Token(o.Platform))
	o.Project = firstNonEmpty(o.Project, conf.Project())
}

func (o PlatformOptions) Validate() error {
	var problems []string

	switch o.Platform {
	case config.PlatformAzureDevOps, config.PlatformBuildkite:
	default:
		problems = append(problems, fmt.Sprintf("platform must be %q or %q, %q given", config.PlatformAzureDevOps, config.PlatformBuildkite, o.Platform))
	}

	problems = append(problems, required(map[string]string{
		"org-url":               o.OrgURL,
		"personal-access-token": o.AccessToken,
		"devops-project":        o.Project,
	})...)

	if o.OrgURL != "" {
		if err := validateURL(o.OrgURL); err != nil {
			problems = append(problems, "org-url "+err.Error())
		}
	}

	return validationError(problems)
}

// RepositoryOptions name a hosted repository.
type RepositoryOptions struct {
	RepoName string
	RepoURL  string
}

// FillFromRemote uses remoteURL, usually the origin of the working copy, for a repository
// URL or name that was not given.
func (o *RepositoryOptions) FillFromRemote(remoteURL string) {
	if remoteURL == "" {
		return
	}
	if https := gitops.HTTPSURL(remoteURL); https != "" {
		remoteURL = https
	}
	if o.RepoURL == "" {
		o.RepoURL = remoteURL
	}
	if o.RepoName == "" {
		o.RepoName = gitops.RepositoryName(o.RepoURL)
	}
}

func (o RepositoryOptions) Validate() error {
	problems := required(map[string]string{
		"repo-name": o.RepoName,
		"repo-url":  o.RepoURL,
	})
	if o.RepoURL != "" {
		if err := validateURL(o.RepoURL); err != nil {
			problems = append(problems, "repo-url "+err.Error())
		}
	}
	return validationError(problems)
}

// InstallManifestPipelineOptions are the inputs of `hld install-manifest-pipeline`.
type InstallManifestPipelineOptions struct {
	PlatformOptions
	RepositoryOptions
}

func (o InstallManifestPipelineOptions) Validate() error {
	return joinValidation(o.PlatformOptions.Validate(), o.RepositoryOptions.Validate())
}

// ServicePipelineOptions are the inputs of `service create-pipeline`.
type ServicePipelineOptions struct {
	PlatformOptions
	RepositoryOptions
	ServiceName  string
	PipelineName string
	ProjectPath  string
}

func (o ServicePipelineOptions) Validate() error {
	problems := required(map[string]string{
		"service-name":  o.ServiceName,
		"pipeline-name": o.PipelineName,
		"project-path":  o.ProjectPath,
	})
	if strings.ContainsAny(o.ServiceName, `/\`) {
		problems = append(problems, fmt.Sprintf("service-name must not contain path separators, %q given", o.ServiceName))
	}
	return joinValidation(o.PlatformOptions.Validate(), o.RepositoryOptions.Validate(), validationError(problems))
}

// SetupOptions are the inputs of `setup`.
type SetupOptions struct {
	OrganizationName         string
	ProjectName              string
	AccessToken              string
	Workspace                string
	StatusLogPath            string
	CreateAppRepo            bool
	CreateServicePrincipal   bool
	ServicePrincipalID       string
	ServicePrincipalPassword string
	ServicePrincipalTenantID string
	SubscriptionID           string
	ACRName                  string
}

func (o SetupOptions) Validate() error {
	problems := required(map[string]string{
		"org-name":              o.OrganizationName,
		"project-name":          o.ProjectName,
		"personal-access-token": o.AccessToken,
		"workspace":             o.Workspace,
	})

	if o.CreateServicePrincipal && !o.CreateAppRepo {
		problems = append(problems, "a service principal is only created together with the app repository (--create-app-repo)")
	}
	if o.CreateAppRepo {
		if o.SubscriptionID == "" {
			problems = append(problems, "subscription-id is required to create the app repository")
		} else if err := ValidateUUID(o.SubscriptionID); err != nil {
			problems = append(problems, fmt.Sprintf("subscription-id must be a UUID, %q given", o.SubscriptionID))
		}
	}
	if o.CreateAppRepo && !o.CreateServicePrincipal {
		problems = append(problems, required(map[string]string{
			"sp-id":       o.ServicePrincipalID,
			"sp-password": o.ServicePrincipalPassword,
			"sp-tenant":   o.ServicePrincipalTenantID,
		})...)
	}
	for name, id := range map[string]string{"sp-id": o.ServicePrincipalID, "sp-tenant": o.ServicePrincipalTenantID} {
		if id != "" && ValidateUUID(id) != nil {
			problems = append(problems, fmt.Sprintf("%s must be a UUID, %q given", name, id))
		}
	}

	return validationError(problems)
}

func required(fields map[string]string) []string {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	slices.Sort(missing)
	problems := make([]string, len(missing))
	for i, name := range missing {
		problems[i] = fmt.Sprintf("--%s is required", name)
	}
	return problems
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("is not a valid URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("must be an http(s) URL, %q given", s)
	}
	if u.Host == "" {
		return fmt.Errorf("has no host: %q", s)
	}
	return nil
}

func validationError(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return bkErrors.NewValidationError(nil, strings.Join(problems, "; "))
}

// joinValidation merges the details of several validation errors into one.
func joinValidation(errs ...error) error {
	var problems []string
	for _, err := range errs {
		if err == nil {
			continue
		}
		var e *bkErrors.Error
		if errors.As(err, &e) && e.Details != "" {
			problems = append(problems, e.Details)
			continue
		}
		problems = append(problems, err.Error())
	}
	return validationError(problems)
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}
