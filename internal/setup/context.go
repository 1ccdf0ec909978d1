// Package setup provisions a GitOps project end to end and records how far it got.
package setup

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
)

const (
	DefaultHLDRepoName      = "quick-start-hld"
	DefaultManifestRepoName = "quick-start-manifest"
	DefaultAppRepoName      = "quick-start-app"
	DefaultAppName          = "quick-start"

	azureDevOpsURL = "https://dev.azure.com/"
)

// Sensitivity controls how a field is rendered outside the process.
type Sensitivity string

const (
	// Public values are emitted verbatim.
	Public Sensitivity = "public"
	// Identifier values are emitted verbatim when present and empty otherwise.
	Identifier Sensitivity = "identifier"
	// Secret values are replaced by SecretMask when present and empty otherwise.
	Secret Sensitivity = "secret"
	// Credential values are always replaced by CredentialMask.
	Credential Sensitivity = "credential"
)

const (
	SecretMask     = "********"
	CredentialMask = "*********"

	statusTag = "status"
)

// Context is the state of one provisioning run. Fields tagged `status:"key,sensitivity"`
// appear as key=value lines in the status log, in declaration order.
//
// Completion flags and the error are only reachable through methods: flags never go back to
// false and the first recorded error wins.
type Context struct {
	OrganizationName         string `status:"azdo_org_name,public"`
	ProjectName              string `status:"azdo_project_name,public"`
	AccessToken              string `status:"azdo_pat,credential"`
	ToCreateAppRepo          bool   `status:"az_create_app,public"`
	ToCreateServicePrincipal bool   `status:"az_create_sp,public"`
	ServicePrincipalID       string `status:"az_sp_id,identifier"`
	ServicePrincipalPassword string `status:"az_sp_password,secret"`
	ServicePrincipalTenantID string `status:"az_sp_tenant,identifier"`
	SubscriptionID           string `status:"az_subscription_id,identifier"`

	WorkspacePath string

	HLDRepoName      string
	ManifestRepoName string
	AppRepoName      string
	AppName          string
	ACRName          string

	// Filled in by the scaffold steps.
	HLDRepoURL      string
	ManifestRepoURL string
	AppRepoURL      string

	createdProject               bool
	scaffoldHLD                  bool
	scaffoldManifest             bool
	createdHLDToManifestPipeline bool
	createdServicePrincipal      bool

	errMessage string
}

// NewContext returns a context for organization and project with the default repository
// names.
func NewContext(organization, project, accessToken, workspace string) *Context {
	return &Context{
		OrganizationName: organization,
		ProjectName:      project,
		AccessToken:      accessToken,
		WorkspacePath:    workspace,
		HLDRepoName:      DefaultHLDRepoName,
		ManifestRepoName: DefaultManifestRepoName,
		AppRepoName:      DefaultAppRepoName,
		AppName:          DefaultAppName,
	}
}

// OrganizationURL is the Azure DevOps URL of the organization. A full URL in
// OrganizationName is returned unchanged.
func (c *Context) OrganizationURL() string {
	if strings.HasPrefix(c.OrganizationName, "https://") || strings.HasPrefix(c.OrganizationName, "http://") {
		return c.OrganizationName
	}
	return azureDevOpsURL + c.OrganizationName
}

func (c *Context) MarkProjectCreated()               { c.createdProject = true }
func (c *Context) MarkHLDScaffolded()                { c.scaffoldHLD = true }
func (c *Context) MarkManifestScaffolded()           { c.scaffoldManifest = true }
func (c *Context) MarkHLDToManifestPipelineCreated() { c.createdHLDToManifestPipeline = true }
func (c *Context) MarkServicePrincipalCreated()      { c.createdServicePrincipal = true }

func (c *Context) ProjectCreated() bool               { return c.createdProject }
func (c *Context) HLDScaffolded() bool                { return c.scaffoldHLD }
func (c *Context) ManifestScaffolded() bool           { return c.scaffoldManifest }
func (c *Context) HLDToManifestPipelineCreated() bool { return c.createdHLDToManifestPipeline }

// ServicePrincipalCreated reports whether a service principal was requested, has an id and
// its creation was confirmed.
func (c *Context) ServicePrincipalCreated() bool {
	return c.ToCreateServicePrincipal && c.ServicePrincipalID != "" && c.createdServicePrincipal
}

// Fail records err as the run's error unless one is already recorded. It reports whether err
// was recorded.
func (c *Context) Fail(err error) bool {
	if err == nil || c.errMessage != "" {
		return false
	}
	c.errMessage = err.Error()
	if c.errMessage == "" {
		c.errMessage = "unknown error"
	}
	return true
}

// Failed reports whether an error has been recorded.
func (c *Context) Failed() bool {
	return c.errMessage != ""
}

// ErrorMessage is the recorded error, or "".
func (c *Context) ErrorMessage() string {
	return c.errMessage
}

// Status is "Completed" unless an error has been recorded.
func (c *Context) Status() string {
	if c.Failed() {
		return "Incomplete"
	}
	return "Completed"
}

// LogValue renders the redacted context for structured logging.
func (c *Context) LogValue() slog.Value {
	fields := c.statusFields()
	attrs := make([]slog.Attr, 0, len(fields)+3)
	for _, f := range fields {
		attrs = append(attrs, slog.String(f.key, f.value))
	}
	attrs = append(attrs,
		slog.String("workspace", c.WorkspacePath),
		slog.String("status", c.Status()),
	)
	if c.Failed() {
		attrs = append(attrs, slog.String("error", c.errMessage))
	}
	return slog.GroupValue(attrs...)
}

type statusField struct {
	key   string
	value string
}

// statusFields walks the tagged fields of c in declaration order and redacts each by its
// sensitivity.
func (c *Context) statusFields() []statusField {
	v := reflect.ValueOf(c).Elem()
	t := v.Type()

	fields := make([]statusField, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag, ok := t.Field(i).Tag.Lookup(statusTag)
		if !ok {
			continue
		}
		key, sensitivity, _ := strings.Cut(tag, ",")
		fields = append(fields, statusField{
			key:   key,
			value: redact(v.Field(i), Sensitivity(sensitivity)),
		})
	}
	return fields
}

func redact(v reflect.Value, sensitivity Sensitivity) string {
	raw := fieldString(v)

	switch sensitivity {
	case Credential:
		return CredentialMask
	case Secret:
		if raw == "" {
			return ""
		}
		return SecretMask
	case Public, Identifier:
		return raw
	default:
		// unknown sensitivities are treated as secrets
		if raw == "" {
			return ""
		}
		return SecretMask
	}
}

func fieldString(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		if v.Bool() {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(v.Interface())
	}
}
