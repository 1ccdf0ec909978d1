// Package azdo installs pipeline definitions on Azure DevOps and manages the projects and
// repositories they build from.
package azdo

import (
	"context"
	"errors"
	"strconv"

	bkErrors "github.com/bnookala/spk/internal/errors"
	"github.com/bnookala/spk/internal/pipeline"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/build"
)

const (
	// RepositoryType is the repository type of Azure Repos git repositories.
	RepositoryType = "TfsGit"
	// DefaultQueue is the agent queue new definitions run on.
	DefaultQueue = "Hosted Ubuntu 1604"

	yamlProcessType = 2
	// settings are read from the YAML file rather than the definition
	yamlSettingsSourceType = 2
)

// Connector opens Azure DevOps build clients with a personal access token.
type Connector struct{}

func (Connector) Connect(ctx context.Context, orgURL, accessToken string) (pipeline.Client, error) {
	conn := azuredevops.NewPatConnection(orgURL, accessToken)

	// resolving the build area is the first authenticated round trip
	api, err := build.NewClient(ctx, conn)
	if err != nil {
		return nil, bkErrors.WrapAPIError(err, "resolving build API", StatusCode(err))
	}

	return &Client{build: api}, nil
}

// Client implements pipeline.Client on top of the Azure DevOps build API.
type Client struct {
	build build.Client
}

// NewClient wraps an existing build client.
func NewClient(api build.Client) *Client {
	return &Client{build: api}
}

func (c *Client) CreateDefinition(ctx context.Context, project string, def pipeline.Definition) (pipeline.RemoteDefinition, error) {
	created, err := c.build.CreateDefinition(ctx, build.CreateDefinitionArgs{
		Definition: BuildDefinition(def),
		Project:    &project,
	})
	if err != nil {
		return pipeline.RemoteDefinition{}, bkErrors.WrapAPIError(err, "creating pipeline definition", StatusCode(err))
	}

	return pipeline.RemoteDefinition{
		ID:   itoa(created.Id),
		Name: deref(created.Name),
		URL:  deref(created.Url),
	}, nil
}

func (c *Client) ListDefinitions(ctx context.Context, project, name string) ([]pipeline.RemoteDefinition, error) {
	args := build.GetDefinitionsArgs{Project: &project}
	if name != "" {
		args.Name = &name
	}

	var found []pipeline.RemoteDefinition
	for {
		resp, err := c.build.GetDefinitions(ctx, args)
		if err != nil {
			return nil, bkErrors.WrapAPIError(err, "listing pipeline definitions", StatusCode(err))
		}

		for _, d := range resp.Value {
			found = append(found, pipeline.RemoteDefinition{
				ID:   itoa(d.Id),
				Name: deref(d.Name),
				URL:  deref(d.Url),
			})
		}

		if resp.ContinuationToken == "" {
			break
		}
		token := resp.ContinuationToken
		args.ContinuationToken = &token
	}

	return found, nil
}

func (c *Client) QueueBuild(ctx context.Context, project, definitionID string) (pipeline.Build, error) {
	id, err := strconv.Atoi(definitionID)
	if err != nil {
		return pipeline.Build{}, bkErrors.NewValidationError(err, "definition id must be numeric")
	}

	queued, err := c.build.QueueBuild(ctx, build.QueueBuildArgs{
		Build: &build.Build{
			Definition: &build.DefinitionReference{Id: &id},
		},
		Project: &project,
	})
	if err != nil {
		return pipeline.Build{}, bkErrors.WrapAPIError(err, "queueing build", StatusCode(err))
	}

	return pipeline.Build{
		ID:     itoa(queued.Id),
		Number: deref(queued.BuildNumber),
		URL:    deref(queued.Url),
	}, nil
}

// BuildDefinition maps def onto a YAML build definition with a continuous integration
// trigger on the definition's branch filters.
func BuildDefinition(def pipeline.Definition) *build.BuildDefinition {
	filters := append([]string(nil), def.BranchFilters...)
	maxConcurrent := def.MaxConcurrentBuilds
	settingsSource := yamlSettingsSourceType
	processType := yamlProcessType

	trigger := build.ContinuousIntegrationTrigger{
		BranchFilters:                &filters,
		MaxConcurrentBuildsPerBranch: &maxConcurrent,
		SettingsSourceType:           &settingsSource,
		TriggerType:                  &build.DefinitionTriggerTypeValues.ContinuousIntegration,
	}
	triggers := []interface{}{trigger}

	return &build.BuildDefinition{
		Name:        ptr(def.Name),
		Type:        &build.DefinitionTypeValues.Build,
		QueueStatus: &build.DefinitionQueueStatusValues.Enabled,
		Quality:     &build.DefinitionQualityValues.Definition,
		Queue:       &build.AgentPoolQueue{Name: ptr(DefaultQueue)},
		Repository: &build.BuildRepository{
			Name:          ptr(def.RepositoryName),
			Url:           ptr(def.RepositoryURL),
			Type:          ptr(RepositoryType),
			DefaultBranch: ptr(def.Branch),
		},
		Process: build.YamlProcess{
			Type:         &processType,
			YamlFilename: ptr(def.YAMLPath),
		},
		Triggers: &triggers,
	}
}

// StatusCode returns the HTTP status code carried by an Azure DevOps error, or 0.
func StatusCode(err error) int {
	var wrapped azuredevops.WrappedError
	if errors.As(err, &wrapped) && wrapped.StatusCode != nil {
		return *wrapped.StatusCode
	}
	var wrappedPtr *azuredevops.WrappedError
	if errors.As(err, &wrappedPtr) && wrappedPtr.StatusCode != nil {
		return *wrappedPtr.StatusCode
	}
	return 0
}

func ptr[T any](v T) *T {
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func itoa(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}
