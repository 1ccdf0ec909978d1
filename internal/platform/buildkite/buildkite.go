// Package buildkite installs pipeline definitions as Buildkite pipelines.
package buildkite

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	bkErrors "github.com/bnookala/spk/internal/errors"
	"github.com/bnookala/spk/internal/pipeline"
	buildkite "github.com/buildkite/go-buildkite/v4"
	"github.com/goccy/go-yaml"
)

const (
	DefaultBaseURL = "https://api.buildkite.com/"

	webPrefix   = "https://buildkite.com/"
	listPerPage = 100
)

// Connector opens Buildkite clients. The org URL is either an organization slug or the
// organization's web URL.
type Connector struct {
	BaseURL string
}

func (c Connector) Connect(ctx context.Context, orgURL, accessToken string) (pipeline.Client, error) {
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	api, err := buildkite.NewOpts(
		buildkite.WithBaseURL(baseURL),
		buildkite.WithTokenAuth(accessToken),
	)
	if err != nil {
		return nil, err
	}

	// the token check doubles as the connection handshake
	if _, resp, err := api.AccessTokens.Get(ctx); err != nil {
		return nil, bkErrors.WrapAPIError(err, "verifying access token", statusCode(resp))
	}

	return &Client{api: api, org: OrganizationSlug(orgURL)}, nil
}

// OrganizationSlug extracts the organization slug from a web URL or returns s unchanged.
func OrganizationSlug(s string) string {
	s = strings.TrimPrefix(s, webPrefix)
	s = strings.Trim(s, "/")
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	return s
}

// Client implements pipeline.Client for one Buildkite organization. Projects are mapped onto
// pipeline tags.
type Client struct {
	api *buildkite.Client
	org string
}

// NewClient wraps an existing API client without verifying it.
func NewClient(api *buildkite.Client, org string) *Client {
	return &Client{api: api, org: org}
}

func (c *Client) CreateDefinition(ctx context.Context, project string, def pipeline.Definition) (pipeline.RemoteDefinition, error) {
	create, err := CreatePipeline(project, def)
	if err != nil {
		return pipeline.RemoteDefinition{}, err
	}

	p, resp, err := c.api.Pipelines.Create(ctx, c.org, create)
	if err != nil {
		return pipeline.RemoteDefinition{}, bkErrors.WrapAPIError(err, "creating pipeline", statusCode(resp))
	}

	return pipeline.RemoteDefinition{ID: p.Slug, Name: p.Name, URL: p.WebURL}, nil
}

func (c *Client) ListDefinitions(ctx context.Context, project, name string) ([]pipeline.RemoteDefinition, error) {
	opts := buildkite.PipelineListOptions{
		ListOptions: buildkite.ListOptions{
			PerPage: listPerPage,
		},
	}

	var found []pipeline.RemoteDefinition
	for {
		pipelines, resp, err := c.api.Pipelines.List(ctx, c.org, &opts)
		if err != nil {
			return nil, bkErrors.WrapAPIError(err, "listing pipelines", statusCode(resp))
		}

		for _, p := range pipelines {
			if name != "" && p.Name != name {
				continue
			}
			found = append(found, pipeline.RemoteDefinition{ID: p.Slug, Name: p.Name, URL: p.WebURL})
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return found, nil
}

func (c *Client) QueueBuild(ctx context.Context, project, definitionID string) (pipeline.Build, error) {
	p, resp, err := c.api.Pipelines.Get(ctx, c.org, definitionID)
	if err != nil {
		return pipeline.Build{}, bkErrors.WrapAPIError(err, "fetching pipeline", statusCode(resp))
	}

	b, resp, err := c.api.Builds.Create(ctx, c.org, definitionID, buildkite.CreateBuild{
		Message: fmt.Sprintf("Initial build of %s", p.Name),
		Commit:  "HEAD",
		Branch:  p.DefaultBranch,
	})
	if err != nil {
		return pipeline.Build{}, bkErrors.WrapAPIError(err, "creating build", statusCode(resp))
	}

	return pipeline.Build{ID: b.ID, Number: strconv.Itoa(b.Number), URL: b.WebURL}, nil
}

type uploadStep struct {
	Label            string `yaml:"label"`
	Command          string `yaml:"command"`
	Concurrency      int    `yaml:"concurrency,omitempty"`
	ConcurrencyGroup string `yaml:"concurrency_group,omitempty"`
}

type bootstrapConfig struct {
	Steps []uploadStep `yaml:"steps"`
}

// CreatePipeline maps a definition onto a Buildkite pipeline whose only step uploads the
// definition's YAML file.
func CreatePipeline(project string, def pipeline.Definition) (buildkite.CreatePipeline, error) {
	step := uploadStep{
		Label:   ":pipeline:",
		Command: "buildkite-agent pipeline upload " + def.YAMLPath,
	}
	if def.MaxConcurrentBuilds > 0 {
		step.Concurrency = def.MaxConcurrentBuilds
		step.ConcurrencyGroup = fmt.Sprintf("%s/%s", project, def.Name)
	}

	config, err := yaml.Marshal(bootstrapConfig{Steps: []uploadStep{step}})
	if err != nil {
		return buildkite.CreatePipeline{}, bkErrors.NewInternalError(err, "encoding pipeline configuration")
	}

	create := buildkite.CreatePipeline{
		Name:                def.Name,
		Repository:          def.RepositoryURL,
		Configuration:       string(config),
		DefaultBranch:       def.Branch,
		BranchConfiguration: strings.Join(def.BranchFilters, " "),
		Description:         fmt.Sprintf("Builds %s from %s", def.YAMLPath, def.RepositoryName),
	}
	if project != "" {
		create.Tags = []string{project}
	}

	return create, nil
}

func statusCode(resp *buildkite.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}
