package azdo

import (
	"context"
	"fmt"
	"net/http"
	"time"

	bkErrors "github.com/bnookala/spk/internal/errors"
	"github.com/bnookala/spk/internal/gitops"
	"github.com/google/uuid"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/core"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/git"
)

// AgileProcessTemplate is the process template of projects created by EnsureProject.
var AgileProcessTemplate = uuid.MustParse("adcc42ab-9882-485e-a3ed-7678f01f66bc")

const defaultPollInterval = 2 * time.Second

// Projects creates Azure DevOps projects.
type Projects struct {
	Core         core.Client
	PollInterval time.Duration
}

// Repositories creates Azure Repos git repositories.
type Repositories struct {
	Git  git.Client
	Core core.Client
}

// NewResources connects the core and git clients used by Projects and Repositories.
func NewResources(ctx context.Context, orgURL, accessToken string) (*Projects, *Repositories, error) {
	conn := azuredevops.NewPatConnection(orgURL, accessToken)

	coreClient, err := core.NewClient(ctx, conn)
	if err != nil {
		return nil, nil, bkErrors.NewConnectError(
			bkErrors.WrapAPIError(err, "resolving core API", StatusCode(err)),
			fmt.Sprintf("connecting to %s", orgURL))
	}

	gitClient, err := git.NewClient(ctx, conn)
	if err != nil {
		return nil, nil, bkErrors.NewConnectError(
			bkErrors.WrapAPIError(err, "resolving git API", StatusCode(err)),
			fmt.Sprintf("connecting to %s", orgURL))
	}

	return &Projects{Core: coreClient}, &Repositories{Git: gitClient, Core: coreClient}, nil
}

// EnsureProject creates the project unless it exists and waits for it to become available.
// It reports whether the project was created by this call.
func (p *Projects) EnsureProject(ctx context.Context, name string) (bool, error) {
	_, err := p.Core.GetProject(ctx, core.GetProjectArgs{ProjectId: &name})
	if err == nil {
		return false, nil
	}
	if StatusCode(err) != http.StatusNotFound {
		return false, bkErrors.WrapAPIError(err, "fetching project", StatusCode(err))
	}

	capabilities := map[string]map[string]string{
		"versioncontrol":  {"sourceControlType": "Git"},
		"processTemplate": {"templateTypeId": AgileProcessTemplate.String()},
	}
	_, err = p.Core.QueueCreateProject(ctx, core.QueueCreateProjectArgs{
		ProjectToCreate: &core.TeamProject{
			Name:         &name,
			Description:  ptr("Created by spk setup"),
			Visibility:   &core.ProjectVisibilityValues.Private,
			Capabilities: &capabilities,
		},
	})
	if err != nil {
		return false, bkErrors.WrapAPIError(err, "creating project", StatusCode(err))
	}

	if err := p.waitForProject(ctx, name); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Projects) waitForProject(ctx context.Context, name string) error {
	interval := p.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		_, err := p.Core.GetProject(ctx, core.GetProjectArgs{ProjectId: &name})
		if err == nil {
			return nil
		}
		if StatusCode(err) != http.StatusNotFound {
			return bkErrors.WrapAPIError(err, "waiting for project", StatusCode(err))
		}
	}
}

// EnsureRepository returns the named repository in project, creating it if needed.
func (r *Repositories) EnsureRepository(ctx context.Context, project, name string) (gitops.Repository, error) {
	repo, err := r.Git.GetRepository(ctx, git.GetRepositoryArgs{RepositoryId: &name, Project: &project})
	if err == nil {
		return toRepository(repo, false), nil
	}
	if StatusCode(err) != http.StatusNotFound {
		return gitops.Repository{}, bkErrors.WrapAPIError(err, "fetching repository", StatusCode(err))
	}

	teamProject, err := r.Core.GetProject(ctx, core.GetProjectArgs{ProjectId: &project})
	if err != nil {
		return gitops.Repository{}, bkErrors.WrapAPIError(err, "fetching project", StatusCode(err))
	}

	repo, err = r.Git.CreateRepository(ctx, git.CreateRepositoryArgs{
		GitRepositoryToCreate: &git.GitRepositoryCreateOptions{
			Name:    &name,
			Project: &core.TeamProjectReference{Id: teamProject.Id, Name: teamProject.Name},
		},
		Project: &project,
	})
	if err != nil {
		return gitops.Repository{}, bkErrors.WrapAPIError(err, "creating repository", StatusCode(err))
	}

	return toRepository(repo, true), nil
}

func toRepository(repo *git.GitRepository, created bool) gitops.Repository {
	r := gitops.Repository{
		Name:      deref(repo.Name),
		RemoteURL: deref(repo.RemoteUrl),
		WebURL:    deref(repo.WebUrl),
		Created:   created,
	}
	if repo.Id != nil {
		r.ID = repo.Id.String()
	}
	return r
}
