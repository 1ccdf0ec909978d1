package setup

import (
	"context"
	"fmt"
	"path/filepath"

	bkErrors "github.com/bnookala/spk/internal/errors"
	"github.com/bnookala/spk/internal/gitops"
	"github.com/bnookala/spk/internal/pipeline"
	"github.com/bnookala/spk/internal/scaffold"
	"github.com/bnookala/spk/internal/serviceprincipal"
	"github.com/spf13/afero"
)

// ProjectService creates or locates a project.
type ProjectService interface {
	EnsureProject(ctx context.Context, name string) (created bool, err error)
}

// RepositoryService creates or locates a git repository inside a project.
type RepositoryService interface {
	EnsureRepository(ctx context.Context, project, name string) (gitops.Repository, error)
}

// ServicePrincipalCreator creates a service principal on a subscription.
type ServicePrincipalCreator interface {
	Create(ctx context.Context, name, subscriptionID string) (serviceprincipal.Credentials, error)
}

// PublishFunc commits the contents of dir and pushes them to remoteURL on branch.
type PublishFunc func(ctx context.Context, dir, remoteURL, branch string, opts gitops.PublishOptions) error

// CloneFunc checks out branch of remoteURL into the empty directory dir. It reports false when
// the remote has no such branch yet.
type CloneFunc func(ctx context.Context, dir, remoteURL, branch, accessToken string) (bool, error)

// Deps are the services the default steps talk to.
type Deps struct {
	FS                afero.Fs
	Projects          ProjectService
	Repositories      RepositoryService
	ServicePrincipals ServicePrincipalCreator
	Connector         pipeline.Connector
	Installer         *pipeline.Installer
	// Publish is skipped when nil.
	Publish PublishFunc
	// Clone fetches the history of repositories that already exist so a new run commits on
	// top of it. Existing repositories are scaffolded from scratch when nil.
	Clone CloneFunc
}

// DefaultSteps are the steps of a full setup run, in order. The pipeline is installed last,
// once every repository and the service principal exist.
func DefaultSteps(deps Deps) []Step {
	return []Step{
		&ProjectStep{Projects: deps.Projects},
		&RepoScaffoldStep{
			Kind:         hldRepo,
			FS:           deps.FS,
			Repositories: deps.Repositories,
			Publish:      deps.Publish,
			Clone:        deps.Clone,
		},
		&RepoScaffoldStep{
			Kind:         manifestRepo,
			FS:           deps.FS,
			Repositories: deps.Repositories,
			Publish:      deps.Publish,
			Clone:        deps.Clone,
		},
		&AppRepoStep{
			FS:                deps.FS,
			Repositories:      deps.Repositories,
			ServicePrincipals: deps.ServicePrincipals,
			Publish:           deps.Publish,
			Clone:             deps.Clone,
		},
		&PipelineStep{Connector: deps.Connector, Installer: deps.Installer},
	}
}

// ProjectStep creates the project, or finds an existing one.
type ProjectStep struct {
	Projects ProjectService
}

func (s *ProjectStep) Name() string { return "project" }

func (s *ProjectStep) Run(ctx context.Context, rc *Context) error {
	if _, err := s.Projects.EnsureProject(ctx, rc.ProjectName); err != nil {
		return bkErrors.WithDetails(err, rc.ProjectName)
	}
	rc.MarkProjectCreated()
	return nil
}

type repoKind int

const (
	hldRepo repoKind = iota
	manifestRepo
)

func (k repoKind) String() string {
	if k == hldRepo {
		return "hld"
	}
	return "manifest"
}

// RepoScaffoldStep creates the HLD or manifest repository, writes its starter files into the
// workspace and pushes them.
type RepoScaffoldStep struct {
	Kind         repoKind
	FS           afero.Fs
	Repositories RepositoryService
	Publish      PublishFunc
	Clone        CloneFunc
}

func (s *RepoScaffoldStep) Name() string { return s.Kind.String() + " repository" }

func (s *RepoScaffoldStep) Run(ctx context.Context, rc *Context) error {
	name := rc.HLDRepoName
	if s.Kind == manifestRepo {
		name = rc.ManifestRepoName
	}

	repo, err := s.Repositories.EnsureRepository(ctx, rc.ProjectName, name)
	if err != nil {
		return bkErrors.WithDetails(err, name)
	}

	dir := filepath.Join(rc.WorkspacePath, name)
	if err := workingCopy(ctx, s.FS, s.Clone, rc, dir, repo); err != nil {
		return err
	}

	if s.Kind == hldRepo {
		_, err = scaffold.InitHLD(s.FS, dir)
	} else {
		_, err = scaffold.InitManifest(s.FS, dir)
	}
	if err != nil {
		return bkErrors.NewInternalError(err, fmt.Sprintf("scaffolding %s", name))
	}

	if err := publish(ctx, s.Publish, rc, dir, repo.RemoteURL, "Initial "+s.Kind.String()+" commit"); err != nil {
		return err
	}

	if s.Kind == hldRepo {
		rc.HLDRepoURL = repo.RemoteURL
		rc.MarkHLDScaffolded()
	} else {
		rc.ManifestRepoURL = repo.RemoteURL
		rc.MarkManifestScaffolded()
	}
	return nil
}

// PipelineStep installs the HLD to Manifest pipeline on the HLD repository.
type PipelineStep struct {
	Connector pipeline.Connector
	Installer *pipeline.Installer
}

func (s *PipelineStep) Name() string { return "hld to manifest pipeline" }

func (s *PipelineStep) Run(ctx context.Context, rc *Context) error {
	if rc.HLDRepoURL == "" {
		return bkErrors.NewValidationError(nil, "the HLD repository has not been created")
	}

	installer := s.Installer
	if installer == nil {
		installer = pipeline.NewInstaller(nil)
	}

	def := pipeline.HLDToManifestDefinition(rc.HLDRepoName, rc.HLDRepoURL)
	if _, err := installer.InstallWithConnector(ctx, s.Connector, rc.OrganizationURL(), rc.AccessToken, rc.ProjectName, def); err != nil {
		return err
	}
	rc.MarkHLDToManifestPipelineCreated()
	return nil
}

// AppRepoStep creates the application repository with a helm chart and, when asked, a
// service principal for its deployments.
type AppRepoStep struct {
	FS                afero.Fs
	Repositories      RepositoryService
	ServicePrincipals ServicePrincipalCreator
	Publish           PublishFunc
	Clone             CloneFunc
}

func (s *AppRepoStep) Name() string { return "application repository" }

func (s *AppRepoStep) Run(ctx context.Context, rc *Context) error {
	if !rc.ToCreateAppRepo {
		return nil
	}

	if rc.ToCreateServicePrincipal {
		creds, err := s.ServicePrincipals.Create(ctx, "spk-"+rc.ProjectName, rc.SubscriptionID)
		if err != nil {
			return err
		}
		rc.ServicePrincipalID = creds.AppID
		rc.ServicePrincipalPassword = creds.Password
		rc.ServicePrincipalTenantID = creds.TenantID
		rc.MarkServicePrincipalCreated()
	}

	repo, err := s.Repositories.EnsureRepository(ctx, rc.ProjectName, rc.AppRepoName)
	if err != nil {
		return bkErrors.WithDetails(err, rc.AppRepoName)
	}

	dir := filepath.Join(rc.WorkspacePath, rc.AppRepoName)
	if err := workingCopy(ctx, s.FS, s.Clone, rc, dir, repo); err != nil {
		return err
	}
	acr := rc.ACRName
	if acr == "" {
		acr = rc.AppName
	}
	if err := scaffold.ScaffoldHelmChart(s.FS, dir, rc.AppName, acr); err != nil {
		return bkErrors.NewInternalError(err, "scaffolding helm chart")
	}

	if err := publish(ctx, s.Publish, rc, dir, repo.RemoteURL, "Initial application commit"); err != nil {
		return err
	}
	rc.AppRepoURL = repo.RemoteURL
	return nil
}

// workingCopy empties dir and, for a repository that existed before this run, checks out its
// default branch there so scaffolding lands on top of the published history.
func workingCopy(ctx context.Context, fs afero.Fs, clone CloneFunc, rc *Context, dir string, repo gitops.Repository) error {
	if err := scaffold.CreateDirectory(fs, dir, true); err != nil {
		return bkErrors.NewInternalError(err, "preparing workspace")
	}
	if repo.Created || clone == nil {
		return nil
	}
	if _, err := clone(ctx, dir, repo.RemoteURL, pipeline.DefaultBranch, rc.AccessToken); err != nil {
		return err
	}
	return nil
}

func publish(ctx context.Context, fn PublishFunc, rc *Context, dir, remoteURL, message string) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, dir, remoteURL, pipeline.DefaultBranch, gitops.PublishOptions{
		Message:     message,
		AccessToken: rc.AccessToken,
	})
}
