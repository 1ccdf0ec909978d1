package setup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/bnookala/spk/internal/config"
	bkErrors "github.com/bnookala/spk/internal/errors"
	"github.com/bnookala/spk/internal/gitops"
	bkIO "github.com/bnookala/spk/internal/io"
	"github.com/bnookala/spk/internal/pipeline"
	"github.com/bnookala/spk/internal/platform/azdo"
	"github.com/bnookala/spk/internal/serviceprincipal"
	provision "github.com/bnookala/spk/internal/setup"
	"github.com/bnookala/spk/pkg/cmd/factory"
	"github.com/bnookala/spk/pkg/cmd/validation"
	"github.com/spf13/cobra"
)

const progressBarWidth = 10

// Services are the remote services a setup run talks to.
type Services struct {
	Projects          provision.ProjectService
	Repositories      provision.RepositoryService
	ServicePrincipals provision.ServicePrincipalCreator
	Publish           provision.PublishFunc
	Clone             provision.CloneFunc
}

// ServicesFunc connects the services for an organization.
type ServicesFunc func(ctx context.Context, orgURL, accessToken string) (Services, error)

func azureDevOpsServices(ctx context.Context, orgURL, accessToken string) (Services, error) {
	projects, repos, err := azdo.NewResources(ctx, orgURL, accessToken)
	if err != nil {
		return Services{}, err
	}
	return Services{
		Projects:          projects,
		Repositories:      repos,
		ServicePrincipals: serviceprincipal.NewCreator(),
		Publish:           gitops.InitAndPush,
		Clone:             gitops.Clone,
	}, nil
}

func NewCmdSetup(f *factory.Factory) *cobra.Command {
	return newCmdSetup(f, azureDevOpsServices, bkIO.SurveyPrompter{})
}

func newCmdSetup(f *factory.Factory, services ServicesFunc, prompter bkIO.Prompter) *cobra.Command {
	var (
		opts        validation.SetupOptions
		answersFile string
	)

	cmd := cobra.Command{
		DisableFlagsInUseLine: true,
		Use:                   "setup [flags]",
		Args:                  cobra.NoArgs,
		Short:                 "Provision a GitOps project on Azure DevOps",
		Long: heredoc.Doc(`
			Create an Azure DevOps project with HLD and manifest repositories, install the HLD to
			Manifest pipeline and optionally an application repository with a helm chart and a
			service principal.

			Missing values are prompted for unless --no-input is set. A status log recording how
			far the run got is written at the end, whether or not it succeeded.
		`),
		Example: heredoc.Doc(`
			# Interactive
			$ spk setup

			# Replay the answers of an earlier run
			$ spk setup --file answers.txt --no-input
		`),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return f.SetGlobalFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if answersFile != "" {
				file, err := f.FS.Open(answersFile)
				if err != nil {
					return bkErrors.NewValidationError(err, fmt.Sprintf("opening answers file %s", answersFile))
				}
				defer file.Close()
				if err := readAnswers(file, &opts); err != nil {
					return err
				}
			}

			if opts.ProjectName == "" {
				opts.ProjectName = f.Config.Project()
			}
			if opts.AccessToken == "" {
				opts.AccessToken = f.Config.AccessToken()
			}
			if opts.Workspace == "" {
				opts.Workspace = defaultWorkspace()
			}

			if !f.NoInput {
				if err := promptMissing(prompter, &opts); err != nil {
					return err
				}
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			return runSetup(cmd, f, services, opts)
		},
	}

	cmd.Flags().StringVarP(&answersFile, "file", "f", "", "Answers file with key=value lines, as written to the status log")
	cmd.Flags().StringVar(&opts.OrganizationName, "org-name", "", "Azure DevOps organization name")
	cmd.Flags().StringVar(&opts.ProjectName, "project-name", "", "Name of the project to create")
	cmd.Flags().StringVarP(&opts.AccessToken, "personal-access-token", "p", "", "Azure DevOps personal access token")
	cmd.Flags().StringVar(&opts.Workspace, "workspace", "", "Directory the repositories are scaffolded in")
	cmd.Flags().StringVar(&opts.StatusLogPath, "status-log", provision.DefaultStatusLogFile, "Path of the status log")
	cmd.Flags().BoolVar(&opts.CreateAppRepo, "create-app-repo", false, "Create an application repository with a helm chart")
	cmd.Flags().BoolVar(&opts.CreateServicePrincipal, "create-sp", false, "Create a service principal with the az CLI")
	cmd.Flags().StringVar(&opts.ServicePrincipalID, "sp-id", "", "Id of an existing service principal")
	cmd.Flags().StringVar(&opts.ServicePrincipalPassword, "sp-password", "", "Password of an existing service principal")
	cmd.Flags().StringVar(&opts.ServicePrincipalTenantID, "sp-tenant", "", "Tenant of an existing service principal")
	cmd.Flags().StringVar(&opts.SubscriptionID, "subscription-id", "", "Azure subscription id")
	cmd.Flags().StringVar(&opts.ACRName, "acr-name", "", "Azure container registry the helm chart pulls from")

	return &cmd
}

func runSetup(cmd *cobra.Command, f *factory.Factory, services ServicesFunc, opts validation.SetupOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	rc := provision.NewContext(opts.OrganizationName, opts.ProjectName, opts.AccessToken, opts.Workspace)
	rc.ToCreateAppRepo = opts.CreateAppRepo
	rc.ToCreateServicePrincipal = opts.CreateServicePrincipal
	rc.SubscriptionID = opts.SubscriptionID
	rc.ACRName = opts.ACRName
	if !opts.CreateServicePrincipal {
		rc.ServicePrincipalID = opts.ServicePrincipalID
		rc.ServicePrincipalPassword = opts.ServicePrincipalPassword
		rc.ServicePrincipalTenantID = opts.ServicePrincipalTenantID
	}

	orchestrator := &provision.Orchestrator{
		Logger:        f.Logger,
		FS:            f.FS,
		StatusLogPath: opts.StatusLogPath,
	}
	if !f.Quiet {
		orchestrator.Progress = func(done, total int, step string) {
			fmt.Fprintln(cmd.ErrOrStderr(), bkIO.StepLine("Setup", done, total, step, progressBarWidth))
		}
	}

	runErr := runSteps(ctx, f, services, orchestrator, rc)
	if runErr != nil {
		bkIO.Warning(out, "Setup did not complete, see %s", opts.StatusLogPath)
		return runErr
	}

	if err := f.Config.Save(map[string]string{
		config.OrgURLKey:  rc.OrganizationURL(),
		config.ProjectKey: rc.ProjectName,
	}); err != nil {
		f.Logger.Warn("Could not save organization to config", "error", err)
	}

	bkIO.Success(out, "Setup completed")
	bkIO.Field(out, "HLD repository", rc.HLDRepoURL)
	bkIO.Field(out, "Manifest repository", rc.ManifestRepoURL)
	if rc.AppRepoURL != "" {
		bkIO.Field(out, "App repository", rc.AppRepoURL)
	}
	bkIO.Field(out, "Status log", opts.StatusLogPath)
	return nil
}

// runSteps connects the services and runs the orchestrator. When connecting fails no step
// runs, but the status log still records the failure.
func runSteps(ctx context.Context, f *factory.Factory, services ServicesFunc, orchestrator *provision.Orchestrator, rc *provision.Context) error {
	abort := func(err error) error {
		rc.Fail(err)
		if orchestrator.StatusLogPath != "" {
			if writeErr := provision.WriteStatusLog(f.FS, rc, orchestrator.StatusLogPath); writeErr != nil {
				f.Logger.Error("Could not write status log", "path", orchestrator.StatusLogPath, "error", writeErr)
			}
		}
		return err
	}

	svc, err := services(ctx, rc.OrganizationURL(), rc.AccessToken)
	if err != nil {
		return abort(err)
	}
	connector, err := f.Connector(config.PlatformAzureDevOps)
	if err != nil {
		return abort(err)
	}

	orchestrator.Steps = provision.DefaultSteps(provision.Deps{
		FS:                f.FS,
		Projects:          svc.Projects,
		Repositories:      svc.Repositories,
		ServicePrincipals: svc.ServicePrincipals,
		Connector:         connector,
		Installer:         pipeline.NewInstaller(f.Logger),
		Publish:           svc.Publish,
		Clone:             svc.Clone,
	})
	return orchestrator.Run(ctx, rc)
}

func defaultWorkspace() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "quick-start-env"
	}
	return filepath.Join(home, ".spk", "quick-start-env")
}
