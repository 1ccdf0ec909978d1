package hld

import (
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/bnookala/spk/internal/gitops"
	bkIO "github.com/bnookala/spk/internal/io"
	"github.com/bnookala/spk/internal/scaffold"
	"github.com/bnookala/spk/pkg/cmd/factory"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

// openURL is replaced in tests.
var openURL = browser.OpenURL

type initOptions struct {
	projectPath string
	gitPush     bool
	web         bool
	accessToken string
}

func NewCmdHLDInit(f *factory.Factory) *cobra.Command {
	var opts initOptions

	cmd := cobra.Command{
		DisableFlagsInUseLine: true,
		Use:                   "init [flags]",
		Aliases:               []string{"i"},
		Args:                  cobra.NoArgs,
		Short:                 "Initialize your HLD repository",
		Long: heredoc.Doc(`
			Initialize your HLD repository. Adds the azure-pipelines.yaml and component.yaml
			files to the project directory if they do not already exist.

			With --git-push the files are committed on a new branch, pushed to origin and a link
			to open a pull request for the branch is printed.
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, f, opts)
		},
	}

	cmd.Flags().StringVar(&opts.projectPath, "project-path", ".", "Path to the HLD repository")
	cmd.Flags().BoolVar(&opts.gitPush, "git-push", false, "Commit and push the changes to a new branch on origin")
	cmd.Flags().BoolVarP(&opts.web, "web", "w", false, "Open the pull request link in a web browser")
	cmd.Flags().StringVarP(&opts.accessToken, "personal-access-token", "p", "", "Personal access token used to push")

	return &cmd
}

func runInit(cmd *cobra.Command, f *factory.Factory, opts initOptions) error {
	out := cmd.OutOrStdout()
	f.Logger.Info("Initializing bedrock HLD repository", "path", opts.projectPath)

	written, err := scaffold.InitHLD(f.FS, opts.projectPath)
	if err != nil {
		return err
	}

	pipelinePath := filepath.Join(opts.projectPath, scaffold.PipelineFile)
	if written {
		bkIO.Success(out, "Created %s", pipelinePath)
	} else {
		bkIO.Success(out, "File found at %s. You're good to go!", pipelinePath)
	}

	if !opts.gitPush {
		return nil
	}

	token := opts.accessToken
	if token == "" {
		token = f.Config.AccessToken()
	}

	var cr gitops.ChangeRequest
	err = bkIO.SpinWhile(f.Quiet, "Pushing "+gitops.HLDInitBranch, func() error {
		var pushErr error
		cr, pushErr = gitops.CheckoutCommitPushCreateChangeRequest(cmd.Context(), opts.projectPath, gitops.HLDInitBranch, gitops.PublishOptions{
			Message:     "Adding HLD pipeline",
			AccessToken: token,
		})
		return pushErr
	})
	if err != nil {
		return err
	}

	bkIO.Success(out, "Pushed branch %s", cr.Branch)
	if cr.URL == "" {
		bkIO.Warning(out, "Could not build a pull request link for %s", cr.RemoteURL)
		return nil
	}
	bkIO.Field(out, "Pull request", cr.URL)

	if opts.web {
		return openURL(cr.URL)
	}
	return nil
}
