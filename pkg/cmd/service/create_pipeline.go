package service

import (
	"github.com/MakeNowJust/heredoc"
	bkIO "github.com/bnookala/spk/internal/io"
	"github.com/bnookala/spk/internal/pipeline"
	"github.com/bnookala/spk/internal/scaffold"
	"github.com/bnookala/spk/pkg/cmd/factory"
	"github.com/bnookala/spk/pkg/cmd/validation"
	"github.com/spf13/cobra"
)

func NewCmdCreatePipeline(f *factory.Factory) *cobra.Command {
	var opts validation.ServicePipelineOptions

	cmd := cobra.Command{
		DisableFlagsInUseLine: true,
		Use:                   "create-pipeline <service-name> [flags]",
		Aliases:               []string{"p"},
		Args:                  cobra.ExactArgs(1),
		Short:                 "Create the build pipeline of a bedrock managed service",
		Long: heredoc.Doc(`
			Create the build pipeline of a service in a bedrock mono-repository and queue its
			first build. The pipeline is read from packages/<service-name>/azure-pipelines.yaml.
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ServiceName = args[0]
			opts.Merge(f.Config)
			if f.OriginURL != nil {
				opts.FillFromRemote(f.OriginURL(opts.ProjectPath))
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			found, err := scaffold.HasService(f.FS, opts.ProjectPath, opts.ServiceName)
			if err != nil {
				f.Logger.Debug("Could not read bedrock.yaml", "path", opts.ProjectPath, "error", err)
			} else if !found {
				bkIO.Warning(out, "Service %s is not listed in %s. Has it been created and merged?", opts.ServiceName, scaffold.BedrockFile)
			}

			connector, err := f.Connector(opts.Platform)
			if err != nil {
				return err
			}

			def := pipeline.ServiceDefinition(opts.PipelineName, opts.ServiceName, opts.RepoName, opts.RepoURL)
			installer := pipeline.NewInstaller(f.Logger)

			var result pipeline.Result
			err = bkIO.SpinWhile(f.Quiet, "Creating "+def.Name+" pipeline", func() error {
				var installErr error
				result, installErr = installer.InstallWithConnector(cmd.Context(), connector, opts.OrgURL, opts.AccessToken, opts.Project, def)
				return installErr
			})
			if err != nil {
				f.Logger.Error("Error occurred installing pipeline", "service", opts.ServiceName, "error", err)
				return err
			}

			bkIO.PipelineResult(out, def.Name, result)
			return nil
		},
	}

	opts.PlatformOptions.AddFlags(cmd.Flags())
	cmd.Flags().StringVarP(&opts.PipelineName, "pipeline-name", "n", "", "Name of the pipeline to be created")
	cmd.Flags().StringVarP(&opts.RepoName, "repo-name", "r", "", "Name of the repository")
	cmd.Flags().StringVarP(&opts.RepoURL, "repo-url", "u", "", "URL of the repository")
	cmd.Flags().StringVarP(&opts.ProjectPath, "project-path", "l", ".", "Path to the bedrock project")

	return &cmd
}
