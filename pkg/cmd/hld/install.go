package hld

import (
	"github.com/MakeNowJust/heredoc"
	bkIO "github.com/bnookala/spk/internal/io"
	"github.com/bnookala/spk/internal/pipeline"
	"github.com/bnookala/spk/pkg/cmd/factory"
	"github.com/bnookala/spk/pkg/cmd/validation"
	"github.com/spf13/cobra"
)

func NewCmdInstallManifestPipeline(f *factory.Factory) *cobra.Command {
	var opts validation.InstallManifestPipelineOptions

	cmd := cobra.Command{
		DisableFlagsInUseLine: true,
		Use:                   "install-manifest-pipeline [flags]",
		Aliases:               []string{"p"},
		Args:                  cobra.NoArgs,
		Short:                 "Install the HLD to Manifest pipeline",
		Long: heredoc.Doc(`
			Install the HLD to Manifest pipeline and queue its first build. The pipeline file
			written by 'spk hld init' must be merged into the HLD repository first.

			Flags fall back to the config file and SPK_ environment variables.
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Merge(f.Config)
			if f.OriginURL != nil {
				opts.FillFromRemote(f.OriginURL("."))
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			connector, err := f.Connector(opts.Platform)
			if err != nil {
				return err
			}

			def := pipeline.HLDToManifestDefinition(opts.RepoName, opts.RepoURL)
			installer := pipeline.NewInstaller(f.Logger)

			var result pipeline.Result
			err = bkIO.SpinWhile(f.Quiet, "Creating "+def.Name+" pipeline", func() error {
				var installErr error
				result, installErr = installer.InstallWithConnector(cmd.Context(), connector, opts.OrgURL, opts.AccessToken, opts.Project, def)
				return installErr
			})
			if err != nil {
				return err
			}

			bkIO.PipelineResult(cmd.OutOrStdout(), def.Name, result)
			return nil
		},
	}

	opts.PlatformOptions.AddFlags(cmd.Flags())
	cmd.Flags().StringVarP(&opts.RepoName, "repo-name", "r", "", "Name of the HLD repository")
	cmd.Flags().StringVarP(&opts.RepoURL, "repo-url", "u", "", "URL of the HLD repository")

	return &cmd
}
