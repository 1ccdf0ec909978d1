package hld

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/bnookala/spk/pkg/cmd/factory"
	"github.com/spf13/cobra"
)

func NewCmdHLD(f *factory.Factory) *cobra.Command {
	cmd := cobra.Command{
		Use:   "hld <command>",
		Short: "Initialize and manage a bedrock HLD repository",
		Long:  "Commands for initializing and managing a bedrock high level definition (HLD) repository.",
		Example: heredoc.Doc(`
			# Add the HLD pipeline to the repository in the current directory and open a pull request
			$ spk hld init --git-push --web

			# Install the pipeline that renders the HLD repository into manifests
			$ spk hld install-manifest-pipeline --repo-name hld --repo-url https://dev.azure.com/org/project/_git/hld
		`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return f.SetGlobalFlags(cmd)
		},
	}

	cmd.AddCommand(NewCmdHLDInit(f))
	cmd.AddCommand(NewCmdInstallManifestPipeline(f))

	return &cmd
}
