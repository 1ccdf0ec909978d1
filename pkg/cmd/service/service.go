package service

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/bnookala/spk/pkg/cmd/factory"
	"github.com/spf13/cobra"
)

func NewCmdService(f *factory.Factory) *cobra.Command {
	cmd := cobra.Command{
		Use:   "service <command>",
		Short: "Manage the services of a bedrock project",
		Example: heredoc.Doc(`
			# Create the build pipeline of the frontend service
			$ spk service create-pipeline frontend -n frontend-pipeline -r mono -u https://dev.azure.com/org/project/_git/mono
		`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return f.SetGlobalFlags(cmd)
		},
	}

	cmd.AddCommand(NewCmdCreatePipeline(f))

	return &cmd
}
