package root

import (
	"github.com/MakeNowJust/heredoc"
	bkErrors "github.com/bnookala/spk/internal/errors"
	"github.com/bnookala/spk/pkg/cmd/factory"
	hldCmd "github.com/bnookala/spk/pkg/cmd/hld"
	serviceCmd "github.com/bnookala/spk/pkg/cmd/service"
	setupCmd "github.com/bnookala/spk/pkg/cmd/setup"
	versionCmd "github.com/bnookala/spk/pkg/cmd/version"
	"github.com/spf13/cobra"
)

func NewCmdRoot(f *factory.Factory) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "spk <command> <subcommand> [flags]",
		Short: "Bedrock GitOps CLI",
		Long:  "Provision and manage bedrock GitOps projects from the command line.",
		Example: heredoc.Doc(`
			$ spk setup
			$ spk hld install-manifest-pipeline --repo-name hld --repo-url https://dev.azure.com/org/project/_git/hld
		`),
		Annotations: map[string]string{
			"versionInfo": versionCmd.Format(f.Version),
		},
		Version:      f.Version,
		SilenceUsage: true,
	}
	cmd.SetVersionTemplate(versionCmd.Format(f.Version))

	cmd.PersistentFlags().BoolP("verbose", "V", false, "Enable debug logging and detailed errors")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress progress output")
	cmd.PersistentFlags().Bool("no-input", false, "Disable all interactive prompts")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	cmd.PersistentFlags().String("log-format", "", "Log format: text or json")

	cmd.AddCommand(hldCmd.NewCmdHLD(f))
	cmd.AddCommand(serviceCmd.NewCmdService(f))
	cmd.AddCommand(setupCmd.NewCmdSetup(f))
	cmd.AddCommand(versionCmd.NewCmdVersion(f.Version))

	wrapRunE(cmd)

	return cmd, nil
}

// wrapRunE adds the help hint to validation errors of every command in the tree.
func wrapRunE(cmd *cobra.Command) {
	if cmd.RunE != nil {
		cmd.RunE = bkErrors.WrapRunE(cmd.RunE)
	}
	for _, c := range cmd.Commands() {
		wrapRunE(c)
	}
}
