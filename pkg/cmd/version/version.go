package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

func NewCmdVersion(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of spk",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), Format(version))
		},
	}
}

// Format renders the version line printed by `spk version` and `spk --version`.
func Format(version string) string {
	version = strings.TrimPrefix(version, "v")
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("spk version %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
}
