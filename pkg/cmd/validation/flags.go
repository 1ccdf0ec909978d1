package validation

import "github.com/spf13/pflag"

// AddFlags registers the platform flags shared by the pipeline commands.
func (o *PlatformOptions) AddFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&o.OrgURL, "org-url", "o", "", "Organization URL of the CI/CD platform")
	flags.StringVarP(&o.AccessToken, "personal-access-token", "p", "", "Personal access token")
	flags.StringVarP(&o.Project, "devops-project", "d", "", "Project the pipeline is created in")
	flags.StringVar(&o.Platform, "platform", "", "CI/CD platform: azdo or buildkite")
}
