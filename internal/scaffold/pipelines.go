// Package scaffold generates the files spk writes into HLD, manifest and application
// repositories.
package scaffold

import (
	"github.com/goccy/go-yaml"
)

// AzurePipeline is the subset of the Azure Pipelines YAML schema spk generates.
type AzurePipeline struct {
	Trigger   Trigger         `yaml:"trigger"`
	Variables []VariableGroup `yaml:"variables,omitempty"`
	Pool      Pool            `yaml:"pool"`
	Steps     []Step          `yaml:"steps"`
}

type Trigger struct {
	Branches BranchFilter  `yaml:"branches"`
	Paths    *BranchFilter `yaml:"paths,omitempty"`
}

type BranchFilter struct {
	Include []string `yaml:"include"`
}

type VariableGroup struct {
	Group string `yaml:"group"`
}

type Pool struct {
	VMImage string `yaml:"vmImage"`
}

// Step is a pipeline step. Exactly one of Checkout, Script, Bash or Task is set.
type Step struct {
	Checkout           string            `yaml:"checkout,omitempty"`
	PersistCredentials bool              `yaml:"persistCredentials,omitempty"`
	Clean              bool              `yaml:"clean,omitempty"`
	Script             string            `yaml:"script,omitempty"`
	Bash               string            `yaml:"bash,omitempty"`
	Task               string            `yaml:"task,omitempty"`
	DisplayName        string            `yaml:"displayName,omitempty"`
	Condition          string            `yaml:"condition,omitempty"`
	Inputs             map[string]string `yaml:"inputs,omitempty"`
	Env                map[string]string `yaml:"env,omitempty"`
}

const (
	defaultVMImage    = "ubuntu-latest"
	hldVariableGroup  = "spk-vg"
	buildScriptURL    = "https://raw.githubusercontent.com/Microsoft/bedrock/master/gitops/azure-devops/build.sh"
	isPullRequest     = "eq(variables['Build.Reason'], 'PullRequest')"
	isNotPullRequest  = "ne(variables['Build.Reason'], 'PullRequest')"
	downloadBuildStep = "curl $BEDROCK_BUILD_SCRIPT > build.sh\nchmod +x ./build.sh\n"
)

func downloadScript() Step {
	return Step{
		Bash:        downloadBuildStep,
		DisplayName: "Download bedrock bash scripts",
		Env:         map[string]string{"BEDROCK_BUILD_SCRIPT": buildScriptURL},
	}
}

// HLDPipeline is the pipeline that renders the HLD repository with fabrikate and commits the
// result to the manifest repository.
func HLDPipeline() AzurePipeline {
	return AzurePipeline{
		Trigger:   Trigger{Branches: BranchFilter{Include: []string{"master"}}},
		Variables: []VariableGroup{{Group: hldVariableGroup}},
		Pool:      Pool{VMImage: defaultVMImage},
		Steps: []Step{
			{Checkout: "self", PersistCredentials: true, Clean: true},
			downloadScript(),
			{
				Task:        "ShellScript@2",
				DisplayName: "Validate fabrikate definitions",
				Condition:   isPullRequest,
				Inputs:      map[string]string{"scriptPath": "build.sh"},
				Env:         map[string]string{"VERIFY_ONLY": "1"},
			},
			{
				Task:        "ShellScript@2",
				DisplayName: "Transform fabrikate definitions and publish to YAML manifests to repo",
				Condition:   isNotPullRequest,
				Inputs:      map[string]string{"scriptPath": "build.sh"},
				Env: map[string]string{
					"ACCESS_TOKEN_SECRET": "$(PAT)",
					"COMMIT_MESSAGE":      "$(Build.SourceVersionMessage)",
					"REPO":                "$(MANIFEST_REPO)",
					"BRANCH_NAME":         "$(Build.SourceBranchName)",
				},
			},
		},
	}
}

// ServicePipeline builds and pushes the container image of a service in a mono-repository.
func ServicePipeline(serviceName string) AzurePipeline {
	servicePath := "packages/" + serviceName
	return AzurePipeline{
		Trigger: Trigger{
			Branches: BranchFilter{Include: []string{"master"}},
			Paths:    &BranchFilter{Include: []string{servicePath}},
		},
		Variables: []VariableGroup{{Group: hldVariableGroup}},
		Pool:      Pool{VMImage: defaultVMImage},
		Steps: []Step{
			{Checkout: "self", PersistCredentials: true, Clean: true},
			{
				Script:      "az acr build -r $(ACR_NAME) --image " + serviceName + ":$(Build.SourceBranchName)-$(Build.BuildId) .",
				DisplayName: "Build and push " + serviceName + " image",
				Condition:   isNotPullRequest,
				Env: map[string]string{
					"SERVICE_PATH": servicePath,
				},
			},
		},
	}
}

// ManifestPipeline lints the rendered manifests on pull requests.
func ManifestPipeline() AzurePipeline {
	return AzurePipeline{
		Trigger: Trigger{Branches: BranchFilter{Include: []string{"master"}}},
		Pool:    Pool{VMImage: defaultVMImage},
		Steps: []Step{
			{Checkout: "self", Clean: true},
			{
				Script:      "find . -name '*.yaml' -not -path './.git/*' | xargs -n1 cat > /dev/null",
				DisplayName: "Check manifests are readable",
			},
		},
	}
}

func HLDPipelineYAML() ([]byte, error) {
	return yaml.Marshal(HLDPipeline())
}

func ServicePipelineYAML(serviceName string) ([]byte, error) {
	return yaml.Marshal(ServicePipeline(serviceName))
}

func ManifestPipelineYAML() ([]byte, error) {
	return yaml.Marshal(ManifestPipeline())
}
