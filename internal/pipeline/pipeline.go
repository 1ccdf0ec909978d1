// Package pipeline builds CI/CD pipeline definitions and installs them on a remote platform.
package pipeline

import (
	"fmt"
	"path"
	"slices"
)

const (
	// HLDToManifestPipelineName is the name of the pipeline that renders the HLD repository
	// into the manifest repository.
	HLDToManifestPipelineName = "HLD to Manifest"

	// PipelineYAMLFile is the file name both the HLD and the service pipelines are read from.
	PipelineYAMLFile = "azure-pipelines.yaml"

	DefaultBranch              = "master"
	DefaultMaxConcurrentBuilds = 1

	servicePackagesDir = "packages"
)

// Definition describes a build pipeline tied to a source repository and branch. It is a
// value: construct it with NewDefinition and do not mutate it afterwards.
type Definition struct {
	Name                string
	RepositoryName      string
	RepositoryURL       string
	YAMLPath            string
	Branch              string
	BranchFilters       []string
	MaxConcurrentBuilds int
}

// NewDefinition maps its parameters onto a Definition. branchFilters must be non-empty and
// maxConcurrentBuilds at least 1; violations are left for the platform to reject.
func NewDefinition(name, repoName, repoURL, yamlPath, branch string, branchFilters []string, maxConcurrentBuilds int) Definition {
	return Definition{
		Name:                name,
		RepositoryName:      repoName,
		RepositoryURL:       repoURL,
		YAMLPath:            yamlPath,
		Branch:              branch,
		BranchFilters:       slices.Clone(branchFilters),
		MaxConcurrentBuilds: maxConcurrentBuilds,
	}
}

// HLDToManifestDefinition returns the definition of the pipeline that lives at the root of
// the HLD repository.
func HLDToManifestDefinition(repoName, repoURL string) Definition {
	return NewDefinition(
		HLDToManifestPipelineName,
		repoName,
		repoURL,
		PipelineYAMLFile,
		DefaultBranch,
		[]string{DefaultBranch},
		DefaultMaxConcurrentBuilds,
	)
}

// ServiceDefinition returns the definition of a service's build pipeline, read from the
// service's directory in a mono-repository.
func ServiceDefinition(pipelineName, serviceName, repoName, repoURL string) Definition {
	return NewDefinition(
		pipelineName,
		repoName,
		repoURL,
		ServiceYAMLPath(serviceName),
		DefaultBranch,
		[]string{DefaultBranch},
		DefaultMaxConcurrentBuilds,
	)
}

// ServiceYAMLPath is the repository-relative path of a service's pipeline file.
func ServiceYAMLPath(serviceName string) string {
	return path.Join(servicePackagesDir, serviceName, PipelineYAMLFile)
}

func (d Definition) String() string {
	return fmt.Sprintf("%s (%s@%s:%s)", d.Name, d.RepositoryName, d.Branch, d.YAMLPath)
}
