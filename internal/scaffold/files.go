package scaffold

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
)

const (
	PipelineFile  = "azure-pipelines.yaml"
	ComponentFile = "component.yaml"
	ReadmeFile    = "README.md"
	BedrockFile   = "bedrock.yaml"

	chartDir = "chart"
)

// component is the root fabrikate component of an HLD repository.
type component struct {
	Name          string             `yaml:"name"`
	Subcomponents []componentSubpath `yaml:"subcomponents"`
}

type componentSubpath struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
	Method string `yaml:"method"`
	Path   string `yaml:"path,omitempty"`
}

// CreateDirectory creates dir and its parents. An existing dir is removed first when
// removeIfExist is set.
func CreateDirectory(fs afero.Fs, dir string, removeIfExist bool) error {
	if removeIfExist {
		if err := fs.RemoveAll(dir); err != nil {
			return fmt.Errorf("removing %s: %w", dir, err)
		}
	}
	return fs.MkdirAll(dir, 0o755)
}

// InitHLD writes the HLD pipeline and root component into dir. Files that already exist are
// left alone; written reports whether anything was created.
func InitHLD(fs afero.Fs, dir string) (written bool, err error) {
	pipelineYAML, err := HLDPipelineYAML()
	if err != nil {
		return false, err
	}
	componentYAML, err := yaml.Marshal(component{
		Name: "default-component",
		Subcomponents: []componentSubpath{{
			Name:   "traefik2",
			Source: "https://github.com/microsoft/fabrikate-definitions.git",
			Method: "git",
			Path:   "definitions/traefik2",
		}},
	})
	if err != nil {
		return false, err
	}

	return writeMissing(fs, dir, map[string][]byte{
		PipelineFile:  pipelineYAML,
		ComponentFile: componentYAML,
	})
}

// InitManifest writes the manifest repository's README and lint pipeline into dir unless
// they exist.
func InitManifest(fs afero.Fs, dir string) (bool, error) {
	pipelineYAML, err := ManifestPipelineYAML()
	if err != nil {
		return false, err
	}

	return writeMissing(fs, dir, map[string][]byte{
		ReadmeFile:   []byte("# Manifests\n\nRendered Kubernetes manifests, written by the HLD to Manifest pipeline.\n"),
		PipelineFile: pipelineYAML,
	})
}

// ScaffoldHelmChart writes a helm chart for appName under dir/<appName>/chart.
func ScaffoldHelmChart(fs afero.Fs, dir, appName, acrName string) error {
	root := filepath.Join(dir, appName, chartDir)
	if err := CreateDirectory(fs, filepath.Join(root, "templates"), false); err != nil {
		return err
	}

	files := map[string]string{
		"Chart.yaml":                ChartTemplate(appName),
		"values.yaml":               ValuesTemplate(appName, acrName),
		"templates/all-in-one.yaml": MainTemplate,
	}
	for name, content := range files {
		if err := afero.WriteFile(fs, filepath.Join(root, filepath.FromSlash(name)), []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

// WriteServicePipeline writes packages/<service>/azure-pipelines.yaml under projectPath
// unless it exists.
func WriteServicePipeline(fs afero.Fs, projectPath, serviceName string) (bool, error) {
	content, err := ServicePipelineYAML(serviceName)
	if err != nil {
		return false, err
	}
	return writeMissing(fs, filepath.Join(projectPath, "packages", serviceName), map[string][]byte{
		PipelineFile: content,
	})
}

func writeMissing(fs afero.Fs, dir string, files map[string][]byte) (bool, error) {
	if err := CreateDirectory(fs, dir, false); err != nil {
		return false, err
	}

	written := false
	for name, content := range files {
		path := filepath.Join(dir, name)

		exists, err := afero.Exists(fs, path)
		if err != nil {
			return written, err
		}
		if exists {
			continue
		}

		if err := afero.WriteFile(fs, path, content, 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		written = true
	}
	return written, nil
}

// Bedrock is the bedrock.yaml of a mono-repository.
type Bedrock struct {
	Services map[string]BedrockService `yaml:"services"`
}

type BedrockService struct {
	Helm map[string]any `yaml:"helm,omitempty"`
}

// ReadBedrock reads bedrock.yaml from projectPath. A missing file yields an empty Bedrock
// and os.ErrNotExist.
func ReadBedrock(fs afero.Fs, projectPath string) (Bedrock, error) {
	content, err := afero.ReadFile(fs, filepath.Join(projectPath, BedrockFile))
	if err != nil {
		return Bedrock{}, err
	}

	var b Bedrock
	if err := yaml.Unmarshal(content, &b); err != nil {
		return Bedrock{}, fmt.Errorf("parsing %s: %w", BedrockFile, err)
	}
	return b, nil
}

// HasService reports whether serviceName is listed in the bedrock.yaml under projectPath.
// Services are keyed by their path, so both "frontend" and "./packages/frontend" match.
func HasService(fs afero.Fs, projectPath, serviceName string) (bool, error) {
	b, err := ReadBedrock(fs, projectPath)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	for key := range b.Services {
		if key == serviceName || filepath.Base(filepath.Clean(key)) == serviceName {
			return true, nil
		}
	}
	return false, nil
}
