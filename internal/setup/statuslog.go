package setup

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// DefaultStatusLogFile is the status log's file name inside the workspace.
const DefaultStatusLogFile = "setup.log"

// Render formats the status log for c: redacted key=value lines, one line per completion
// flag, the error if any and the final status. Lines are separated by "\n" with no trailing
// newline.
func Render(c *Context) string {
	var lines []string
	for _, f := range c.statusFields() {
		lines = append(lines, f.key+"="+f.value)
	}

	lines = append(lines,
		"workspace: "+c.WorkspacePath,
		"Project Created: "+yesNo(c.ProjectCreated()),
		"High Level Definition Repo Scaffolded: "+yesNo(c.HLDScaffolded()),
		"Manifest Repo Scaffolded: "+yesNo(c.ManifestScaffolded()),
		"HLD to Manifest Pipeline Created: "+yesNo(c.HLDToManifestPipelineCreated()),
		"Service Principal Created: "+yesNo(c.ServicePrincipalCreated()),
	)
	if c.Failed() {
		lines = append(lines, "Error: "+c.ErrorMessage())
	}
	lines = append(lines, "Status: "+c.Status())

	return strings.Join(lines, "\n")
}

// WriteStatusLog writes the status log for c to path, replacing any existing file. A nil
// context writes nothing.
func WriteStatusLog(fs afero.Fs, c *Context, path string) error {
	if c == nil {
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	// the log carries identifiers, keep it private to the user
	if err := afero.WriteFile(fs, path, []byte(Render(c)), 0o600); err != nil {
		return fmt.Errorf("writing status log: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
