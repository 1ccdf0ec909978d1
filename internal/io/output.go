package io

import (
	"fmt"
	"io"

	"github.com/bnookala/spk/internal/pipeline"
	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Faint(true)
)

// Success prints a check-marked line.
func Success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, successStyle.Render("✓")+" "+fmt.Sprintf(format, args...))
}

// Warning prints a highlighted warning line.
func Warning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, warningStyle.Render("!")+" "+fmt.Sprintf(format, args...))
}

// Field prints a dimmed label followed by its value.
func Field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(label+":"), value)
}

// PipelineResult prints the definition and first build left by an install.
func PipelineResult(w io.Writer, name string, result pipeline.Result) {
	Success(w, "Created pipeline %s", name)
	Field(w, "Definition", result.DefinitionID)
	if result.DefinitionURL != "" {
		Field(w, "URL", result.DefinitionURL)
	}
	Field(w, "Build", result.BuildID)
	if result.BuildURL != "" {
		Field(w, "Build URL", result.BuildURL)
	}
}
