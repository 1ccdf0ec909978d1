package io

import (
	"fmt"
	"strings"
)

func ProgressBar(completed, total, width int) string {
	if width <= 0 {
		return "[]"
	}
	if total <= 0 {
		return "[" + strings.Repeat("░", width) + "]"
	}

	completed = max(completed, 0)
	filled := min(completed*width/total, width)

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

// StepLine renders the progress of a sequence of named steps, e.g.
// "Setup [██░░] 2/4 manifest repository".
func StepLine(label string, completed, total int, step string, barWidth int) string {
	if total == 0 {
		return fmt.Sprintf("%s [no steps]", label)
	}

	line := fmt.Sprintf("%s %s %d/%d", label, ProgressBar(completed, total, barWidth), completed, total)
	if step != "" {
		line += " " + step
	}
	return line
}
