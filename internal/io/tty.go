package io

import (
	"os"

	"github.com/mattn/go-isatty"
)

// IsTerminal returns true if stdout is a terminal
func IsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

// CanPrompt reports whether stdin and stdout are both terminals.
func CanPrompt() bool {
	in := os.Stdin.Fd()
	return IsTerminal() && (isatty.IsTerminal(in) || isatty.IsCygwinTerminal(in))
}
