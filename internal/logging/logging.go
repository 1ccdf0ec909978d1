// Package logging builds the slog logger shared by every command.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	bkErrors "github.com/bnookala/spk/internal/errors"
)

const (
	FormatText = "text"
	FormatJSON = "json"

	DefaultLevel = "info"
)

// New returns a logger writing to w at level in format (text or json). Empty values fall back
// to info and text.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, bkErrors.NewValidationError(nil,
			fmt.Sprintf("unknown log format %q", format),
			"Use --log-format text or --log-format json")
	}
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		s = DefaultLevel
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, bkErrors.NewValidationError(err,
			fmt.Sprintf("unknown log level %q", s),
			"Use one of debug, info, warn or error")
	}
	return lvl, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
