package factory

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bnookala/spk/internal/config"
	bkErrors "github.com/bnookala/spk/internal/errors"
	"github.com/bnookala/spk/internal/gitops"
	"github.com/bnookala/spk/internal/logging"
	"github.com/bnookala/spk/internal/pipeline"
	"github.com/bnookala/spk/internal/platform/azdo"
	"github.com/bnookala/spk/internal/platform/buildkite"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Factory carries the per-invocation dependencies of every command.
type Factory struct {
	Config        *config.Config
	Logger        *slog.Logger
	FS      afero.Fs
	Out     io.Writer
	ErrOut  io.Writer
	Version string

	Verbose bool
	Quiet   bool
	NoInput bool

	// Connector resolves the pipeline connector of a platform. Tests replace it.
	Connector func(platform string) (pipeline.Connector, error)
	// OriginURL returns the origin remote of the git repository containing dir, or "". Nil
	// disables remote detection.
	OriginURL func(dir string) string
}

func New(version string) (*Factory, error) {
	fs := afero.NewOsFs()

	conf, err := config.New(fs, "")
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(os.Stderr, conf.LogLevel(), conf.LogFormat())
	if err != nil {
		return nil, err
	}

	f := &Factory{
		Config:  conf,
		Logger:  logger,
		FS:      fs,
		Out:     os.Stdout,
		ErrOut:  os.Stderr,
		Version: version,
	}
	f.Connector = f.platformConnector
	f.OriginURL = f.originURL
	return f, nil
}

// SetGlobalFlags applies the root command's persistent flags to the factory. Flags left at
// their defaults keep the configured values.
func (f *Factory) SetGlobalFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()

	if flags.Changed("verbose") {
		f.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Changed("quiet") {
		f.Quiet, _ = flags.GetBool("quiet")
	}
	if flags.Changed("no-input") {
		f.NoInput, _ = flags.GetBool("no-input")
	}

	level := f.Config.LogLevel()
	if flags.Changed("log-level") {
		level, _ = flags.GetString("log-level")
	} else if f.Verbose {
		level = "debug"
	}

	format := f.Config.LogFormat()
	if flags.Changed("log-format") {
		format, _ = flags.GetString("log-format")
	}

	logger, err := logging.New(f.ErrOut, level, format)
	if err != nil {
		return err
	}
	f.Logger = logger
	return nil
}

func (f *Factory) originURL(dir string) string {
	urls, err := gitops.OriginURLs(dir)
	if err != nil || len(urls) == 0 {
		// not a repository, or no origin
		f.Logger.Debug("No origin remote found", "path", dir, "error", err)
		return ""
	}
	return urls[0]
}

func (f *Factory) platformConnector(platform string) (pipeline.Connector, error) {
	switch platform {
	case "", config.PlatformAzureDevOps:
		return azdo.Connector{}, nil
	case config.PlatformBuildkite:
		return buildkite.Connector{BaseURL: f.Config.BuildkiteAPIURL()}, nil
	default:
		return nil, bkErrors.NewValidationError(nil,
			fmt.Sprintf("unknown platform %q", platform),
			fmt.Sprintf("Use --platform %s or --platform %s", config.PlatformAzureDevOps, config.PlatformBuildkite))
	}
}
