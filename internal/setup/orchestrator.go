package setup

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/afero"
)

// Step is one provisioning stage. A step reads and updates the shared Context and returns an
// error to stop the run.
type Step interface {
	Name() string
	Run(ctx context.Context, rc *Context) error
}

// Orchestrator runs steps in order and writes the status log when it is done, whether or not
// a step failed.
type Orchestrator struct {
	Steps         []Step
	Logger        *slog.Logger
	FS            afero.Fs
	StatusLogPath string
	// Progress, when set, is called before each step with the number of steps done so far.
	Progress func(done, total int, step string)
}

// Run executes the steps in order. The first failing step aborts the run; its error is
// recorded on rc and returned. Completed steps are not rolled back.
func (o *Orchestrator) Run(ctx context.Context, rc *Context) error {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var runErr error
	for i, step := range o.Steps {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		logger.Info("Running setup step", "step", step.Name())
		if o.Progress != nil {
			o.Progress(i, len(o.Steps), step.Name())
		}
		if err := step.Run(ctx, rc); err != nil {
			logger.Error("Setup step failed", "step", step.Name(), "error", err)
			runErr = err
			break
		}
	}
	rc.Fail(runErr)
	if runErr == nil && o.Progress != nil {
		o.Progress(len(o.Steps), len(o.Steps), "")
	}

	if o.StatusLogPath != "" {
		fs := o.FS
		if fs == nil {
			fs = afero.NewOsFs()
		}
		if err := WriteStatusLog(fs, rc, o.StatusLogPath); err != nil {
			logger.Error("Could not write status log", "path", o.StatusLogPath, "error", err)
			runErr = errors.Join(runErr, err)
		} else {
			logger.Debug("Wrote status log", "path", o.StatusLogPath)
		}
	}

	logger.Info("Setup finished", "context", rc)
	return runErr
}
