package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"

	bkErrors "github.com/bnookala/spk/internal/errors"
	"github.com/bnookala/spk/pkg/cmd/factory"
	"github.com/bnookala/spk/pkg/cmd/root"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	os.Exit(mainRun())
}

func mainRun() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	f, err := factory.New(version)
	if err != nil {
		fmt.Fprintln(os.Stderr, bkErrors.MessageForError(err))
		return bkErrors.GetExitCodeForError(err)
	}

	rootCmd, err := root.NewCmdRoot(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create root command: %s\n", err)
		return 1
	}
	rootCmd.SetContext(ctx)

	verbose := slices.Contains(os.Args[1:], "--verbose") || slices.Contains(os.Args[1:], "-V")
	return bkErrors.ExecuteWithErrorHandling(rootCmd, verbose)
}
