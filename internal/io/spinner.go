package io

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// SpinWhile runs action while drawing a spinner labelled name on stderr. Without a terminal,
// or when quiet is set, the action just runs.
func SpinWhile(quiet bool, name string, action func() error) error {
	if quiet || !isatty.IsTerminal(os.Stderr.Fd()) {
		return action()
	}
	return spin(os.Stderr, name, 200*time.Millisecond, action)
}

func spin(w io.Writer, name string, interval time.Duration, action func() error) error {
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		i := 0
		chars := []string{".  ", ".. ", "..."}
		maxLen := 0

		for {
			select {
			case <-done:
				// overwrite with spaces to clear the line
				fmt.Fprint(w, "\r"+fmt.Sprintf("%*s", maxLen, "")+"\r")
				close(finished)
				return
			case <-ticker.C:
				line := fmt.Sprintf("%s %s", name, chars[i%len(chars)])
				maxLen = max(maxLen, len(line))
				fmt.Fprintf(w, "\r%s", line)
				i++
			}
		}
	}()

	err := action()
	close(done)
	<-finished

	return err
}
