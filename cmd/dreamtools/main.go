package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes: 0 success, 1 operation failure, 2 usage or configuration error.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// usageErr marks errors caused by bad invocation rather than a failed
// operation.
type usageErr struct {
	err error
}

func (e *usageErr) Error() string { return e.err.Error() }
func (e *usageErr) Unwrap() error { return e.err }

func usageError(err error) error {
	return &usageErr{err: err}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		var usage *usageErr
		if errors.As(err, &usage) {
			os.Exit(exitUsage)
		}
		os.Exit(exitError)
	}
	os.Exit(exitOK)
}
