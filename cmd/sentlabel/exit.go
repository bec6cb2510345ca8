package main

import (
	"errors"

	"github.com/spf13/cobra"

	"sentlabel/internal/session"
)

// Exit codes.
const (
	exitOK          = 0
	exitFatal       = 1
	exitUsage       = 2
	exitInterrupted = 130
)

// errAborted ends a labeling command whose session was aborted.
var errAborted = errors.New("session aborted")

// usageError marks command-line mistakes.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// usageArgs wraps a cobra argument validator so its errors are usage errors.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ue usageError
	switch {
	case errors.Is(err, errAborted),
		errors.Is(err, session.ErrInterrupted),
		errors.Is(err, session.ErrInputClosed):
		return exitInterrupted
	case errors.As(err, &ue):
		return exitUsage
	}
	return exitFatal
}
