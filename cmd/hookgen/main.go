package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// usageError marks command line mistakes; they exit with status 2.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// errReported signals a failure whose diagnostics were already written.
var errReported = errors.New("failure already reported")

// run executes hookgen and returns the process exit code.
// It exists separately from main to allow unit testing without os.Exit.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return 0
	}

	var ue *usageError
	switch {
	case errors.As(err, &ue), strings.HasPrefix(err.Error(), "unknown command"):
		_, _ = fmt.Fprintf(stderr, "hookgen: %v\nRun 'hookgen --help' for usage.\n", err)
		return 2
	case errors.Is(err, errReported):
		return 1
	default:
		_, _ = fmt.Fprintf(stderr, "hookgen: %v\n", err)
		return 1
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
