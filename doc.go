// Package hooktrace generates LD_PRELOAD interception libraries from Go.
//
// A hook is a Go function annotated with the C symbol it replaces. The
// generator writes an exported wrapper with the symbol's exact C signature,
// and the runtime finds the original implementation the first time the
// wrapper runs:
//
//   - gen: parses and validates hooks, renders the wrappers
//   - hook: runtime cells holding the resolved originals
//   - cmd/hookgen: the go:generate command
//   - examples/readlinkspy: a readlink interception library
//
// Build an interception library with go generate followed by
// go build -buildmode=c-shared, then preload the resulting shared object.
package hooktrace
