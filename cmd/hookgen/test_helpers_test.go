package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

//
// -----------------------------------------------------------------------------
// Shared fixtures
// -----------------------------------------------------------------------------

// readlinkHookSource is a valid hook file with one pass-through hook.
const readlinkHookSource = `package main

/*
#include <unistd.h>
*/
import "C"

//go:generate go run github.com/sghaida/hooktrace/cmd/hookgen generate

//hooktrace:hook symbol = "readlink", library = "libc.so.6"
func readlinkHook(original func(pathname *C.char, buf *C.char, bufsiz C.size_t) C.ssize_t, pathname *C.char, buf *C.char, bufsiz C.size_t) C.ssize_t {
	return original(pathname, buf, bufsiz)
}

func main() {}
`

// invalidHookSource has a directive without symbol and a hook without
// parameters.
const invalidHookSource = `package main

import "C"

//hooktrace:hook library = "libc.so.6"
func a(orig func()) {}

//hooktrace:hook symbol = "close"
func b() {}

func main() {}
`

//
// -----------------------------------------------------------------------------
// Small helpers
// -----------------------------------------------------------------------------

// writeTempFile writes a file under dir/name and returns its full path.
func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// readFileString reads a file and returns its contents as string (fatal on error).
func readFileString(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(b)
}

// runHookgen runs the CLI and returns exit code, stdout and stderr.
func runHookgen(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

//
// -----------------------------------------------------------------------------
// writeFileAtomic() seam helpers
// -----------------------------------------------------------------------------

// fakeTempFile is a controllable file-like object for writeFileAtomic tests.
// It lets tests force errors on Write and Close without touching real files.
type fakeTempFile struct {
	fileName string
	writeErr error
	closeErr error
}

func (f *fakeTempFile) Name() string { return f.fileName }

func (f *fakeTempFile) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return len(p), nil
}

func (f *fakeTempFile) Close() error { return f.closeErr }

// restoreWriteSeams puts the real file seams back when t ends.
func restoreWriteSeams(t *testing.T) {
	t.Helper()

	origCreate, origRemove, origChmod, origRename := createTempFile, removeFile, chmodFile, renameFile
	t.Cleanup(func() {
		createTempFile = origCreate
		removeFile = origRemove
		chmodFile = origChmod
		renameFile = origRename
	})
}

// findLibc returns a shared C library present on this machine, or skips.
func findLibc(t *testing.T) string {
	t.Helper()

	for _, pattern := range []string{
		"/lib/x86_64-linux-gnu/libc.so.6",
		"/lib/aarch64-linux-gnu/libc.so.6",
		"/lib64/libc.so.6",
		"/usr/lib/libc.so.6",
		"/lib/libc.musl-*.so.1",
		"/lib/ld-musl-*.so.1",
	} {
		matches, _ := filepath.Glob(pattern)
		if len(matches) > 0 {
			return matches[0]
		}
	}
	t.Skip("no shared libc found")
	return ""
}
