package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//
// -----------------------------------------------------------------------------
// writeFileAtomic()
// -----------------------------------------------------------------------------

func TestWriteFileAtomic_Success(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "out.go")

	require.NoError(t, writeFileAtomic(target, []byte("package p\n"), 0o644))
	assert.Equal(t, "package p\n", readFileString(t, target))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

// NOT parallel: mutates global seams.
func TestWriteFileAtomic_Errors(t *testing.T) {
	boom := errors.New("boom")

	cases := []struct {
		name        string
		setup       func()
		wantRemoved bool
	}{
		{
			name: "create fails",
			setup: func() {
				createTempFile = func(string, string) (tempFile, error) { return nil, boom }
			},
		},
		{
			name: "write fails",
			setup: func() {
				createTempFile = func(string, string) (tempFile, error) {
					return &fakeTempFile{fileName: "tmp", writeErr: boom}, nil
				}
			},
			wantRemoved: true,
		},
		{
			name: "close fails",
			setup: func() {
				createTempFile = func(string, string) (tempFile, error) {
					return &fakeTempFile{fileName: "tmp", closeErr: boom}, nil
				}
			},
			wantRemoved: true,
		},
		{
			name: "chmod fails",
			setup: func() {
				createTempFile = func(string, string) (tempFile, error) { return &fakeTempFile{fileName: "tmp"}, nil }
				chmodFile = func(string, os.FileMode) error { return boom }
			},
			wantRemoved: true,
		},
		{
			name: "rename fails",
			setup: func() {
				createTempFile = func(string, string) (tempFile, error) { return &fakeTempFile{fileName: "tmp"}, nil }
				chmodFile = func(string, os.FileMode) error { return nil }
				renameFile = func(string, string) error { return boom }
			},
			wantRemoved: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			restoreWriteSeams(t)

			var removed []string
			removeFile = func(name string) error {
				removed = append(removed, name)
				return nil
			}
			tc.setup()

			err := writeFileAtomic(filepath.Join(t.TempDir(), "out.go"), []byte("x"), 0o644)
			require.ErrorIs(t, err, boom)
			if tc.wantRemoved {
				assert.Equal(t, []string{"tmp"}, removed)
			} else {
				assert.Empty(t, removed)
			}
		})
	}
}

//
// -----------------------------------------------------------------------------
// writeIfChanged()
// -----------------------------------------------------------------------------

func TestWriteIfChanged(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "out.c")

	written, err := writeIfChanged(target, []byte("a"), false)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = writeIfChanged(target, []byte("a"), false)
	require.NoError(t, err)
	assert.False(t, written)

	written, err = writeIfChanged(target, []byte("a"), true)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = writeIfChanged(target, []byte("b"), false)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, "b", readFileString(t, target))
}

//
// -----------------------------------------------------------------------------
// findOwnerGoGenerateFile()
// -----------------------------------------------------------------------------

func TestFindOwnerGoGenerateFile(t *testing.T) {
	t.Parallel()

	t.Run("finds the owner", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.go"), 0o755))
		writeTempFile(t, dir, "README.md", "//go:generate hookgen\n")
		writeTempFile(t, dir, "a_test.go", "//go:generate hookgen\n")
		writeTempFile(t, dir, "a_hooks.gen.go", "//go:generate hookgen\n")
		writeTempFile(t, dir, "other.go", "//go:generate stringer -type T\n")
		owner := writeTempFile(t, dir, "spy.go", "package main\n\n//go:generate go run ./cmd/hookgen generate\n")

		got, err := findOwnerGoGenerateFile(dir)
		require.NoError(t, err)
		assert.Equal(t, owner, got)
	})

	t.Run("no owner", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeTempFile(t, dir, "a.go", "package main\n// go:generate hookgen\n")

		_, err := findOwnerGoGenerateFile(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "could not find owner file")
	})

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()

		_, err := findOwnerGoGenerateFile(filepath.Join(t.TempDir(), "nope"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

//
// -----------------------------------------------------------------------------
// outputBase()
// -----------------------------------------------------------------------------

func TestOutputBase(t *testing.T) {
	t.Parallel()

	cases := []struct {
		src, out, suffix string
		want             string
	}{
		{"hook.go", "", "_hooks.gen", "hook_hooks.gen"},
		{"dir/spy.go", "", "_x", "dir/spy_x"},
		{"hook.go", "gen/out", "_hooks.gen", "gen/out"},
		{"hook.go", "out.go", "_hooks.gen", "out"},
		{"hook.go", "out.c", "_hooks.gen", "out"},
		{"hook.go", "  ", "_s", "hook_s"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, outputBase(tc.src, tc.out, tc.suffix), "%+v", tc)
	}
}
