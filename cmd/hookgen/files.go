package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// tempFile abstracts an os.File for testability.
type tempFile interface {
	Name() string
	Write([]byte) (int, error)
	Close() error
}

// File operation hooks, overridden in tests.
var (
	createTempFile = func(dir, pattern string) (tempFile, error) { return os.CreateTemp(dir, pattern) }
	chmodFile      = os.Chmod
	renameFile     = os.Rename
	removeFile     = os.Remove
)

// writeFileAtomic writes a file atomically.
//
// It writes to a temporary file in the same directory and then renames it
// over the target path, ensuring readers never observe partial writes.
func writeFileAtomic(targetPath string, data []byte, perm os.FileMode) (err error) {
	targetDir := filepath.Dir(targetPath)

	tmpFile, err := createTempFile(targetDir, filepath.Base(targetPath)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if err != nil {
			_ = removeFile(tmpPath)
		}
	}()

	if _, err = tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err = tmpFile.Close(); err != nil {
		return err
	}
	if err = chmodFile(tmpPath, perm); err != nil {
		return err
	}
	return renameFile(tmpPath, targetPath)
}

// writeIfChanged writes data unless path already holds the same bytes.
// It reports whether the file was written.
func writeIfChanged(path string, data []byte, force bool) (bool, error) {
	if !force {
		if existing, err := os.ReadFile(path); err == nil && sha256Hex(existing) == sha256Hex(data) {
			return false, nil
		}
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// findOwnerGoGenerateFile finds the Go source file in packageDir that
// contains a go:generate directive invoking hookgen.
func findOwnerGoGenerateFile(packageDir string) (string, error) {
	dirEntries, err := os.ReadDir(packageDir)
	if err != nil {
		return "", err
	}

	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}

		fileName := entry.Name()
		if !strings.HasSuffix(fileName, ".go") ||
			strings.HasSuffix(fileName, "_test.go") ||
			strings.HasSuffix(fileName, ".gen.go") {
			continue
		}

		filePath := filepath.Join(packageDir, fileName)
		fileBytes, err := os.ReadFile(filePath)
		if err != nil {
			// Best-effort: unreadable file shouldn't break generation.
			continue
		}

		for _, line := range bytes.Split(fileBytes, []byte("\n")) {
			if bytes.HasPrefix(line, []byte("//go:generate")) && bytes.Contains(line, []byte("hookgen")) {
				return filePath, nil
			}
		}
	}

	return "", fmt.Errorf("could not find owner file with go:generate invoking hookgen in %s", packageDir)
}

// resolveSource picks the hook source: the flag, then $GOFILE as set by
// go generate, then the owner file in the working directory.
func resolveSource(flagValue string) (string, error) {
	if src := strings.TrimSpace(flagValue); src != "" {
		return src, nil
	}
	if src := os.Getenv("GOFILE"); src != "" {
		return src, nil
	}
	return findOwnerGoGenerateFile(".")
}

// outputBase returns the path generated files are named after, without the
// .go/.c extension.
func outputBase(src, out, suffix string) string {
	if out = strings.TrimSpace(out); out != "" {
		return strings.TrimSuffix(strings.TrimSuffix(out, ".go"), ".c")
	}
	return strings.TrimSuffix(src, ".go") + suffix
}
