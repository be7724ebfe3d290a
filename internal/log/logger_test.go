package log

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWriter_InfoLevelByDefault(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWriter(&buf, Options{})

	logger.Debug("hidden debug entry")
	logger.Info("visible info entry", zap.String("symbol", "readlink"))
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden debug entry")
	assert.Contains(t, out, "visible info entry")
	assert.Contains(t, out, "readlink")
	assert.Contains(t, out, Name)
	assert.Contains(t, out, "INFO")
}

func TestNewWriter_DebugEnablesDebugLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWriter(&buf, Options{Debug: true})
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger.Debug("debug entry")
	require.NoError(t, logger.Sync())
	assert.Contains(t, buf.String(), "debug entry")
}

func TestNewWriter_ColorAddsEscapes(t *testing.T) {
	t.Parallel()

	var plain, colored bytes.Buffer
	NewWriter(&plain, Options{}).Warn("w")
	NewWriter(&colored, Options{Color: true}).Warn("w")

	assert.NotContains(t, plain.String(), "\x1b[")
	assert.Contains(t, colored.String(), "\x1b[")
}

func TestNew_WritesToOutputPath(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "hookgen.log")
	logger, err := New(Options{OutputPaths: []string{p}})
	require.NoError(t, err)

	logger.Info("to file")
	require.NoError(t, logger.Sync())

	logger2, err := New(Options{Debug: true})
	require.NoError(t, err)
	assert.True(t, logger2.Core().Enabled(zap.DebugLevel))
}

func TestNew_BadOutputPath(t *testing.T) {
	t.Parallel()

	_, err := New(Options{OutputPaths: []string{filepath.Join(t.TempDir(), "missing", "dir", "x.log")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build config for logger")
}
