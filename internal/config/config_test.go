package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sghaida/hooktrace/gen"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func flagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Bool("debug", false, "")
	fs.Bool("force", false, "")
	fs.String("header", "hookgen", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

//
// -----------------------------------------------------------------------------
// Defaults
// -----------------------------------------------------------------------------

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Header:           "hookgen",
		TrampolinePrefix: "hooktrace_call_",
		RuntimeImport:    "github.com/sghaida/hooktrace/hook",
		OutSuffix:        "_hooks.gen",
	}, cfg)
	require.NoError(t, cfg.Validate())
}

func TestDefault_MatchesEmitterDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, gen.DefaultEmitOptions(), cfg.EmitOptions())
}

func TestGetDefaultConfig_IsYAML(t *testing.T) {
	t.Parallel()

	var m map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(GetDefaultConfig()), &m))
	assert.Len(t, m, 6)
}

//
// -----------------------------------------------------------------------------
// Load
// -----------------------------------------------------------------------------

func TestLoad_NoSources(t *testing.T) {
	t.Parallel()

	cfg, err := Load(Options{Dir: t.TempDir()})
	require.NoError(t, err)

	def, err := Default()
	require.NoError(t, err)
	assert.Equal(t, def, cfg)
}

func TestLoad_FileInDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "hookgen.yaml", "outSuffix: _interpose\ntrampolinePrefix: my_call_\n")

	cfg, err := Load(Options{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, "_interpose", cfg.OutSuffix)
	assert.Equal(t, "my_call_", cfg.TrampolinePrefix)
	assert.Equal(t, "hookgen", cfg.Header)
}

func TestLoad_ExplicitFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), "custom.yaml", "runtimeImport: example.com/rt\ndebug: true\n")

	cfg, err := Load(Options{File: path})
	require.NoError(t, err)
	assert.Equal(t, "example.com/rt", cfg.RuntimeImport)
	assert.True(t, cfg.Debug)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Parallel()

	_, err := Load(Options{File: filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "hookgen.yaml", "outSuffix: [unclosed\n")

	_, err := Load(Options{Dir: dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read hookgen.yaml")
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "hookgen.yaml", "header: fromfile\nforce: false\n")

	cfg, err := Load(Options{Dir: dir, Flags: flagSet(t, "--force", "--header", "fromflag")})
	require.NoError(t, err)
	assert.True(t, cfg.Force)
	assert.Equal(t, "fromflag", cfg.Header)
}

func TestLoad_UnchangedFlagsKeepFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "hookgen.yaml", "header: fromfile\n")

	cfg, err := Load(Options{Dir: dir, Flags: flagSet(t)})
	require.NoError(t, err)
	assert.Equal(t, "fromfile", cfg.Header)
}

// Environment tests mutate the process environment and cannot run in
// parallel.
func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "hookgen.yaml", "outSuffix: _fromfile\n")
	t.Setenv("HOOKGEN_OUTSUFFIX", "_fromenv")
	t.Setenv("HOOKGEN_DEBUG", "true")

	cfg, err := Load(Options{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, "_fromenv", cfg.OutSuffix)
	assert.True(t, cfg.Debug)
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	t.Setenv("HOOKGEN_HEADER", "fromenv")

	cfg, err := Load(Options{Flags: flagSet(t, "--header", "fromflag")})
	require.NoError(t, err)
	assert.Equal(t, "fromflag", cfg.Header)
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty header":     "header: \"\"\n",
		"bad prefix":       "trampolinePrefix: \"9-x\"\n",
		"empty runtime":    "runtimeImport: \"\"\n",
		"empty suffix":     "outSuffix: \"\"\n",
		"suffix with path": "outSuffix: ../x\n",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeConfig(t, dir, "hookgen.yaml", content)

			_, err := Load(Options{Dir: dir})
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

//
// -----------------------------------------------------------------------------
// Write
// -----------------------------------------------------------------------------

func TestWrite_RoundTrips(t *testing.T) {
	t.Parallel()

	cfg := &Config{Debug: true, Header: "x", TrampolinePrefix: "p_", RuntimeImport: "example.com/rt", OutSuffix: "_s"}

	var buf bytes.Buffer
	require.NoError(t, cfg.Write(&buf))
	assert.Contains(t, buf.String(), "trampolinePrefix: p_\n")

	dir := t.TempDir()
	writeConfig(t, dir, "hookgen.yaml", buf.String())
	got, err := Load(Options{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, os.ErrClosed }

func TestWrite_WriterError(t *testing.T) {
	t.Parallel()

	cfg, err := Default()
	require.NoError(t, err)
	require.ErrorIs(t, cfg.Write(failingWriter{}), os.ErrClosed)
}
