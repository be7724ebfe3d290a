package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sghaida/hooktrace/gen"
	"github.com/sghaida/hooktrace/internal/config"
	hlog "github.com/sghaida/hooktrace/internal/log"
)

var rootExamples = `
  Generate (from a //go:generate line):
	//go:generate go run github.com/sghaida/hooktrace/cmd/hookgen generate

  Generate explicitly:
	hookgen generate --src hook.go --out hook_hooks.gen

  Validate only:
	hookgen check --src hook.go

  Check a built library:
	hookgen verify --src hook.go --lib ./libspy.so
`

// app carries the writers and per-invocation state shared by the commands.
type app struct {
	stdout io.Writer
	stderr io.Writer
	logger *zap.Logger
	cfg    *config.Config
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "hookgen",
		Short:         "Generate LD_PRELOAD interception wrappers from annotated Go hooks",
		Example:       rootExamples,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Help()
			return &usageError{errors.New("missing command")}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	cfg, _ := config.Default()
	if cfg == nil {
		cfg = &config.Config{}
	}
	pf := root.PersistentFlags()
	pf.Bool("debug", cfg.Debug, "Log debug details")
	pf.String("config", "", "Path to a hookgen.yaml (default: next to the source file)")
	pf.String("header", cfg.Header, "Tool name written in the generated file header")
	pf.String("trampolinePrefix", cfg.TrampolinePrefix, "Prefix of the generated C call trampolines")
	pf.String("runtimeImport", cfg.RuntimeImport, "Import path of the hook runtime package")
	pf.String("outSuffix", cfg.OutSuffix, "Suffix appended to the source base name for generated files")

	root.AddCommand(
		newGenerateCmd(a),
		newCheckCmd(a),
		newVerifyCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return root
}

// usageArgs turns argument validation failures into usage errors.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &usageError{err}
		}
		return nil
	}
}

// setup loads the configuration for a hook source file and builds the logger.
func (a *app) setup(flags *pflag.FlagSet, src string) error {
	file, _ := flags.GetString("config")
	dir := "."
	if src != "" {
		dir = filepath.Dir(src)
	}

	cfg, err := config.Load(config.Options{Flags: flags, File: file, Dir: dir})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = hlog.NewWriter(a.stderr, hlog.Options{Debug: cfg.Debug})
	a.logger.Debug("configuration loaded",
		zap.String("dir", dir),
		zap.String("configFile", file),
		zap.String("outSuffix", cfg.OutSuffix),
		zap.String("trampolinePrefix", cfg.TrampolinePrefix),
		zap.String("runtimeImport", cfg.RuntimeImport),
	)
	return nil
}

// load validates src and writes every diagnostic to stderr.
func (a *app) load(src string) (*gen.File, error) {
	f, err := gen.Load(src)
	if err == nil {
		a.logger.Debug("hooks validated", zap.String("src", src), zap.Int("hooks", len(f.Hooks)))
		return f, nil
	}

	if !isDiagnostic(err) {
		return nil, err
	}
	_, _ = fmt.Fprintln(a.stderr, err)
	a.logger.Error("validation failed", zap.String("src", src))
	return nil, errReported
}

func isDiagnostic(err error) bool {
	var se *gen.SpecError
	var he *gen.ShapeError
	return errors.As(err, &se) || errors.As(err, &he)
}
