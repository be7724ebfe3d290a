package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sghaida/hooktrace/gen"
)

func newGenerateCmd(a *app) *cobra.Command {
	var src, out string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the exported wrappers (.gen.go) and C trampolines (.gen.c) for a hook file",
		Long: `generate validates every //hooktrace:hook function in the source file and
writes <base>.go and <base>.c next to it. Nothing is written when any hook is
invalid. Files whose content would not change are left untouched unless
--force is given.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := resolveSource(src)
			if err != nil {
				return &usageError{err}
			}
			if err := a.setup(cmd.Flags(), path); err != nil {
				return err
			}
			return a.generate(path, out)
		},
	}
	cmd.Flags().StringVar(&src, "src", "", "Hook source file (default: $GOFILE or the file with the hookgen go:generate line)")
	cmd.Flags().StringVar(&out, "out", "", "Output base path without extension (default: <src without .go> plus outSuffix)")
	cmd.Flags().Bool("force", false, "Rewrite outputs even when unchanged")
	return cmd
}

func (a *app) generate(src, out string) error {
	f, err := a.load(src)
	if err != nil {
		return err
	}

	output, err := gen.NewEmitter(a.cfg.EmitOptions()).Emit(f)
	if err != nil {
		return errors.Wrapf(err, "generate %s", src)
	}

	base := outputBase(src, out, a.cfg.OutSuffix)
	files := []struct {
		path string
		data []byte
	}{
		{base + ".go", output.GoSource},
		{base + ".c", output.CSource},
	}
	for _, file := range files {
		written, err := writeIfChanged(file.path, file.data, a.cfg.Force)
		if err != nil {
			return errors.Wrapf(err, "write %s", file.path)
		}
		if written {
			a.logger.Info("generated", zap.String("file", file.path), zap.Int("hooks", len(f.Hooks)))
		} else {
			a.logger.Debug("unchanged", zap.String("file", file.path))
		}
	}
	return nil
}
