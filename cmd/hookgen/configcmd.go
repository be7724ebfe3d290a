package main

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sghaida/hooktrace/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	var src string
	var write bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration, or write it to hookgen.yaml",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd.Flags(), src); err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := a.cfg.Write(&buf); err != nil {
				return err
			}
			if !write {
				_, err := a.stdout.Write(buf.Bytes())
				return err
			}

			dir := "."
			if src != "" {
				dir = filepath.Dir(src)
			}
			path := filepath.Join(dir, config.FileName+".yaml")
			if _, err := os.Stat(path); err == nil && !a.cfg.Force {
				return errors.Errorf("%s already exists, use --force to overwrite", path)
			}
			if err := writeFileAtomic(path, buf.Bytes(), 0o644); err != nil {
				return errors.Wrapf(err, "write %s", path)
			}
			a.logger.Info("config file written", zap.String("file", path))
			return nil
		},
	}
	cmd.Flags().StringVar(&src, "src", "", "Hook source file whose directory holds hookgen.yaml (default: current directory)")
	cmd.Flags().BoolVar(&write, "write", false, "Write hookgen.yaml instead of printing")
	cmd.Flags().Bool("force", false, "Overwrite an existing hookgen.yaml")
	return cmd
}
