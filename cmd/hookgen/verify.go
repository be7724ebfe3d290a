package main

import (
	"debug/elf"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newVerifyCmd(a *app) *cobra.Command {
	var src, lib string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that a built shared library exports every hooked symbol",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(lib) == "" {
				return &usageError{errors.New("--lib is required")}
			}
			path, err := resolveSource(src)
			if err != nil {
				return &usageError{err}
			}
			if err := a.setup(cmd.Flags(), path); err != nil {
				return err
			}
			return a.verify(path, lib)
		},
	}
	cmd.Flags().StringVar(&src, "src", "", "Hook source file (default: $GOFILE or the file with the hookgen go:generate line)")
	cmd.Flags().StringVar(&lib, "lib", "", "Shared library built with -buildmode=c-shared")
	return cmd
}

func (a *app) verify(src, lib string) error {
	f, err := a.load(src)
	if err != nil {
		return err
	}

	exported, err := exportedFuncs(lib)
	if err != nil {
		return err
	}

	var missing []string
	for _, h := range f.Hooks {
		if exported[h.Spec.Symbol] {
			a.logger.Debug("exported", zap.String("symbol", h.Spec.Symbol), zap.String("lib", lib))
			continue
		}
		missing = append(missing, h.Spec.Symbol)
	}
	if len(missing) > 0 {
		for _, sym := range missing {
			_, _ = fmt.Fprintf(a.stderr, "%s: %s is not exported as a defined function\n", lib, sym)
		}
		a.logger.Error("verification failed", zap.String("lib", lib), zap.Strings("missing", missing))
		return errReported
	}

	a.logger.Info("verified", zap.String("lib", lib), zap.Int("symbols", len(f.Hooks)))
	return nil
}

// exportedFuncs returns the defined global or weak FUNC symbols of the
// dynamic symbol table of the ELF object at path.
func exportedFuncs(path string) (map[string]bool, error) {
	file, err := elf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer file.Close()

	syms, err := file.DynamicSymbols()
	if err != nil {
		return nil, errors.Wrapf(err, "read dynamic symbols of %s", path)
	}

	out := make(map[string]bool, len(syms))
	for _, s := range syms {
		if elf.ST_TYPE(s.Info) != elf.STT_FUNC || s.Section == elf.SHN_UNDEF {
			continue
		}
		switch elf.ST_BIND(s.Info) {
		case elf.STB_GLOBAL, elf.STB_WEAK:
			out[s.Name] = true
		}
	}
	return out, nil
}
