package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	var src string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate hooks and print the C prototype each one exports",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := resolveSource(src)
			if err != nil {
				return &usageError{err}
			}
			if err := a.setup(cmd.Flags(), path); err != nil {
				return err
			}
			return a.check(path)
		},
	}
	cmd.Flags().StringVar(&src, "src", "", "Hook source file (default: $GOFILE or the file with the hookgen go:generate line)")
	return cmd
}

func (a *app) check(src string) error {
	f, err := a.load(src)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	for _, h := range f.Hooks {
		library := h.Spec.Library
		if library == "" {
			library = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", h.Spec.Symbol, h.Def.Name, library, h.Sig.CPrototype(h.Spec.Symbol))
	}
	return tw.Flush()
}
