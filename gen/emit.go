package gen

import (
	"bytes"
	"fmt"
	"go/token"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/pkg/errors"
	"golang.org/x/tools/imports"
)

// EmitOptions control the generated output.
type EmitOptions struct {
	// Tool is named in the "Code generated by" header.
	Tool string
	// TrampolinePrefix prefixes the C call trampolines.
	TrampolinePrefix string
	// RuntimeImport is the import path of the hook runtime package.
	RuntimeImport string
}

// DefaultEmitOptions returns the options hookgen uses unless configured
// otherwise.
func DefaultEmitOptions() EmitOptions {
	return EmitOptions{
		Tool:             "hookgen",
		TrampolinePrefix: "hooktrace_call_",
		RuntimeImport:    "github.com/sghaida/hooktrace/hook",
	}
}

// Output is the generated source pair.
type Output struct {
	// GoSource holds the exported wrappers and resolution cells.
	GoSource []byte
	// CSource holds the call trampolines.
	CSource []byte
}

// Emitter renders validated hook files.
type Emitter struct {
	opts EmitOptions
}

// NewEmitter returns an Emitter. Empty option fields take their defaults.
func NewEmitter(opts EmitOptions) *Emitter {
	def := DefaultEmitOptions()
	if opts.Tool == "" {
		opts.Tool = def.Tool
	}
	if opts.TrampolinePrefix == "" {
		opts.TrampolinePrefix = def.TrampolinePrefix
	}
	if opts.RuntimeImport == "" {
		opts.RuntimeImport = def.RuntimeImport
	}
	return &Emitter{opts: opts}
}

// Options returns the effective options.
func (e *Emitter) Options() EmitOptions { return e.opts }

type fileView struct {
	Tool          string
	Source        string
	SourceHash    string
	Package       string
	RuntimeImport string
	Forward       []string
	// Includes are copied from the hook file when a type needs them.
	Includes []string
	// Hidden symbols are renamed while Includes are processed, so their
	// header prototypes do not conflict with the exported definitions.
	Hidden []string
	Hooks  []hookView
}

type hookView struct {
	Symbol     string
	Library    string
	HookName   string
	StateIdent string
	Trampoline string

	// Go side.
	FuncType      string
	ClosureParams string
	ClosureCall   string
	GoParams      string
	GoResult      string
	HookCall      string
	Void          bool

	// C side.
	CDecl       string
	CResult     string
	CParamTypes string
	CParamDecls string
	CArgs       string
	Prototype   string
}

// Emit renders f. Nothing is returned unless both files render.
func (e *Emitter) Emit(f *File) (*Output, error) {
	if !cIdent.MatchString(e.opts.TrampolinePrefix) {
		return nil, errors.Errorf("trampoline prefix %q is not a C identifier", e.opts.TrampolinePrefix)
	}
	if len(f.Hooks) == 0 {
		return nil, &SpecError{Kind: ErrNoHooks, Pos: token.Position{Filename: f.Path}}
	}

	view := fileView{
		Tool:          e.opts.Tool,
		Source:        filepath.Base(f.Path),
		SourceHash:    f.Hash,
		Package:       f.Package,
		RuntimeImport: e.opts.RuntimeImport,
	}
	forward := map[string]bool{}
	headers := false
	for _, h := range f.Hooks {
		view.Hooks = append(view.Hooks, e.hookView(h))
		headers = headers || h.Sig.Headers
		for _, fw := range h.Sig.Forward {
			if !forward[fw] {
				forward[fw] = true
				view.Forward = append(view.Forward, fw)
			}
		}
	}

	if headers && len(f.Includes) > 0 {
		view.Includes = f.Includes
		for _, h := range f.Hooks {
			view.Hidden = append(view.Hidden, h.Spec.Symbol)
		}
	}

	var goSrc, cSrc bytes.Buffer
	if err := goTpl.Execute(&goSrc, view); err != nil {
		return nil, errors.Wrap(err, "render go source")
	}
	if err := cTpl.Execute(&cSrc, view); err != nil {
		return nil, errors.Wrap(err, "render c source")
	}

	name := strings.TrimSuffix(view.Source, ".go") + ".gen.go"
	formatted, err := imports.Process(name, goSrc.Bytes(), &imports.Options{
		FormatOnly: true,
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "format generated source for %s", view.Source)
	}
	return &Output{GoSource: formatted, CSource: cSrc.Bytes()}, nil
}

func (e *Emitter) hookView(h *Hook) hookView {
	sig := h.Sig
	v := hookView{
		Symbol:      h.Spec.Symbol,
		Library:     h.Spec.Library,
		HookName:    h.Def.Name,
		StateIdent:  h.StateIdent,
		Trampoline:  e.opts.TrampolinePrefix + h.Spec.Symbol,
		FuncType:    h.Def.Params[0].TypeString(),
		GoParams:    sig.GoParams(),
		GoResult:    sig.GoResult(),
		Void:        sig.Result == nil,
		CDecl:       cDecl(sig.CResultType(), e.opts.TrampolinePrefix+h.Spec.Symbol),
		CResult:     sig.CResultType(),
		CParamTypes: sig.CParamTypes(),
		CParamDecls: sig.CParamDecls(),
		CArgs:       sig.CArgs(),
		Prototype:   sig.CPrototype(h.Spec.Symbol),
	}

	closure := make([]string, len(sig.Params))
	callArgs := []string{"fn"}
	hookArgs := []string{v.StateIdent + ".Get()"}
	for i, p := range sig.Params {
		a := fmt.Sprintf("a%d", i)
		closure[i] = a + " " + p.GoType
		callArgs = append(callArgs, p.Convert(a))
		hookArgs = append(hookArgs, p.Name)
	}
	v.ClosureParams = strings.Join(closure, ", ")

	call := "C." + v.Trampoline + "(" + strings.Join(callArgs, ", ") + ")"
	if sig.Result != nil {
		call = sig.Result.Wrap(call)
	}
	v.ClosureCall = call
	v.HookCall = v.HookName + "(" + strings.Join(hookArgs, ", ") + ")"
	return v
}

var goTpl = template.Must(template.New("go").Parse(`// Code generated by {{.Tool}}; DO NOT EDIT.
// Source: {{.Source}}
// Source-SHA256: {{.SourceHash}}

package {{.Package}}

/*
#include <stddef.h>
#include <stdint.h>
#include <sys/types.h>
{{- range .Hidden}}
#define {{.}} hooktrace_hidden_{{.}}
{{- end}}
{{- range .Includes}}
{{.}}
{{- end}}
{{- range .Hidden}}
#undef {{.}}
{{- end}}
{{- range .Forward}}
{{.}};
{{- end}}
{{range .Hooks}}
extern {{.CDecl}}(void *fn{{.CParamDecls}});
{{- end}}
*/
import "C"

import (
	"unsafe"

	hook "{{.RuntimeImport}}"
)
{{range .Hooks}}
// {{.StateIdent}} holds the next definition of {{.Symbol}}{{if .Library}} (library {{.Library}}){{end}}.
var {{.StateIdent}} = hook.NewCell({{printf "%q" .Symbol}}, {{printf "%q" .Library}}, func(fn unsafe.Pointer) {{.FuncType}} {
	return func({{.ClosureParams}}){{.GoResult}} {
		{{if not .Void}}return {{end}}{{.ClosureCall}}
	}
})

// {{.Symbol}} replaces {{.Prototype}} and runs {{.HookName}}.
//
//export {{.Symbol}}
func {{.Symbol}}({{.GoParams}}){{.GoResult}} {
	{{if not .Void}}return {{end}}{{.HookCall}}
}
{{end}}`))

var cTpl = template.Must(template.New("c").Parse(`// Code generated by {{.Tool}}; DO NOT EDIT.
// Source: {{.Source}}

#include <stddef.h>
#include <stdint.h>
#include <sys/types.h>
{{- range .Includes}}
{{.}}
{{- end}}
{{- range .Forward}}
{{.}};
{{- end}}
{{range .Hooks}}
typedef {{.CResult}} (*{{.Trampoline}}_fn)({{.CParamTypes}});

{{.CDecl}}(void *fn{{.CParamDecls}})
{
	{{if ne .CResult "void"}}return {{end}}(({{.Trampoline}}_fn)fn)({{.CArgs}});
}
{{end}}`))
