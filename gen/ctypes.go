package gen

import (
	"fmt"
	"go/ast"
	"sort"
	"strings"
)

type convKind int

const (
	// convNone: already a cgo type, passed through.
	convNone convKind = iota
	// convScalar: Go scalar converted with C.<type>(x).
	convScalar
	// convPointer: pointer to a Go scalar, converted through unsafe.Pointer.
	convPointer
	// convOpaque: pointer to a header-declared C type, passed as void *.
	convOpaque
)

type cType struct {
	decl string
	// proto is the spelling shown in prototypes when it differs from decl.
	proto   string
	cgo     string
	conv    convKind
	opaque  bool
	forward string
	// header is set for types only the hook file's #include lines declare.
	header bool
}

func (c cType) protoDecl() string {
	if c.proto != "" {
		return c.proto
	}
	return c.decl
}

// cgoScalars maps cgo's spelling of the C numeric types to C.
var cgoScalars = map[string]string{
	"char":      "char",
	"schar":     "signed char",
	"uchar":     "unsigned char",
	"short":     "short",
	"ushort":    "unsigned short",
	"int":       "int",
	"uint":      "unsigned int",
	"long":      "long",
	"ulong":     "unsigned long",
	"longlong":  "long long",
	"ulonglong": "unsigned long long",
	"float":     "float",
	"double":    "double",
}

// cTypedefs are typedefs available from the headers every generated file
// includes.
var cTypedefs = map[string]bool{
	"size_t": true, "ssize_t": true, "ptrdiff_t": true,
	"off_t": true, "mode_t": true, "pid_t": true, "uid_t": true, "gid_t": true,
	"int8_t": true, "int16_t": true, "int32_t": true, "int64_t": true,
	"uint8_t": true, "uint16_t": true, "uint32_t": true, "uint64_t": true,
	"intptr_t": true, "uintptr_t": true,
}

// goScalars are the Go types with a fixed C layout.
var goScalars = map[string]string{
	"int8":    "int8_t",
	"int16":   "int16_t",
	"int32":   "int32_t",
	"rune":    "int32_t",
	"int64":   "int64_t",
	"uint8":   "uint8_t",
	"byte":    "uint8_t",
	"uint16":  "uint16_t",
	"uint32":  "uint32_t",
	"uint64":  "uint64_t",
	"uintptr": "uintptr_t",
	"float32": "float",
	"float64": "double",
}

func mapType(expr ast.Expr) (cType, bool) {
	switch t := unparen(expr).(type) {
	case *ast.SelectorExpr:
		pkg, ok := t.X.(*ast.Ident)
		if !ok {
			return cType{}, false
		}
		switch {
		case pkg.Name == "unsafe" && t.Sel.Name == "Pointer":
			return cType{decl: "void *", cgo: "unsafe.Pointer"}, true
		case pkg.Name == "C":
			return mapCgoName(t.Sel.Name)
		}
	case *ast.Ident:
		if decl, ok := goScalars[t.Name]; ok {
			return cType{decl: decl, cgo: "C." + decl, conv: convScalar}, true
		}
	case *ast.StarExpr:
		inner, ok := mapType(t.X)
		if !ok {
			return cType{}, false
		}
		if inner.header {
			return cType{
				decl:   "void *",
				proto:  pointerDecl(inner.protoDecl()),
				cgo:    "unsafe.Pointer",
				conv:   convOpaque,
				header: true,
			}, true
		}
		out := cType{decl: pointerDecl(inner.decl), proto: pointerDecl(inner.protoDecl()), cgo: "*" + inner.cgo, forward: inner.forward}
		if inner.conv != convNone {
			out.conv = convPointer
		}
		return out, true
	}
	return cType{}, false
}

func mapCgoName(name string) (cType, bool) {
	if decl, ok := cgoScalars[name]; ok {
		return cType{decl: decl, cgo: "C." + name}, true
	}
	if cTypedefs[name] {
		return cType{decl: name, cgo: "C." + name}, true
	}
	for _, kind := range []string{"struct", "union"} {
		if tag, ok := strings.CutPrefix(name, kind+"_"); ok {
			if tag == "" {
				return cType{}, false
			}
			decl := kind + " " + tag
			return cType{decl: decl, cgo: "C." + name, opaque: true, forward: decl}, true
		}
	}
	if tag, ok := strings.CutPrefix(name, "enum_"); ok {
		if tag == "" {
			return cType{}, false
		}
		return cType{decl: "enum " + tag, cgo: "C." + name, header: true}, true
	}
	// Any other name (FILE, time_t, socklen_t, DIR...) is a typedef the hook
	// file's headers declare.
	return cType{decl: name, cgo: "C." + name, header: true}, true
}

func pointerDecl(decl string) string {
	if strings.HasSuffix(decl, "*") {
		return decl + "*"
	}
	return decl + " *"
}

func cDecl(decl, name string) string {
	if strings.HasSuffix(decl, "*") {
		return decl + name
	}
	return decl + " " + name
}

// CParam is one parameter of a generated wrapper.
type CParam struct {
	// Name is the wrapper parameter name.
	Name string
	// GoType is the type as written in the hook.
	GoType string
	// CType is the C declaration type used by the trampoline, e.g. "char *".
	CType string
	// CProto is the type shown in the C prototype, e.g. "FILE *" where CType
	// is "void *".
	CProto string
	// Arg converts Name into the trampoline's argument type.
	Arg string

	conv cType
}

// Convert renders the conversion of the Go value name to the C argument.
func (p CParam) Convert(name string) string { return argExpr(p.conv, name) }

// CResult is the result of a generated wrapper.
type CResult struct {
	GoType string
	CType  string
	CProto string
	wrap   string
}

// Wrap converts a trampoline call expression back into GoType.
func (r *CResult) Wrap(expr string) string { return fmt.Sprintf(r.wrap, expr) }

// Signature is the C-compatible signature shared by the exported wrapper and
// the original it forwards to.
type Signature struct {
	Params []CParam
	// Result is nil for void functions.
	Result *CResult
	// Forward lists the struct/union tags that need a forward declaration.
	Forward []string
	// Headers is set when a type needs the hook file's #include lines.
	Headers bool
}

// DeriveSignature maps the hook's forwarded parameters and result to C.
// reserved names cannot be used as wrapper parameter names; such parameters
// and unnamed ones are renamed p<index>.
func DeriveSignature(def *HookDef, reserved ...string) (*Signature, error) {
	reservedNames := map[string]bool{"C": true, "unsafe": true, "hook": true, "fn": true, def.Name: true}
	for _, r := range reserved {
		reservedNames[r] = true
	}
	keep := func(name string) bool {
		return name != "" && name != "_" && !reservedNames[name]
	}
	used := map[string]bool{}
	for _, p := range def.Params[1:] {
		if keep(p.Name) {
			used[p.Name] = true
		}
	}

	sig := &Signature{}
	forward := map[string]bool{}
	unsupported := func(p Param, what string) error {
		return &ShapeError{Kind: ErrUnsupportedType, Hook: def.Name, Param: what, Pos: p.Pos, Detail: p.TypeString()}
	}

	for i, p := range def.Params[1:] {
		ct, ok := mapType(p.Type)
		if !ok || ct.opaque {
			return nil, unsupported(p, p.Name)
		}
		if ct.forward != "" {
			forward[ct.forward] = true
		}
		sig.Headers = sig.Headers || ct.header

		name := p.Name
		if !keep(name) {
			name = freshName(fmt.Sprintf("p%d", i), reservedNames, used)
			used[name] = true
		}

		sig.Params = append(sig.Params, CParam{
			Name:   name,
			GoType: p.TypeString(),
			CType:  ct.decl,
			CProto: ct.protoDecl(),
			Arg:    argExpr(ct, name),
			conv:   ct,
		})
	}

	if len(def.Results) == 1 {
		r := def.Results[0]
		ct, ok := mapType(r.Type)
		if !ok || ct.opaque {
			return nil, unsupported(r, "result")
		}
		if ct.forward != "" {
			forward[ct.forward] = true
		}
		sig.Headers = sig.Headers || ct.header
		sig.Result = &CResult{GoType: r.TypeString(), CType: ct.decl, CProto: ct.protoDecl(), wrap: resultWrap(ct, r.TypeString())}
	}

	for f := range forward {
		sig.Forward = append(sig.Forward, f)
	}
	sort.Strings(sig.Forward)
	return sig, nil
}

func freshName(base string, reserved, used map[string]bool) string {
	name := base
	for reserved[name] || used[name] {
		name += "_"
	}
	return name
}

func argExpr(ct cType, name string) string {
	switch ct.conv {
	case convScalar:
		return ct.cgo + "(" + name + ")"
	case convPointer:
		return "(" + ct.cgo + ")(unsafe.Pointer(" + name + "))"
	case convOpaque:
		return "unsafe.Pointer(" + name + ")"
	}
	return name
}

func resultWrap(ct cType, goType string) string {
	switch ct.conv {
	case convScalar:
		return goType + "(%s)"
	case convPointer:
		return "(" + goType + ")(unsafe.Pointer(%s))"
	case convOpaque:
		return "(" + goType + ")(%s)"
	}
	return "%s"
}

// GoParams renders the wrapper parameter list.
func (s *Signature) GoParams() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.Name + " " + p.GoType
	}
	return strings.Join(parts, ", ")
}

// GoResult renders the wrapper result, with a leading space, or "".
func (s *Signature) GoResult() string {
	if s.Result == nil {
		return ""
	}
	return " " + s.Result.GoType
}

// CResultType is the C return type.
func (s *Signature) CResultType() string {
	if s.Result == nil {
		return "void"
	}
	return s.Result.CType
}

// CParamTypes renders the parameter types of a C function pointer type.
func (s *Signature) CParamTypes() string {
	if len(s.Params) == 0 {
		return "void"
	}
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.CType
	}
	return strings.Join(parts, ", ")
}

// CParamDecls renders the positional C parameters a0..an, comma prefixed.
func (s *Signature) CParamDecls() string {
	var b strings.Builder
	for i, p := range s.Params {
		b.WriteString(", ")
		b.WriteString(cDecl(p.CType, fmt.Sprintf("a%d", i)))
	}
	return b.String()
}

// CArgs renders a0..an.
func (s *Signature) CArgs() string {
	parts := make([]string, len(s.Params))
	for i := range s.Params {
		parts[i] = fmt.Sprintf("a%d", i)
	}
	return strings.Join(parts, ", ")
}

// CPrototype renders the C declaration of the exported function.
func (s *Signature) CPrototype(symbol string) string {
	params := "void"
	if len(s.Params) > 0 {
		parts := make([]string, len(s.Params))
		for i, p := range s.Params {
			parts[i] = cDecl(p.CProto, p.Name)
		}
		params = strings.Join(parts, ", ")
	}
	result := "void"
	if s.Result != nil {
		result = s.Result.CProto
	}
	return cDecl(result, symbol) + "(" + params + ")"
}
