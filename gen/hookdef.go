package gen

import (
	"go/ast"
	"go/token"
	"go/types"
)

// Param is one parameter or result of a hook function. Grouped declarations
// (a, b C.int) are expanded into one Param each.
type Param struct {
	// Name is empty for unnamed parameters.
	Name string
	Type ast.Expr
	Pos  token.Position
}

// TypeString renders the parameter type as written.
func (p Param) TypeString() string { return types.ExprString(p.Type) }

// HookDef is the user-authored hook logic as declared in source.
type HookDef struct {
	Name string
	Pos  token.Position

	// Receiver is the receiver name of a method, "" for plain functions.
	Receiver      string
	HasReceiver   bool
	HasTypeParams bool

	Params  []Param
	Results []Param

	// funcTypes holds the file's "type X func(...)" declarations so the
	// first parameter may use a named func type.
	funcTypes map[string]*ast.FuncType
}

// NewHookDef builds a HookDef from a function declaration. funcTypes may be
// nil.
func NewHookDef(fset *token.FileSet, decl *ast.FuncDecl, funcTypes map[string]*ast.FuncType) *HookDef {
	def := &HookDef{
		Name:      decl.Name.Name,
		Pos:       fset.Position(decl.Name.Pos()),
		funcTypes: funcTypes,
	}

	if decl.Recv != nil && len(decl.Recv.List) > 0 {
		def.HasReceiver = true
		if names := decl.Recv.List[0].Names; len(names) > 0 {
			def.Receiver = names[0].Name
		}
	}
	if decl.Type.TypeParams != nil && len(decl.Type.TypeParams.List) > 0 {
		def.HasTypeParams = true
	}

	def.Params = expandFields(fset, decl.Type.Params)
	def.Results = expandFields(fset, decl.Type.Results)
	return def
}

// expandFields flattens fl. Positions are left zero when fset is nil.
func expandFields(fset *token.FileSet, fl *ast.FieldList) []Param {
	if fl == nil {
		return nil
	}
	position := func(p token.Pos) token.Position {
		if fset == nil {
			return token.Position{}
		}
		return fset.Position(p)
	}

	var out []Param
	for _, f := range fl.List {
		if len(f.Names) == 0 {
			out = append(out, Param{Type: f.Type, Pos: position(f.Type.Pos())})
			continue
		}
		for _, n := range f.Names {
			out = append(out, Param{Name: n.Name, Type: f.Type, Pos: position(n.Pos())})
		}
	}
	return out
}

// originalType returns the func type of the first parameter, following one
// level of local named func type.
func (d *HookDef) originalType() (*ast.FuncType, bool) {
	if len(d.Params) == 0 {
		return nil, false
	}
	return d.funcTypeOf(d.Params[0].Type)
}

func (d *HookDef) funcTypeOf(expr ast.Expr) (*ast.FuncType, bool) {
	switch t := expr.(type) {
	case *ast.ParenExpr:
		return d.funcTypeOf(t.X)
	case *ast.FuncType:
		return t, true
	case *ast.Ident:
		ft, ok := d.funcTypes[t.Name]
		return ft, ok
	}
	return nil, false
}

// collectFuncTypes returns every "type X func(...)" declared in file.
func collectFuncTypes(file *ast.File) map[string]*ast.FuncType {
	out := map[string]*ast.FuncType{}
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok || ts.TypeParams != nil {
				continue
			}
			if ft, ok := unparen(ts.Type).(*ast.FuncType); ok {
				out[ts.Name.Name] = ft
			}
		}
	}
	return out
}

func unparen(e ast.Expr) ast.Expr {
	for {
		p, ok := e.(*ast.ParenExpr)
		if !ok {
			return e
		}
		e = p.X
	}
}
