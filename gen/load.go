package gen

import (
	"crypto/sha256"
	"encoding/hex"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// File is a validated hook source file.
type File struct {
	Path    string
	Package string
	// Hash is the hex SHA-256 of the source.
	Hash string
	// Includes are the #include lines of the file's cgo preamble.
	Includes []string
	Hooks    []*Hook
}

// Hook is one validated hook: directive, definition and derived C signature.
type Hook struct {
	Spec InterceptionSpec
	Def  *HookDef
	Sig  *Signature
	// StateIdent names the generated cell holding the resolved original.
	StateIdent string
}

const runtimeName = "hook"

// generatedImports are the names the generated file imports.
var generatedImports = []string{"C", "unsafe", runtimeName}

// hashHeader marks files written by this generator.
const hashHeader = "// Source-SHA256:"

// StateIdent returns the identifier of the cell generated for symbol.
func StateIdent(symbol string) string {
	return "H_" + strings.ToUpper(symbol) + "_ORIGINAL"
}

// Load parses and validates the hooks in the Go file at path. Generated
// identifiers are also checked against the declarations, imports and hook
// directives of the other non-test files of the same package directory.
// Files written by hookgen are skipped.
func Load(path string) (*File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	pkg, err := loadPackage(path)
	if err != nil {
		return nil, err
	}
	return load(path, src, pkg)
}

// LoadSource is Load for in-memory source; only declarations of src itself
// are considered for collisions.
func LoadSource(filename string, src []byte) (*File, error) {
	return load(filename, src, nil)
}

func load(filename string, src []byte, pkg *packageNames) (*File, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", filename)
	}

	sum := sha256.Sum256(src)
	out := &File{Path: filename, Package: file.Name.Name, Hash: hex.EncodeToString(sum[:]), Includes: cgoIncludes(file)}
	var errs *multierror.Error

	funcTypes := collectFuncTypes(file)
	attached := map[*ast.Comment]bool{}

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Doc == nil {
			continue
		}
		directives := findDirectives(fn.Doc)
		if len(directives) == 0 {
			continue
		}
		for _, c := range directives {
			attached[c] = true
		}
		if len(directives) > 1 {
			errs = multierror.Append(errs, &SpecError{
				Kind:   ErrDuplicateDirective,
				Pos:    fset.Position(directives[1].Slash),
				Detail: fn.Name.Name,
			})
			continue
		}

		h, err := loadHook(fset, fn, directives[0], funcTypes)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		out.Hooks = append(out.Hooks, h)
	}

	for _, cg := range file.Comments {
		for _, c := range findDirectives(cg) {
			if !attached[c] {
				errs = multierror.Append(errs, &SpecError{Kind: ErrDetachedDirective, Pos: fset.Position(c.Slash)})
			}
		}
	}

	if errs == nil && len(out.Hooks) == 0 {
		return nil, &SpecError{Kind: ErrNoHooks, Pos: token.Position{Filename: filename}}
	}

	if pkg == nil {
		pkg = &packageNames{}
	}
	if err := checkNames(out.Hooks, fileNames(fset, file), pkg); err != nil {
		errs = multierror.Append(errs, err)
	}

	if err := errs.ErrorOrNil(); err != nil {
		errs.ErrorFormat = listErrors
		return nil, errs
	}
	return out, nil
}

func loadHook(fset *token.FileSet, fn *ast.FuncDecl, directive *ast.Comment, funcTypes map[string]*ast.FuncType) (*Hook, error) {
	pos := fset.Position(directive.Slash)
	pos.Column += len(Directive)
	pos.Offset += len(Directive)

	spec, err := ParseSpec(directive.Text[len(Directive):], pos)
	if err != nil {
		return nil, err
	}

	def := NewHookDef(fset, fn, funcTypes)
	if err := ValidateHookShape(def); err != nil {
		return nil, err
	}

	state := StateIdent(spec.Symbol)
	sig, err := DeriveSignature(def, state)
	if err != nil {
		return nil, err
	}
	return &Hook{Spec: spec, Def: def, Sig: sig, StateIdent: state}, nil
}

func findDirectives(cg *ast.CommentGroup) []*ast.Comment {
	var out []*ast.Comment
	for _, c := range cg.List {
		rest, ok := strings.CutPrefix(c.Text, Directive)
		if !ok {
			continue
		}
		if rest == "" || rest[0] == ' ' || rest[0] == '\t' {
			out = append(out, c)
		}
	}
	return out
}

// checkNames rejects duplicate symbols and generated identifiers that clash
// with each other, with existing declarations or imports, or with a
// predeclared identifier the package uses.
func checkNames(hooks []*Hook, local *fileNameSet, pkg *packageNames) error {
	var errs *multierror.Error

	for _, name := range generatedImports {
		detail := name + " is imported by the generated file"
		if p, ok := local.decls[name]; ok {
			errs = multierror.Append(errs, &SpecError{Kind: ErrNameCollision, Pos: p, Detail: detail})
		} else if file, ok := pkg.decls[name]; ok {
			errs = multierror.Append(errs, &SpecError{Kind: ErrNameCollision, Pos: token.Position{Filename: file}, Detail: detail})
		}
	}

	bySymbol := map[string]*Hook{}
	generated := map[string]*Hook{}
	for _, h := range hooks {
		if prev, ok := bySymbol[h.Spec.Symbol]; ok {
			errs = multierror.Append(errs, &SpecError{
				Kind:   ErrDuplicateSymbol,
				Key:    KeySymbol,
				Pos:    h.Spec.Pos,
				Detail: h.Spec.Symbol + " already hooked by " + prev.Def.Name,
			})
			continue
		}
		bySymbol[h.Spec.Symbol] = h

		if file, ok := pkg.symbols[h.Spec.Symbol]; ok {
			errs = multierror.Append(errs, &SpecError{
				Kind:   ErrDuplicateSymbol,
				Key:    KeySymbol,
				Pos:    h.Spec.Pos,
				Detail: h.Spec.Symbol + " is also hooked in " + file,
			})
			continue
		}

		for _, name := range []string{h.Spec.Symbol, h.StateIdent} {
			detail := ""
			if prev, ok := generated[name]; ok {
				detail = name + " is also generated for " + prev.Def.Name
			} else if slices.Contains(generatedImports, name) {
				detail = name + " is imported by the generated file"
			} else if p, ok := local.decls[name]; ok {
				detail = name + " is declared at " + p.String()
			} else if p, ok := local.imports[name]; ok {
				detail = name + " is imported at " + p.String()
			} else if file, ok := pkg.decls[name]; ok {
				detail = name + " is declared in " + file
			} else if file, ok := pkg.imports[name]; ok {
				detail = name + " is imported in " + file
			} else if p, ok := local.predeclared[name]; ok {
				detail = name + " shadows the predeclared " + name + " used at " + p.String()
			} else if file, ok := pkg.predeclared[name]; ok {
				detail = name + " shadows the predeclared " + name + " used in " + file
			}
			if detail != "" {
				errs = multierror.Append(errs, &SpecError{Kind: ErrNameCollision, Key: KeySymbol, Pos: h.Spec.Pos, Detail: detail})
				continue
			}
			generated[name] = h
		}
	}
	return errs.ErrorOrNil()
}

// fileNameSet holds the names of the hook file, with positions.
type fileNameSet struct {
	decls       map[string]token.Position
	imports     map[string]token.Position
	predeclared map[string]token.Position
}

func fileNames(fset *token.FileSet, file *ast.File) *fileNameSet {
	out := &fileNameSet{
		decls:       map[string]token.Position{},
		imports:     map[string]token.Position{},
		predeclared: map[string]token.Position{},
	}
	for _, d := range declNames(file) {
		out.decls[d.name] = fset.Position(d.pos)
	}
	for _, d := range importNames(file) {
		out.imports[d.name] = fset.Position(d.pos)
	}
	for _, d := range predeclaredUses(file) {
		if _, ok := out.predeclared[d.name]; !ok {
			out.predeclared[d.name] = fset.Position(d.pos)
		}
	}
	return out
}

type namePos struct {
	name string
	pos  token.Pos
}

func declNames(file *ast.File) []namePos {
	var out []namePos
	add := func(id *ast.Ident) { out = append(out, namePos{id.Name, id.Pos()}) }
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil {
				add(d.Name)
			}
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.ValueSpec:
					for _, id := range s.Names {
						add(id)
					}
				case *ast.TypeSpec:
					add(s.Name)
				}
			}
		}
	}
	return out
}

// importNames returns the file scope names bound by imports. Without an
// explicit name the last path element is used, minus a major version suffix.
func importNames(file *ast.File) []namePos {
	var out []namePos
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name := importedName(path)
		if spec.Name != nil {
			name = spec.Name.Name
		}
		if name == "_" || name == "." || name == "" {
			continue
		}
		out = append(out, namePos{name, spec.Pos()})
	}
	return out
}

func importedName(path string) string {
	parts := strings.Split(path, "/")
	name := parts[len(parts)-1]
	if len(parts) > 1 && majorVersion.MatchString(name) {
		name = parts[len(parts)-2]
	}
	if i := strings.Index(name, ".v"); i > 0 && majorVersion.MatchString(name[i+1:]) {
		name = name[:i]
	}
	return name
}

var majorVersion = regexp.MustCompile(`^v[0-9]+$`)

// predeclaredUses returns the references to predeclared identifiers (close,
// len, int...) in file. Selector names and field names are not references.
func predeclaredUses(file *ast.File) []namePos {
	var out []namePos
	skip := map[*ast.Ident]bool{}
	ast.Inspect(file, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.SelectorExpr:
			skip[x.Sel] = true
		case *ast.Field:
			for _, id := range x.Names {
				skip[id] = true
			}
		case *ast.FuncDecl:
			skip[x.Name] = true
		case *ast.Ident:
			if !skip[x] && types.Universe.Lookup(x.Name) != nil {
				out = append(out, namePos{x.Name, x.Pos()})
			}
		}
		return true
	})
	return out
}

// cgoIncludes returns the #include lines of the preamble of import "C".
func cgoIncludes(file *ast.File) []string {
	var out []string
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.IMPORT {
			continue
		}
		for _, spec := range gd.Specs {
			is := spec.(*ast.ImportSpec)
			if is.Path.Value != `"C"` {
				continue
			}
			doc := is.Doc
			if doc == nil {
				doc = gd.Doc
			}
			if doc == nil {
				continue
			}
			for _, line := range strings.Split(doc.Text(), "\n") {
				line = strings.TrimSpace(line)
				if rest, ok := strings.CutPrefix(line, "#"); ok && strings.HasPrefix(strings.TrimSpace(rest), "include") {
					out = append(out, line)
				}
			}
		}
	}
	return out
}

// packageNames holds what the sibling files of a hook file declare, keyed
// by name with the file name as value.
type packageNames struct {
	decls       map[string]string
	imports     map[string]string
	predeclared map[string]string
	// symbols are the symbols hooked by sibling hook files.
	symbols map[string]string
}

// loadPackage reads the sibling files of path.
func loadPackage(path string) (*packageNames, error) {
	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read package directory %s", dir)
	}

	self, _ := filepath.Abs(path)
	out := &packageNames{
		decls:       map[string]string{},
		imports:     map[string]string{},
		predeclared: map[string]string{},
		symbols:     map[string]string{},
	}
	fset := token.NewFileSet()
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		sibling := filepath.Join(dir, name)
		if abs, _ := filepath.Abs(sibling); abs == self {
			continue
		}
		f, err := parser.ParseFile(fset, sibling, nil, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", sibling)
		}
		if isHookgenOutput(f) {
			continue
		}
		for _, d := range declNames(f) {
			out.decls[d.name] = name
		}
		for _, d := range importNames(f) {
			out.imports[d.name] = name
		}
		for _, d := range predeclaredUses(f) {
			out.predeclared[d.name] = name
		}
		for _, symbol := range hookedSymbols(fset, f) {
			out.symbols[symbol] = name
		}
	}
	return out, nil
}

// isHookgenOutput reports whether f was written by this generator. Its
// declarations are regenerated from the hook directives.
func isHookgenOutput(f *ast.File) bool {
	if !ast.IsGenerated(f) {
		return false
	}
	for _, cg := range f.Comments {
		if cg.Pos() > f.Package {
			break
		}
		for _, c := range cg.List {
			if strings.HasPrefix(c.Text, hashHeader) {
				return true
			}
		}
	}
	return false
}

// hookedSymbols returns the symbols of the well-formed hook directives in f.
func hookedSymbols(fset *token.FileSet, f *ast.File) []string {
	var out []string
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Doc == nil {
			continue
		}
		for _, c := range findDirectives(fn.Doc) {
			spec, err := ParseSpec(c.Text[len(Directive):], fset.Position(c.Slash))
			if err == nil {
				out = append(out, spec.Symbol)
			}
		}
	}
	return out
}

func listErrors(errs []error) string {
	lines := make([]string, len(errs))
	for i, err := range errs {
		lines[i] = err.Error()
	}
	return strings.Join(lines, "\n")
}
