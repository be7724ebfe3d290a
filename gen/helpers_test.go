package gen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/require"
)

// readlinkSource is a complete hook file passing through to readlink.
const readlinkSource = `package main

/*
#include <unistd.h>
*/
import "C"

//hooktrace:hook symbol = "readlink", library = "libc.so.6"
func readlinkHook(original func(pathname *C.char, buf *C.char, bufsiz C.size_t) C.ssize_t, pathname *C.char, buf *C.char, bufsiz C.size_t) C.ssize_t {
	return original(pathname, buf, bufsiz)
}

func main() {}
`

// parseHook parses decls as the body of a cgo file and returns the HookDef
// of the last function declared.
func parseHook(t *testing.T, decls string) *HookDef {
	t.Helper()

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "hook.go", "package p\n\nimport \"C\"\n\n"+decls, parser.ParseComments)
	require.NoError(t, err)

	var fn *ast.FuncDecl
	for _, d := range file.Decls {
		if f, ok := d.(*ast.FuncDecl); ok {
			fn = f
		}
	}
	require.NotNil(t, fn, "no function in %q", decls)
	return NewHookDef(fset, fn, collectFuncTypes(file))
}

// hookFile wraps decls into a loadable hook file.
func hookFile(decls string) []byte {
	return []byte("package main\n\nimport \"C\"\n\n" + decls + "\n\nfunc main() {}\n")
}

// headerSource hooks functions whose types come from the file's headers.
const headerSource = `package main

/*
#include <stdio.h>
#include <time.h>
*/
import "C"

//hooktrace:hook symbol = "fopen"
func fopenHook(original func(path *C.char, mode *C.char) *C.FILE, path *C.char, mode *C.char) *C.FILE {
	return original(path, mode)
}

//hooktrace:hook symbol = "time"
func timeHook(original func(t *C.time_t) C.time_t, t *C.time_t) C.time_t {
	return original(t)
}

func main() {}
`
