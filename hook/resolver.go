package hook

import (
	"errors"
	"sync/atomic"
	"unsafe"
)

var (
	// ErrSymbolNotFound is reported when the loader has no further definition
	// of the symbol.
	ErrSymbolNotFound = errors.New("hook: symbol not found")

	// ErrNoDynamicLoader is reported by the resolvers when the package was
	// built without cgo.
	ErrNoDynamicLoader = errors.New("hook: dynamic loader unavailable (built without cgo)")
)

// HandleNext names the RTLD_NEXT pseudo-handle in diagnostics.
const HandleNext = "RTLD_NEXT"

// Resolver finds the address of the original implementation of a symbol.
type Resolver interface {
	// Resolve returns a non-nil address or an error.
	Resolve(symbol, library string) (unsafe.Pointer, error)
	// Handle names the loader handle used for library, for diagnostics.
	Handle(library string) string
}

// NextResolver looks symbols up with dlsym(RTLD_NEXT, symbol): the next
// definition after the object doing the lookup. The library hint is ignored.
type NextResolver struct{}

// Resolve implements Resolver.
func (NextResolver) Resolve(symbol, _ string) (unsafe.Pointer, error) {
	return dlsymNext(symbol)
}

// Handle implements Resolver.
func (NextResolver) Handle(string) string { return HandleNext }

// LibraryResolver honors the library hint: the library is opened with dlopen
// and the symbol is looked up in that handle. Without a hint it behaves like
// NextResolver.
type LibraryResolver struct{}

// Resolve implements Resolver.
func (LibraryResolver) Resolve(symbol, library string) (unsafe.Pointer, error) {
	if library == "" {
		return dlsymNext(symbol)
	}
	return dlsymLibrary(library, symbol)
}

// Handle implements Resolver.
func (LibraryResolver) Handle(library string) string {
	if library == "" {
		return HandleNext
	}
	return `dlopen("` + library + `")`
}

type resolverBox struct{ r Resolver }

var current atomic.Pointer[resolverBox]

func init() {
	current.Store(&resolverBox{r: NextResolver{}})
}

// UseResolver replaces the process-wide resolver. Cells that already resolved
// keep their original; call it from an init function of the interception
// library to affect every cell. A nil r restores NextResolver.
func UseResolver(r Resolver) {
	if r == nil {
		r = NextResolver{}
	}
	current.Store(&resolverBox{r: r})
}

// CurrentResolver returns the process-wide resolver.
func CurrentResolver() Resolver {
	return current.Load().r
}

// cString returns s as a NUL-terminated byte slice. The slice is never
// empty, so &b[0] is always valid.
func cString(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}
