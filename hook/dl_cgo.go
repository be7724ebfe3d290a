//go:build cgo && (linux || darwin || freebsd)

package hook

/*
#cgo CFLAGS: -D_GNU_SOURCE
#cgo linux LDFLAGS: -ldl

#include <dlfcn.h>
#include <stdlib.h>

static void *hooktrace_dlsym_next(const char *name, char **err) {
	void *addr;

	dlerror();
	addr = dlsym(RTLD_NEXT, name);
	if (addr == NULL) {
		*err = dlerror();
	}
	return addr;
}

static void *hooktrace_dlsym_library(const char *path, const char *name, char **err) {
	void *h;
	void *addr;

	dlerror();
	h = dlopen(path, RTLD_NOW | RTLD_NOLOAD);
	if (h == NULL) {
		h = dlopen(path, RTLD_NOW);
	}
	if (h == NULL) {
		*err = dlerror();
		return NULL;
	}
	addr = dlsym(h, name);
	if (addr == NULL) {
		*err = dlerror();
	}
	return addr;
}

static void hooktrace_abort(void) {
	abort();
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// dlsymNext passes names as Go memory rather than C.CString. A cell resolving
// malloc or free must not call the C allocator while it holds its once.
func dlsymNext(symbol string) (unsafe.Pointer, error) {
	name := cString(symbol)

	var cerr *C.char
	addr := C.hooktrace_dlsym_next((*C.char)(unsafe.Pointer(&name[0])), &cerr)
	if addr == nil {
		return nil, dlError(symbol, cerr)
	}
	return addr, nil
}

func dlsymLibrary(library, symbol string) (unsafe.Pointer, error) {
	path := cString(library)
	name := cString(symbol)

	var cerr *C.char
	addr := C.hooktrace_dlsym_library(
		(*C.char)(unsafe.Pointer(&path[0])),
		(*C.char)(unsafe.Pointer(&name[0])),
		&cerr,
	)
	if addr == nil {
		return nil, dlError(symbol, cerr)
	}
	return addr, nil
}

func dlError(symbol string, cerr *C.char) error {
	if cerr == nil {
		return fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	return fmt.Errorf("%w: %s: %s", ErrSymbolNotFound, symbol, C.GoString(cerr))
}

func abortProcess() {
	C.hooktrace_abort()
}
