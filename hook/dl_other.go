//go:build !unix || (cgo && !(linux || darwin || freebsd))

package hook

import (
	"os"
	"unsafe"
)

func dlsymNext(string) (unsafe.Pointer, error) { return nil, ErrNoDynamicLoader }

func dlsymLibrary(string, string) (unsafe.Pointer, error) { return nil, ErrNoDynamicLoader }

func abortProcess() { os.Exit(134) }
