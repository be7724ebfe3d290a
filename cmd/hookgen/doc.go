// Command hookgen generates LD_PRELOAD interception wrappers from annotated
// Go hook functions.
//
// You write a hook next to a //hooktrace:hook directive naming the C symbol it
// replaces. hookgen generates everything else:
//
//   - an //export function with the exact C signature of the symbol
//   - a hook.Cell that finds the original through the dynamic loader on first
//     use and keeps it for the lifetime of the process
//   - a C trampoline that calls the original through its typed pointer
//
// Build the package with -buildmode=c-shared and preload the result.
//
// Writing a hook
//
// The first parameter is the original implementation. The remaining
// parameters and the result must match it exactly:
//
//	/*
//	#include <sys/types.h>
//	*/
//	import "C"
//
//	//go:generate go run github.com/sghaida/hooktrace/cmd/hookgen generate
//
//	//hooktrace:hook symbol = "readlink", library = "libc.so.6"
//	func readlinkHook(original func(pathname *C.char, buf *C.char, bufsiz C.size_t) C.ssize_t, pathname *C.char, buf *C.char, bufsiz C.size_t) C.ssize_t {
//		return original(pathname, buf, bufsiz)
//	}
//
//	func main() {}
//
// The symbol attribute is required. library is a hint: the default resolver
// looks the symbol up with RTLD_NEXT, and hook.LibraryResolver honors it.
//
// Types such as *C.FILE or C.time_t that come from headers are allowed. The
// #include lines of the hook file's preamble are then copied into both
// generated files, and pointers to header types cross the trampoline as
// void *.
//
// Naming rules
//
// The generated file declares a function named after the symbol and a
// variable H_<SYMBOL>_ORIGINAL in the package block. Neither may already be
// declared or imported by any non-test file of the package, and a symbol may
// be hooked by only one file. A symbol that is also a predeclared identifier
// (close, len, copy...) is accepted only while no file of the package uses
// that identifier, because the exported function would shadow the builtin.
//
// Commands
//
//   - generate: validate and write <base>.go and <base>.c
//   - check: validate and print the C prototype of every wrapper
//   - verify: check that a built library exports every hooked symbol
//   - config: print or write the effective hookgen.yaml
//   - version: print the version
//
// generate, check and verify take the source from --src, then $GOFILE (set by
// go generate), then the file in the working directory whose go:generate line
// invokes hookgen. The output base defaults to the source name without .go plus
// outSuffix, so hook.go becomes hook_hooks.gen.go and hook_hooks.gen.c.
//
// Configuration
//
// Settings come from, lowest first: built-in defaults, hookgen.yaml next to
// the source (or --config), HOOKGEN_* environment variables, and flags.
//
//	header: hookgen
//	trampolinePrefix: hooktrace_call_
//	runtimeImport: github.com/sghaida/hooktrace/hook
//	outSuffix: _hooks.gen
//
// Exit status
//
// 0 on success, 1 when validation or generation fails, 2 on usage errors.
// Validation errors are printed one per line as file:line:column: message and
// nothing is written.
package main
