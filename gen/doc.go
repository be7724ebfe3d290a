// Package gen turns annotated Go hook functions into symbol-interception
// wrappers.
//
// A hook is an ordinary function in a cgo package whose first parameter is
// the original implementation and whose remaining parameters and result are
// those of the C function being intercepted:
//
//	//hooktrace:hook symbol="readlink"
//	func readlinkHook(
//		original func(pathname *C.char, buf *C.char, bufsiz C.size_t) C.ssize_t,
//		pathname *C.char, buf *C.char, bufsiz C.size_t,
//	) C.ssize_t {
//		return original(pathname, buf, bufsiz)
//	}
//
// Load parses a source file, checks every directive with ParseSpec and every
// hook with ValidateHookShape, and derives the C signature of each wrapper.
// Emitter then renders two files: a Go file with one //export function and
// one hook.Cell per hook, and a C file with the typed call trampolines the
// cells use to reach the original.
//
// All diagnostics are reported together and nothing is emitted when any of
// them fires.
package gen
