// Package hook is the runtime half of hooktrace. Code emitted by cmd/hookgen
// calls into it; hook authors normally never touch it directly.
//
// Every generated wrapper owns one Cell: a process-wide slot holding the
// original implementation of the intercepted symbol, typed with the exact
// signature of that symbol. The slot starts empty when the shared library is
// loaded and is filled on the first call by whichever thread gets there first:
//
//	var H_READLINK_ORIGINAL = hook.NewCell("readlink", "", bindReadlink)
//
//	//export readlink
//	func readlink(pathname *C.char, buf *C.char, bufsiz C.size_t) C.ssize_t {
//		return readlinkHook(H_READLINK_ORIGINAL.Get(), pathname, buf, bufsiz)
//	}
//
// Resolution goes through a Resolver. The default, NextResolver, asks the
// dynamic loader for the next definition of the symbol after the interception
// library (dlsym with RTLD_NEXT). A failed resolution is fatal: a diagnostic
// naming the symbol and the loader handle is written to stderr and the process
// aborts, because the wrapper has no original to forward to and no value it
// could return in its place.
package hook
