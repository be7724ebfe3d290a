package hook

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"unsafe"
)

// countingResolver hands out a fixed address and counts lookups.
type countingResolver struct {
	addr    unsafe.Pointer
	err     error
	delay   chan struct{}
	lookups atomic.Int32

	mu      sync.Mutex
	symbols []string
}

func (r *countingResolver) Resolve(symbol, _ string) (unsafe.Pointer, error) {
	r.lookups.Add(1)
	r.mu.Lock()
	r.symbols = append(r.symbols, symbol)
	r.mu.Unlock()

	if r.delay != nil {
		<-r.delay
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.addr, nil
}

func (r *countingResolver) Handle(string) string { return "fake-handle" }

// fakeOriginal is what tests use as the "real" implementation behind an address.
var fakeOriginal = [1]byte{0x42}

func fakeAddr() unsafe.Pointer { return unsafe.Pointer(&fakeOriginal[0]) }

// fatalCall records one call into the terminate seam.
type fatalCall struct{}

// stubTerminate replaces terminate with a function that panics with fatalCall,
// so a test can observe the fatal path without losing the process.
func stubTerminate(t *testing.T) {
	t.Helper()
	orig := terminate
	terminate = func() { panic(fatalCall{}) }
	t.Cleanup(func() { terminate = orig })
}

func requireTerminated(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if _, ok := r.(fatalCall); !ok {
			t.Fatalf("expected terminate to be called, recovered %v", r)
		}
	}()
	fn()
}

var errLookup = errors.New("lookup exploded")
