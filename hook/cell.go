package hook

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// Cell holds the resolved original of one intercepted symbol.
//
// F is the Go func type of the original. The zero Cell is not usable; create
// cells with NewCell.
type Cell[F any] struct {
	symbol  string
	library string
	bind    func(addr unsafe.Pointer) F

	// resolver overrides CurrentResolver when set.
	resolver Resolver

	once     sync.Once
	fn       F
	addr     atomic.Uintptr
	resolved atomic.Bool
}

// NewCell creates the cell for symbol and registers it. bind turns the raw
// address into a callable F; it runs once, right after a successful lookup,
// and is the only place the untyped address is seen.
//
// NewCell panics when symbol is empty, bind is nil, or symbol already has a
// cell: one hook per exported symbol.
func NewCell[F any](symbol, library string, bind func(addr unsafe.Pointer) F) *Cell[F] {
	c := newCell(symbol, library, bind, nil)
	register(c)
	return c
}

func newCell[F any](symbol, library string, bind func(addr unsafe.Pointer) F, r Resolver) *Cell[F] {
	if symbol == "" {
		panic("hook: empty symbol")
	}
	if bind == nil {
		panic("hook: nil bind function for symbol " + symbol)
	}
	return &Cell[F]{symbol: symbol, library: library, bind: bind, resolver: r}
}

// Get returns the original, resolving it on first use. Concurrent first
// callers block until the single lookup has been committed.
func (c *Cell[F]) Get() F {
	c.once.Do(c.resolve)
	return c.fn
}

func (c *Cell[F]) resolve() {
	r := c.resolver
	if r == nil {
		r = CurrentResolver()
	}

	addr, err := r.Resolve(c.symbol, c.library)
	if err == nil && addr == nil {
		err = ErrSymbolNotFound
	}
	if err != nil {
		fatal(c.symbol, c.library, r.Handle(c.library), err)
		return
	}

	c.fn = c.bind(addr)
	c.addr.Store(uintptr(addr))
	c.resolved.Store(true)
}

// Symbol is the exported name this cell resolves.
func (c *Cell[F]) Symbol() string { return c.symbol }

// Library is the advisory library hint given in the hook directive.
func (c *Cell[F]) Library() string { return c.library }

// Resolved reports whether the original has been committed.
func (c *Cell[F]) Resolved() bool { return c.resolved.Load() }

// Status snapshots the cell.
func (c *Cell[F]) Status() Status {
	return Status{
		Symbol:   c.symbol,
		Library:  c.library,
		Resolved: c.resolved.Load(),
		Addr:     c.addr.Load(),
	}
}
