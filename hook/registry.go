package hook

import (
	"fmt"
	"sort"
	"sync"
)

// Status describes one registered cell.
type Status struct {
	Symbol   string
	Library  string
	Resolved bool
	// Addr is zero until Resolved.
	Addr uintptr
}

type entry interface {
	Status() Status
}

var (
	registryMu sync.RWMutex
	registry   = map[string]entry{}
)

func register(e entry) {
	symbol := e.Status().Symbol

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, ok := registry[symbol]; ok {
		panic(fmt.Errorf("hook: symbol %q registered twice", symbol))
	}
	registry[symbol] = e
}

// Lookup returns the status of the cell registered for symbol.
func Lookup(symbol string) (Status, bool) {
	registryMu.RLock()
	e, ok := registry[symbol]
	registryMu.RUnlock()

	if !ok {
		return Status{}, false
	}
	return e.Status(), true
}

// Registered returns the status of every cell, sorted by symbol.
func Registered() []Status {
	registryMu.RLock()
	out := make([]Status, 0, len(registry))
	for _, e := range registry {
		out = append(out, e.Status())
	}
	registryMu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
