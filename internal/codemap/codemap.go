// Package codemap allocates and resolves compiled function bodies. A
// CodeMap is owned by an engine (not a single store) and shared read-only
// across every store that engine serves once a module's functions are
// compiled, per spec.md §5: "Multiple stores may execute in parallel on
// different threads; they share only the immutable code map of the engine
// (protected by a read-write lock for compile-on-first-call and read-only
// afterwards)".
package codemap

import (
	"sync"

	"github.com/vmwasm/vmwasm/internal/ir"
)

// EngineFunc is a stable handle to a compiled function body, valid for the
// lifetime of the CodeMap that allocated it.
type EngineFunc uint32

// CompileFunc lazily produces a CompiledFunction the first time its
// EngineFunc is resolved, for CompilationMode=lazy (spec.md §6).
type CompileFunc func() (*ir.CompiledFunction, error)

type entry struct {
	once    sync.Once
	fn      *ir.CompiledFunction
	compile CompileFunc // nil once resolved, or nil from the start for eager entries
	err     error
}

// CodeMap allocates and resolves compiled function bodies.
type CodeMap struct {
	mu      sync.RWMutex
	entries []*entry
}

// New creates an empty CodeMap.
func New() *CodeMap { return &CodeMap{} }

// AllocateEager reserves a slot holding an already-compiled function
// (CompilationMode=eager: translation happens at module load).
func (c *CodeMap) AllocateEager(fn *ir.CompiledFunction) EngineFunc {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := &entry{fn: fn}
	c.entries = append(c.entries, e)
	return EngineFunc(len(c.entries) - 1)
}

// AllocateLazy reserves a slot that compiles on first Resolve
// (CompilationMode=lazy).
func (c *CodeMap) AllocateLazy(compile CompileFunc) EngineFunc {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := &entry{compile: compile}
	c.entries = append(c.entries, e)
	return EngineFunc(len(c.entries) - 1)
}

// Resolve returns the compiled function for h, compiling it first if the
// entry was allocated lazily and has not run yet. Concurrent resolutions
// of the same lazy entry compile exactly once (sync.Once); all other
// CodeMap access after compilation is read-only, matching spec.md §5.
func (c *CodeMap) Resolve(h EngineFunc) (*ir.CompiledFunction, error) {
	c.mu.RLock()
	e := c.entries[h]
	c.mu.RUnlock()

	e.once.Do(func() {
		if e.compile != nil {
			e.fn, e.err = e.compile()
			e.compile = nil
		}
	})
	return e.fn, e.err
}

// Len returns the number of allocated entries.
func (c *CodeMap) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
