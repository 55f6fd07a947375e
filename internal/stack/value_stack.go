// Package stack implements the value stack and call stack the executor
// runs on: a single resizable vector of cells partitioned into call
// frames, and a parallel stack of frame metadata (spec.md §4.4).
package stack

import (
	"github.com/vmwasm/vmwasm/internal/arena"
	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/ir"
)

// ValueStack is a single resizable vector of cells with a pre-declared
// maximum, holding every call frame's constants and mutable slots
// contiguously. Unlike a pointer-based implementation, base offsets here
// are plain indices into Values, so growth (an append-triggered
// reallocation) never invalidates them — only cached raw pointers would
// need re-deriving, and this package never hands one out. This is the
// idiomatic-Go reading of spec.md §4.4's "sp is invalidated by any
// operation that may grow the stack": the executor still must not assume
// a slice *header* it captured before a push-frame remains valid, which is
// why BaseOffset (an int) rather than a sub-slice is what callers retain
// across a call.
type ValueStack struct {
	Values []cell.Cell
	Max    int
}

// NewValueStack creates a ValueStack preallocated to initialCells, capped
// at maxCells (spec.md §6 Config.stack_limits).
func NewValueStack(initialCells, maxCells int) *ValueStack {
	return &ValueStack{
		Values: make([]cell.Cell, 0, initialCells),
		Max:    maxCells,
	}
}

// Reset truncates the stack for reuse across invocations (pooled stacks,
// spec.md §5 "pooled stacks... guarded by a mutex at the engine level").
func (v *ValueStack) Reset() { v.Values = v.Values[:0] }

// AllocFrame reserves a new call frame for fn: len(fn.Consts) constant
// cells (copied from fn's embedded pool in reverse, so fn.Consts[0] sits
// right below the base at slot -1) immediately followed by
// fn.NumSlots zero-initialized mutable cells. Returns the BaseOffset the
// callee's slot 0 sits at (i.e. immediately after the copied constants).
//
// Traps StackOverflow (returns ok=false) if the new frame would exceed Max
// cells, per spec.md §8 "A call that would push a frame exceeding
// stack_limits.max_cells traps StackOverflow".
func (v *ValueStack) AllocFrame(fn *ir.CompiledFunction) (base int, ok bool) {
	need := fn.FrameSize()
	if len(v.Values)+need > v.Max {
		return 0, false
	}
	for i := len(fn.Consts) - 1; i >= 0; i-- {
		v.Values = append(v.Values, fn.Consts[i])
	}
	base = len(v.Values)
	for i := uint32(0); i < fn.NumSlots; i++ {
		v.Values = append(v.Values, cell.Zero)
	}
	return base, true
}

// FreeFrame truncates the stack back to base minus the constant count that
// preceded it, undoing the effect of AllocFrame.
func (v *ValueStack) FreeFrame(base int, numConsts int) {
	v.Values = v.Values[:base-numConsts]
}

// Get reads the cell at base+slot, honoring negative (constant-pool)
// indices per internal/ir.Slot's convention.
func (v *ValueStack) Get(base int, s ir.Slot) cell.Cell {
	return v.Values[base+int(s)]
}

// Set writes the cell at base+slot. Writing a negative (constant) slot is
// a translator bug — constants are immutable once a frame is allocated —
// and is allowed to corrupt the constant pool precisely because spec.md
// treats this as an internal invariant the translator guarantees by
// construction, not a runtime check the executor re-verifies per write.
func (v *ValueStack) Set(base int, s ir.Slot, val cell.Cell) {
	v.Values[base+int(s)] = val
}

// Slice returns the live window [base+lo, base+hi) for bulk operations
// (argument copying, CopySpan, host-call windows).
func (v *ValueStack) Slice(base int, lo, hi ir.Slot) []cell.Cell {
	return v.Values[base+int(lo) : base+int(hi)]
}

// Len returns the current stack height in cells.
func (v *ValueStack) Len() int { return len(v.Values) }

// CallFrame is the call stack's per-active-call metadata: saved
// instruction pointer, the base offset of the frame below it on the value
// stack, the span results must land in, and the instance to restore on
// return (spec.md §4.4).
type CallFrame struct {
	// CallerIP is the instruction index to resume at in the caller, or -1
	// for a host-root call with no Wasm caller to return into.
	CallerIP int
	// CallerBase is the value-stack BaseOffset of the calling frame.
	CallerBase int
	// CallerNumConsts is the constant-pool size of the calling frame,
	// needed to compute FreeFrame's truncation point on return.
	CallerNumConsts int
	// ResultSpan is the slot range (in the *caller's* frame) this call's
	// results must be written into.
	ResultSpan ir.BoundedSlotSpan
	// Instance is the instance this frame executes against. A tail call
	// inherits the caller's instance when it targets the same instance
	// (HasInstance=false signals "no change").
	Instance    arena.Handle
	HasInstance bool

	// Func identifies the function being executed in this frame, used to
	// resolve fn.Ops/fn.Consts without a second lookup each step.
	Func *ir.CompiledFunction
	// FrameBase is this frame's own BaseOffset (slot 0), as distinct from
	// CallerBase which belongs to the frame below it.
	FrameBase int
	NumConsts int
}

// CallStack is the stack of active CallFrames.
type CallStack struct {
	Frames []CallFrame
	// Ceiling bounds recursion depth independent of value-stack capacity,
	// so deep non-tail recursion traps StackOverflow promptly rather than
	// only once the value stack itself is exhausted.
	Ceiling int
}

// NewCallStack creates a CallStack with the given recursion ceiling.
func NewCallStack(ceiling int) *CallStack { return &CallStack{Ceiling: ceiling} }

// Push appends a new active frame, returning ok=false (StackOverflow) if
// doing so would exceed the configured recursion ceiling.
func (c *CallStack) Push(f CallFrame) (ok bool) {
	if len(c.Frames) >= c.Ceiling {
		return false
	}
	c.Frames = append(c.Frames, f)
	return true
}

// Pop removes and returns the top frame.
func (c *CallStack) Pop() CallFrame {
	n := len(c.Frames) - 1
	f := c.Frames[n]
	c.Frames = c.Frames[:n]
	return f
}

// Top returns a pointer to the active (top) frame for in-place mutation,
// used by tail calls to replace the current frame rather than pushing a
// new one (spec.md §4.3 "Tail call... Replace the current frame in
// place").
func (c *CallStack) Top() *CallFrame { return &c.Frames[len(c.Frames)-1] }

// IsEmpty reports whether no frame is active.
func (c *CallStack) IsEmpty() bool { return len(c.Frames) == 0 }

// Depth returns the current number of active frames.
func (c *CallStack) Depth() int { return len(c.Frames) }

// Reset empties the call stack for reuse.
func (c *CallStack) Reset() { c.Frames = c.Frames[:0] }
