package executor

import (
	"context"

	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/ir"
)

// execBranchTable selects the offset of the arm matching the selector in
// op.A, clamping to the last (default) arm when the selector is out of
// range (spec.md §4.1 "the last entry is the default"), then branches
// directly: branch table offsets, like every other branch offset, are
// relative to the branching op's own position, so no step() precedes it.
func (e *Executor) execBranchTable(op ir.Op) {
	selector := e.get(op.A).U32()
	n := op.Index
	idx := selector
	if idx >= n-1 {
		idx = n - 1
	}
	target := e.paramWord(1 + int(idx))
	e.branch(target.Offset)
}

// execConsumeFuel charges a basic block's fuel cost, returning a
// Suspension when the store has too little fuel left rather than trapping
// outright, since an out-of-fuel condition is resumable (spec.md §7).
func (e *Executor) execConsumeFuel(op ir.Op) *Suspension {
	if !e.store.FuelEnabled {
		return nil
	}
	amount := op.Imm.U64()
	if e.store.ConsumeFuel(amount) {
		return nil
	}
	return &Suspension{
		OutOfFuel:      true,
		RequiredFuel:   amount,
		CallerInstance: e.instance,
	}
}

// execCopySpan copies a contiguous run of slots within the current frame,
// choosing traversal direction so an overlapping source/destination range
// is never read-after-written (spec.md §4.1's CopySpan). The translator is
// expected to already avoid overlap where it can, but the executor stays
// defensively correct regardless.
func (e *Executor) execCopySpan(op ir.Op) {
	n := uint16(op.Aux)
	results := ir.NewBoundedSlotSpan(op.Result, n)
	values := ir.NewBoundedSlotSpan(op.A, n)

	if !ir.SlotSpansOverlap(results, values) {
		it := values.Iter()
		dst := results.Iter()
		for {
			s, ok := it.Next()
			if !ok {
				break
			}
			d, _ := dst.Next()
			e.set(d, e.get(s))
		}
		return
	}

	for i := int(n) - 1; i >= 0; i-- {
		s := op.A + ir.Slot(i)
		d := op.Result + ir.Slot(i)
		e.set(d, e.get(s))
	}
}

// execReturn unwinds the current frame, delivering vals into the caller's
// reserved result span. Returning true means the call stack is now down to
// the root frame (results already sit in its own slot 0.. region for
// Execute's collectResults to read); the root frame is deliberately never
// popped so that path can do so.
func (e *Executor) execReturn(ctx context.Context, vals []cell.Cell) (done bool) {
	frame := e.calls.Top()
	if frame.CallerIP < 0 {
		for i, v := range vals {
			e.values.Set(frame.FrameBase, ir.Slot(i), v)
		}
		return true
	}

	popped := e.calls.Pop()
	e.values.FreeFrame(popped.FrameBase, popped.NumConsts)

	caller := e.calls.Top()
	it := popped.ResultSpan.Iter()
	for _, v := range vals {
		s, _ := it.Next()
		e.values.Set(caller.FrameBase, s, v)
	}

	e.ip = popped.CallerIP
	e.instance = caller.Instance
	e.refreshMem0(ctx)
	return false
}
