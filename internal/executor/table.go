package executor

import (
	"context"

	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/ir"
)

// execTableOp dispatches every table.* instruction. Slot conventions (which
// of A/B/Cond/Index/Aux hold what) are fixed per op.Kind and can be read
// off each case below, mirroring how the same fields serve different purposes across
// OpKinds generally (see opkind.go).
func (e *Executor) execTableOp(ctx context.Context, op ir.Op) {
	inst := e.store.Instances.Resolve(e.instance)

	switch op.Kind {
	case ir.OpTableGet:
		tbl := e.store.Tables.Resolve(inst.Tables[op.Index])
		idx := e.get(op.A).U64()
		if idx >= tbl.Len() {
			trap(ir.TrapTableOutOfBounds)
		}
		e.set(op.Result, tbl.Elements[idx])

	case ir.OpTableSet:
		tbl := e.store.Tables.Resolve(inst.Tables[op.Index])
		idx := e.get(op.A).U64()
		if idx >= tbl.Len() {
			trap(ir.TrapTableOutOfBounds)
		}
		tbl.Elements[idx] = e.get(op.B)

	case ir.OpTableSize:
		tbl := e.store.Tables.Resolve(inst.Tables[op.Index])
		e.set(op.Result, cell.FromU64(tbl.Len()))

	case ir.OpTableGrow:
		tbl := e.store.Tables.Resolve(inst.Tables[op.Index])
		delta := e.get(op.A).U64()
		fill := e.get(op.B)
		previous, ok := e.store.GrowTable(ctx, tbl, delta, fill)
		if !ok {
			e.set(op.Result, cell.FromU64(growFailedSentinel))
			return
		}
		e.set(op.Result, cell.FromU64(previous))

	case ir.OpTableFill:
		tbl := e.store.Tables.Resolve(inst.Tables[op.Index])
		start := e.get(op.A).U64()
		val := e.get(op.B)
		n := e.get(op.Cond).U64()
		e.chargeBulk(n)
		if start+n > tbl.Len() {
			trap(ir.TrapTableOutOfBounds)
		}
		for i := uint64(0); i < n; i++ {
			tbl.Elements[start+i] = val
		}
		e.chargeBulkLazy(n)

	case ir.OpTableCopy:
		dst := e.store.Tables.Resolve(inst.Tables[op.Index])
		src := e.store.Tables.Resolve(inst.Tables[op.Aux])
		dstStart := e.get(op.A).U64()
		srcStart := e.get(op.B).U64()
		n := e.get(op.Cond).U64()
		e.chargeBulk(n)
		if dstStart+n > dst.Len() || srcStart+n > src.Len() {
			trap(ir.TrapTableOutOfBounds)
		}
		copy(dst.Elements[dstStart:dstStart+n], src.Elements[srcStart:srcStart+n])
		e.chargeBulkLazy(n)

	case ir.OpTableInit:
		tbl := e.store.Tables.Resolve(inst.Tables[op.Index])
		seg := e.store.Elems.Resolve(inst.Elems[op.Aux])
		dstStart := e.get(op.A).U64()
		srcStart := e.get(op.B).U64()
		n := e.get(op.Cond).U64()
		e.chargeBulk(n)
		if seg.Dropped && n > 0 {
			trap(ir.TrapTableOutOfBounds)
		}
		if dstStart+n > tbl.Len() || srcStart+n > uint64(len(seg.Values)) {
			trap(ir.TrapTableOutOfBounds)
		}
		copy(tbl.Elements[dstStart:dstStart+n], seg.Values[srcStart:srcStart+n])
		e.chargeBulkLazy(n)

	case ir.OpElemDrop:
		seg := e.store.Elems.Resolve(inst.Elems[op.Aux])
		seg.Drop()

	default:
		internalErrorf("execTableOp: unhandled kind %d", op.Kind)
	}
}

// growFailedSentinel is the u64-encoded -1 returned by table.grow/memory.grow
// when growth is denied, per spec.md §7 "grow returns its sentinel value".
const growFailedSentinel = ^uint64(0)

// chargeBulk consumes fuel for a bulk operation over n elements, eagerly
// (before bounds/validity checks) or lazily (only after they pass)
// depending on the Executor's configured FuelMode. Here it runs before the
// caller's own bounds check, matching the eager half of the Open Question
// in spec.md §9; lazy callers invoke chargeBulkLazy after success instead.
func (e *Executor) chargeBulk(n uint64) {
	if !e.store.FuelEnabled || e.bulkFuelMode != FuelEager {
		return
	}
	if !e.store.ConsumeFuel(e.bulkOpCost(n)) {
		trap(ir.TrapOutOfFuel)
	}
}

// chargeBulkLazy is chargeBulk's counterpart for FuelLazy mode, called
// after a bulk operation has already completed successfully.
func (e *Executor) chargeBulkLazy(n uint64) {
	if !e.store.FuelEnabled || e.bulkFuelMode != FuelLazy {
		return
	}
	if !e.store.ConsumeFuel(e.bulkOpCost(n)) {
		trap(ir.TrapOutOfFuel)
	}
}
