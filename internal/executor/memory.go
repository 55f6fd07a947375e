package executor

import (
	"context"

	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/ir"
	"github.com/vmwasm/vmwasm/internal/wasmstore"
)

// execMemoryOp dispatches memory.* and the segment-drop instructions. Slot
// conventions mirror execTableOp's: op.Cond carries the shared "length"
// operand the three-operand bulk ops need beyond A/B.
func (e *Executor) execMemoryOp(ctx context.Context, op ir.Op) {
	inst := e.store.Instances.Resolve(e.instance)

	switch op.Kind {
	case ir.OpMemorySize:
		mem := e.resolveMem(inst, op.Index)
		e.set(op.Result, cell.FromU64(mem.Pages()))

	case ir.OpMemoryGrow:
		mem := e.resolveMem(inst, op.Index)
		delta := e.get(op.A).U64()
		previous, ok := e.store.GrowMemory(ctx, mem, delta)
		if op.Index == 0 {
			e.refreshMem0(ctx)
		}
		if !ok {
			e.set(op.Result, cell.FromU64(growFailedSentinel))
			return
		}
		e.set(op.Result, cell.FromU64(previous))

	case ir.OpMemoryFill:
		mem := e.resolveMem(inst, op.Index)
		start := e.get(op.A).U64()
		val := byte(e.get(op.B).U32())
		n := e.get(op.Cond).U64()
		e.chargeBulk(n)
		boundsCheckRange(mem.Data, start, n)
		for i := uint64(0); i < n; i++ {
			mem.Data[start+i] = val
		}
		e.chargeBulkLazy(n)

	case ir.OpMemoryCopy:
		dst := e.resolveMem(inst, op.Index)
		src := e.resolveMem(inst, op.Aux)
		dstStart := e.get(op.A).U64()
		srcStart := e.get(op.B).U64()
		n := e.get(op.Cond).U64()
		e.chargeBulk(n)
		boundsCheckRange(dst.Data, dstStart, n)
		boundsCheckRange(src.Data, srcStart, n)
		copy(dst.Data[dstStart:dstStart+n], src.Data[srcStart:srcStart+n])
		e.chargeBulkLazy(n)

	case ir.OpMemoryInit:
		mem := e.resolveMem(inst, op.Index)
		seg := e.store.Datas.Resolve(inst.Datas[op.Aux])
		dstStart := e.get(op.A).U64()
		srcStart := e.get(op.B).U64()
		n := e.get(op.Cond).U64()
		e.chargeBulk(n)
		if seg.Dropped && n > 0 {
			trap(ir.TrapMemoryOutOfBounds)
		}
		boundsCheckRange(mem.Data, dstStart, n)
		if srcStart+n > uint64(len(seg.Bytes)) {
			trap(ir.TrapMemoryOutOfBounds)
		}
		copy(mem.Data[dstStart:dstStart+n], seg.Bytes[srcStart:srcStart+n])
		e.chargeBulkLazy(n)

	case ir.OpDataDrop:
		seg := e.store.Datas.Resolve(inst.Datas[op.Aux])
		seg.Drop()

	default:
		internalErrorf("execMemoryOp: unhandled kind %d", op.Kind)
	}
}

func (e *Executor) resolveMem(inst *wasmstore.Instance, idx uint32) *wasmstore.Memory {
	return e.store.Memories.Resolve(inst.Memories[idx])
}

func boundsCheckRange(mem []byte, start, n uint64) {
	if start+n > uint64(len(mem)) || start+n < start {
		trap(ir.TrapMemoryOutOfBounds)
	}
}
