package executor

import (
	"context"

	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/ir"
	"github.com/vmwasm/vmwasm/internal/stack"
)

// runLoop is the threaded interpreter's dispatch loop (spec.md §4.3
// "Dispatch: a match on the primary opcode invokes the handler..."). It
// runs until the root frame returns (normal return; execReturn never pops
// the root frame itself), a TrapError/HostError
// panic unwinds out of it (caught by Execute/Resume's recover), or a
// resumable suspension is reached (host trap, out of fuel), in which case
// it returns a non-nil *Suspension instead of panicking, since suspension
// is not an error condition.
func (e *Executor) runLoop(ctx context.Context) (*Suspension, error) {
	for {
		frame := e.calls.Top()
		ops := frame.Func.Ops
		if e.ip >= len(ops) {
			internalErrorf("instruction pointer ran off the end of the function body")
		}
		op := ops[e.ip]

		switch op.Kind {
		case ir.OpBinary:
			a, b := e.get(op.A), e.get(op.B)
			v, code, trapped := evalBinary(op.NumOp, a, b)
			if trapped {
				trap(code)
			}
			e.set(op.Result, v)
			e.step(op)

		case ir.OpBinaryImmRHS:
			a := e.get(op.A)
			v, code, trapped := evalBinary(op.NumOp, a, op.Imm)
			if trapped {
				trap(code)
			}
			e.set(op.Result, v)
			e.step(op)

		case ir.OpBinaryImmLHS:
			b := e.get(op.B)
			v, code, trapped := evalBinary(op.NumOp, op.Imm, b)
			if trapped {
				trap(code)
			}
			e.set(op.Result, v)
			e.step(op)

		case ir.OpUnary:
			v, code, trapped := evalUnary(op.NumOp, e.get(op.A))
			if trapped {
				trap(code)
			}
			e.set(op.Result, v)
			e.step(op)

		case ir.OpConvert:
			v, code, trapped := evalConvert(op.NumOp, e.get(op.A))
			if trapped {
				trap(code)
			}
			e.set(op.Result, v)
			e.step(op)

		case ir.OpBranchCmp:
			if evalComparator(op.Cmp, e.get(op.A), e.get(op.B)) {
				e.branch(op.Offset)
				continue
			}
			e.step(op)

		case ir.OpBranchCmpImm:
			if evalComparator(op.Cmp, e.get(op.A), op.Imm) {
				e.branch(op.Offset)
				continue
			}
			e.step(op)

		case ir.OpBranchCmpFallback:
			pw := e.paramWord(1)
			cmp, off := ir.DecodeFallbackCmpWord(pw)
			if evalComparator(cmp, e.get(op.A), e.get(op.B)) {
				e.branch(off)
				continue
			}
			e.step(op)

		case ir.OpCompare:
			e.set(op.Result, cell.FromBool(evalComparator(op.Cmp, e.get(op.A), e.get(op.B))))
			e.step(op)

		case ir.OpCompareImm:
			e.set(op.Result, cell.FromBool(evalComparator(op.Cmp, e.get(op.A), op.Imm)))
			e.step(op)

		case ir.OpSelect:
			if e.get(op.Cond).Bool() {
				e.set(op.Result, e.get(op.A))
			} else {
				e.set(op.Result, e.get(op.B))
			}
			e.step(op)

		case ir.OpSelectCmp:
			if evalComparator(op.Cmp, e.get(op.A), e.get(op.B)) {
				e.set(op.Result, e.get(op.A))
			} else {
				e.set(op.Result, e.get(op.B))
			}
			e.step(op)

		case ir.OpCopy:
			e.set(op.Result, e.get(op.A))
			e.step(op)

		case ir.OpCopyImm:
			e.set(op.Result, op.Imm)
			e.step(op)

		case ir.OpConstRef:
			e.set(op.Result, e.get(op.A))
			e.step(op)

		case ir.OpCopySpan:
			e.execCopySpan(op)
			e.step(op)

		case ir.OpGlobalGet:
			e.execGlobalGet(op)
			e.step(op)

		case ir.OpGlobalSet:
			e.execGlobalSet(op)
			e.step(op)

		case ir.OpRefFunc:
			e.execRefFunc(op)
			e.step(op)

		case ir.OpRefIsNull:
			v := e.get(op.A)
			e.set(op.Result, boolCellFromRefNull(v))
			e.step(op)

		case ir.OpLoad:
			e.execLoad(op)
			e.step(op)

		case ir.OpLoadAbs:
			e.execLoadAbs(op)
			e.step(op)

		case ir.OpStore:
			e.execStore(op)
			e.step(op)

		case ir.OpStoreImm:
			e.execStoreImm(op)
			e.step(op)

		case ir.OpTableGet, ir.OpTableSet, ir.OpTableSize, ir.OpTableGrow,
			ir.OpTableFill, ir.OpTableInit, ir.OpTableCopy:
			e.execTableOp(ctx, op)
			e.step(op)

		case ir.OpMemorySize, ir.OpMemoryGrow, ir.OpMemoryFill,
			ir.OpMemoryCopy, ir.OpMemoryInit, ir.OpDataDrop, ir.OpElemDrop:
			e.execMemoryOp(ctx, op)
			e.step(op)

		case ir.OpBranch:
			e.branch(op.Offset)

		case ir.OpBranchTable:
			e.execBranchTable(op)

		case ir.OpConsumeFuel:
			if susp := e.execConsumeFuel(op); susp != nil {
				return susp, nil
			}
			e.step(op)

		case ir.OpTrap:
			trap(ir.TrapCode(op.Aux))

		case ir.OpReturn:
			if done := e.execReturn(ctx, nil); done {
				return nil, nil
			}

		case ir.OpReturnMany:
			vals := e.collectSpan(op.Result, uint16(op.Aux))
			if done := e.execReturn(ctx, vals); done {
				return nil, nil
			}

		case ir.OpCall:
			if susp := e.execCall(ctx, op); susp != nil {
				return susp, nil
			}

		case ir.OpCallIndirect:
			if susp := e.execCallIndirect(ctx, op); susp != nil {
				return susp, nil
			}

		case ir.OpReturnCall:
			if susp, done := e.execReturnCall(ctx, op); susp != nil || done {
				return susp, nil
			}

		case ir.OpReturnCallIndirect:
			if susp, done := e.execReturnCallIndirect(ctx, op); susp != nil || done {
				return susp, nil
			}

		default:
			internalErrorf("unimplemented op kind %d", op.Kind)
		}
	}
}

// get/set read and write a slot in the current top frame, honoring
// negative (constant-pool) indices transparently.
func (e *Executor) get(s ir.Slot) cell.Cell {
	return e.values.Get(e.curFrame().FrameBase, s)
}

func (e *Executor) set(s ir.Slot, v cell.Cell) {
	e.values.Set(e.curFrame().FrameBase, s, v)
}

// curFrame returns the active call frame.
func (e *Executor) curFrame() *stack.CallFrame { return e.calls.Top() }

// step advances ip past op and its parameter words.
func (e *Executor) step(op ir.Op) {
	e.ip += 1 + op.NumParamWords()
}

// branch applies a branch offset to ip (relative to the op that branched,
// already measured in "primary op" units per ir.FromPositions).
func (e *Executor) branch(off ir.BranchOffset) {
	e.ip += int(off)
}

// paramWord reads the parameter word at the given offset (in op-stream
// units) from the current op.
func (e *Executor) paramWord(n int) ir.ParamWord {
	frame := e.curFrame()
	return frame.Func.Ops[e.ip+n]
}

// collectSpan reads n cells starting at head from the current frame, used
// to gather a multi-value return before popping the frame.
func (e *Executor) collectSpan(head ir.Slot, n uint16) []cell.Cell {
	out := make([]cell.Cell, n)
	for i := uint16(0); i < n; i++ {
		out[i] = e.get(head + ir.Slot(i))
	}
	return out
}

func boolCellFromRefNull(v cell.Cell) cell.Cell {
	return cell.FromBool(v.IsRefNull())
}
