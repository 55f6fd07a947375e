// Package translator lowers a decoded Wasm function body (internal/wasmops)
// into the register-based IR internal/executor runs (internal/ir). It is a
// single forward pass over the operator stream: no separate optimisation
// pass, no SSA construction - values are tracked on a simulated operand
// stack exactly as Wasm's own stack-machine semantics describe, and that
// stack's entries are lowered to concrete slots lazily, only when a
// consumer actually forces materialisation.
package translator

import (
	"fmt"

	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/executor"
	"github.com/vmwasm/vmwasm/internal/ir"
	"github.com/vmwasm/vmwasm/internal/wasmops"
	"github.com/vmwasm/vmwasm/internal/wasmstore"
)

// Translator compiles one function body at a time; New returns a reusable
// instance (each Compile call resets its per-function state), mirroring how
// a module's functions are translated one after another by the same
// engine-owned translator value.
type Translator struct {
	mod        *ModuleContext
	fuelCosts  executor.FuelCosts
	fuelEnabled bool

	sig    *wasmstore.FunctionType
	locals []wasmstore.ValueType // params ++ declared locals, indexed by local index

	layout        *layout
	transferPools map[int][]ir.Slot

	ops        []ir.Op
	costVector ir.CostVector
	stack      []operand
	ctrl       []*ctrlFrame

	unreachable bool

	curFuelOp int // index of the active basic block's OpConsumeFuel, -1 if fuel metering is off

	// returnTrampolines caches, per result arity, the op index of a small
	// shared "read the arity-keyed transfer pool and return" sequence a
	// br_table arm targeting the function itself can jump to (see
	// control_flow.go's doBrTable): created lazily the first time it is
	// needed and reused by every later br_table arm of the same arity.
	returnTrampolines map[int]int
}

// New creates a Translator for a module, reused across every function the
// module defines.
func New(mod *ModuleContext, fuelCosts executor.FuelCosts, fuelEnabled bool) *Translator {
	return &Translator{mod: mod, fuelCosts: fuelCosts, fuelEnabled: fuelEnabled}
}

// Compile translates one function body into a CompiledFunction. sig is the
// function's own signature (its type-section entry); body is the already
// locals-expanded, already-validated operator sequence.
func (t *Translator) Compile(sig *wasmstore.FunctionType, body wasmops.FunctionBody) (cf *ir.CompiledFunction, err error) {
	defer func() {
		if r := recover(); r != nil {
			if terr, ok := r.(translateError); ok {
				cf, err = nil, fmt.Errorf("translate: %s", string(terr))
				return
			}
			panic(r)
		}
	}()

	t.sig = sig
	t.locals = append(append([]wasmstore.ValueType{}, sig.Params...), body.Locals...)
	t.layout = newLayout()
	t.layout.reserve(uint16(len(t.locals)))
	t.transferPools = map[int][]ir.Slot{}
	t.returnTrampolines = map[int]int{}
	t.ops = nil
	t.costVector = nil
	t.stack = nil
	t.ctrl = nil
	t.unreachable = false
	t.curFuelOp = -1

	for i, ty := range sig.Params {
		t.push(localOperand(uint32(i), ty))
	}
	t.startBlock()

	for _, ins := range body.Code {
		t.translateOne(ins)
	}

	if !t.unreachable {
		t.emitImplicitReturn()
	}

	return &ir.CompiledFunction{
		Ops:        t.ops,
		Consts:     t.layout.consts,
		NumSlots:   t.layout.numSlots,
		Costs:      t.costVector,
		NumParams:  uint16(len(sig.Params)),
		NumResults: uint16(len(sig.Results)),
	}, nil
}

// translateError is panicked by translateOne on a malformed operator
// sequence (an out-of-range local/global/depth index, say) and recovered by
// Compile into an ordinary error return - the parser/validator is assumed to
// have already rejected anything worse than this, so these are translator-
// internal consistency checks, not a substitute for validation.
type translateError string

func fail(format string, args ...any) {
	panic(translateError(fmt.Sprintf(format, args...)))
}

// --- operand stack -----------------------------------------------------

func (t *Translator) push(o operand) { t.stack = append(t.stack, o) }

// pop removes and returns the top operand. In unreachable (dead) code the
// stack is polymorphic - validation allows popping types that were never
// actually pushed - so an empty stack there yields a dummy operand rather
// than underflowing; the value is never observed at run time since dead
// code never executes.
func (t *Translator) pop() operand {
	if len(t.stack) == 0 {
		if t.unreachable {
			return immOperand(cell.Zero, wasmstore.ValueTypeI32)
		}
		fail("operand stack underflow")
	}
	o := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	return o
}

// popN pops n operands, returning them in original (bottom-to-top) order.
func (t *Translator) popN(n int) []operand {
	out := make([]operand, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = t.pop()
	}
	return out
}

// --- emission ------------------------------------------------------------

// emit appends op to the instruction stream, returning its index, and
// accrues its fuel cost into the enclosing basic block's OpConsumeFuel
// amount (spec.md §4.2 item 8's per-basic-block metering).
func (t *Translator) emit(op ir.Op) int {
	idx := len(t.ops)
	t.ops = append(t.ops, op)
	cost := t.opCost(op)
	t.costVector = append(t.costVector, cost)
	if t.fuelEnabled && t.curFuelOp >= 0 {
		cur := t.ops[t.curFuelOp]
		cur.Imm = cell.FromU64(cur.Imm.U64() + cost)
		t.ops[t.curFuelOp] = cur
	}
	return idx
}

func (t *Translator) opCost(op ir.Op) uint64 {
	switch op.Kind {
	case ir.OpLoad, ir.OpLoadAbs:
		return t.fuelCosts.Load
	case ir.OpStore, ir.OpStoreImm:
		return t.fuelCosts.Store
	case ir.OpCall, ir.OpCallIndirect, ir.OpReturnCall, ir.OpReturnCallIndirect:
		return t.fuelCosts.Call
	case ir.OpGlobalGet, ir.OpGlobalSet, ir.OpRefFunc,
		ir.OpTableGet, ir.OpTableSet, ir.OpTableSize, ir.OpTableGrow, ir.OpTableFill, ir.OpTableInit, ir.OpTableCopy,
		ir.OpMemorySize, ir.OpMemoryGrow, ir.OpMemoryFill, ir.OpMemoryCopy, ir.OpMemoryInit, ir.OpDataDrop, ir.OpElemDrop:
		return t.fuelCosts.Entity
	default:
		return t.fuelCosts.Base
	}
}

// startBlock opens a fresh basic block: a new OpConsumeFuel head that will
// accumulate the cost of every op emitted until the next startBlock call.
// Emitted directly rather than through emit (which would otherwise charge
// the meter's own existence against itself).
func (t *Translator) startBlock() {
	if !t.fuelEnabled {
		t.curFuelOp = -1
		return
	}
	idx := len(t.ops)
	t.ops = append(t.ops, ir.Op{Kind: ir.OpConsumeFuel})
	t.costVector = append(t.costVector, 0)
	t.curFuelOp = idx
}

// --- operand resolution --------------------------------------------------

// materialize resolves o to a concrete slot, emitting whatever op is needed
// to produce its value there. A local read is free (its slot already holds
// the value); an immediate is interned into the read-only constant pool
// rather than copied anywhere, which is also free; only a cmpResult forces
// an actual instruction (OpCompare/OpCompareImm).
func (t *Translator) materialize(o operand) ir.Slot {
	switch o.kind {
	case local:
		return ir.Slot(o.localIdx)
	case temp:
		return o.slot
	case immediate:
		return t.layout.internConst(o.imm)
	case cmpResult:
		return t.materializeCompare(o)
	default:
		fail("materialize: unknown operand kind %d", o.kind)
		return 0
	}
}

func (t *Translator) materializeCompare(o operand) ir.Slot {
	dst := t.layout.alloc()
	if o.cmpB.isImm {
		t.emit(ir.Op{Kind: ir.OpCompareImm, Result: dst, A: o.cmpA, Cmp: o.cmp, Imm: o.cmpB.imm})
	} else {
		t.emit(ir.Op{Kind: ir.OpCompare, Result: dst, A: o.cmpA, B: o.cmpB.slot, Cmp: o.cmp})
	}
	return dst
}

// materializeInto writes o's value directly into dst, for the cases (block/
// loop/if label transfer, call result spans) where the destination slot is
// already chosen rather than left for materialize to pick.
func (t *Translator) materializeInto(o operand, dst ir.Slot) {
	switch o.kind {
	case local:
		if ir.Slot(o.localIdx) == dst {
			return
		}
		t.emit(ir.Op{Kind: ir.OpCopy, Result: dst, A: ir.Slot(o.localIdx)})
	case temp:
		if o.slot == dst {
			return
		}
		t.emit(ir.Op{Kind: ir.OpCopy, Result: dst, A: o.slot})
	case immediate:
		t.emit(ir.Op{Kind: ir.OpCopyImm, Result: dst, Imm: o.imm})
	case cmpResult:
		if o.cmpB.isImm {
			t.emit(ir.Op{Kind: ir.OpCompareImm, Result: dst, A: o.cmpA, Cmp: o.cmp, Imm: o.cmpB.imm})
		} else {
			t.emit(ir.Op{Kind: ir.OpCompare, Result: dst, A: o.cmpA, B: o.cmpB.slot, Cmp: o.cmp})
		}
	default:
		fail("materializeInto: unknown operand kind %d", o.kind)
	}
}

// valSrc resolves o for a binary/compare op's right-hand operand, staying
// an inlined immediate when legal (letting the caller choose the ImmRHS-
// shaped op) instead of always forcing a slot.
func (t *Translator) valSrc(o operand) valueSrc {
	if o.kind == immediate {
		return valueSrc{isImm: true, imm: o.imm}
	}
	return valueSrc{slot: t.materialize(o)}
}

// freshTemp allocates a new temporary slot, independent of any operand.
func (t *Translator) freshTemp() ir.Slot { return t.layout.alloc() }

// release returns a temp operand's slot to the free pool once it has been
// consumed; a no-op for any other operand kind (locals and not-yet-resolved
// operands own no slot to free).
func (t *Translator) release(o operand) {
	if o.kind == temp {
		t.layout.release(o.slot)
	}
}
