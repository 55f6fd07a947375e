package translator

import (
	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/ir"
	"github.com/vmwasm/vmwasm/internal/wasmstore"
)

// operandKind tags which of operand's fields are meaningful, mirroring the
// three operand-stack entry shapes spec.md §4.2 names plus a fourth the
// translator adds for lazy comparator materialisation (see cmpResult
// below, and item 4 "Fused compare-and-branch").
type operandKind byte

const (
	// local aliases a function local; resolving it never emits an op
	// (reads go straight to the local's slot) unless an aliasing hazard
	// forces preservation (spec.md §4.2 item 2).
	local operandKind = iota
	// temp names an already-materialised intermediate value.
	temp
	// immediate is a constant not yet written to any slot.
	immediate
	// cmpResult is the not-yet-materialised boolean result of a comparator
	// operator, kept symbolic so a following br_if/if/select can fuse it
	// directly instead of paying for an OpCompare first.
	cmpResult
)

// valueSrc names where a comparator's already-resolved operand lives: a
// slot, or (for the ImmRHS-shaped fused forms) an inlined immediate.
type valueSrc struct {
	isImm bool
	imm   cell.Cell
	slot  ir.Slot
}

// operand is one entry of the translator's simulated Wasm operand stack.
type operand struct {
	kind operandKind
	ty   wasmstore.ValueType

	localIdx uint32    // local
	slot     ir.Slot   // temp
	imm      cell.Cell // immediate

	cmp  ir.Comparator // cmpResult
	cmpA ir.Slot       // cmpResult: left operand, always already resolved to a slot
	cmpB valueSrc      // cmpResult: right operand, may stay an inlined immediate
}

func localOperand(idx uint32, ty wasmstore.ValueType) operand {
	return operand{kind: local, localIdx: idx, ty: ty}
}

func tempOperand(s ir.Slot, ty wasmstore.ValueType) operand {
	return operand{kind: temp, slot: s, ty: ty}
}

func immOperand(v cell.Cell, ty wasmstore.ValueType) operand {
	return operand{kind: immediate, imm: v, ty: ty}
}

func cmpOperand(cmp ir.Comparator, a ir.Slot, b valueSrc, ty wasmstore.ValueType) operand {
	return operand{kind: cmpResult, cmp: cmp, cmpA: a, cmpB: b, ty: ty}
}

// isFloatCompare reports whether o's comparator operates on floats, where
// Comparator.Negate is unsound (see branch.go).
func (o operand) isFloatCompare() bool {
	return o.cmp >= ir.CmpF32Eq
}
