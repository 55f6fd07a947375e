package ir

import "github.com/vmwasm/vmwasm/internal/cell"

// Op is one IR instruction: a fixed-size tagged record. Not every field is
// meaningful for every Kind; Kind alone determines which fields the
// executor's handler reads, exactly as spec.md §4.1 describes a "tagged
// union of fields". Go has no cheap way to bit-pack a true union the way
// the teacher's assembly-backed JIT does, so Op is a plain struct; the
// size cost (a few dozen bytes per op versus one 64-bit word) is the
// idiomatic Go tradeoff and is called out in DESIGN.md.
type Op struct {
	Kind   OpKind
	Result Slot
	A      Slot
	B      Slot
	Cond   Slot // condition slot for OpSelect
	Imm    cell.Cell
	Offset BranchOffset
	Index  uint32 // table/memory/global/func/elem/data index
	NumOp  NumOp
	Cmp    Comparator
	Aux    uint32 // span length, trap code, lane index, etc. depending on Kind
}

// NumParamWords returns how many ParamWord entries follow this Op in the
// instruction stream, so the executor always knows how far to advance ip
// after handling the primary op (spec.md §4.1 "Instruction pointer
// invariants").
func (o Op) NumParamWords() int {
	switch o.Kind {
	case OpBranchCmpFallback:
		return 1
	case OpBranchTable:
		return int(o.Index) // one target per declared arm, including default
	case OpCall, OpReturnCall:
		return paramWordsForArgs(int(o.Aux))
	case OpCallIndirect, OpReturnCallIndirect:
		return paramWordsForArgs(int(o.Aux))
	default:
		return 0
	}
}

// paramWordsForArgs computes how many 3-slot-wide ParamWord groups are
// needed to carry argCount argument slots, per spec.md §4.1 "parameter
// lists follow as register-list parameter words grouped in threes until
// exhausted".
func paramWordsForArgs(argCount int) int {
	return (argCount + 2) / 3
}

// ParamWord is a parameter word following a primary Op in the flat op
// stream: it reuses Op's own field layout (spec.md §4.1 calls these
// "uninterpreted opcode slots", i.e. the same fixed-width record as any
// other op, just never reached by the dispatch switch - only the
// preceding primary op's handler reads its fields directly). Kept as a
// distinct name rather than a second copy of Op to make call sites that
// build/read parameter words self-documenting.
type ParamWord = Op

// ArgGroup packs up to three argument slots into one ParamWord.
func ArgGroup(a, b, c Slot, n int) ParamWord {
	p := ParamWord{A: a}
	switch n {
	case 1:
		p.B = -1 // unused marker; only A meaningful
	case 2:
		p.B = b
	case 3:
		p.B = b
		p.Imm = cell.Cell(uint16(c))
	}
	return p
}

// BranchTableTarget builds the ParamWord form used by OpBranchTable
// entries: the branch offset for that arm.
func BranchTableTarget(off BranchOffset) ParamWord {
	return ParamWord{Offset: off}
}

// FallbackCmpWord builds the single parameter word used by
// OpBranchCmpFallback: the comparator together with the 32-bit branch
// offset, packed into one slot-resident word per spec.md §4.1.
func FallbackCmpWord(cmp Comparator, off BranchOffset) ParamWord {
	return ParamWord{Imm: cell.Cell(uint64(cmp)<<32 | uint64(uint32(off)))}
}

// DecodeFallbackCmpWord is the inverse of FallbackCmpWord.
func DecodeFallbackCmpWord(p ParamWord) (Comparator, BranchOffset) {
	raw := uint64(p.Imm)
	return Comparator(raw >> 32), BranchOffset(uint32(raw))
}

// ConstPool is a compiled function's embedded constant table, addressed by
// negative Slot indices growing downward from -1 (see slot.go).
type ConstPool []cell.Cell

// Get returns the constant cell named by a constant-space Slot.
func (p ConstPool) Get(s Slot) cell.Cell {
	return p[s.ConstIndex()]
}
