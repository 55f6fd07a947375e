package ir

// BranchOffset is added to the instruction pointer on a taken branch. The
// zero value is also the "uninitialised" sentinel a branch carries until
// label resolution (internal/translator) patches it. A resolved offset can
// itself be zero: a loop branch emitted right at the loop's start targets
// its own index.
type BranchOffset int32

// UninitializedBranchOffset is the sentinel stored at a branch's emission
// site before its destination is known.
const UninitializedBranchOffset BranchOffset = 0

// IsPatched reports whether the offset has been resolved to a concrete
// destination.
func (o BranchOffset) IsPatched() bool { return o != UninitializedBranchOffset }

// FromPositions computes the branch offset from a branch instruction at
// op index src to a destination at op index dst, both plain indices into
// the op slice (parameter words included); the executor adds the offset to
// the branching op's own index, without first stepping past the op.
func FromPositions(src, dst int) BranchOffset {
	return BranchOffset(dst - src)
}

// Comparator identifies the comparison performed by a fused compare-and-
// branch or compare-and-select instruction, or by the generic 64-bit
// fallback encoding (BranchCmpFallback) for operand shapes the dedicated
// short forms cannot address (see op.go).
type Comparator uint8

const (
	CmpI32Eq Comparator = iota
	CmpI32Ne
	CmpI32LtS
	CmpI32LtU
	CmpI32GtS
	CmpI32GtU
	CmpI32LeS
	CmpI32LeU
	CmpI32GeS
	CmpI32GeU
	CmpI32Eqz
	CmpI64Eq
	CmpI64Ne
	CmpI64LtS
	CmpI64LtU
	CmpI64GtS
	CmpI64GtU
	CmpI64LeS
	CmpI64LeU
	CmpI64GeS
	CmpI64GeU
	CmpI64Eqz
	CmpF32Eq
	CmpF32Ne
	CmpF32Lt
	CmpF32Gt
	CmpF32Le
	CmpF32Ge
	CmpF64Eq
	CmpF64Ne
	CmpF64Lt
	CmpF64Gt
	CmpF64Le
	CmpF64Ge
)

// Negate returns the comparator testing the arithmetic opposite condition,
// used by the translator to turn "if (cond) ..." into a single fused
// branch-away op (branch when the condition is false) instead of a branch
// plus a jump. Valid only for integer comparators: float comparisons are
// unordered on NaN (every one of lt/gt/le/ge/eq is false when either
// operand is NaN), so "not lt" is not the same runtime condition as "ge"
// whenever NaN is involved - the translator must not call Negate for a
// float Comparator, and instead materialises the boolean and branches on
// it being zero.
func (c Comparator) Negate() Comparator {
	switch c {
	case CmpI32Eq:
		return CmpI32Ne
	case CmpI32Ne:
		return CmpI32Eq
	case CmpI32LtS:
		return CmpI32GeS
	case CmpI32LtU:
		return CmpI32GeU
	case CmpI32GtS:
		return CmpI32LeS
	case CmpI32GtU:
		return CmpI32LeU
	case CmpI32LeS:
		return CmpI32GtS
	case CmpI32LeU:
		return CmpI32GtU
	case CmpI32GeS:
		return CmpI32LtS
	case CmpI32GeU:
		return CmpI32LtU
	case CmpI32Eqz:
		return CmpI32Ne // caveat: only valid when compared against an implicit zero, see translator
	case CmpI64Eq:
		return CmpI64Ne
	case CmpI64Ne:
		return CmpI64Eq
	case CmpI64LtS:
		return CmpI64GeS
	case CmpI64LtU:
		return CmpI64GeU
	case CmpI64GtS:
		return CmpI64LeS
	case CmpI64GtU:
		return CmpI64LeU
	case CmpI64LeS:
		return CmpI64GtS
	case CmpI64LeU:
		return CmpI64GtU
	case CmpI64GeS:
		return CmpI64LtS
	case CmpI64GeU:
		return CmpI64LtU
	case CmpI64Eqz:
		return CmpI64Ne
	case CmpF32Eq:
		return CmpF32Ne
	case CmpF32Ne:
		return CmpF32Eq
	case CmpF32Lt:
		return CmpF32Ge
	case CmpF32Gt:
		return CmpF32Le
	case CmpF32Le:
		return CmpF32Gt
	case CmpF32Ge:
		return CmpF32Lt
	case CmpF64Eq:
		return CmpF64Ne
	case CmpF64Ne:
		return CmpF64Eq
	case CmpF64Lt:
		return CmpF64Ge
	case CmpF64Gt:
		return CmpF64Le
	case CmpF64Le:
		return CmpF64Gt
	case CmpF64Ge:
		return CmpF64Lt
	default:
		panic("unreachable comparator")
	}
}
