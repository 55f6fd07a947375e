package ir

// OpKind tags the shape of an Op: which of its fields are meaningful and
// how many parameter words (if any) follow it in the op stream. Numeric
// operator *semantics* (what "add" does to two i32 bits) are the concern
// of internal/executor's numeric helpers, deliberately kept out of the IR
// itself per spec.md §1 ("numeric primitives... out of scope, referenced
// only through the interfaces the core consumes"): the IR only needs to
// know the *shape* of an instruction (how many slots, whether an operand
// is immediate, whether a branch follows) to drive translation and
// dispatch, so one OpKind covers many NumOp values of the same shape.
type OpKind uint16

const (
	OpInvalid OpKind = iota

	// --- Arithmetic / logical / conversion -------------------------------

	// OpBinary: Result, A, B are all slots. NumOp selects the operator.
	OpBinary
	// OpBinaryImmRHS: Result, A are slots; Imm is a Const16-inlined rhs.
	OpBinaryImmRHS
	// OpBinaryImmLHS: Result, B are slots; Imm is a Const16-inlined lhs.
	OpBinaryImmLHS
	// OpUnary: Result, A are slots (negate, clz, ctz, popcnt, eqz, ...).
	OpUnary
	// OpConvert: Result, A are slots; NumOp selects source/dest types.
	OpConvert

	// --- Compare-and-branch -----------------------------------------------

	// OpBranchCmp: fused comparator + branch. A, B are slots (or A is a
	// slot and B ignored for eqz-shaped comparators); Offset is the branch
	// target; Cmp selects the comparator.
	OpBranchCmp
	// OpBranchCmpImm: like OpBranchCmp but B is inlined into Imm.
	OpBranchCmpImm
	// OpBranchCmpFallback: generic two-word form for comparator/operand
	// shapes the short forms above cannot encode. The comparator and a
	// 32-bit offset are carried in the following parameter word (see
	// ParamWord) rather than in the primary op's Offset field, matching
	// spec.md §4.1's "slot-resident 64-bit word" fallback description.
	OpBranchCmpFallback // 1 parameter word

	// --- Select -------------------------------------------------------

	// OpSelect: Result, A (true value), B (false value) slots; condition
	// is read from A-adjacent... concretely Cond holds the condition slot.
	OpSelect
	// OpSelectCmp: fused comparator + select, avoiding materializing the
	// condition in its own slot.
	OpSelectCmp

	// --- Plain comparison -------------------------------------------------

	// OpCompare: Result <- Cmp(A, B), as a plain i32 0/1 value rather than a
	// branch/select condition - the lowering a comparator operator gets when
	// the translator's operand stack later needs it materialised as an
	// ordinary value (passed to a call, stored to a local, returned) instead
	// of being fused into a branch or select.
	OpCompare
	// OpCompareImm: like OpCompare but B is inlined into Imm.
	OpCompareImm

	// --- Load / store ---------------------------------------------------

	// OpLoad: Result, A (base slot); Offset (reused as u32 static offset);
	// Index names the non-default memory (0 = default, cached mem0).
	OpLoad
	// OpLoadAbs: Result; Imm carries a pre-computed absolute address.
	OpLoadAbs
	// OpStore: A (base slot), B (value slot); Offset static offset; Index
	// memory index.
	OpStore
	// OpStoreImm: A (base slot); Imm (value to store, Const16-inlined);
	// Offset static offset.
	OpStoreImm

	// --- Table ops --------------------------------------------------------

	OpTableGet
	OpTableSet
	OpTableSize
	OpTableGrow
	OpTableFill
	OpTableInit
	OpTableCopy

	// --- Memory ops -------------------------------------------------------

	OpMemorySize
	OpMemoryGrow
	OpMemoryFill
	OpMemoryCopy
	OpMemoryInit
	OpDataDrop
	OpElemDrop

	// --- Calls --------------------------------------------------------

	// OpCall: Index is the EngineFunc/import index; Result names the head
	// of the result span; parameter words carry argument slots in groups
	// of three (see ParamWord).
	OpCall
	// OpCallIndirect: Index is the engine-wide TypeID of the declared
	// function type (compared against the callee's own TypeID); A is the
	// table element index slot; Cond carries the table index (reusing the
	// Slot-typed field as a plain integer - table counts are always small);
	// Aux is the argument count, kept uniform with OpCall so
	// NumParamWords needs no kind-specific branch.
	OpCallIndirect
	// OpReturnCall: tail call, internal or imported. Same shape as OpCall
	// minus Result (the callee inherits the caller's result span).
	OpReturnCall
	// OpReturnCallIndirect: tail form of OpCallIndirect.
	OpReturnCallIndirect

	// --- Control ------------------------------------------------------

	// OpBranch: unconditional; Offset is the branch target.
	OpBranch
	// OpBranchTable: Index is the number of targets (len_targets); A holds
	// the selector slot. Followed by Index parameter words of type
	// ParamWord holding each target's BranchOffset (the last entry is the
	// default, selected when the selector is out of range).
	OpBranchTable
	// OpConsumeFuel: Imm carries the amount (as a cell-encoded u64).
	OpConsumeFuel
	// OpTrap: Aux carries the trap code.
	OpTrap
	// OpReturn: no result (void function tail).
	OpReturn
	// OpReturnMany: Result is the span head; Aux is the span length.
	OpReturnMany
	// OpCopySpan: Result is destination span head, A is source span head,
	// Aux is length. The executor copies ascending, or descending when the
	// two spans overlap (see SlotSpansOverlap).
	OpCopySpan
	// OpCopy: single-slot copy, Result <- A.
	OpCopy
	// OpCopyImm: single-slot copy, Result <- Imm.
	OpCopyImm

	// --- Constants / misc -----------------------------------------------

	// OpConstRef: Result <- constant-pool slot named by A
	// (used when a constant cannot be inlined as Const16).
	OpConstRef
	// OpGlobalGet: Result <- global Index.
	OpGlobalGet
	// OpGlobalSet: global Index <- A.
	OpGlobalSet
	// OpRefFunc: Result <- funcref for function Index.
	OpRefFunc
	// OpRefIsNull: Result <- (A == null).
	OpRefIsNull

	// opKindCount is a sentinel for validating OpKind values in tests.
	opKindCount
)

// NumOp selects the concrete numeric operator for shape-level OpKinds
// (OpBinary, OpUnary, OpConvert, and the comparator-bearing branch/select
// kinds reuse ir.Comparator instead). Per spec.md §1 the numeric meaning
// of each operator is implemented by internal/executor's numeric helpers;
// NumOp is only the selector the executor switches on.
type NumOp uint16

const (
	NumInvalid NumOp = iota
	AddI32
	SubI32
	MulI32
	DivSI32
	DivUI32
	RemSI32
	RemUI32
	AndI32
	OrI32
	XorI32
	ShlI32
	ShrSI32
	ShrUI32
	RotlI32
	RotrI32
	AddI64
	SubI64
	MulI64
	DivSI64
	DivUI64
	RemSI64
	RemUI64
	AndI64
	OrI64
	XorI64
	ShlI64
	ShrSI64
	ShrUI64
	RotlI64
	RotrI64
	AddF32
	SubF32
	MulF32
	DivF32
	MinF32
	MaxF32
	AddF64
	SubF64
	MulF64
	DivF64
	MinF64
	MaxF64
	ClzI32
	CtzI32
	PopcntI32
	ClzI64
	CtzI64
	PopcntI64
	NegF32
	NegF64
	AbsF32
	AbsF64
	SqrtF32
	SqrtF64
	EqzI32
	EqzI64
	WrapI64ToI32
	ExtendI32ToI64S
	ExtendI32ToI64U
	ConvertI32ToF32S
	ConvertI32ToF32U
	ConvertI32ToF64S
	ConvertI32ToF64U
	ConvertI64ToF32S
	ConvertI64ToF32U
	ConvertI64ToF64S
	ConvertI64ToF64U
	TruncF32ToI32S
	TruncF32ToI32U
	TruncF64ToI32S
	TruncF64ToI32U
	TruncF32ToI64S
	TruncF32ToI64U
	TruncF64ToI64S
	TruncF64ToI64U
	DemoteF64ToF32
	PromoteF32ToF64
	Extend8S
	Extend16S
	Extend32S

	// Load/store width+type selectors, carried in Op.NumOp for OpLoad,
	// OpLoadAbs, OpStore, and OpStoreImm so the executor's memory-access
	// helpers can stay single functions switching on NumOp rather than one
	// OpKind per Wasm load/store variant.
	LoadI32
	LoadI64
	LoadF32
	LoadF64
	Load8S
	Load8U
	Load16S
	Load16U
	Load32S
	Load32U
	StoreI32
	StoreI64
	StoreF32
	StoreF64
	Store8
	Store16
	Store32
)

// TrapCode enumerates the trap conditions named in spec.md §6, embedded in
// OpTrap's Aux field and surfaced to the embedder by internal/executor.
type TrapCode uint8

const (
	TrapUnreachable TrapCode = iota
	TrapMemoryOutOfBounds
	TrapTableOutOfBounds
	TrapIndirectCallToNull
	TrapBadSignature
	TrapIntegerOverflow
	TrapIntegerDivisionByZero
	TrapInvalidConversionToInteger
	TrapStackOverflow
	TrapOutOfFuel
	TrapGrowthOperationLimited
	TrapUnreachableCodeReached
)

func (c TrapCode) String() string {
	switch c {
	case TrapUnreachable:
		return "unreachable"
	case TrapMemoryOutOfBounds:
		return "memory out of bounds"
	case TrapTableOutOfBounds:
		return "table out of bounds"
	case TrapIndirectCallToNull:
		return "indirect call to null"
	case TrapBadSignature:
		return "indirect call type mismatch"
	case TrapIntegerOverflow:
		return "integer overflow"
	case TrapIntegerDivisionByZero:
		return "integer divide by zero"
	case TrapInvalidConversionToInteger:
		return "invalid conversion to integer"
	case TrapStackOverflow:
		return "stack overflow"
	case TrapOutOfFuel:
		return "out of fuel"
	case TrapGrowthOperationLimited:
		return "growth operation limited"
	case TrapUnreachableCodeReached:
		return "unreachable code reached"
	default:
		return "unknown trap"
	}
}
