package wasmops

import "github.com/vmwasm/vmwasm/internal/wasmstore"

// MemArg carries a load/store's static offset and (unused by the
// translator, since alignment is purely a validation/performance hint in
// Wasm and never changes execution semantics) declared alignment.
type MemArg struct {
	Align  uint32
	Offset uint32
	Mem    uint32 // memory index (the multi-memory proposal)
}

// BlockType describes a block/loop/if operator's parameter and result
// arity, resolved against the module's type section by the parser so the
// translator never has to decode the signed LEB128 block-type
// encoding itself.
type BlockType struct {
	Params  []wasmstore.ValueType
	Results []wasmstore.ValueType
}

// Instruction is one decoded Wasm operator with its immediates already
// extracted, the unit the translator consumes one at a time while walking
// a function body (spec.md §4.2).
type Instruction struct {
	Op Opcode

	// Index fields, meaningful per Op: local/global/function/type/table/
	// memory/element/data index as the operator's mnemonic implies.
	Index  uint32
	Index2 uint32 // second entity index (table.copy/memory.copy source, table.init/memory.init segment, call_indirect table)

	Mem MemArg // loads/stores

	ConstI32 int32
	ConstI64 int64
	ConstF32 float32
	ConstF64 float64

	Block BlockType // block/loop/if

	// Targets holds br_table's arm offsets (label depths); the last entry
	// is the default arm.
	Targets []uint32

	// RefType names ref.null's operand type (funcref or externref).
	RefType wasmstore.ValueType

	// SelectType is select's declared result type for the typed form
	// (select (result t)); nil for the untyped form, whose type is
	// inferred from the operand stack.
	SelectType *wasmstore.ValueType
}

// Local is one declaration in a function body's local-declaration vector
// (Wasm groups locals by run-length-encoded type, but the translator
// always sees them fully expanded to one ValueType per local index).
type Local = wasmstore.ValueType

// FunctionBody is a parsed-and-validated function ready for translation:
// its locals (params are not repeated here, see ModuleFunc.TypeIndex) and its
// flat operator sequence (spec.md §4.2 "Consumed from the parser/
// validator").
type FunctionBody struct {
	Locals []Local
	Code   []Instruction
}
