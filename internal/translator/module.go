package translator

import "github.com/vmwasm/vmwasm/internal/wasmstore"

// ModuleContext is the slice of module-level metadata the translator needs
// while compiling one function body: the type of every function, global,
// table, and memory in the module's index space (spec.md §4.2's translator
// "relies on" the parser/validator for this, never re-deriving it from the
// operator stream itself, since e.g. global.get's pushed type is not
// encoded in the opcode).
type ModuleContext struct {
	Types     []*wasmstore.FunctionType
	TypeIDs   []wasmstore.TypeID // Types[i]'s id in the engine-wide TypeRegistry, consulted by call_indirect
	FuncTypes []*wasmstore.FunctionType // per function index, imports then locals
	Globals   []GlobalType
	Tables    []TableType
	Memories  []MemoryType
}

// GlobalType is a global's declared value type, consulted by global.get/set.
type GlobalType struct {
	ValType wasmstore.ValueType
	Mutable bool
}

// TableType is a table's element type and index width, consulted by every
// table.* operator and by call_indirect/ref.func/ref.is_null's typing.
type TableType struct {
	ElemType  wasmstore.ValueType
	IndexType wasmstore.IndexType
}

// MemoryType is a memory's index width, consulted to pick the effective-
// address computation width for loads/stores and bulk memory operators.
type MemoryType struct {
	IndexType wasmstore.IndexType
}
