package wasmops

import "github.com/vmwasm/vmwasm/internal/wasmstore"

// Module is a fully decoded, already-validated Wasm module ready for
// instantiation: its type section, import declarations, local entity
// declarations, element/data segments, exports, and optional start
// function. Like FunctionBody, this is the parser/validator's output, not
// something this module derives itself (spec.md §1 Non-goals "binary
// parser/validator").
type Module struct {
	Types []*wasmstore.FunctionType

	Imports []Import

	// Funcs holds only the locally-defined functions (not imports); each
	// entry's TypeIndex is an index into Types. Imported functions are
	// described by the matching Import entry instead.
	Funcs []ModuleFunc

	Tables   []ModuleTable
	Memories []ModuleMemory
	Globals  []ModuleGlobal

	Exports []ModuleExport

	// StartFunc is a function index (into the module's full function index
	// space, imports first) invoked once after every other part of
	// instantiation completes. HasStart distinguishes "index 0" from "no
	// start function".
	StartFunc uint32
	HasStart  bool

	Elements []ModuleElement
	Datas    []ModuleData
}

// ImportKind tags what an Import binds once resolved.
type ImportKind byte

const (
	ImportFunc ImportKind = iota
	ImportTable
	ImportMemory
	ImportGlobal
)

// Import is one entry in the module's import section: a (module, name)
// pair the instantiator resolves against an ImportProvider, plus the
// declared type the resolved entity must match.
type Import struct {
	Module, Name string
	Kind         ImportKind

	TypeIndex uint32 // ImportFunc: index into Module.Types

	Table  ModuleTable  // ImportTable
	Memory ModuleMemory // ImportMemory
	Global GlobalDecl   // ImportGlobal
}

// ModuleFunc is one locally-defined function: its signature (by type
// index) and decoded body.
type ModuleFunc struct {
	TypeIndex uint32
	Body      FunctionBody
}

// ModuleTable is a locally-defined table's declared type and limits.
type ModuleTable struct {
	ElemType  wasmstore.ValueType
	IndexType wasmstore.IndexType
	Limits    wasmstore.Limits
}

// ModuleMemory is a locally-defined memory's declared limits.
type ModuleMemory struct {
	IndexType wasmstore.IndexType
	Limits    wasmstore.Limits
}

// GlobalDecl is a global's declared type, shared between an imported
// global's expected type and a locally-defined global's own type.
type GlobalDecl struct {
	Type    wasmstore.ValueType
	Mutable bool
}

// ModuleGlobal is a locally-defined global: its declared type plus the
// constant expression that produces its initial value.
type ModuleGlobal struct {
	GlobalDecl
	Init ConstExpr
}

// ConstExprKind tags the handful of expression forms Wasm allows in an
// init expression (global initializers, element/data segment offsets).
type ConstExprKind byte

const (
	ConstExprImmI32 ConstExprKind = iota
	ConstExprImmI64
	ConstExprImmF32
	ConstExprImmF64
	// ConstExprGlobalGet reads an already-initialized imported global
	// (Wasm restricts this to imported globals, so the instantiator can
	// always evaluate it before any locally-defined global is created).
	ConstExprGlobalGet
	ConstExprRefFunc
	ConstExprRefNull
)

// ConstExpr is a pre-evaluated-shape constant expression: the parser
// reduces Wasm's single-instruction init-expr grammar to this tagged union
// rather than handing the instantiator a tiny operator stream to
// interpret itself (spec.md §1 Non-goals keeps expression evaluation out
// of the parser's scope, but the *shape* of the handful of legal forms is
// exactly what validation already establishes).
type ConstExpr struct {
	Kind ConstExprKind

	ImmI32 int32
	ImmI64 int64
	ImmF32 float32
	ImmF64 float64

	GlobalIndex uint32
	FuncIndex   uint32
	RefType     wasmstore.ValueType // ConstExprRefNull
}

// ModuleExport names one of the module's index-space entries.
type ModuleExport struct {
	Name  string
	Kind  wasmstore.ExportKind
	Index uint32
}

// ElementMode distinguishes the three Wasm element-segment modes.
type ElementMode byte

const (
	ElementActive ElementMode = iota
	ElementPassive
	ElementDeclarative
)

// ModuleElement is one element segment: a vector of function indices (the
// overwhelmingly common case validation narrows most segments to) plus,
// for an active segment, the table it initializes and the offset
// expression.
type ModuleElement struct {
	Mode       ElementMode
	TableIndex uint32 // ElementActive
	Offset     ConstExpr
	ElemType   wasmstore.ValueType
	FuncIndices []uint32
}

// DataMode distinguishes active from passive data segments.
type DataMode byte

const (
	DataActive DataMode = iota
	DataPassive
)

// ModuleData is one data segment: raw bytes plus, for an active segment,
// the memory it initializes and the offset expression.
type ModuleData struct {
	Mode     DataMode
	MemIndex uint32
	Offset   ConstExpr
	Bytes    []byte
}
