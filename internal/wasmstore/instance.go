package wasmstore

import "github.com/vmwasm/vmwasm/internal/arena"

// Instance maps a Wasm module's declared index spaces onto store-level
// handles and names its exports, per spec.md §3. It does not own the
// entities it references: ownership lives exclusively in the Store's
// arenas (spec.md "Lifetime & ownership").
type Instance struct {
	Funcs    []arena.Handle // FunctionInstance handles, imports first
	Tables   []arena.Handle
	Memories []arena.Handle
	Globals  []arena.Handle
	Elems    []arena.Handle
	Datas    []arena.Handle
	Types    []TypeID

	Exports map[string]Export

	// ImportedFuncCount is the number of entries at the front of Funcs
	// that are imports rather than functions defined by this module.
	ImportedFuncCount uint32
}

// ExportKind tags what an Export names.
type ExportKind byte

const (
	ExportKindFunc ExportKind = iota
	ExportKindTable
	ExportKindMemory
	ExportKindGlobal
)

// Export names one of an instance's index-space entries.
type Export struct {
	Kind  ExportKind
	Index uint32
}
