package wasmstore

import (
	"strings"

	"github.com/vmwasm/vmwasm/internal/cell"
)

// ValueType is the Wasm value-type tag used at function-type boundaries
// (not carried by the IR itself, which is statically typed by construction
// per spec.md §3 "Untyped cell").
type ValueType byte

const (
	ValueTypeI32 ValueType = iota
	ValueTypeI64
	ValueTypeF32
	ValueTypeF64
	ValueTypeFuncref
	ValueTypeExternref
	ValueTypeV128
)

func (v ValueType) String() string {
	switch v {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeFuncref:
		return "funcref"
	case ValueTypeExternref:
		return "externref"
	case ValueTypeV128:
		return "v128"
	default:
		return "unknown"
	}
}

// Cells reports how many cell.Cell slots a value of this type occupies:
// one for every scalar type, two for v128 (spec.md §3).
func (v ValueType) Cells() int {
	if v == ValueTypeV128 {
		return 2
	}
	return 1
}

// FunctionType is a Wasm function signature.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

// key builds the canonical string form used to deduplicate function types,
// cheap enough for a map key and stable across calls.
func (t *FunctionType) key() string {
	var b strings.Builder
	for _, p := range t.Params {
		b.WriteByte(byte(p))
	}
	b.WriteByte(0xff)
	for _, r := range t.Results {
		b.WriteByte(byte(r))
	}
	return b.String()
}

// TypeID is the interned handle a deduplicated FunctionType resolves to;
// indirect-call signature checks compare TypeIDs by value (a pointer-
// equality-fast-path in spirit, an integer-equality fast path in Go).
type TypeID uint32

// TypeRegistry deduplicates FunctionType values across an entire engine
// (shared by every store compiled by that engine), matching spec.md §4.5
// "Function types are deduplicated... a canonicalised form is looked up in
// a map".
type TypeRegistry struct {
	byKey map[string]TypeID
	types []*FunctionType
}

// NewTypeRegistry creates an empty, ready-to-use registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{byKey: map[string]TypeID{}}
}

// Intern canonicalizes t, returning the TypeID for the value previously
// registered or for t itself when novel.
func (r *TypeRegistry) Intern(t *FunctionType) TypeID {
	k := t.key()
	if id, ok := r.byKey[k]; ok {
		return id
	}
	id := TypeID(len(r.types))
	r.types = append(r.types, t)
	r.byKey[k] = id
	return id
}

// Resolve returns the canonical FunctionType for id.
func (r *TypeRegistry) Resolve(id TypeID) *FunctionType { return r.types[id] }

// Cell is re-exported for convenience of store-adjacent packages that only
// need the value representation, not the whole cell package import.
type Cell = cell.Cell
