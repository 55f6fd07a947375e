package wasmstore

import (
	"github.com/vmwasm/vmwasm/internal/cell"
)

// IndexType distinguishes 32-bit from 64-bit addressed tables/memories
// (the memory64/table64 proposals), per spec.md §3.
type IndexType byte

const (
	IndexTypeI32 IndexType = iota
	IndexTypeI64
)

// Limits bounds an entity sized in 64-bit terms: current, optional
// maximum.
type Limits struct {
	Min uint64
	Max uint64 // 0 with HasMax=false means unbounded
	HasMax bool
}

// Table is a Wasm table: a typed, growable vector of cells (funcref or
// externref elements, null-encoded per cell.RefNull).
type Table struct {
	ElemType  ValueType
	IndexType IndexType
	Min       uint64
	Max       uint64
	HasMax    bool
	Elements  []cell.Cell
}

// Len returns the table's current element count.
func (t *Table) Len() uint64 { return uint64(len(t.Elements)) }

// maxLen returns the inclusive upper bound index types allow per
// spec.md §3's "min ≤ len ≤ max ≤ index_type::MAX+1" invariant.
func (it IndexType) maxLen() uint64 {
	if it == IndexTypeI32 {
		return 1 << 32
	}
	return 1<<64 - 1
}

// CanGrow reports whether growing to newLen keeps the table's invariants,
// ignoring the resource limiter (callers must also consult Limiter).
func (t *Table) CanGrow(newLen uint64) bool {
	if t.HasMax && newLen > t.Max {
		return false
	}
	return newLen <= t.IndexType.maxLen()
}

// Memory is a Wasm linear memory: byte vector sized in 64 KiB pages.
const PageSize = 64 * 1024

type Memory struct {
	IndexType IndexType
	MinPages  uint64
	MaxPages  uint64
	HasMax    bool
	Data      []byte
}

// Pages returns the current size in pages.
func (m *Memory) Pages() uint64 { return uint64(len(m.Data)) / PageSize }

// CanGrow reports whether growing to newPages keeps the memory's
// invariants, ignoring the resource limiter.
func (m *Memory) CanGrow(newPages uint64) bool {
	if m.HasMax && newPages > m.MaxPages {
		return false
	}
	maxAllowedPages := m.IndexType.maxLen() / PageSize
	return newPages <= maxAllowedPages
}

// Global is a Wasm global variable.
type Global struct {
	Type    ValueType
	Mutable bool
	Value   cell.Cell
}

// ElementSegment carries a vector of cells (funcref/externref) used to
// initialize tables; Dropped empties Values while leaving the handle valid
// but unusable for subsequent table.init, per spec.md §3.
type ElementSegment struct {
	Values  []cell.Cell
	Dropped bool
}

// Drop empties the segment's payload.
func (e *ElementSegment) Drop() {
	e.Values = nil
	e.Dropped = true
}

// DataSegment carries a byte slice used to initialize memories.
type DataSegment struct {
	Bytes   []byte
	Dropped bool
}

// Drop empties the segment's payload.
func (d *DataSegment) Drop() {
	d.Bytes = nil
	d.Dropped = true
}
