// Package cell defines the untyped 64-bit value representation shared by
// the value stack, the constant pool, and every IR operator that reads or
// writes a slot.
package cell

import "math"

// Cell is an opaque 64-bit container for a single Wasm scalar: i32, i64,
// f32, f64, or a 32-bit reference (funcref/externref, null-encoded as all
// bits clear). A 128-bit SIMD value occupies two adjacent cells with the
// low 64 bits first.
//
// Cell never carries a type tag: the IR op that reads a Cell statically
// knows which accessor to use, exactly as it knew which operator produced
// the value. Mismatched accessor use is a translator bug, not a runtime
// condition this type guards against.
type Cell uint64

// Zero is the zero-valued Cell, used to initialize fresh mutable slots.
const Zero Cell = 0

// FromI32 stores a signed 32-bit integer, sign-extension-free: the upper
// 32 bits are zeroed so BitsU32/BitsU64 observe a clean pattern.
func FromI32(v int32) Cell { return Cell(uint32(v)) }

// I32 reads the low 32 bits as a signed integer.
func (c Cell) I32() int32 { return int32(uint32(c)) }

// FromU32 stores an unsigned 32-bit integer.
func FromU32(v uint32) Cell { return Cell(v) }

// U32 reads the low 32 bits as an unsigned integer.
func (c Cell) U32() uint32 { return uint32(c) }

// FromI64 stores a signed 64-bit integer.
func FromI64(v int64) Cell { return Cell(v) }

// I64 reads all 64 bits as a signed integer.
func (c Cell) I64() int64 { return int64(c) }

// FromU64 stores an unsigned 64-bit integer.
func FromU64(v uint64) Cell { return Cell(v) }

// U64 reads all 64 bits as an unsigned integer.
func (c Cell) U64() uint64 { return uint64(c) }

// FromF32 stores a 32-bit float in the low 32 bits, upper bits zeroed.
func FromF32(v float32) Cell { return Cell(math.Float32bits(v)) }

// F32 reads the low 32 bits as a float.
func (c Cell) F32() float32 { return math.Float32frombits(uint32(c)) }

// FromF64 stores a 64-bit float.
func FromF64(v float64) Cell { return Cell(math.Float64bits(v)) }

// F64 reads all 64 bits as a float.
func (c Cell) F64() float64 { return math.Float64frombits(uint64(c)) }

// FromBool stores a Wasm boolean result (i32 0 or 1) as produced by
// comparison operators.
func FromBool(v bool) Cell {
	if v {
		return Cell(1)
	}
	return Cell(0)
}

// Bool reports whether the low 32 bits are non-zero, the Wasm convention
// for truthy values consumed by br_if/if/select.
func (c Cell) Bool() bool { return uint32(c) != 0 }

// RefNull is the null encoding shared by funcref and externref: all bits
// clear, indistinguishable from an i32/i64 zero at the Cell level (the IR
// never needs to tell them apart; the op that produced the value already
// knows its type).
const RefNull Cell = 0

// IsRefNull reports whether c is the null reference encoding.
func (c Cell) IsRefNull() bool { return c == RefNull }

// FromPtr stores an opaque runtime pointer (e.g. a *funcEntity for
// funcref tables) as a Cell. The pointer is not traced by the Go garbage
// collector through the Cell; callers that store live pointers this way
// must keep a parallel strong reference (the owning table/global slice)
// for the lifetime of the Cell.
func FromPtr(p uintptr) Cell { return Cell(p) }

// Ptr reads back a pointer stored with FromPtr.
func (c Cell) Ptr() uintptr { return uintptr(c) }

// Pair packs two Cells for a 128-bit SIMD lane pair, low 64 first.
type Pair [2]Cell

// Lo returns the low 64 bits of a SIMD value.
func (p Pair) Lo() Cell { return p[0] }

// Hi returns the high 64 bits of a SIMD value.
func (p Pair) Hi() Cell { return p[1] }
