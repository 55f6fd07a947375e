package translator

import (
	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/ir"
)

// layout tracks the mapping from compile-time operand-stack depths to
// physical frame slots: a monotonically-growing mutable-slot region with a
// pool of freed temporaries available for reuse, and a downward-growing
// constant pool that interns repeated constants within one function
// (spec.md §4.2 "A layout that maps operand-stack depths to physical
// slots, manages a pool of free temporary slots, and interns distinct
// constants").
type layout struct {
	numSlots uint32
	free     []ir.Slot

	consts    ir.ConstPool
	constKeys map[cell.Cell]ir.Slot
}

func newLayout() *layout {
	return &layout{constKeys: map[cell.Cell]ir.Slot{}}
}

// reserve allocates n contiguous fresh slots (used for locals at function
// entry and for multi-value block result spans, which must be contiguous
// so a single CopySpan can target them). Reused free slots are only ever
// handed out one at a time since they are not guaranteed contiguous with
// each other.
func (l *layout) reserve(n uint16) ir.Slot {
	head := ir.Slot(l.numSlots)
	l.numSlots += uint32(n)
	return head
}

// alloc returns one temporary slot, preferring a freed one over growing the
// frame.
func (l *layout) alloc() ir.Slot {
	if n := len(l.free); n > 0 {
		s := l.free[n-1]
		l.free = l.free[:n-1]
		return s
	}
	return l.reserve(1)
}

// release returns a temporary slot to the free pool. Only ever called for
// slots this layout itself allocated via alloc (never for local slots,
// which live for the whole function).
func (l *layout) release(s ir.Slot) {
	l.free = append(l.free, s)
}

// internConst interns v into the constant pool, returning the existing
// slot if v was already interned (spec.md §4.2 "Identical constants within
// a function share a slot").
func (l *layout) internConst(v cell.Cell) ir.Slot {
	if s, ok := l.constKeys[v]; ok {
		return s
	}
	l.consts = append(l.consts, v)
	s := ir.Slot(-len(l.consts))
	l.constKeys[v] = s
	return s
}
