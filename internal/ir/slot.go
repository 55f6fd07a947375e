// Package ir defines the register-based intermediate representation the
// translator emits and the executor runs: slots, slot spans, branch
// offsets, and the flat op encoding (see op.go and opkind.go).
package ir

import "fmt"

// Slot is a signed 16-bit index into the current call frame. Indices >= 0
// address mutable slots counting forward from the frame's base pointer;
// negative indices address the read-only constant pool immediately
// preceding the base, with -1 naming the first constant and more negative
// indices reaching further back (constants grow downward as the translator
// interns them, see internal/translator).
type Slot int16

// IsConst reports whether s addresses the constant pool rather than a
// mutable frame slot.
func (s Slot) IsConst() bool { return s < 0 }

// ConstIndex returns the zero-based index into the constant pool that s
// addresses. Only valid when IsConst is true.
func (s Slot) ConstIndex() int { return int(-s) - 1 }

func (s Slot) String() string {
	if s.IsConst() {
		return fmt.Sprintf("const[%d]", s.ConstIndex())
	}
	return fmt.Sprintf("slot[%d]", int(s))
}

// Next returns the slot immediately following s in a forward-growing span.
func (s Slot) Next() Slot { return s + 1 }

// Prev returns the slot immediately preceding s.
func (s Slot) Prev() Slot { return s - 1 }

// SlotSpan names the start of a contiguous run of slots. The run's length
// is tracked externally (by the op that references it, or carried
// alongside as a BoundedSlotSpan) so that SlotSpan itself stays a single
// 16-bit value, matching how the translator threads spans through the
// operand stack without bloating every stack entry.
type SlotSpan struct{ head Slot }

// NewSlotSpan creates a SlotSpan starting at head.
func NewSlotSpan(head Slot) SlotSpan { return SlotSpan{head: head} }

// Head returns the first slot of the span.
func (s SlotSpan) Head() Slot { return s.head }

// Iter returns a SlotSpanIter walking the span forward for n slots.
func (s SlotSpan) Iter(n uint16) SlotSpanIter {
	return SlotSpanIter{next: s.head, last: s.head + Slot(n)}
}

// BoundedSlotSpan pairs a SlotSpan with its length, for call sites (copy
// elision, multi-value returns) that need to carry both together.
type BoundedSlotSpan struct {
	Span SlotSpan
	Len  uint16
}

// NewBoundedSlotSpan builds a BoundedSlotSpan of n slots starting at head.
func NewBoundedSlotSpan(head Slot, n uint16) BoundedSlotSpan {
	return BoundedSlotSpan{Span: NewSlotSpan(head), Len: n}
}

// Iter walks the bound span forward.
func (b BoundedSlotSpan) Iter() SlotSpanIter { return b.Span.Iter(b.Len) }

// IsEmpty reports whether the span has zero slots.
func (b BoundedSlotSpan) IsEmpty() bool { return b.Len == 0 }

// SlotSpanIter is a bidirectional cursor over a SlotSpan's slots.
type SlotSpanIter struct {
	next Slot // next slot to yield walking forward
	last Slot // one-past-the-end slot
}

// NewSlotSpanIterFromRange builds an iterator directly from its raw
// start/end bounds (start inclusive, end exclusive), for callers that
// already computed both ends (e.g. sub-slicing).
func NewSlotSpanIterFromRange(start, end Slot) SlotSpanIter {
	return SlotSpanIter{next: start, last: end}
}

// Len returns the remaining number of slots in the iterator.
func (it SlotSpanIter) Len() int {
	if it.last >= it.next {
		return int(it.last - it.next)
	}
	return int(it.next - it.last)
}

// IsEmpty reports whether the iterator is exhausted.
func (it SlotSpanIter) IsEmpty() bool { return it.next == it.last }

// Next yields the next slot walking forward, or ok=false when exhausted.
func (it *SlotSpanIter) Next() (Slot, bool) {
	if it.next == it.last {
		return 0, false
	}
	s := it.next
	it.next = it.next.Next()
	return s, true
}

// NextBack yields the next slot walking backward from the tail, or
// ok=false when exhausted. Used by CopySpan handlers to pick a safe
// traversal order for overlapping source/destination ranges.
func (it *SlotSpanIter) NextBack() (Slot, bool) {
	if it.next == it.last {
		return 0, false
	}
	it.last = it.last.Prev()
	return it.last, true
}

// Span returns the SlotSpan that reflects the iterator's current (possibly
// already partially consumed) start.
func (it SlotSpanIter) Span() SlotSpan { return NewSlotSpan(it.next) }

// Contains reports whether slot s falls within the (remaining) iterator
// bounds.
func (it SlotSpanIter) Contains(s Slot) bool {
	if it.IsEmpty() {
		return false
	}
	lo, hi := it.next, it.last.Prev()
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo <= s && s <= hi
}

// SlotSpansOverlap reports whether copying `results <- values` (both of
// the same length) has any source slot also written before it is read,
// i.e. whether the copy must be performed in a specific order to avoid
// clobbering a not-yet-read source. Mirrors the overlap check a
// register-IR translator needs before emitting CopySpan for a multi-value
// block result: with only two contiguous spans, overlap is possible in
// exactly one direction (values starting before results and reaching into
// them), since the reverse shape can never arise from how the translator
// allocates spans.
func SlotSpansOverlap(results, values BoundedSlotSpan) bool {
	if results.Len != values.Len {
		panic("cannot compare overlap of differently sized slot spans")
	}
	if results.Len <= 1 {
		return false
	}
	firstValue := values.Span.Head()
	firstResult := results.Span.Head()
	if firstValue >= firstResult {
		return false
	}
	lastValue := firstValue + Slot(values.Len) - 1
	return lastValue >= firstResult
}
