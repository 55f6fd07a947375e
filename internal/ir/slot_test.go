package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlotIsConst(t *testing.T) {
	require.True(t, Slot(-1).IsConst())
	require.Equal(t, 0, Slot(-1).ConstIndex())
	require.Equal(t, 3, Slot(-4).ConstIndex())
	require.False(t, Slot(0).IsConst())
}

func TestSlotSpanIterForward(t *testing.T) {
	it := NewSlotSpan(Slot(2)).Iter(3)
	require.Equal(t, 3, it.Len())
	var got []Slot
	for {
		s, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, s)
	}
	require.Equal(t, []Slot{2, 3, 4}, got)
}

func TestSlotSpanIterBackward(t *testing.T) {
	it := NewSlotSpan(Slot(2)).Iter(3)
	var got []Slot
	for {
		s, ok := it.NextBack()
		if !ok {
			break
		}
		got = append(got, s)
	}
	require.Equal(t, []Slot{4, 3, 2}, got)
}

func TestSlotSpansOverlapEmptyOrSingle(t *testing.T) {
	require.False(t, SlotSpansOverlap(NewBoundedSlotSpan(0, 0), NewBoundedSlotSpan(5, 0)))
	require.False(t, SlotSpansOverlap(NewBoundedSlotSpan(1, 1), NewBoundedSlotSpan(0, 1)))
}

func TestSlotSpansOverlapNoOverlap(t *testing.T) {
	// [0 <- 1, 1 <- 2, 2 <- 3]: no overlap.
	require.False(t, SlotSpansOverlap(NewBoundedSlotSpan(0, 3), NewBoundedSlotSpan(1, 3)))
}

func TestSlotSpansOverlapDetected(t *testing.T) {
	// [1 <- 0, 2 <- 1]: overlaps.
	require.True(t, SlotSpansOverlap(NewBoundedSlotSpan(1, 2), NewBoundedSlotSpan(0, 2)))
}

func TestSlotSpansOverlapPanicsOnMismatchedLen(t *testing.T) {
	require.Panics(t, func() {
		SlotSpansOverlap(NewBoundedSlotSpan(0, 2), NewBoundedSlotSpan(0, 3))
	})
}

func TestContains(t *testing.T) {
	it := NewSlotSpan(Slot(2)).Iter(3)
	require.True(t, it.Contains(2))
	require.True(t, it.Contains(4))
	require.False(t, it.Contains(5))
	require.False(t, it.Contains(1))
}
