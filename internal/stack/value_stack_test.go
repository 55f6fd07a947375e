package stack

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/ir"
)

func compiledFn(consts []cell.Cell, numSlots uint32) *ir.CompiledFunction {
	return &ir.CompiledFunction{Consts: consts, NumSlots: numSlots}
}

func TestAllocFrameLayout(t *testing.T) {
	v := NewValueStack(16, 16)
	fn := compiledFn([]cell.Cell{cell.FromI32(7), cell.FromI32(9)}, 3)
	base, ok := v.AllocFrame(fn)
	require.True(t, ok)
	require.Equal(t, 2, base) // two constants precede the base
	require.Equal(t, 5, v.Len())
	require.Equal(t, cell.FromI32(7), v.Get(base, -1))
	require.Equal(t, cell.FromI32(9), v.Get(base, -2))
	require.Equal(t, cell.Zero, v.Get(base, 0))
}

func TestSetGetRoundTrip(t *testing.T) {
	v := NewValueStack(16, 16)
	fn := compiledFn(nil, 2)
	base, _ := v.AllocFrame(fn)
	v.Set(base, 1, cell.FromI64(42))
	require.Equal(t, cell.FromI64(42), v.Get(base, 1))
}

func TestStackOverflowTrapped(t *testing.T) {
	v := NewValueStack(4, 4)
	fn := compiledFn(nil, 8)
	_, ok := v.AllocFrame(fn)
	require.False(t, ok)
}

func TestFreeFrameRestoresHeight(t *testing.T) {
	v := NewValueStack(16, 16)
	fn := compiledFn([]cell.Cell{cell.FromI32(1)}, 2)
	base, _ := v.AllocFrame(fn)
	require.Equal(t, 3, v.Len())
	v.FreeFrame(base, len(fn.Consts))
	require.Equal(t, 0, v.Len())
}

func TestCallStackPushPopCeiling(t *testing.T) {
	cs := NewCallStack(2)
	require.True(t, cs.Push(CallFrame{}))
	require.True(t, cs.Push(CallFrame{}))
	require.False(t, cs.Push(CallFrame{}))
	require.Equal(t, 2, cs.Depth())
	cs.Pop()
	require.Equal(t, 1, cs.Depth())
}

func TestCallStackTopMutatesInPlace(t *testing.T) {
	cs := NewCallStack(4)
	cs.Push(CallFrame{CallerIP: 5})
	cs.Top().CallerIP = 99
	require.Equal(t, 99, cs.Frames[0].CallerIP)
}
