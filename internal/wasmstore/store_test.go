package wasmstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vmwasm/vmwasm/internal/cell"
)

func TestStoreIdentityIsolation(t *testing.T) {
	s1 := New(NewTypeRegistry())
	s2 := New(NewTypeRegistry())
	require.NotEqual(t, s1.ID(), s2.ID())

	h := s1.Globals.Allocate(Global{Type: ValueTypeI32, Value: cell.FromI32(1)})
	require.Panics(t, func() { s2.Globals.Resolve(h) })
	require.NotPanics(t, func() { s1.Globals.Resolve(h) })
}

func TestFuelConsumeAndRefill(t *testing.T) {
	s := New(NewTypeRegistry())
	s.FuelEnabled = true
	s.Fuel = 100
	require.True(t, s.ConsumeFuel(50))
	require.Equal(t, uint64(50), s.Fuel)
	require.False(t, s.ConsumeFuel(150))
	require.Equal(t, uint64(50), s.Fuel) // unchanged on denial
	s.RefillFuel(500)
	require.Equal(t, uint64(550), s.Fuel)
	require.True(t, s.ConsumeFuel(550))
	require.Equal(t, uint64(0), s.Fuel)
}

func TestMemoryGrowByZero(t *testing.T) {
	s := New(NewTypeRegistry())
	mem := &Memory{IndexType: IndexTypeI32, MinPages: 1, Data: make([]byte, PageSize)}
	prev, ok := s.GrowMemory(context.Background(), mem, 0)
	require.True(t, ok)
	require.Equal(t, uint64(1), prev)
	require.Equal(t, uint64(1), mem.Pages())
}

func TestMemoryGrowRespectsMax(t *testing.T) {
	s := New(NewTypeRegistry())
	mem := &Memory{IndexType: IndexTypeI32, MinPages: 1, MaxPages: 2, HasMax: true, Data: make([]byte, PageSize)}
	_, ok := s.GrowMemory(context.Background(), mem, 1)
	require.True(t, ok)
	require.Equal(t, uint64(2), mem.Pages())
	_, ok = s.GrowMemory(context.Background(), mem, 1)
	require.False(t, ok)
	require.Equal(t, uint64(2), mem.Pages())
}

type denyingLimiter struct{ noopLimiter }

func (denyingLimiter) LimitMemoryGrow(context.Context, uint64, uint64, uint64) (bool, error) {
	return false, nil
}
func (denyingLimiter) LimitTableGrow(context.Context, uint64, uint64, uint64) (bool, error) {
	return false, nil
}

func TestLimiterDeniesGrow(t *testing.T) {
	s := New(NewTypeRegistry())
	s.SetLimiter(denyingLimiter{})
	mem := &Memory{IndexType: IndexTypeI32, MinPages: 1, Data: make([]byte, PageSize)}
	_, ok := s.GrowMemory(context.Background(), mem, 1)
	require.False(t, ok)
	require.Equal(t, uint64(1), mem.Pages())

	tbl := &Table{ElemType: ValueTypeFuncref, IndexType: IndexTypeI32, Min: 1, Elements: make([]cell.Cell, 1)}
	_, ok = s.GrowTable(context.Background(), tbl, 1, cell.RefNull)
	require.False(t, ok)
}

func TestTypeRegistryDeduplicates(t *testing.T) {
	r := NewTypeRegistry()
	t1 := &FunctionType{Params: []ValueType{ValueTypeI32}, Results: []ValueType{ValueTypeI32}}
	t2 := &FunctionType{Params: []ValueType{ValueTypeI32}, Results: []ValueType{ValueTypeI32}}
	t3 := &FunctionType{Params: []ValueType{ValueTypeI64}}
	id1 := r.Intern(t1)
	id2 := r.Intern(t2)
	id3 := r.Intern(t3)
	require.Equal(t, id1, id2)
	require.NotEqual(t, id1, id3)
	require.Same(t, t1, r.Resolve(id1))
}

func TestElementAndDataDrop(t *testing.T) {
	e := &ElementSegment{Values: []cell.Cell{cell.FromU32(1)}}
	e.Drop()
	require.True(t, e.Dropped)
	require.Nil(t, e.Values)

	d := &DataSegment{Bytes: []byte{1, 2, 3}}
	d.Drop()
	require.True(t, d.Dropped)
	require.Nil(t, d.Bytes)
}
