package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vmwasm/vmwasm/internal/arena"
	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/codemap"
	"github.com/vmwasm/vmwasm/internal/ir"
	"github.com/vmwasm/vmwasm/internal/wasmstore"
)

// newTestStore builds an empty store with one instance and no imports,
// ready to host directly-compiled test functions.
func newTestStore(t *testing.T) (*wasmstore.Store, arena.Handle) {
	t.Helper()
	s := wasmstore.New(wasmstore.NewTypeRegistry())
	inst := s.Instances.Allocate(wasmstore.Instance{})
	return s, inst
}

func newTestExecutor(store *wasmstore.Store, code *codemap.CodeMap) *Executor {
	return New(store, code, 256, 4096, 64, DefaultFuelCosts(), FuelLazy)
}

func TestExecuteAddsTwoParams(t *testing.T) {
	store, inst := newTestStore(t)
	code := codemap.New()

	fn := &ir.CompiledFunction{
		Ops: []ir.Op{
			{Kind: ir.OpBinary, NumOp: ir.AddI32, A: 0, B: 1, Result: 2},
			{Kind: ir.OpReturnMany, Result: 2, Aux: 1},
		},
		NumSlots:   3,
		NumParams:  2,
		NumResults: 1,
	}
	h := code.AllocateEager(fn)

	e := newTestExecutor(store, code)
	results, susp, err := e.Execute(context.Background(), inst, h, []cell.Cell{cell.FromI32(17), cell.FromI32(25)})
	require.NoError(t, err)
	require.Nil(t, susp)
	require.Equal(t, int32(42), results[0].I32())
}

func TestExecuteBranchSelectsPath(t *testing.T) {
	store, inst := newTestStore(t)
	code := codemap.New()

	// slot0: input. slot1: result.
	// 0: br_cmp_imm slot0 == 0 -> idx 3
	// 1: copy_imm slot1 <- 1            (not-equal path)
	// 2: br -> idx 4
	// 3: copy_imm slot1 <- 0            (equal path)
	// 4: return_many slot1, n=1
	fn := &ir.CompiledFunction{
		Ops: []ir.Op{
			{Kind: ir.OpBranchCmpImm, A: 0, Imm: cell.FromI32(0), Cmp: ir.CmpI32Eq, Offset: ir.FromPositions(0, 3)},
			{Kind: ir.OpCopyImm, Result: 1, Imm: cell.FromI32(1)},
			{Kind: ir.OpBranch, Offset: ir.FromPositions(2, 4)},
			{Kind: ir.OpCopyImm, Result: 1, Imm: cell.FromI32(0)},
			{Kind: ir.OpReturnMany, Result: 1, Aux: 1},
		},
		NumSlots:   2,
		NumParams:  1,
		NumResults: 1,
	}
	h := code.AllocateEager(fn)
	e := newTestExecutor(store, code)

	results, susp, err := e.Execute(context.Background(), inst, h, []cell.Cell{cell.FromI32(0)})
	require.NoError(t, err)
	require.Nil(t, susp)
	require.Equal(t, int32(0), results[0].I32())

	results, susp, err = e.Execute(context.Background(), inst, h, []cell.Cell{cell.FromI32(9)})
	require.NoError(t, err)
	require.Nil(t, susp)
	require.Equal(t, int32(1), results[0].I32())
}

func TestExecuteDivideByZeroTraps(t *testing.T) {
	store, inst := newTestStore(t)
	code := codemap.New()

	fn := &ir.CompiledFunction{
		Ops: []ir.Op{
			{Kind: ir.OpBinary, NumOp: ir.DivSI32, A: 0, B: 1, Result: 2},
			{Kind: ir.OpReturnMany, Result: 2, Aux: 1},
		},
		NumSlots:   3,
		NumParams:  2,
		NumResults: 1,
	}
	h := code.AllocateEager(fn)
	e := newTestExecutor(store, code)

	_, susp, err := e.Execute(context.Background(), inst, h, []cell.Cell{cell.FromI32(10), cell.FromI32(0)})
	require.Nil(t, susp)
	var trapErr *TrapError
	require.ErrorAs(t, err, &trapErr)
	require.Equal(t, ir.TrapIntegerDivisionByZero, trapErr.Code)
}

func TestExecuteMemoryLoadStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	memHandle := store.Memories.Allocate(wasmstore.Memory{
		IndexType: wasmstore.IndexTypeI32,
		MinPages:  1,
		Data:      make([]byte, wasmstore.PageSize),
	})
	instHandle := store.Instances.Allocate(wasmstore.Instance{Memories: []arena.Handle{memHandle}})
	code := codemap.New()

	// slot0: base address. slot1: value to store. slot2: loaded-back result.
	fn := &ir.CompiledFunction{
		Ops: []ir.Op{
			{Kind: ir.OpStore, NumOp: ir.StoreI32, A: 0, B: 1, Offset: 0, Index: 0},
			{Kind: ir.OpLoad, NumOp: ir.LoadI32, A: 0, Offset: 0, Index: 0, Result: 2},
			{Kind: ir.OpReturnMany, Result: 2, Aux: 1},
		},
		NumSlots:   3,
		NumParams:  2,
		NumResults: 1,
	}
	h := code.AllocateEager(fn)
	e := newTestExecutor(store, code)

	results, susp, err := e.Execute(context.Background(), instHandle, h, []cell.Cell{cell.FromU32(16), cell.FromU32(0xdeadbeef)})
	require.NoError(t, err)
	require.Nil(t, susp)
	require.Equal(t, uint32(0xdeadbeef), results[0].U32())
}

func TestExecuteMemoryLoadOutOfBoundsTraps(t *testing.T) {
	store, _ := newTestStore(t)
	memHandle := store.Memories.Allocate(wasmstore.Memory{
		IndexType: wasmstore.IndexTypeI32,
		MinPages:  1,
		Data:      make([]byte, wasmstore.PageSize),
	})
	instHandle := store.Instances.Allocate(wasmstore.Instance{Memories: []arena.Handle{memHandle}})
	code := codemap.New()

	fn := &ir.CompiledFunction{
		Ops: []ir.Op{
			{Kind: ir.OpLoad, NumOp: ir.LoadI64, A: 0, Offset: 0, Index: 0, Result: 1},
			{Kind: ir.OpReturnMany, Result: 1, Aux: 1},
		},
		NumSlots:   2,
		NumParams:  1,
		NumResults: 1,
	}
	h := code.AllocateEager(fn)
	e := newTestExecutor(store, code)

	_, susp, err := e.Execute(context.Background(), instHandle, h, []cell.Cell{cell.FromU32(uint32(wasmstore.PageSize - 2))})
	require.Nil(t, susp)
	var trapErr *TrapError
	require.ErrorAs(t, err, &trapErr)
	require.Equal(t, ir.TrapMemoryOutOfBounds, trapErr.Code)
}

func TestExecuteGlobalGetSet(t *testing.T) {
	store, _ := newTestStore(t)
	g := store.Globals.Allocate(wasmstore.Global{Type: wasmstore.ValueTypeI32, Mutable: true, Value: cell.FromI32(5)})
	instHandle := store.Instances.Allocate(wasmstore.Instance{Globals: []arena.Handle{g}})
	code := codemap.New()

	fn := &ir.CompiledFunction{
		Ops: []ir.Op{
			{Kind: ir.OpGlobalGet, Index: 0, Result: 0},
			{Kind: ir.OpBinaryImmRHS, NumOp: ir.AddI32, A: 0, Imm: cell.FromI32(1), Result: 1},
			{Kind: ir.OpGlobalSet, Index: 0, A: 1},
			{Kind: ir.OpReturnMany, Result: 1, Aux: 1},
		},
		NumSlots:   2,
		NumResults: 1,
	}
	h := code.AllocateEager(fn)
	e := newTestExecutor(store, code)

	results, susp, err := e.Execute(context.Background(), instHandle, h, nil)
	require.NoError(t, err)
	require.Nil(t, susp)
	require.Equal(t, int32(6), results[0].I32())
	require.Equal(t, int32(6), store.Globals.Resolve(g).Value.I32())
}

func TestExecuteInternalCall(t *testing.T) {
	store, instHandle := newTestStore(t)
	code := codemap.New()

	double := &ir.CompiledFunction{
		Ops: []ir.Op{
			{Kind: ir.OpBinaryImmRHS, NumOp: ir.MulI32, A: 0, Imm: cell.FromI32(2), Result: 1},
			{Kind: ir.OpReturnMany, Result: 1, Aux: 1},
		},
		NumSlots:   2,
		NumParams:  1,
		NumResults: 1,
	}
	doubleFn := code.AllocateEager(double)
	types := store.Types
	doubleType := types.Intern(&wasmstore.FunctionType{Params: []wasmstore.ValueType{wasmstore.ValueTypeI32}, Results: []wasmstore.ValueType{wasmstore.ValueTypeI32}})
	doubleInst := store.Functions.Allocate(wasmstore.FunctionInstance{TypeID: doubleType, Body: doubleFn, Instance: instHandle})
	store.Instances.Resolve(instHandle).Funcs = []arena.Handle{doubleInst}

	caller := &ir.CompiledFunction{
		Ops: []ir.Op{
			{Kind: ir.OpCall, Index: 0, Aux: 1, Result: 1},
			ir.ArgGroup(0, -1, -1, 1),
			{Kind: ir.OpReturnMany, Result: 1, Aux: 1},
		},
		NumSlots:   2,
		NumParams:  1,
		NumResults: 1,
	}
	callerFn := code.AllocateEager(caller)

	e := newTestExecutor(store, code)
	results, susp, err := e.Execute(context.Background(), instHandle, callerFn, []cell.Cell{cell.FromI32(21)})
	require.NoError(t, err)
	require.Nil(t, susp)
	require.Equal(t, int32(42), results[0].I32())
}

func TestExecuteHostCallSuspendsOnErrorAndResumes(t *testing.T) {
	store, _ := newTestStore(t)
	code := codemap.New()

	callCount := 0
	hostType := store.Types.Intern(&wasmstore.FunctionType{Params: []wasmstore.ValueType{wasmstore.ValueTypeI32}, Results: []wasmstore.ValueType{wasmstore.ValueTypeI32}})
	hostInst := store.Functions.Allocate(wasmstore.FunctionInstance{
		TypeID: hostType,
		IsHost: true,
		Host: func(ctx context.Context, inst *wasmstore.Instance, window []cell.Cell) error {
			callCount++
			if callCount == 1 {
				return errors.New("host unavailable")
			}
			window[0] = cell.FromI32(99)
			return nil
		},
	})
	instHandle := store.Instances.Allocate(wasmstore.Instance{Funcs: []arena.Handle{hostInst}})

	caller := &ir.CompiledFunction{
		Ops: []ir.Op{
			{Kind: ir.OpCall, Index: 0, Aux: 1, Result: 1},
			ir.ArgGroup(0, -1, -1, 1),
			{Kind: ir.OpReturnMany, Result: 1, Aux: 1},
		},
		NumSlots:   2,
		NumParams:  1,
		NumResults: 1,
	}
	callerFn := code.AllocateEager(caller)
	e := newTestExecutor(store, code)

	results, susp, err := e.Execute(context.Background(), instHandle, callerFn, []cell.Cell{cell.FromI32(1)})
	require.NoError(t, err)
	require.Nil(t, results)
	require.NotNil(t, susp)
	require.NotNil(t, susp.HostTrap)

	results, susp, err = e.Resume(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, susp)
	require.Equal(t, int32(99), results[0].I32())
}

func TestExecuteOutOfFuelSuspendsAndResumes(t *testing.T) {
	store, inst := newTestStore(t)
	store.FuelEnabled = true
	store.Fuel = 0
	code := codemap.New()

	fn := &ir.CompiledFunction{
		Ops: []ir.Op{
			{Kind: ir.OpConsumeFuel, Imm: cell.FromU64(10)},
			{Kind: ir.OpCopyImm, Result: 0, Imm: cell.FromI32(7)},
			{Kind: ir.OpReturnMany, Result: 0, Aux: 1},
		},
		NumSlots:   1,
		NumResults: 1,
	}
	h := code.AllocateEager(fn)
	e := newTestExecutor(store, code)

	results, susp, err := e.Execute(context.Background(), inst, h, nil)
	require.NoError(t, err)
	require.Nil(t, results)
	require.NotNil(t, susp)
	require.True(t, susp.OutOfFuel)
	require.Equal(t, uint64(10), susp.RequiredFuel)

	store.RefillFuel(10)
	results, susp, err = e.Resume(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, susp)
	require.Equal(t, int32(7), results[0].I32())
}
