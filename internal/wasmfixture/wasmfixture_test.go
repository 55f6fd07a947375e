package wasmfixture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/codemap"
	"github.com/vmwasm/vmwasm/internal/executor"
	"github.com/vmwasm/vmwasm/internal/instantiate"
	"github.com/vmwasm/vmwasm/internal/wasmstore"
)

func TestLookup_KnownNames(t *testing.T) {
	for _, name := range Names {
		assert.NotNil(t, Lookup(name), name)
	}
	assert.Nil(t, Lookup("nope"))
}

func TestFib_ComputesFib20(t *testing.T) {
	types := wasmstore.NewTypeRegistry()
	store := wasmstore.New(types)
	code := codemap.New()

	handle, err := instantiate.Instantiate(context.Background(), store, code, Fib(), instantiate.NoImports{}, instantiate.Options{
		FuelCosts: executor.DefaultFuelCosts(),
	})
	require.NoError(t, err)

	inst := store.Instances.Resolve(handle)
	export, ok := inst.Exports["fib"]
	require.True(t, ok)
	fn := store.Functions.Resolve(inst.Funcs[export.Index])

	ex := executor.New(store, code, 1<<12, 1<<16, 1<<10, executor.DefaultFuelCosts(), executor.FuelLazy)
	results, susp, err := ex.Execute(context.Background(), handle, fn.Body, []cell.Cell{cell.FromI32(20)})
	require.NoError(t, err)
	require.Nil(t, susp)
	require.Len(t, results, 1)
	assert.Equal(t, int32(6765), results[0].I32())
}

func TestIndirectMismatch_TrapsOnBadSignature(t *testing.T) {
	types := wasmstore.NewTypeRegistry()
	store := wasmstore.New(types)
	code := codemap.New()

	handle, err := instantiate.Instantiate(context.Background(), store, code, IndirectMismatch(), instantiate.NoImports{}, instantiate.Options{
		FuelCosts: executor.DefaultFuelCosts(),
	})
	require.NoError(t, err)

	inst := store.Instances.Resolve(handle)
	export, ok := inst.Exports["call_mismatch"]
	require.True(t, ok)
	fn := store.Functions.Resolve(inst.Funcs[export.Index])

	ex := executor.New(store, code, 1<<12, 1<<16, 1<<10, executor.DefaultFuelCosts(), executor.FuelLazy)
	_, _, err = ex.Execute(context.Background(), handle, fn.Body, nil)
	require.Error(t, err)
}
