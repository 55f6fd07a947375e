package vmwasm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmwasm/vmwasm"
	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/wasmfixture"
)

func TestVmwasm_CompileInstantiateExecuteFib(t *testing.T) {
	e := vmwasm.NewEngine(vmwasm.NewConfig())

	compiled, err := e.CompileModule(wasmfixture.Fib())
	require.NoError(t, err)

	store := e.NewStore()
	ctx := context.Background()
	inst, err := e.Instantiate(ctx, store, compiled, vmwasm.NoImports{})
	require.NoError(t, err)

	results, resumable, err := inst.ExecuteFunc(ctx, "fib", []cell.Cell{cell.FromI32(20)})
	require.NoError(t, err)
	require.Nil(t, resumable)
	require.Len(t, results, 1)
	assert.Equal(t, int32(6765), results[0].I32())
}
