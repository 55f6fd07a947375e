package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/executor"
	"github.com/vmwasm/vmwasm/internal/instantiate"
	"github.com/vmwasm/vmwasm/internal/wasmops"
	"github.com/vmwasm/vmwasm/internal/wasmstore"
	"github.com/vmwasm/vmwasm/wasmlog"
)

var i32 = wasmstore.ValueTypeI32

func addModule() *wasmops.Module {
	sig := &wasmstore.FunctionType{Params: []wasmstore.ValueType{i32, i32}, Results: []wasmstore.ValueType{i32}}
	return &wasmops.Module{
		Types: []*wasmstore.FunctionType{sig},
		Funcs: []wasmops.ModuleFunc{{
			TypeIndex: 0,
			Body: wasmops.FunctionBody{
				Code: []wasmops.Instruction{
					{Op: wasmops.OpcodeLocalGet, Index: 0},
					{Op: wasmops.OpcodeLocalGet, Index: 1},
					{Op: wasmops.OpcodeI32Add},
				},
			},
		}},
		Exports: []wasmops.ModuleExport{{Name: "add", Kind: wasmstore.ExportKindFunc, Index: 0}},
	}
}

func TestEngine_CompileInstantiateExecuteFunc(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := wasmlog.Wrap(zap.New(core))

	e := NewEngine(NewConfig().WithLogger(logger))
	compiled, err := e.CompileModule(addModule())
	require.NoError(t, err)

	store := e.NewStore()
	inst, err := e.Instantiate(context.Background(), store, compiled, instantiate.NoImports{})
	require.NoError(t, err)

	results, resumable, err := inst.ExecuteFunc(context.Background(), "add", []cell.Cell{cell.FromI32(20), cell.FromI32(22)})
	require.NoError(t, err)
	require.Nil(t, resumable)
	require.Len(t, results, 1)
	assert.Equal(t, int32(42), results[0].I32())

	messages := logs.FilterMessage("module compiled")
	assert.Equal(t, 1, messages.Len())
	assert.Equal(t, 1, logs.FilterMessage("module instantiated").Len())
}

func TestEngine_ExecuteFuncUnknownExportErrors(t *testing.T) {
	e := NewEngine(nil)
	compiled, err := e.CompileModule(addModule())
	require.NoError(t, err)

	store := e.NewStore()
	inst, err := e.Instantiate(context.Background(), store, compiled, instantiate.NoImports{})
	require.NoError(t, err)

	_, _, err = inst.ExecuteFunc(context.Background(), "missing", nil)
	require.Error(t, err)
}

func TestEngine_FuelExhaustionSuspendsAndResumes(t *testing.T) {
	e := NewEngine(NewConfig().WithFuelMetering(true, executor.DefaultFuelCosts()))

	compiled, err := e.CompileModule(addModule())
	require.NoError(t, err)

	store := e.NewStore()
	store.Fuel = 0
	inst, err := e.Instantiate(context.Background(), store, compiled, instantiate.NoImports{})
	require.NoError(t, err)

	_, resumable, err := inst.ExecuteFunc(context.Background(), "add", []cell.Cell{cell.FromI32(20), cell.FromI32(22)})
	require.NoError(t, err)
	require.NotNil(t, resumable)
	assert.True(t, resumable.OutOfFuel())

	store.RefillFuel(resumable.RequiredFuel() + 100)
	results, resumable2, err := resumable.Resume(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, resumable2)
	require.Len(t, results, 1)
	assert.Equal(t, int32(42), results[0].I32())
}
