package instantiate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmwasm/vmwasm/internal/arena"
	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/codemap"
	"github.com/vmwasm/vmwasm/internal/executor"
	"github.com/vmwasm/vmwasm/internal/wasmops"
	"github.com/vmwasm/vmwasm/internal/wasmstore"
)

var i32 = wasmstore.ValueTypeI32

var i32i32_i32 = &wasmstore.FunctionType{
	Params:  []wasmstore.ValueType{i32, i32},
	Results: []wasmstore.ValueType{i32},
}

// noImports answers "not found" to every import lookup, for modules that
// declare none.
type noImports struct{}

func (noImports) ResolveFunc(string, string) (arena.Handle, bool)   { return arena.Handle{}, false }
func (noImports) ResolveTable(string, string) (arena.Handle, bool)  { return arena.Handle{}, false }
func (noImports) ResolveMemory(string, string) (arena.Handle, bool) { return arena.Handle{}, false }
func (noImports) ResolveGlobal(string, string) (arena.Handle, bool) { return arena.Handle{}, false }

func addModule() *wasmops.Module {
	return &wasmops.Module{
		Types: []*wasmstore.FunctionType{i32i32_i32},
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

func TestInstantiate_ExportedFunctionRuns(t *testing.T) {
	store := wasmstore.New(wasmstore.NewTypeRegistry())
	code := codemap.New()

	handle, err := Instantiate(context.Background(), store, code, addModule(), noImports{}, Options{
		FuelCosts: executor.DefaultFuelCosts(),
	})
	require.NoError(t, err)

	inst := store.Instances.Resolve(handle)
	export, ok := inst.Exports["add"]
	require.True(t, ok)
	require.Equal(t, wasmstore.ExportKindFunc, export.Kind)

	fn := store.Functions.Resolve(inst.Funcs[export.Index])

	ex := executor.New(store, code, 64, 4096, 64, executor.DefaultFuelCosts(), executor.FuelLazy)
	results, susp, err := ex.Execute(context.Background(), handle, fn.Body, []cell.Cell{cell.FromI32(20), cell.FromI32(22)})
	require.NoError(t, err)
	require.Nil(t, susp)
	require.Len(t, results, 1)
	assert.Equal(t, int32(42), results[0].I32())
}

func TestInstantiate_MissingImportFails(t *testing.T) {
	store := wasmstore.New(wasmstore.NewTypeRegistry())
	code := codemap.New()

	mod := &wasmops.Module{
		Types: []*wasmstore.FunctionType{i32i32_i32},
		Imports: []wasmops.Import{{
			Module: "env", Name: "add", Kind: wasmops.ImportFunc, TypeIndex: 0,
		}},
	}

	_, err := Instantiate(context.Background(), store, code, mod, noImports{}, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrImportNotFound)
}

func TestInstantiate_ActiveDataSegmentInitializesMemory(t *testing.T) {
	store := wasmstore.New(wasmstore.NewTypeRegistry())
	code := codemap.New()

	mod := &wasmops.Module{
		Memories: []wasmops.ModuleMemory{{Limits: wasmstore.Limits{Min: 1}}},
		Datas: []wasmops.ModuleData{{
			Mode:     wasmops.DataActive,
			MemIndex: 0,
			Offset:   wasmops.ConstExpr{Kind: wasmops.ConstExprImmI32, ImmI32: 8},
			Bytes:    []byte{1, 2, 3, 4},
		}},
	}

	handle, err := Instantiate(context.Background(), store, code, mod, noImports{}, Options{})
	require.NoError(t, err)

	inst := store.Instances.Resolve(handle)
	mem := store.Memories.Resolve(inst.Memories[0])
	assert.Equal(t, []byte{1, 2, 3, 4}, mem.Data[8:12])
}

func TestInstantiate_DataSegmentOutOfBoundsFails(t *testing.T) {
	store := wasmstore.New(wasmstore.NewTypeRegistry())
	code := codemap.New()

	mod := &wasmops.Module{
		Memories: []wasmops.ModuleMemory{{Limits: wasmstore.Limits{Min: 1}}},
		Datas: []wasmops.ModuleData{{
			Mode:     wasmops.DataActive,
			MemIndex: 0,
			Offset:   wasmops.ConstExpr{Kind: wasmops.ConstExprImmI32, ImmI32: int32(wasmstore.PageSize - 2)},
			Bytes:    []byte{1, 2, 3, 4},
		}},
	}

	_, err := Instantiate(context.Background(), store, code, mod, noImports{}, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSegmentOutOfBounds)
}
