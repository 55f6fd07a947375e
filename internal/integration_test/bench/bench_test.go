// Package bench holds Compile/Instantiate/Call benchmarks for the engine,
// following the same three-phase split as the teacher's
// internal/integration_test/vs benchmarks. Unlike vs, which pits wazero's
// own engines against each other, this package pits this module's
// interpreter against wasmtime-go and wasmer-go on an identical exported
// function (see bench_external_test.go, built only on amd64 with cgo).
package bench

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vmwasm/vmwasm/engine"
	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/instantiate"
	"github.com/vmwasm/vmwasm/internal/wasmfixture"
)

var testCtx = context.Background()

func BenchmarkCompile(b *testing.B) {
	e := engine.NewEngine(engine.NewConfig())
	mod := wasmfixture.Fib()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.CompileModule(mod); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkInstantiate(b *testing.B) {
	e := engine.NewEngine(engine.NewConfig())
	compiled, err := e.CompileModule(wasmfixture.Fib())
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store := e.NewStore()
		if _, err := e.Instantiate(testCtx, store, compiled, instantiate.NoImports{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCall(b *testing.B) {
	e := engine.NewEngine(engine.NewConfig())
	compiled, err := e.CompileModule(wasmfixture.Fib())
	require.NoError(b, err)
	store := e.NewStore()
	inst, err := e.Instantiate(testCtx, store, compiled, instantiate.NoImports{})
	require.NoError(b, err)

	params := []cell.Cell{cell.FromI32(20)}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := inst.ExecuteFunc(testCtx, "fib", params); err != nil {
			b.Fatal(err)
		}
	}
}
