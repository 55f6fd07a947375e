//go:build amd64 && cgo

// wasmtime-go and wasmer-go both require cgo and a matching native build,
// the same constraint the teacher's vs/wasmtime and vs/wasmer packages
// carry on their own build tags.
package bench

import (
	"testing"

	"github.com/bytecodealliance/wasmtime-go/v7"
	"github.com/stretchr/testify/require"
	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/vmwasm/vmwasm/internal/wasmfixture"
)

func BenchmarkCall_Wasmtime(b *testing.B) {
	engine := wasmtime.NewEngine()
	store := wasmtime.NewStore(engine)
	module, err := wasmtime.NewModule(store.Engine, wasmfixture.FibWasmBinary)
	require.NoError(b, err)
	instance, err := wasmtime.NewInstance(store, module, nil)
	require.NoError(b, err)
	fn := instance.GetFunc(store, "fib")
	require.NotNil(b, fn)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := fn.Call(store, int32(20)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCall_Wasmer(b *testing.B) {
	store := wasmer.NewStore(wasmer.NewEngine())
	module, err := wasmer.NewModule(store, wasmfixture.FibWasmBinary)
	require.NoError(b, err)
	instance, err := wasmer.NewInstance(module, wasmer.NewImportObject())
	require.NoError(b, err)
	fn, err := instance.Exports.GetFunction("fib")
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := fn(20); err != nil {
			b.Fatal(err)
		}
	}
}
