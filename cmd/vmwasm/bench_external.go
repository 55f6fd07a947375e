//go:build amd64 && cgo

package main

import (
	"fmt"
	"time"

	"github.com/bytecodealliance/wasmtime-go/v7"
	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/vmwasm/vmwasm/internal/wasmfixture"
)

func externalRuntimes() []externalRuntime {
	return []externalRuntime{wasmtimeRuntime{}, wasmerRuntime{}}
}

type wasmtimeRuntime struct{}

func (wasmtimeRuntime) name() string { return "wasmtime" }

func (wasmtimeRuntime) runFib(n int32, iterations int) (time.Duration, int32, error) {
	engine := wasmtime.NewEngine()
	store := wasmtime.NewStore(engine)
	module, err := wasmtime.NewModule(store.Engine, wasmfixture.FibWasmBinary)
	if err != nil {
		return 0, 0, err
	}
	instance, err := wasmtime.NewInstance(store, module, nil)
	if err != nil {
		return 0, 0, err
	}
	fn := instance.GetFunc(store, "fib")
	if fn == nil {
		return 0, 0, fmt.Errorf("fib is not an exported function")
	}

	var result int32
	start := time.Now()
	for i := 0; i < iterations; i++ {
		v, err := fn.Call(store, int32(n))
		if err != nil {
			return 0, 0, err
		}
		result = v.(int32)
	}
	return time.Since(start), result, nil
}

type wasmerRuntime struct{}

func (wasmerRuntime) name() string { return "wasmer" }

func (wasmerRuntime) runFib(n int32, iterations int) (time.Duration, int32, error) {
	store := wasmer.NewStore(wasmer.NewEngine())
	module, err := wasmer.NewModule(store, wasmfixture.FibWasmBinary)
	if err != nil {
		return 0, 0, err
	}
	instance, err := wasmer.NewInstance(module, wasmer.NewImportObject())
	if err != nil {
		return 0, 0, err
	}
	fn, err := instance.Exports.GetFunction("fib")
	if err != nil {
		return 0, 0, err
	}

	var result int32
	start := time.Now()
	for i := 0; i < iterations; i++ {
		v, err := fn(n)
		if err != nil {
			return 0, 0, err
		}
		result = v.(int32)
	}
	return time.Since(start), result, nil
}
