//go:build !(amd64 && cgo)

package main

// externalRuntimes is empty outside amd64+cgo builds: wasmtime-go and
// wasmer-go both bind to a cgo-compiled runtime, same constraint the
// teacher's internal/integration_test/vs/{wasmtime,wasmer} packages
// build-tag around.
func externalRuntimes() []externalRuntime { return nil }
