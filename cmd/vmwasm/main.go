// Command vmwasm is the embedder-facing CLI over engine/: run a builtin
// fixture module's exported function, compile-and-validate it without
// running anything, disassemble a function's translated IR, or benchmark
// it against wasmtime-go and wasmer-go (spec.md §8's literal scenarios,
// SPEC_FULL.md §0/§6 "CLI / tooling").
//
// The teacher's own cmd/wazero is flag-based; this one builds its command
// tree on github.com/spf13/cobra instead (following the pack's moby-moby
// and grafana-k6 root commands), since there is no binary parser behind
// it to make flag-per-subcommand worth hand-rolling twice.
package main

import (
	"os"
)

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
