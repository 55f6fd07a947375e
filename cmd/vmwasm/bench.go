package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmwasm/vmwasm/engine"
	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/instantiate"
	"github.com/vmwasm/vmwasm/internal/wasmfixture"
	"github.com/vmwasm/vmwasm/wasmlog"
)

// externalRuntime names one of the other engines bench compares against;
// implemented per-platform in bench_external.go (amd64+cgo) and stubbed
// out in bench_external_stub.go everywhere else, since wasmtime-go and
// wasmer-go are both cgo-only (spec.md's own internal/integration_test/vs
// splits along the same line).
type externalRuntime interface {
	name() string
	runFib(n int32, iterations int) (time.Duration, int32, error)
}

func newBenchCmd(g *globalFlags, stdout io.Writer) *cobra.Command {
	var n int32
	var iterations int

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run fib(n) through this module's executor and, where the platform supports cgo, wasmtime-go and wasmer-go, for a timing comparison",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(g)
			if err != nil {
				return err
			}

			elapsed, result, err := benchVmwasm(logger, n, iterations)
			if err != nil {
				return fmt.Errorf("vmwasm: %w", err)
			}
			fmt.Fprintf(stdout, "%-9s fib(%d) x%d in %s (result=%d)\n", "vmwasm:", n, iterations, elapsed, result)

			for _, rt := range externalRuntimes() {
				elapsed, result, err := rt.runFib(n, iterations)
				if err != nil {
					fmt.Fprintf(stdout, "%-9s error: %v\n", rt.name()+":", err)
					continue
				}
				fmt.Fprintf(stdout, "%-9s fib(%d) x%d in %s (result=%d)\n", rt.name()+":", n, iterations, elapsed, result)
			}
			return nil
		},
	}
	cmd.Flags().Int32Var(&n, "n", 20, "fib(n) to compute")
	cmd.Flags().IntVar(&iterations, "iterations", 1, "number of times to repeat the call, for timing stability")
	return cmd
}

func benchVmwasm(logger wasmlog.Logger, n int32, iterations int) (time.Duration, int32, error) {
	e := engine.NewEngine(engine.NewConfig().WithLogger(logger))
	compiled, err := e.CompileModule(wasmfixture.Fib())
	if err != nil {
		return 0, 0, err
	}
	ctx := context.Background()
	store := e.NewStore()
	inst, err := e.Instantiate(ctx, store, compiled, instantiate.NoImports{})
	if err != nil {
		return 0, 0, err
	}

	var result int32
	start := time.Now()
	for i := 0; i < iterations; i++ {
		results, resumable, err := inst.ExecuteFunc(ctx, "fib", []cell.Cell{cell.FromI32(n)})
		if err != nil {
			return 0, 0, err
		}
		if resumable != nil {
			return 0, 0, fmt.Errorf("fib unexpectedly suspended")
		}
		result = results[0].I32()
	}
	return time.Since(start), result, nil
}
