package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vmwasm/vmwasm/internal/codemap"
	"github.com/vmwasm/vmwasm/internal/executor"
	"github.com/vmwasm/vmwasm/internal/instantiate"
	"github.com/vmwasm/vmwasm/internal/ir"
	"github.com/vmwasm/vmwasm/internal/wasmstore"
)

// newDisasmCmd bypasses engine/ to reach the codemap directly: disasm
// needs a *ir.CompiledFunction, which Instance never hands back once
// wired into an exported call.
func newDisasmCmd(g *globalFlags, stdout io.Writer) *cobra.Command {
	var fixture, export string

	cmd := &cobra.Command{
		Use:   "disasm",
		Short: fmt.Sprintf("Print a fixture export's translated IR (fixtures: %s)", fixtureNames()),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, err := lookupFixture(fixture)
			if err != nil {
				return err
			}

			types := wasmstore.NewTypeRegistry()
			store := wasmstore.New(types)
			code := codemap.New()

			handle, err := instantiate.Instantiate(context.Background(), store, code, mod, instantiate.NoImports{}, instantiate.Options{
				FuelCosts: executor.DefaultFuelCosts(),
			})
			if err != nil {
				return fmt.Errorf("vmwasm: instantiate: %w", err)
			}

			inst := store.Instances.Resolve(handle)
			exp, ok := inst.Exports[export]
			if !ok || exp.Kind != wasmstore.ExportKindFunc {
				return fmt.Errorf("vmwasm: %q is not an exported function of %s", export, fixture)
			}
			fn := store.Functions.Resolve(inst.Funcs[exp.Index])

			compiledFn, err := code.Resolve(fn.Body)
			if err != nil {
				return fmt.Errorf("vmwasm: translating %s: %w", export, err)
			}
			fmt.Fprint(stdout, ir.Disassemble(compiledFn))
			return nil
		},
	}
	cmd.Flags().StringVar(&fixture, "fixture", "fib", "builtin fixture module to disassemble")
	cmd.Flags().StringVar(&export, "export", "fib", "exported function name to disassemble")
	return cmd
}
