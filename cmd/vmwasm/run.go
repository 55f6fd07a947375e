package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vmwasm/vmwasm/engine"
	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/executor"
	"github.com/vmwasm/vmwasm/internal/instantiate"
)

func newRunCmd(g *globalFlags, stdout io.Writer) *cobra.Command {
	var fixture, export string
	var param int32
	var fuel uint64

	cmd := &cobra.Command{
		Use:   "run",
		Short: fmt.Sprintf("Instantiate and call a builtin fixture module's export (fixtures: %s)", fixtureNames()),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, err := lookupFixture(fixture)
			if err != nil {
				return err
			}
			logger, err := newLogger(g)
			if err != nil {
				return err
			}

			cfg := engine.NewConfig().WithLogger(logger)
			if fuel > 0 {
				cfg = cfg.WithFuelMetering(true, executor.DefaultFuelCosts())
			}
			e := engine.NewEngine(cfg)

			compiled, err := e.CompileModule(mod)
			if err != nil {
				return err
			}
			store := e.NewStore()
			if fuel > 0 {
				store.RefillFuel(fuel)
			}

			ctx := context.Background()
			inst, err := e.Instantiate(ctx, store, compiled, instantiate.NoImports{})
			if err != nil {
				return fmt.Errorf("vmwasm: instantiate: %w", err)
			}

			results, resumable, err := inst.ExecuteFunc(ctx, export, []cell.Cell{cell.FromI32(param)})
			if err != nil {
				return fmt.Errorf("vmwasm: %s: %w", export, err)
			}
			if resumable != nil {
				if resumable.OutOfFuel() {
					return fmt.Errorf("vmwasm: %s ran out of fuel (needed >= %d more); rerun with a higher --fuel", export, resumable.RequiredFuel())
				}
				return fmt.Errorf("vmwasm: %s suspended on a host trap: %w", export, resumable.HostError())
			}

			for i, r := range results {
				fmt.Fprintf(stdout, "result[%d] = %d\n", i, r.I32())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fixture, "fixture", "fib", "builtin fixture module to run")
	cmd.Flags().StringVar(&export, "export", "fib", "exported function name to call")
	cmd.Flags().Int32Var(&param, "param", 20, "single i32 argument passed to the export")
	cmd.Flags().Uint64Var(&fuel, "fuel", 0, "fuel budget; 0 disables metering")
	return cmd
}
