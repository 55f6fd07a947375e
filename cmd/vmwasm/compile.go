package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vmwasm/vmwasm/engine"
)

func newCompileCmd(g *globalFlags, stdout io.Writer) *cobra.Command {
	var fixture string

	cmd := &cobra.Command{
		Use:   "compile",
		Short: fmt.Sprintf("Validate a builtin fixture module's shape without running it (fixtures: %s)", fixtureNames()),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, err := lookupFixture(fixture)
			if err != nil {
				return err
			}
			logger, err := newLogger(g)
			if err != nil {
				return err
			}

			e := engine.NewEngine(engine.NewConfig().WithLogger(logger))
			if _, err := e.CompileModule(mod); err != nil {
				return fmt.Errorf("vmwasm: compile: %w", err)
			}
			fmt.Fprintf(stdout, "%s: %d type(s), %d func(s), %d import(s)\n",
				fixture, len(mod.Types), len(mod.Funcs), len(mod.Imports))
			return nil
		},
	}
	cmd.Flags().StringVar(&fixture, "fixture", "fib", "builtin fixture module to compile")
	return cmd
}
