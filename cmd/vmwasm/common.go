package main

import (
	"fmt"
	"strings"

	"github.com/vmwasm/vmwasm/internal/wasmfixture"
	"github.com/vmwasm/vmwasm/internal/wasmops"
)

// fixtureNames lists builtin modules a user can pass to --fixture,
// rendered into every subcommand's --help text.
func fixtureNames() string { return strings.Join(wasmfixture.Names, ", ") }

func lookupFixture(name string) (*wasmops.Module, error) {
	mod := wasmfixture.Lookup(name)
	if mod == nil {
		return nil, fmt.Errorf("vmwasm: unknown fixture %q (known: %s)", name, fixtureNames())
	}
	return mod, nil
}
