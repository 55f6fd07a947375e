package wasmstore

import (
	"context"

	"github.com/vmwasm/vmwasm/internal/arena"
	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/codemap"
)

// HostFunc is the calling contract a host trampoline satisfies: given the
// defining instance (nil for a free-standing host function) and a window
// of cells holding parameters on entry and results on return, perform the
// host-side call. The trampoline machinery itself (argument marshalling
// from typed Go signatures) is out of scope per spec.md §1; the core only
// depends on this narrow calling contract.
type HostFunc func(ctx context.Context, instance *Instance, window []cell.Cell) error

// FunctionInstance is a runtime function, either backed by a compiled Wasm
// body (EngineFunc resolves through internal/codemap) or a host
// trampoline. Exactly one of Body/Host is set.
type FunctionInstance struct {
	TypeID   TypeID
	Instance arena.Handle // defining instance, for Wasm functions
	Body     codemap.EngineFunc
	Host     HostFunc
	IsHost   bool
}
