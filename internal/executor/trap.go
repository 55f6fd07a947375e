// Package executor implements the threaded interpreter loop that runs
// compiled functions (internal/ir.CompiledFunction) against a store
// (internal/wasmstore), per spec.md §4.3.
package executor

import (
	"fmt"

	"github.com/vmwasm/vmwasm/internal/ir"
)

// TrapError is a non-resumable abnormal termination of Wasm execution,
// codified by a TrapCode (spec.md §6/§7). Execution raises a TrapError by
// panicking with it; the panic unwinds to the outermost Execute call,
// mirroring the teacher's callEngine recover pattern in
// internal/engine/interpreter.
type TrapError struct {
	Code ir.TrapCode
}

func (e *TrapError) Error() string { return fmt.Sprintf("wasm trap: %s", e.Code) }

func trap(code ir.TrapCode) { panic(&TrapError{Code: code}) }

// HostError wraps an error returned by a host function trampoline. Unlike
// TrapError, a HostError is resumable: the embedder may fix up the
// caller's result slots and call Resume (spec.md §7).
type HostError struct {
	Err error
}

func (e *HostError) Error() string { return "host function error: " + e.Err.Error() }

// InternalError signals a condition that should be structurally
// impossible given a validated module and a sound translator (spec.md §7
// "Internal invariant"); recovered at the same boundary as TrapError but
// reported distinctly since it indicates a programmer error rather than a
// guest program's behavior.
type InternalError struct{ Msg string }

func (e *InternalError) Error() string { return "internal invariant violated: " + e.Msg }

func internalErrorf(format string, args ...interface{}) {
	panic(&InternalError{Msg: fmt.Sprintf(format, args...)})
}
