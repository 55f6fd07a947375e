package executor

import (
	"context"

	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/ir"
	"github.com/vmwasm/vmwasm/internal/stack"
	"github.com/vmwasm/vmwasm/internal/wasmstore"
)

// readArgs decodes argCount argument cells from the parameter words
// following the calling op, undoing ir.ArgGroup's packing of up to three
// slots per word.
func (e *Executor) readArgs(argCount int) []cell.Cell {
	args := make([]cell.Cell, 0, argCount)
	remaining := argCount
	word := 1
	for remaining > 0 {
		n := remaining
		if n > 3 {
			n = 3
		}
		p := e.paramWord(word)
		args = append(args, e.get(p.A))
		if n >= 2 {
			args = append(args, e.get(p.B))
		}
		if n >= 3 {
			args = append(args, e.get(ir.Slot(uint16(p.Imm))))
		}
		remaining -= n
		word++
	}
	return args
}

// execCall performs a direct (non-tail) call to the function named by
// op.Index in the current instance's function index space.
func (e *Executor) execCall(ctx context.Context, op ir.Op) *Suspension {
	inst := e.store.Instances.Resolve(e.instance)
	fn := e.store.Functions.Resolve(inst.Funcs[op.Index])
	args := e.readArgs(int(op.Aux))
	returnIP := e.ip + 1 + op.NumParamWords()

	if fn.IsHost {
		return e.callHost(ctx, fn, args, op.Result, returnIP)
	}
	e.pushWasmCall(ctx, fn, args, op.Result, returnIP)
	return nil
}

// execCallIndirect performs a call through table op.Cond at element index
// op.A, verifying the callee's type matches the declared signature in
// op.Index before calling.
func (e *Executor) execCallIndirect(ctx context.Context, op ir.Op) *Suspension {
	inst := e.store.Instances.Resolve(e.instance)
	tbl := e.store.Tables.Resolve(inst.Tables[uint32(op.Cond)])
	elemIdx := e.get(op.A).U64()
	if elemIdx >= tbl.Len() {
		trap(ir.TrapTableOutOfBounds)
	}
	ref := tbl.Elements[elemIdx]
	if ref.IsRefNull() {
		trap(ir.TrapIndirectCallToNull)
	}
	fn := e.store.Functions.Resolve(funcRefHandle(ref))
	if fn.TypeID != wasmstore.TypeID(op.Index) {
		trap(ir.TrapBadSignature)
	}

	args := e.readArgs(int(op.Aux))
	returnIP := e.ip + 1 + op.NumParamWords()

	if fn.IsHost {
		return e.callHost(ctx, fn, args, op.Result, returnIP)
	}
	e.pushWasmCall(ctx, fn, args, op.Result, returnIP)
	return nil
}

// execReturnCall performs a tail call: the current frame is replaced in
// place rather than a new frame being pushed, per spec.md §4.3 "Tail
// call... replace the current frame in place" - callers of the current
// frame never see an additional frame appear on the call stack. done
// reports whether this tail call immediately unwound all the way to the
// root frame (only possible when the tail target is a host function).
func (e *Executor) execReturnCall(ctx context.Context, op ir.Op) (susp *Suspension, done bool) {
	inst := e.store.Instances.Resolve(e.instance)
	fn := e.store.Functions.Resolve(inst.Funcs[op.Index])
	args := e.readArgs(int(op.Aux))

	if fn.IsHost {
		return e.tailCallHost(ctx, fn, args)
	}
	e.tailReplaceWasmCall(ctx, fn, args)
	return nil, false
}

// execReturnCallIndirect is execReturnCall's indirect counterpart.
func (e *Executor) execReturnCallIndirect(ctx context.Context, op ir.Op) (susp *Suspension, done bool) {
	inst := e.store.Instances.Resolve(e.instance)
	tbl := e.store.Tables.Resolve(inst.Tables[uint32(op.Cond)])
	elemIdx := e.get(op.A).U64()
	if elemIdx >= tbl.Len() {
		trap(ir.TrapTableOutOfBounds)
	}
	ref := tbl.Elements[elemIdx]
	if ref.IsRefNull() {
		trap(ir.TrapIndirectCallToNull)
	}
	fn := e.store.Functions.Resolve(funcRefHandle(ref))
	if fn.TypeID != wasmstore.TypeID(op.Index) {
		trap(ir.TrapBadSignature)
	}

	args := e.readArgs(int(op.Aux))
	if fn.IsHost {
		return e.tailCallHost(ctx, fn, args)
	}
	e.tailReplaceWasmCall(ctx, fn, args)
	return nil, false
}

// callHost invokes a host trampoline synchronously: the current frame
// stays on the call stack (a host call never grows the Wasm call stack),
// its results land directly in the caller's own result span, and ip simply
// advances past the calling op. A host error yields a resumable
// Suspension instead of unwinding, per spec.md §7.
func (e *Executor) callHost(ctx context.Context, fn *wasmstore.FunctionInstance, args []cell.Cell, resultHead ir.Slot, returnIP int) *Suspension {
	ft := e.store.Types.Resolve(fn.TypeID)
	numResults := len(ft.Results)
	window := make([]cell.Cell, len(args))
	copy(window, args)
	if numResults > len(window) {
		window = append(window, make([]cell.Cell, numResults-len(window))...)
	}

	var defInst *wasmstore.Instance
	if fn.Instance.IsValid() {
		defInst = e.store.Instances.Resolve(fn.Instance)
	}

	e.store.Hooks.BeforeHostCall(ctx, fn)
	err := fn.Host(ctx, defInst, window)
	e.store.Hooks.AfterHostCall(ctx, fn)
	if err != nil {
		return &Suspension{
			HostTrap:       &HostError{Err: err},
			CallerInstance: e.instance,
			ResultSpan:     ir.NewBoundedSlotSpan(resultHead, uint16(numResults)),
		}
	}

	for i := 0; i < numResults; i++ {
		e.set(resultHead+ir.Slot(i), window[i])
	}
	e.ip = returnIP
	return nil
}

// tailCallHost services a tail call whose target is a host function: the
// host call happens with the current frame still active (its result span
// names where to write), then the results are delivered exactly as a Wasm
// tail-callee's own execReturn would deliver them - unwinding the current
// frame and possibly completing the whole execution.
func (e *Executor) tailCallHost(ctx context.Context, fn *wasmstore.FunctionInstance, args []cell.Cell) (susp *Suspension, done bool) {
	frame := e.calls.Top()
	numResults := int(frame.ResultSpan.Len)

	ft := e.store.Types.Resolve(fn.TypeID)
	window := make([]cell.Cell, len(args))
	copy(window, args)
	if len(ft.Results) > len(window) {
		window = append(window, make([]cell.Cell, len(ft.Results)-len(window))...)
	}

	var defInst *wasmstore.Instance
	if fn.Instance.IsValid() {
		defInst = e.store.Instances.Resolve(fn.Instance)
	}
	e.store.Hooks.BeforeHostCall(ctx, fn)
	err := fn.Host(ctx, defInst, window)
	e.store.Hooks.AfterHostCall(ctx, fn)
	if err != nil {
		return &Suspension{
			HostTrap:       &HostError{Err: err},
			CallerInstance: e.instance,
			ResultSpan:     ir.NewBoundedSlotSpan(0, uint16(numResults)),
		}, false
	}

	return nil, e.execReturn(ctx, window[:numResults])
}

// pushWasmCall pushes a new frame for an internal or imported Wasm call.
func (e *Executor) pushWasmCall(ctx context.Context, fn *wasmstore.FunctionInstance, args []cell.Cell, resultHead ir.Slot, returnIP int) {
	compiled, err := e.code.Resolve(fn.Body)
	if err != nil {
		internalErrorf("failed to resolve compiled function: %v", err)
	}
	callerFrame := e.calls.Top()

	base, ok := e.values.AllocFrame(compiled)
	if !ok {
		trap(ir.TrapStackOverflow)
	}
	for i, a := range args {
		e.values.Set(base, ir.Slot(i), a)
	}

	ok = e.calls.Push(stack.CallFrame{
		CallerIP:        returnIP,
		CallerBase:      callerFrame.FrameBase,
		CallerNumConsts: callerFrame.NumConsts,
		ResultSpan:      ir.NewBoundedSlotSpan(resultHead, compiled.NumResults),
		Instance:        fn.Instance,
		HasInstance:     true,
		Func:            compiled,
		FrameBase:       base,
		NumConsts:       len(compiled.Consts),
	})
	if !ok {
		trap(ir.TrapStackOverflow)
	}

	e.instance = fn.Instance
	e.refreshMem0(ctx)
	e.ip = 0
}

// tailReplaceWasmCall replaces the current frame in place for a tail call:
// the caller's own reserved result span is inherited unchanged, matching
// spec.md §4.3's description of tail calls never growing the call stack.
func (e *Executor) tailReplaceWasmCall(ctx context.Context, fn *wasmstore.FunctionInstance, args []cell.Cell) {
	compiled, err := e.code.Resolve(fn.Body)
	if err != nil {
		internalErrorf("failed to resolve compiled function: %v", err)
	}
	current := e.calls.Top()

	base, ok := e.values.AllocFrame(compiled)
	if !ok {
		trap(ir.TrapStackOverflow)
	}
	for i, a := range args {
		e.values.Set(base, ir.Slot(i), a)
	}
	e.values.FreeFrame(current.FrameBase, current.NumConsts)

	*current = stack.CallFrame{
		CallerIP:        current.CallerIP,
		CallerBase:      current.CallerBase,
		CallerNumConsts: current.CallerNumConsts,
		ResultSpan:      current.ResultSpan,
		Instance:        fn.Instance,
		HasInstance:     true,
		Func:            compiled,
		FrameBase:       base,
		NumConsts:       len(compiled.Consts),
	}

	e.instance = fn.Instance
	e.refreshMem0(ctx)
	e.ip = 0
}
