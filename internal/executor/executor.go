package executor

import (
	"context"

	"github.com/vmwasm/vmwasm/internal/arena"
	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/codemap"
	"github.com/vmwasm/vmwasm/internal/ir"
	"github.com/vmwasm/vmwasm/internal/stack"
	"github.com/vmwasm/vmwasm/internal/wasmstore"
)

// Executor is a single-threaded interpreter over one Store's compiled
// functions, per spec.md §4.3. An Executor holds an exclusive borrow on
// its Store for the duration of Execute/Resume (spec.md §5): callers must
// not share one Executor (or its Store) across goroutines concurrently.
type Executor struct {
	store *wasmstore.Store
	code  *codemap.CodeMap

	values *stack.ValueStack
	calls  *stack.CallStack

	// ip is the instruction pointer into the current frame's Func.Ops.
	ip int
	// instance is the instance the current frame executes against.
	instance arena.Handle
	// mem0 caches memory index 0's backing slice for the current
	// instance, refreshed on every instance change and every operation
	// that can reallocate it (spec.md §4.3 "cached memory-0 pointer").
	mem0       []byte
	hasMem0    bool
	fuelCosts  FuelCosts
	bulkFuelMode FuelMode

	// pending is the Suspension last returned by runLoop, kept so Resume
	// knows where a fixed-up host-call result belongs without the embedder
	// having to hand the Suspension value back verbatim.
	pending *Suspension
}

// FuelMode selects whether bulk operations (memory/table copy/fill/init)
// charge fuel before attempting the operation (eager) or only on success
// (lazy), per spec.md §4.3 and the Open Question in spec.md §9.
type FuelMode byte

const (
	FuelLazy FuelMode = iota
	FuelEager
)

// New creates an Executor bound to store and code, with the given value-
// stack limits and call-stack recursion ceiling (spec.md §6
// Config.stack_limits).
func New(store *wasmstore.Store, code *codemap.CodeMap, initialCells, maxCells, callCeiling int, costs FuelCosts, mode FuelMode) *Executor {
	return &Executor{
		store:        store,
		code:         code,
		values:       stack.NewValueStack(initialCells, maxCells),
		calls:        stack.NewCallStack(callCeiling),
		fuelCosts:    costs,
		bulkFuelMode: mode,
	}
}

// Suspension is returned by Execute/Resume instead of results when
// execution paused at a resumable point: a host trap or an out-of-fuel
// condition (spec.md §5 "Suspension points", §7).
type Suspension struct {
	// HostTrap is set when a host function call returned an error.
	HostTrap *HostError
	// OutOfFuel is set when ConsumeFuel detected insufficient fuel.
	OutOfFuel bool
	RequiredFuel uint64
	// CallerInstance/ResultSpan name where the embedder must write fixed-up
	// results before calling Resume (spec.md §7 "resumable errors
	// additionally carry the context needed to resume").
	CallerInstance arena.Handle
	ResultSpan     ir.BoundedSlotSpan
}

// Execute runs fn (looked up via code) against instance with params
// written into its frame, returning either the function's results or a
// Suspension to resume later (spec.md §6 "execute_func").
func (e *Executor) Execute(ctx context.Context, instance arena.Handle, fn codemap.EngineFunc, params []cell.Cell) (results []cell.Cell, susp *Suspension, err error) {
	e.values.Reset()
	e.calls.Reset()
	e.pending = nil

	defer func() {
		if r := recover(); r != nil {
			err = recoverToError(r)
		}
	}()

	compiled, cerr := e.code.Resolve(fn)
	if cerr != nil {
		return nil, nil, cerr
	}

	base, ok := e.values.AllocFrame(compiled)
	if !ok {
		trap(ir.TrapStackOverflow)
	}
	for i, p := range params {
		e.values.Set(base, ir.Slot(i), p)
	}

	e.calls.Push(stack.CallFrame{
		CallerIP:        -1,
		Func:            compiled,
		FrameBase:       base,
		NumConsts:       len(compiled.Consts),
		ResultSpan:      ir.NewBoundedSlotSpan(0, compiled.NumResults),
		Instance:        instance,
		HasInstance:     true,
	})
	e.instance = instance
	e.refreshMem0(ctx)
	e.ip = 0

	susp, err = e.runLoop(ctx)
	e.pending = susp
	if err != nil || susp != nil {
		return nil, susp, err
	}

	frame := e.calls.Frames[len(e.calls.Frames)-1]
	results = e.collectResults(frame)
	return results, nil, nil
}

// Resume continues execution after a Suspension returned by Execute (or a
// prior Resume). For a host-trap suspension, passing fixup writes those
// cells into the caller's reserved result span and skips past the call
// that trapped, exactly as if the host function had returned them itself
// (spec.md §7 "the embedder must write fixed-up results before calling
// Resume"); passing nil fixup instead replays the same call (useful when
// the embedder wants the host trampoline invoked again rather than
// supplied synthetic results). An out-of-fuel suspension ignores fixup
// entirely: the embedder is expected to have called Store.RefillFuel
// first, and resuming simply re-attempts the same OpConsumeFuel check.
func (e *Executor) Resume(ctx context.Context, fixup []cell.Cell) (results []cell.Cell, susp *Suspension, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoverToError(r)
		}
	}()

	if fixup != nil && e.pending != nil && e.pending.HostTrap != nil {
		it := e.pending.ResultSpan.Iter()
		for _, v := range fixup {
			s, _ := it.Next()
			e.set(s, v)
		}
		op := e.curFrame().Func.Ops[e.ip]
		e.ip += 1 + op.NumParamWords()
	}
	e.pending = nil

	susp, err = e.runLoop(ctx)
	e.pending = susp
	if err != nil || susp != nil {
		return nil, susp, err
	}

	frame := e.calls.Frames[len(e.calls.Frames)-1]
	results = e.collectResults(frame)
	return results, nil, nil
}

func (e *Executor) collectResults(frame stack.CallFrame) []cell.Cell {
	n := int(frame.Func.NumResults)
	out := make([]cell.Cell, n)
	for i := 0; i < n; i++ {
		out[i] = e.values.Get(frame.FrameBase, ir.Slot(i))
	}
	return out
}

func recoverToError(r interface{}) error {
	switch v := r.(type) {
	case error:
		return v
	default:
		return &InternalError{Msg: "unexpected panic during execution"}
	}
}

// refreshMem0 re-derives the cached memory-0 slice for the current
// instance, a no-op if the instance has no memories.
func (e *Executor) refreshMem0(ctx context.Context) {
	inst := e.store.Instances.Resolve(e.instance)
	if len(inst.Memories) == 0 {
		e.hasMem0 = false
		e.mem0 = nil
		return
	}
	mem := e.store.Memories.Resolve(inst.Memories[0])
	e.mem0 = mem.Data
	e.hasMem0 = true
}
