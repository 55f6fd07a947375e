package executor

import (
	"github.com/vmwasm/vmwasm/internal/arena"
	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/ir"
)

func (e *Executor) execGlobalGet(op ir.Op) {
	inst := e.store.Instances.Resolve(e.instance)
	g := e.store.Globals.Resolve(inst.Globals[op.Index])
	e.set(op.Result, g.Value)
}

func (e *Executor) execGlobalSet(op ir.Op) {
	inst := e.store.Instances.Resolve(e.instance)
	g := e.store.Globals.Resolve(inst.Globals[op.Index])
	g.Value = e.get(op.A)
}

// execRefFunc produces a funcref for function Index in the current
// instance, encoding the owning FunctionInstance's arena handle directly
// into the result cell (spec.md §3's untyped cell carries a reference the
// same way it carries a scalar: opaquely, with the producing op alone
// responsible for its meaning).
func (e *Executor) execRefFunc(op ir.Op) {
	inst := e.store.Instances.Resolve(e.instance)
	h := inst.Funcs[op.Index]
	e.set(op.Result, cell.FromU64(h.Pack()))
}

// funcRefHandle decodes a funcref cell back into the arena.Handle it names.
func funcRefHandle(c cell.Cell) arena.Handle {
	return arena.UnpackHandle(c.U64())
}
