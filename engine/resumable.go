package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/executor"
)

// Resumable names one suspended call: a host trap awaiting fixed-up
// results, or an out-of-fuel condition awaiting a refill, named as a
// first-class type carrying the suspended call's own identity rather than
// a bare internal/executor.Suspension (SPEC_FULL.md §3 "Resumable-call
// type safety", grounded on wasmi's ResumableInvocation).
type Resumable struct {
	inst *Instance
	susp *executor.Suspension
}

// HostTrapped reports whether a host function call is the reason this
// call suspended.
func (r *Resumable) HostTrapped() bool { return r.susp.HostTrap != nil }

// HostError returns the error the host function returned, or nil if this
// Resumable suspended for a different reason.
func (r *Resumable) HostError() error {
	if r.susp.HostTrap == nil {
		return nil
	}
	return r.susp.HostTrap
}

// OutOfFuel reports whether insufficient fuel is the reason this call
// suspended.
func (r *Resumable) OutOfFuel() bool { return r.susp.OutOfFuel }

// RequiredFuel returns the fuel Store.RefillFuel must add before Resume
// can make progress past an OutOfFuel suspension.
func (r *Resumable) RequiredFuel() uint64 { return r.susp.RequiredFuel }

// Resume continues the suspended call (spec.md §7). For a host trap,
// fixup supplies the results the embedder wants written in place of the
// failed call; passing nil instead replays the call. An out-of-fuel
// suspension ignores fixup; the embedder must have called
// Store.RefillFuel first.
func (r *Resumable) Resume(ctx context.Context, fixup []cell.Cell) ([]cell.Cell, *Resumable, error) {
	results, susp, err := r.inst.exec.Resume(ctx, fixup)
	if err != nil {
		r.inst.logger.Warn("resume trapped", zap.Error(err))
		return nil, nil, err
	}
	if susp != nil {
		return nil, &Resumable{inst: r.inst, susp: susp}, nil
	}
	return results, nil, nil
}
