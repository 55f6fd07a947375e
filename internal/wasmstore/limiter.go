package wasmstore

import "context"

// ResourceLimiter is consulted before growing a memory or table, per
// spec.md §4.5. Returning (false, nil) denies the growth without error
// (the grow operation returns its sentinel value to Wasm, see
// internal/executor); returning a non-nil error aborts the operation.
type ResourceLimiter interface {
	LimitMemoryGrow(ctx context.Context, current, desired, max uint64) (bool, error)
	LimitTableGrow(ctx context.Context, current, desired, max uint64) (bool, error)
	// GrowFailed is the hook for an allocation that fails after the limiter
	// already approved it (e.g. the host is out of system memory), so the
	// limiter can roll back its own accounting. Per spec.md §9 this is a
	// grow-returns-sentinel path, not a trap. Store.GrowMemory and
	// Store.GrowTable do not call it.
	GrowFailed(ctx context.Context)
}

// CallHooks is consulted on entry/exit of host<->Wasm transitions
// (spec.md §4.5 "Call hooks").
type CallHooks interface {
	BeforeWasmCall(ctx context.Context, fn *FunctionInstance)
	AfterWasmCall(ctx context.Context, fn *FunctionInstance)
	BeforeHostCall(ctx context.Context, fn *FunctionInstance)
	AfterHostCall(ctx context.Context, fn *FunctionInstance)
}

// noopLimiter never denies growth and never errors; used when the
// embedder configures no limiter.
type noopLimiter struct{}

func (noopLimiter) LimitMemoryGrow(context.Context, uint64, uint64, uint64) (bool, error) {
	return true, nil
}
func (noopLimiter) LimitTableGrow(context.Context, uint64, uint64, uint64) (bool, error) {
	return true, nil
}
func (noopLimiter) GrowFailed(context.Context) {}

// noopHooks does nothing on any transition.
type noopHooks struct{}

func (noopHooks) BeforeWasmCall(context.Context, *FunctionInstance) {}
func (noopHooks) AfterWasmCall(context.Context, *FunctionInstance)  {}
func (noopHooks) BeforeHostCall(context.Context, *FunctionInstance) {}
func (noopHooks) AfterHostCall(context.Context, *FunctionInstance)  {}
