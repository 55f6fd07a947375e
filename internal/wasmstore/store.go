package wasmstore

import (
	"context"

	"github.com/vmwasm/vmwasm/internal/arena"
	"github.com/vmwasm/vmwasm/internal/cell"
)

// Store owns every runtime entity for one execution context: arenas for
// each entity kind, a deduplicating function-type registry, an optional
// fuel counter, an optional resource limiter, and a stable store identity
// every handle it mints carries (spec.md §3 "Store").
//
// A Store and everything it owns form a single-threaded region (spec.md
// §5): the executor holds an exclusive borrow on the Store for the
// duration of one execute_func call, so Store itself performs no internal
// locking. Of the engine-level state it shares, the CodeMap locks
// internally; the TypeRegistry does not.
type Store struct {
	id uint64

	Functions *arena.Arena[FunctionInstance]
	Tables    *arena.Arena[Table]
	Memories  *arena.Arena[Memory]
	Globals   *arena.Arena[Global]
	Elems     *arena.Arena[ElementSegment]
	Datas     *arena.Arena[DataSegment]
	Instances *arena.Arena[Instance]

	Types *TypeRegistry

	FuelEnabled bool
	Fuel        uint64

	Limiter ResourceLimiter
	Hooks   CallHooks
}

// New creates an empty Store with a fresh, process-wide unique identity.
func New(types *TypeRegistry) *Store {
	id := arena.NextStoreID()
	return &Store{
		id:        id,
		Functions: arena.New[FunctionInstance](id),
		Tables:    arena.New[Table](id),
		Memories:  arena.New[Memory](id),
		Globals:   arena.New[Global](id),
		Elems:     arena.New[ElementSegment](id),
		Datas:     arena.New[DataSegment](id),
		Instances: arena.New[Instance](id),
		Types:     types,
		Limiter:   noopLimiter{},
		Hooks:     noopHooks{},
	}
}

// ID returns the store's process-wide unique identity.
func (s *Store) ID() uint64 { return s.id }

// SetLimiter installs a resource limiter, or clears it (nil reverts to an
// always-approve limiter) per spec.md §4.5.
func (s *Store) SetLimiter(l ResourceLimiter) {
	if l == nil {
		l = noopLimiter{}
	}
	s.Limiter = l
}

// SetCallHooks installs call-entry/exit hooks, or clears them.
func (s *Store) SetCallHooks(h CallHooks) {
	if h == nil {
		h = noopHooks{}
	}
	s.Hooks = h
}

// ConsumeFuel subtracts n from the fuel counter, reporting whether there
// was enough. When fuel metering is disabled this is never called (spec.md
// §8 "Fuel monotonicity": "if consume_fuel is disabled, fuel counters are
// never read or written").
func (s *Store) ConsumeFuel(n uint64) (ok bool) {
	if s.Fuel < n {
		return false
	}
	s.Fuel -= n
	return true
}

// RefillFuel adds n to the fuel counter, used by the embedder to resume
// after an OutOfFuel suspension (spec.md §7).
func (s *Store) RefillFuel(n uint64) { s.Fuel += n }

// GrowMemory attempts to grow mem from its current size to newPages,
// consulting the resource limiter first. Returns the previous page count
// on success, or ok=false if the limiter denied the growth or maximum
// bounds were exceeded (caller maps this to the Wasm sentinel return, not
// a trap, per spec.md §7).
func (s *Store) GrowMemory(ctx context.Context, mem *Memory, deltaPages uint64) (previous uint64, ok bool) {
	previous = mem.Pages()
	newPages := previous + deltaPages
	if !mem.CanGrow(newPages) {
		return previous, false
	}
	max := mem.MaxPages
	if !mem.HasMax {
		max = mem.IndexType.maxLen() / PageSize
	}
	approved, err := s.Limiter.LimitMemoryGrow(ctx, previous, newPages, max)
	if err != nil || !approved {
		return previous, false
	}
	mem.Data = append(mem.Data, make([]byte, deltaPages*PageSize)...)
	return previous, true
}

// GrowTable attempts to grow tbl from its current size by delta elements,
// each initialized to fill, consulting the resource limiter first. Returns
// the previous length on success, or ok=false if denied.
func (s *Store) GrowTable(ctx context.Context, tbl *Table, delta uint64, fill cell.Cell) (previous uint64, ok bool) {
	previous = tbl.Len()
	newLen := previous + delta
	if !tbl.CanGrow(newLen) {
		return previous, false
	}
	max := tbl.Max
	if !tbl.HasMax {
		max = tbl.IndexType.maxLen()
	}
	approved, err := s.Limiter.LimitTableGrow(ctx, previous, newLen, max)
	if err != nil || !approved {
		return previous, false
	}
	for i := uint64(0); i < delta; i++ {
		tbl.Elements = append(tbl.Elements, fill)
	}
	return previous, true
}
