package executor

// FuelCosts assigns a unit cost to each operator category, mirrored from
// wasmi's engine/config.rs FuelCosts (see SPEC_FULL.md §3 "Per-category
// fuel cost table") to pin the exact field set the Open Question in
// spec.md §9 asks implementers to preserve.
type FuelCosts struct {
	Base             uint64 // default cost of one instruction
	Entity           uint64 // table/memory/global access
	Load             uint64
	Store            uint64
	Call             uint64
	FuncLocalsPerFuel uint64 // cost per local zero-initialized on call, §9 Open Question
}

// DefaultFuelCosts returns a reasonable default cost table; every field is
// non-zero so fuel is never silently free for a category.
func DefaultFuelCosts() FuelCosts {
	return FuelCosts{
		Base:              1,
		Entity:            2,
		Load:              1,
		Store:             1,
		Call:              1,
		FuncLocalsPerFuel: 1,
	}
}

// bulkOpCost computes fuel owed for a bulk memory/table operation over n
// elements, charged lazily (only on success) or eagerly (unconditionally,
// before bounds are even checked) depending on the Executor's configured
// FuelMode (spec.md §4.3, §9 Open Question "Eager vs lazy fuel charging
// for bulk memory ops").
func (e *Executor) bulkOpCost(n uint64) uint64 {
	return e.fuelCosts.Entity * n
}
