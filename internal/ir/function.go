package ir

// CostVector assigns a fuel cost to each op index of a CompiledFunction,
// summed per basic block into that block's OpConsumeFuel amount by the
// translator (internal/translator) when fuel metering is enabled. Kept
// alongside the op stream rather than recomputed at run time so resuming
// after OutOfFuel never re-derives costs.
type CostVector []uint64

// CompiledFunction is the immutable output of translating one Wasm
// function body: its instruction stream, embedded constant pool, and the
// total number of mutable stack slots its frame requires. Allocated once
// and addressed by a stable handle from internal/codemap.
type CompiledFunction struct {
	Ops        []Op
	Consts     ConstPool
	NumSlots   uint32 // size of the mutable region of the call frame
	Costs      CostVector
	NumParams  uint16
	NumResults uint16
}

// FrameSize returns the total number of cells a call frame for this
// function occupies: the constant pool plus the mutable slot region.
func (f *CompiledFunction) FrameSize() int {
	return len(f.Consts) + int(f.NumSlots)
}
