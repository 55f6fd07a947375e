package translator

import "github.com/vmwasm/vmwasm/internal/ir"

// transferPool returns the k contiguous slots every control frame needing a
// k-value label transfer shares (see ctrlFrame.labelSlots), allocating them
// the first time arity k is needed and reusing them for the rest of the
// function afterward. Safe because a transfer's values are only ever
// resident between the branch that writes them and the copy-out that reads
// them right back out into fresh temps (closeBlockLike, loop entry) - no two
// transfers of the same arity are ever simultaneously live.
func (t *Translator) transferPool(arity int) []ir.Slot {
	if arity == 0 {
		return nil
	}
	if s, ok := t.transferPools[arity]; ok {
		return s
	}
	head := t.layout.reserve(uint16(arity))
	slots := make([]ir.Slot, arity)
	for i := range slots {
		slots[i] = head + ir.Slot(i)
	}
	t.transferPools[arity] = slots
	return slots
}
