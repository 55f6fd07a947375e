package translator

import (
	"github.com/vmwasm/vmwasm/internal/ir"
	"github.com/vmwasm/vmwasm/internal/wasmstore"
)

type ctrlKind byte

const (
	ctrlBlock ctrlKind = iota
	ctrlLoop
	ctrlIf
)

// patchSite names one not-yet-resolved branch reference: either a primary
// op's own Offset field (armIndex < 0), or a BranchTableTarget parameter
// word following an OpBranchTable at opIndex (armIndex >= 0), per spec.md
// §4.2 item 7 "Forward branches record the op index of the branch
// instruction in a pending list keyed by label".
type patchSite struct {
	opIndex  int
	armIndex int
}

// ctrlFrame is one entry of the translator's control stack (spec.md §4.2's
// block/loop/if/else frames).
type ctrlFrame struct {
	kind      ctrlKind
	blockType blockSig

	stackHeightAtEntry int // len(t.stack) when this frame was pushed

	// labelSlots is where a branch to this frame's label must leave its
	// values: the block's declared param span for a loop (branching to a
	// loop re-enters at the top, so it rendezvous on params), or the
	// block's declared result span for a block/if (branching out rendezvous
	// on results). Backed by the Translator's shared per-arity transfer
	// pool (see transfer.go) rather than a span private to this frame:
	// br_table's arms can target different frames with one physical copy,
	// which only works if every frame needing a k-value transfer agrees on
	// where that transfer happens. The values are always moved out of the
	// pool into fresh temps immediately after arrival (closeBlockLike, loop
	// entry), so a second, unrelated transfer of the same arity can reuse
	// the same slots safely.
	labelSlots []ir.Slot

	// pending is the list of not-yet-patched forward branches to this
	// frame's label (block/if only; a loop's label is already known at push
	// time, so loop branches patch immediately and need no pending list).
	pending []patchSite

	// loopStart is the op index loop branches jump back to.
	loopStart int

	// elseJump is the patch site of the `if`'s own branch-to-else-or-end,
	// recorded when the if is opened so `else` (or `end`, if there is no
	// else) can patch it once the destination is known.
	elseJump patchSite
	hasElse  bool

	// ifParams is the if's own param operands, saved so the else arm (real
	// or synthesised at `end`, see control_flow.go's doEnd) starts from the
	// exact same operand-stack entries the then arm did.
	ifParams []operand

	// savedUnreachable is the Translator's reachability flag as it was the
	// instant this frame was pushed, restored when the frame closes: Wasm's
	// validation rule is that falling out of a block's `end` always returns
	// to whatever reachability held right before the block was entered, not
	// to "reachable" unconditionally (a block nested inside dead code stays
	// dead code after it closes too).
	savedUnreachable bool

	fuelOp int // index of this block's OpConsumeFuel, -1 if none
}

func (f *ctrlFrame) labelArity() int { return len(f.labelSlots) }

// blockSig is a resolved block type: param/result slot count and operand
// stack types, resolved once from wasmops.BlockType so the rest of the
// translator never re-touches the raw decoded form.
type blockSig struct {
	params  []wasmstore.ValueType
	results []wasmstore.ValueType
}

func (t *Translator) pushCtrl(f *ctrlFrame) {
	t.ctrl = append(t.ctrl, f)
}

func (t *Translator) curCtrl() *ctrlFrame {
	return t.ctrl[len(t.ctrl)-1]
}

func (t *Translator) popCtrl() *ctrlFrame {
	f := t.ctrl[len(t.ctrl)-1]
	t.ctrl = t.ctrl[:len(t.ctrl)-1]
	return f
}

// ctrlAt returns the control frame `depth` levels up from the innermost
// (depth 0 is the innermost frame), the addressing scheme br/br_if/br_table
// use.
func (t *Translator) ctrlAt(depth uint32) *ctrlFrame {
	return t.ctrl[len(t.ctrl)-1-int(depth)]
}

// recordPending adds a forward-branch patch site to frame f's pending list.
func (f *ctrlFrame) recordPending(site patchSite) {
	f.pending = append(f.pending, site)
}

// resolveLabel patches every pending forward branch to f to land at dst
// (the current op index). An if's own conditional jump is not on that list;
// doElse or doEnd patches it.
func (t *Translator) resolveLabel(f *ctrlFrame, dst int) {
	for _, site := range f.pending {
		t.patch(site, dst)
	}
	f.pending = nil
}

func (t *Translator) patch(site patchSite, dst int) {
	if site.armIndex < 0 {
		t.ops[site.opIndex].Offset = ir.FromPositions(site.opIndex, dst)
		return
	}
	wordIdx := site.opIndex + 1 + site.armIndex
	t.ops[wordIdx].Offset = ir.FromPositions(site.opIndex, dst)
}
