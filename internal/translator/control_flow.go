package translator

import "github.com/vmwasm/vmwasm/internal/ir"

// emitBranchIf emits a fused conditional branch over cond (a br_if/if
// condition), returning the op's index so the caller can either patch its
// Offset immediately (a known backward target) or record it as a pending
// forward branch. When branchWhen is true the branch fires on a truthy
// cond (br_if's own sense); when false it fires on a falsy cond (if's
// branch-to-else-or-end). A cmpResult condition fuses directly into
// OpBranchCmp/OpBranchCmpImm using its own comparator (negated for the
// branchWhen=false case) except for float comparators, where Negate is
// unsound for NaN operands (see ir.Comparator.Negate) - those, like any
// other operand kind, fall back to materialising the value and comparing
// it against zero.
func (t *Translator) emitBranchIf(cond operand, branchWhen bool) int {
	if cond.kind == cmpResult && (branchWhen || !cond.isFloatCompare()) {
		cmp := cond.cmp
		if !branchWhen {
			cmp = cmp.Negate()
		}
		if cond.cmpB.isImm {
			return t.emit(ir.Op{Kind: ir.OpBranchCmpImm, A: cond.cmpA, Cmp: cmp, Imm: cond.cmpB.imm})
		}
		return t.emit(ir.Op{Kind: ir.OpBranchCmp, A: cond.cmpA, B: cond.cmpB.slot, Cmp: cmp})
	}
	s := t.materialize(cond)
	cmp := ir.CmpI32Ne
	if !branchWhen {
		cmp = ir.CmpI32Eq
	}
	return t.emit(ir.Op{Kind: ir.OpBranchCmpImm, A: s, Cmp: cmp, Imm: 0})
}

func (t *Translator) isFunctionLevel(depth uint32) bool { return int(depth) >= len(t.ctrl) }

func (t *Translator) labelArityForDepth(depth uint32) int {
	if t.isFunctionLevel(depth) {
		return len(t.sig.Results)
	}
	return t.ctrlAt(depth).labelArity()
}

// returnTrampoline returns the op index of a shared "read the arity-keyed
// transfer pool and return" sequence, creating it the first time arity is
// needed. Only br_table arms targeting the function itself use this - a
// plain br/br_if to function level just emits its own return inline (see
// doBr, doBrIfFunctionLevel) since there is no shared jump target to
// economise on in that case.
func (t *Translator) returnTrampoline(arity int) int {
	if idx, ok := t.returnTrampolines[arity]; ok {
		return idx
	}
	idx := len(t.ops)
	if arity == 0 {
		t.ops = append(t.ops, ir.Op{Kind: ir.OpReturn})
	} else {
		pool := t.transferPool(arity)
		t.ops = append(t.ops, ir.Op{Kind: ir.OpReturnMany, Result: pool[0], Aux: uint32(arity)})
	}
	t.costVector = append(t.costVector, t.fuelCosts.Base)
	t.returnTrampolines[arity] = idx
	return idx
}

// --- block / loop / if entry --------------------------------------------

func (t *Translator) pushBlock(bt blockSig) {
	params := t.popN(len(bt.params))
	height := len(t.stack)
	f := &ctrlFrame{
		kind:               ctrlBlock,
		blockType:          bt,
		stackHeightAtEntry: height,
		labelSlots:         t.transferPool(len(bt.results)),
		savedUnreachable:   t.unreachable,
		fuelOp:             t.curFuelOp,
	}
	t.pushCtrl(f)
	for _, p := range params {
		t.push(p)
	}
	t.startBlock()
}

// pushLoop opens a loop frame. A loop's label is its own start, not its
// end, so (unlike block/if) the transfer-pool write and the backward
// branch target are established right here: params are written into the
// pool immediately, loopStart is recorded at that point, and then they are
// copied straight back out into fresh temps to seed the body's working
// operand stack - the same copy-out sequence every backward branch lands
// on and re-executes.
func (t *Translator) pushLoop(bt blockSig) {
	params := t.popN(len(bt.params))
	height := len(t.stack)
	pool := t.transferPool(len(bt.params))
	for i, p := range params {
		t.materializeInto(p, pool[i])
	}
	f := &ctrlFrame{
		kind:               ctrlLoop,
		blockType:          bt,
		stackHeightAtEntry: height,
		labelSlots:         pool,
		loopStart:          len(t.ops),
		savedUnreachable:   t.unreachable,
		fuelOp:             t.curFuelOp,
	}
	t.pushCtrl(f)
	t.startBlock()
	for i, s := range pool {
		fresh := t.freshTemp()
		t.emit(ir.Op{Kind: ir.OpCopy, Result: fresh, A: s})
		t.push(tempOperand(fresh, bt.params[i]))
	}
}

func (t *Translator) pushIf(bt blockSig) {
	cond := t.pop()
	params := t.popN(len(bt.params))
	height := len(t.stack)
	elseOpIdx := t.emitBranchIf(cond, false)
	f := &ctrlFrame{
		kind:               ctrlIf,
		blockType:          bt,
		stackHeightAtEntry: height,
		labelSlots:         t.transferPool(len(bt.results)),
		elseJump:           patchSite{opIndex: elseOpIdx, armIndex: -1},
		ifParams:           params,
		savedUnreachable:   t.unreachable,
		fuelOp:             t.curFuelOp,
	}
	t.pushCtrl(f)
	for _, p := range params {
		t.push(p)
	}
	t.startBlock()
}

// transferAndJumpToEnd materialises the top labelArity operands into f's
// label slots and emits an unconditional branch, recorded as pending until
// f's end is reached. Used when an arm's body ends somewhere other than
// right at `end` (the then-arm of an if with an else).
func (t *Translator) transferAndJumpToEnd(f *ctrlFrame) {
	vals := t.popN(len(f.labelSlots))
	for i, v := range vals {
		t.materializeInto(v, f.labelSlots[i])
	}
	idx := t.emit(ir.Op{Kind: ir.OpBranch})
	f.recordPending(patchSite{opIndex: idx, armIndex: -1})
}

// transferOnly materialises the top labelArity operands into f's label
// slots without any branch, for the arm (block body, if-with-else's else
// body, if-without-else's synthesised else) that ends right at `end` and
// so simply falls into the copy-out code closeBlockLike emits next.
func (t *Translator) transferOnly(f *ctrlFrame) {
	vals := t.popN(len(f.labelSlots))
	for i, v := range vals {
		t.materializeInto(v, f.labelSlots[i])
	}
}

// closeBlockLike is the shared tail of a block's or if's `end`: the
// fallthrough arm (if currently reachable) transfers its values, every
// pending forward branch to this label is patched to land here, outer
// reachability is restored, and fresh temps reading the label slots back
// out become the post-block operand stack.
func (t *Translator) closeBlockLike(f *ctrlFrame) {
	if t.unreachable {
		t.stack = t.stack[:f.stackHeightAtEntry]
	} else {
		t.transferOnly(f)
	}
	dst := len(t.ops)
	t.resolveLabel(f, dst)
	t.unreachable = f.savedUnreachable
	for i, s := range f.labelSlots {
		fresh := t.freshTemp()
		t.emit(ir.Op{Kind: ir.OpCopy, Result: fresh, A: s})
		t.push(tempOperand(fresh, f.blockType.results[i]))
	}
	t.startBlock()
}

func (t *Translator) doElse() {
	f := t.popCtrl()
	if f.kind != ctrlIf {
		fail("else without matching if")
	}
	if !t.unreachable {
		t.transferAndJumpToEnd(f)
	}
	dst := len(t.ops)
	t.patch(f.elseJump, dst)
	f.hasElse = true
	t.unreachable = f.savedUnreachable
	t.stack = t.stack[:f.stackHeightAtEntry]
	for _, p := range f.ifParams {
		t.push(p)
	}
	t.pushCtrl(f)
	t.startBlock()
}

func (t *Translator) doEnd() {
	f := t.popCtrl()
	switch f.kind {
	case ctrlLoop:
		// A loop's result operands are already sitting in place on the
		// stack at the height they need to be (nothing routes through the
		// shared label slots on the way out, only on the way back in) -
		// only outer reachability needs restoring.
		t.unreachable = f.savedUnreachable
		t.startBlock()
	case ctrlBlock:
		t.closeBlockLike(f)
	case ctrlIf:
		if !f.hasElse {
			// No explicit else: synthesise one whose body is simply "the
			// params, unchanged" - params and results share a type list
			// by validation whenever an if has no else.
			if !t.unreachable {
				t.transferAndJumpToEnd(f)
			}
			dst := len(t.ops)
			t.patch(f.elseJump, dst)
			t.unreachable = f.savedUnreachable
			t.stack = t.stack[:f.stackHeightAtEntry]
			for _, p := range f.ifParams {
				t.push(p)
			}
		}
		t.closeBlockLike(f)
	}
}

// --- branches -------------------------------------------------------------

func (t *Translator) doBr(depth uint32) {
	if t.isFunctionLevel(depth) {
		t.doReturn()
		return
	}
	f := t.ctrlAt(depth)
	vals := t.popN(f.labelArity())
	for i, v := range vals {
		t.materializeInto(v, f.labelSlots[i])
	}
	idx := len(t.ops)
	if f.kind == ctrlLoop {
		t.emit(ir.Op{Kind: ir.OpBranch, Offset: ir.FromPositions(idx, f.loopStart)})
	} else {
		t.emit(ir.Op{Kind: ir.OpBranch})
		f.recordPending(patchSite{opIndex: idx, armIndex: -1})
	}
	t.unreachable = true
}

func (t *Translator) doBrIf(depth uint32) {
	cond := t.pop()
	if t.isFunctionLevel(depth) {
		t.doBrIfFunctionLevel(cond)
		return
	}
	f := t.ctrlAt(depth)
	arity := f.labelArity()
	n := len(t.stack)
	args := t.stack[n-arity:]
	for i, v := range args {
		t.materializeInto(v, f.labelSlots[i])
	}
	idx := t.emitBranchIf(cond, true)
	if f.kind == ctrlLoop {
		t.ops[idx].Offset = ir.FromPositions(idx, f.loopStart)
	} else {
		f.recordPending(patchSite{opIndex: idx, armIndex: -1})
	}
}

// doBrIfFunctionLevel implements a conditional `return`: the candidate
// result values are written into a dedicated span regardless of whether
// the branch fires (harmless on the not-taken path, where they simply stay
// on the operand stack unconsumed too), then a fused branch skips over a
// single inline OpReturn/OpReturnMany when the condition is false.
func (t *Translator) doBrIfFunctionLevel(cond operand) {
	n := len(t.sig.Results)
	args := t.stack[len(t.stack)-n:]
	var span ir.Slot
	if n > 0 {
		span = t.layout.reserve(uint16(n))
		for i, v := range args {
			t.materializeInto(v, span+ir.Slot(i))
		}
	}
	skipIdx := t.emitBranchIf(cond, false)
	if n == 0 {
		t.emit(ir.Op{Kind: ir.OpReturn})
	} else {
		t.emit(ir.Op{Kind: ir.OpReturnMany, Result: span, Aux: uint32(n)})
	}
	dst := len(t.ops)
	t.ops[skipIdx].Offset = ir.FromPositions(skipIdx, dst)
}

// doBrTable lowers br_table: every arm (validator-guaranteed to share one
// arity) transfers through the same shared per-arity pool, so the values
// are materialised into it exactly once regardless of how many arms there
// are, before the jump-table op and its per-arm offset words are emitted.
func (t *Translator) doBrTable(targets []uint32) {
	defaultDepth := targets[len(targets)-1]
	arity := t.labelArityForDepth(defaultDepth)
	selector := t.pop()
	args := t.popN(arity)
	pool := t.transferPool(arity)
	for i, v := range args {
		t.materializeInto(v, pool[i])
	}
	selSlot := t.materialize(selector)
	opIdx := t.emit(ir.Op{Kind: ir.OpBranchTable, A: selSlot, Index: uint32(len(targets))})
	// Arm words must land contiguously right after opIdx before any of them
	// is resolved - resolving an arm can lazily emit a returnTrampoline,
	// which appends ops of its own, and that must never happen in the
	// middle of this block or patch's opIdx+1+armIndex arithmetic breaks.
	for range targets {
		t.ops = append(t.ops, ir.BranchTableTarget(ir.UninitializedBranchOffset))
		t.costVector = append(t.costVector, 0)
	}
	for i, depth := range targets {
		site := patchSite{opIndex: opIdx, armIndex: i}
		if t.isFunctionLevel(depth) {
			t.patch(site, t.returnTrampoline(arity))
			continue
		}
		f := t.ctrlAt(depth)
		if f.kind == ctrlLoop {
			t.patch(site, f.loopStart)
		} else {
			f.recordPending(site)
		}
	}
	t.unreachable = true
}

// doReturn materialises the function's declared results into a fresh,
// dedicated span (not a shared transfer pool - a return unwinds the frame
// immediately, so there is no later copy-out to make reuse safe or
// necessary) and emits the terminal op.
func (t *Translator) doReturn() {
	n := len(t.sig.Results)
	vals := t.popN(n)
	if n == 0 {
		t.emit(ir.Op{Kind: ir.OpReturn})
		t.unreachable = true
		return
	}
	head := t.layout.reserve(uint16(n))
	for i, v := range vals {
		t.materializeInto(v, head+ir.Slot(i))
	}
	t.emit(ir.Op{Kind: ir.OpReturnMany, Result: head, Aux: uint32(n)})
	t.unreachable = true
}

func (t *Translator) emitImplicitReturn() {
	t.doReturn()
}
