package translator

import (
	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/ir"
	"github.com/vmwasm/vmwasm/internal/wasmops"
	"github.com/vmwasm/vmwasm/internal/wasmstore"
)

// translateOne dispatches one decoded operator, pushing/popping the
// simulated operand stack and emitting whatever ir.Op sequence realises it.
// Once t.unreachable is set, translation carries on unchanged: structural
// opcodes (block/loop/if nesting, else, end) keep the control stack in
// sync, and every other operator is translated and its ops emitted as
// usual (they are never executed). When the operand stack runs dry there,
// t.pop manufactures a dummy immediate instead of failing.
func (t *Translator) translateOne(ins wasmops.Instruction) {
	switch ins.Op {
	case wasmops.OpcodeUnreachable:
		t.emit(ir.Op{Kind: ir.OpTrap, Aux: uint32(ir.TrapUnreachableCodeReached)})
		t.unreachable = true
	case wasmops.OpcodeNop:
		// nothing to do

	case wasmops.OpcodeBlock:
		t.pushBlock(t.resolveBlockType(ins.Block))
	case wasmops.OpcodeLoop:
		t.pushLoop(t.resolveBlockType(ins.Block))
	case wasmops.OpcodeIf:
		t.pushIf(t.resolveBlockType(ins.Block))
	case wasmops.OpcodeElse:
		t.doElse()
	case wasmops.OpcodeEnd:
		t.doEnd()
	case wasmops.OpcodeBr:
		t.doBr(ins.Index)
	case wasmops.OpcodeBrIf:
		t.doBrIf(ins.Index)
	case wasmops.OpcodeBrTable:
		t.doBrTable(ins.Targets)
	case wasmops.OpcodeReturn:
		t.doReturn()

	case wasmops.OpcodeCall:
		t.translateCall(ins)
	case wasmops.OpcodeCallIndirect:
		t.translateCallIndirect(ins)
	case wasmops.OpcodeReturnCall:
		t.translateReturnCall(ins)
	case wasmops.OpcodeReturnCallIndirect:
		t.translateReturnCallIndirect(ins)

	case wasmops.OpcodeDrop:
		t.release(t.pop())
	case wasmops.OpcodeSelect, wasmops.OpcodeSelectTyped:
		t.translateSelect(ins)

	case wasmops.OpcodeLocalGet:
		t.push(localOperand(ins.Index, t.locals[ins.Index]))
	case wasmops.OpcodeLocalSet:
		v := t.pop()
		t.preserveLocalAliases(ins.Index)
		t.materializeInto(v, ir.Slot(ins.Index))
		t.release(v)
	case wasmops.OpcodeLocalTee:
		v := t.stack[len(t.stack)-1]
		t.preserveLocalAliases(ins.Index)
		t.materializeInto(v, ir.Slot(ins.Index))
		if v.kind == temp {
			t.layout.release(v.slot)
		}
		t.stack[len(t.stack)-1] = localOperand(ins.Index, t.locals[ins.Index])
	case wasmops.OpcodeGlobalGet:
		ty := t.mod.Globals[ins.Index].ValType
		dst := t.freshTemp()
		t.emit(ir.Op{Kind: ir.OpGlobalGet, Result: dst, Index: ins.Index})
		t.push(tempOperand(dst, ty))
	case wasmops.OpcodeGlobalSet:
		v := t.pop()
		slot := t.materialize(v)
		t.emit(ir.Op{Kind: ir.OpGlobalSet, A: slot, Index: ins.Index})
		t.release(v)

	case wasmops.OpcodeI32Const:
		t.push(immOperand(cell.FromI32(ins.ConstI32), wasmstore.ValueTypeI32))
	case wasmops.OpcodeI64Const:
		t.push(immOperand(cell.FromI64(ins.ConstI64), wasmstore.ValueTypeI64))
	case wasmops.OpcodeF32Const:
		t.push(immOperand(cell.FromF32(ins.ConstF32), wasmstore.ValueTypeF32))
	case wasmops.OpcodeF64Const:
		t.push(immOperand(cell.FromF64(ins.ConstF64), wasmstore.ValueTypeF64))

	case wasmops.OpcodeRefNull:
		t.push(immOperand(cell.RefNull, ins.RefType))
	case wasmops.OpcodeRefIsNull:
		a := t.pop()
		aSlot := t.materialize(a)
		dst := t.freshTemp()
		t.emit(ir.Op{Kind: ir.OpRefIsNull, Result: dst, A: aSlot})
		t.release(a)
		t.push(tempOperand(dst, wasmstore.ValueTypeI32))
	case wasmops.OpcodeRefFunc:
		dst := t.freshTemp()
		t.emit(ir.Op{Kind: ir.OpRefFunc, Result: dst, Index: ins.Index})
		t.push(tempOperand(dst, wasmstore.ValueTypeFuncref))

	case wasmops.OpcodeMemorySize:
		dst := t.freshTemp()
		t.emit(ir.Op{Kind: ir.OpMemorySize, Result: dst, Index: ins.Index})
		t.push(tempOperand(dst, wasmstore.ValueTypeI32))
	case wasmops.OpcodeMemoryGrow:
		delta := t.pop()
		dst := t.freshTemp()
		t.emit(ir.Op{Kind: ir.OpMemoryGrow, Result: dst, A: t.materialize(delta), Index: ins.Index})
		t.release(delta)
		t.push(tempOperand(dst, wasmstore.ValueTypeI32))
	case wasmops.OpcodeMemoryFill:
		t.translateMemoryFill(ins)
	case wasmops.OpcodeMemoryCopy:
		t.translateMemoryCopy(ins)
	case wasmops.OpcodeMemoryInit:
		t.translateMemoryInit(ins)
	case wasmops.OpcodeDataDrop:
		t.emit(ir.Op{Kind: ir.OpDataDrop, Aux: ins.Index})

	case wasmops.OpcodeTableGet:
		idx := t.pop()
		dst := t.freshTemp()
		t.emit(ir.Op{Kind: ir.OpTableGet, Result: dst, A: t.materialize(idx), Index: ins.Index})
		t.release(idx)
		t.push(tempOperand(dst, t.mod.Tables[ins.Index].ElemType))
	case wasmops.OpcodeTableSet:
		val := t.pop()
		idx := t.pop()
		t.emit(ir.Op{Kind: ir.OpTableSet, A: t.materialize(idx), B: t.materialize(val), Index: ins.Index})
		t.release(idx)
		t.release(val)
	case wasmops.OpcodeTableSize:
		dst := t.freshTemp()
		t.emit(ir.Op{Kind: ir.OpTableSize, Result: dst, Index: ins.Index})
		t.push(tempOperand(dst, wasmstore.ValueTypeI32))
	case wasmops.OpcodeTableGrow:
		delta := t.pop()
		fill := t.pop()
		dst := t.freshTemp()
		t.emit(ir.Op{Kind: ir.OpTableGrow, Result: dst, A: t.materialize(delta), B: t.materialize(fill), Index: ins.Index})
		t.release(delta)
		t.release(fill)
		t.push(tempOperand(dst, wasmstore.ValueTypeI32))
	case wasmops.OpcodeTableFill:
		t.translateTableFill(ins)
	case wasmops.OpcodeTableCopy:
		t.translateTableCopy(ins)
	case wasmops.OpcodeTableInit:
		t.translateTableInit(ins)
	case wasmops.OpcodeElemDrop:
		t.emit(ir.Op{Kind: ir.OpElemDrop, Aux: ins.Index})

	default:
		if numOp, ok := loadNumOp[ins.Op]; ok {
			t.translateLoad(numOp, ins)
			return
		}
		if numOp, ok := storeNumOp[ins.Op]; ok {
			t.translateStore(numOp, ins)
			return
		}
		if cmp, ok := compareCmp[ins.Op]; ok {
			t.translateCompare(cmp)
			return
		}
		if numOp, ok := binaryNumOp[ins.Op]; ok {
			t.translateBinary(numOp)
			return
		}
		if numOp, ok := unaryNumOp[ins.Op]; ok {
			t.translateUnary(numOp)
			return
		}
		if numOp, ok := convertNumOp[ins.Op]; ok {
			t.translateConvert(numOp)
			return
		}
		if reinterpretOpcodes[ins.Op] {
			t.translateReinterpret(reinterpretResultType(ins.Op))
			return
		}
		fail("unsupported opcode %d", ins.Op)
	}
}

func (t *Translator) resolveBlockType(bt wasmops.BlockType) blockSig {
	return blockSig{params: bt.Params, results: bt.Results}
}

// preserveLocalAliases materialises every operand-stack entry still
// aliasing local idx (a local read whose value has not yet been copied
// anywhere) into a fresh temp, right before idx's own slot is overwritten
// by local.set/local.tee - otherwise those stack entries would silently
// start reading the new value instead of the one they captured.
func (t *Translator) preserveLocalAliases(idx uint32) {
	for i, o := range t.stack {
		if o.kind == local && o.localIdx == idx {
			s := t.freshTemp()
			t.emit(ir.Op{Kind: ir.OpCopy, Result: s, A: ir.Slot(idx)})
			t.stack[i] = tempOperand(s, o.ty)
		}
	}
}

func (t *Translator) translateBinary(numOp ir.NumOp) {
	b := t.pop()
	a := t.pop()
	ty := a.ty
	if a.kind == immediate && b.kind == immediate {
		if v, ok := foldBinary(numOp, a.imm, b.imm); ok {
			t.push(immOperand(v, ty))
			return
		}
	}
	aSlot := t.materialize(a)
	bv := t.valSrc(b)
	dst := t.freshTemp()
	if bv.isImm {
		t.emit(ir.Op{Kind: ir.OpBinaryImmRHS, Result: dst, A: aSlot, NumOp: numOp, Imm: bv.imm})
	} else {
		t.emit(ir.Op{Kind: ir.OpBinary, Result: dst, A: aSlot, B: bv.slot, NumOp: numOp})
	}
	t.release(a)
	t.release(b)
	t.push(tempOperand(dst, ty))
}

func (t *Translator) translateUnary(numOp ir.NumOp) {
	a := t.pop()
	aSlot := t.materialize(a)
	dst := t.freshTemp()
	t.emit(ir.Op{Kind: ir.OpUnary, Result: dst, A: aSlot, NumOp: numOp})
	t.release(a)
	t.push(tempOperand(dst, unaryResultType(numOp, a.ty)))
}

// unaryResultType names the handful of unary operators whose result type
// differs from their operand's (the widening sign-extensions and the two
// eqz variants, which always produce i32); every other unary operator
// (clz/ctz/popcnt/neg/abs/sqrt) keeps the operand's own type.
func unaryResultType(numOp ir.NumOp, operandTy wasmstore.ValueType) wasmstore.ValueType {
	switch numOp {
	case ir.EqzI32, ir.EqzI64:
		return wasmstore.ValueTypeI32
	case ir.Extend32S:
		return wasmstore.ValueTypeI64
	default:
		return operandTy
	}
}

func (t *Translator) translateConvert(numOp ir.NumOp) {
	a := t.pop()
	aSlot := t.materialize(a)
	dst := t.freshTemp()
	t.emit(ir.Op{Kind: ir.OpConvert, Result: dst, A: aSlot, NumOp: numOp})
	t.release(a)
	t.push(tempOperand(dst, convertResultType(numOp)))
}

func convertResultType(numOp ir.NumOp) wasmstore.ValueType {
	switch numOp {
	case ir.WrapI64ToI32, ir.TruncF32ToI32S, ir.TruncF32ToI32U, ir.TruncF64ToI32S, ir.TruncF64ToI32U:
		return wasmstore.ValueTypeI32
	case ir.ExtendI32ToI64S, ir.ExtendI32ToI64U, ir.TruncF32ToI64S, ir.TruncF32ToI64U, ir.TruncF64ToI64S, ir.TruncF64ToI64U:
		return wasmstore.ValueTypeI64
	case ir.ConvertI32ToF32S, ir.ConvertI32ToF32U, ir.ConvertI64ToF32S, ir.ConvertI64ToF32U, ir.DemoteF64ToF32:
		return wasmstore.ValueTypeF32
	default:
		return wasmstore.ValueTypeF64
	}
}

// translateReinterpret is free: cell.Cell carries no type tag, so
// reinterpreting a value's bit pattern as another type is just relabeling
// the same operand, never an emitted op.
func (t *Translator) translateReinterpret(ty wasmstore.ValueType) {
	a := t.pop()
	a.ty = ty
	t.push(a)
}

func reinterpretResultType(op wasmops.Opcode) wasmstore.ValueType {
	switch op {
	case wasmops.OpcodeI32ReinterpretF32:
		return wasmstore.ValueTypeI32
	case wasmops.OpcodeI64ReinterpretF64:
		return wasmstore.ValueTypeI64
	case wasmops.OpcodeF32ReinterpretI32:
		return wasmstore.ValueTypeF32
	default: // OpcodeF64ReinterpretI64
		return wasmstore.ValueTypeF64
	}
}

// translateCompare keeps the comparator's result lazy (a cmpResult
// operand) rather than materialising it immediately, so a following
// br_if/if/select can fuse it straight into a branch/select instead of
// paying for a separate OpCompare first. The feeder operands' slots (if
// temps) are deliberately not released here: they must stay valid for
// whenever the cmpResult is eventually consumed, which may be arbitrarily
// later in the instruction stream.
func (t *Translator) translateCompare(cmp ir.Comparator) {
	b := t.pop()
	a := t.pop()
	aSlot := t.materialize(a)
	bv := t.valSrc(b)
	t.push(cmpOperand(cmp, aSlot, bv, wasmstore.ValueTypeI32))
}

// translateSelect fuses into OpSelectCmp the common min/max-style idiom
// `select(a, b, cmp(a, b))`, the only shape OpSelectCmp's single pair of
// operands can express (it re-reads its own A/B as both the comparator's
// operands and the two candidate results). Any other condition - a
// separately-computed boolean, or a comparator over different operands -
// falls back to materialising the condition and using plain OpSelect.
func (t *Translator) translateSelect(ins wasmops.Instruction) {
	cond := t.pop()
	b := t.pop()
	a := t.pop()
	ty := a.ty
	if ins.SelectType != nil {
		ty = *ins.SelectType
	}
	aSlot := t.materialize(a)
	bSlot := t.materialize(b)
	dst := t.freshTemp()
	if cond.kind == cmpResult && !cond.cmpB.isImm && cond.cmpA == aSlot && cond.cmpB.slot == bSlot {
		t.emit(ir.Op{Kind: ir.OpSelectCmp, Result: dst, A: aSlot, B: bSlot, Cmp: cond.cmp})
	} else {
		condSlot := t.materialize(cond)
		t.emit(ir.Op{Kind: ir.OpSelect, Result: dst, A: aSlot, B: bSlot, Cond: condSlot})
	}
	t.release(a)
	t.release(b)
	t.push(tempOperand(dst, ty))
}

func (t *Translator) translateLoad(numOp ir.NumOp, ins wasmops.Instruction) {
	base := t.pop()
	baseSlot := t.materialize(base)
	dst := t.freshTemp()
	t.emit(ir.Op{Kind: ir.OpLoad, Result: dst, A: baseSlot, Offset: ir.BranchOffset(ins.Mem.Offset), Index: ins.Mem.Mem, NumOp: numOp})
	t.release(base)
	t.push(tempOperand(dst, loadResultType(ins.Op)))
}

func loadResultType(op wasmops.Opcode) wasmstore.ValueType {
	switch op {
	case wasmops.OpcodeI64Load, wasmops.OpcodeI64Load8S, wasmops.OpcodeI64Load8U,
		wasmops.OpcodeI64Load16S, wasmops.OpcodeI64Load16U, wasmops.OpcodeI64Load32S, wasmops.OpcodeI64Load32U:
		return wasmstore.ValueTypeI64
	case wasmops.OpcodeF32Load:
		return wasmstore.ValueTypeF32
	case wasmops.OpcodeF64Load:
		return wasmstore.ValueTypeF64
	default:
		return wasmstore.ValueTypeI32
	}
}

func (t *Translator) translateStore(numOp ir.NumOp, ins wasmops.Instruction) {
	val := t.pop()
	base := t.pop()
	baseSlot := t.materialize(base)
	vv := t.valSrc(val)
	if vv.isImm {
		t.emit(ir.Op{Kind: ir.OpStoreImm, A: baseSlot, Offset: ir.BranchOffset(ins.Mem.Offset), Index: ins.Mem.Mem, NumOp: numOp, Imm: vv.imm})
	} else {
		t.emit(ir.Op{Kind: ir.OpStore, A: baseSlot, B: vv.slot, Offset: ir.BranchOffset(ins.Mem.Offset), Index: ins.Mem.Mem, NumOp: numOp})
	}
	t.release(base)
	t.release(val)
}

func (t *Translator) translateMemoryFill(ins wasmops.Instruction) {
	n := t.pop()
	val := t.pop()
	start := t.pop()
	t.emit(ir.Op{Kind: ir.OpMemoryFill, A: t.materialize(start), B: t.materialize(val), Cond: t.materialize(n), Index: ins.Index})
	t.release(start)
	t.release(val)
	t.release(n)
}

func (t *Translator) translateMemoryCopy(ins wasmops.Instruction) {
	n := t.pop()
	src := t.pop()
	dst := t.pop()
	t.emit(ir.Op{Kind: ir.OpMemoryCopy, A: t.materialize(dst), B: t.materialize(src), Cond: t.materialize(n), Index: ins.Index, Aux: ins.Index2})
	t.release(dst)
	t.release(src)
	t.release(n)
}

func (t *Translator) translateMemoryInit(ins wasmops.Instruction) {
	n := t.pop()
	src := t.pop()
	dst := t.pop()
	t.emit(ir.Op{Kind: ir.OpMemoryInit, A: t.materialize(dst), B: t.materialize(src), Cond: t.materialize(n), Index: ins.Index, Aux: ins.Index2})
	t.release(dst)
	t.release(src)
	t.release(n)
}

func (t *Translator) translateTableFill(ins wasmops.Instruction) {
	n := t.pop()
	val := t.pop()
	start := t.pop()
	t.emit(ir.Op{Kind: ir.OpTableFill, A: t.materialize(start), B: t.materialize(val), Cond: t.materialize(n), Index: ins.Index})
	t.release(start)
	t.release(val)
	t.release(n)
}

func (t *Translator) translateTableCopy(ins wasmops.Instruction) {
	n := t.pop()
	src := t.pop()
	dst := t.pop()
	t.emit(ir.Op{Kind: ir.OpTableCopy, A: t.materialize(dst), B: t.materialize(src), Cond: t.materialize(n), Index: ins.Index, Aux: ins.Index2})
	t.release(dst)
	t.release(src)
	t.release(n)
}

func (t *Translator) translateTableInit(ins wasmops.Instruction) {
	n := t.pop()
	src := t.pop()
	dst := t.pop()
	t.emit(ir.Op{Kind: ir.OpTableInit, A: t.materialize(dst), B: t.materialize(src), Cond: t.materialize(n), Index: ins.Index, Aux: ins.Index2})
	t.release(dst)
	t.release(src)
	t.release(n)
}

// emitArgWords appends slots as OpCall/OpCallIndirect/OpReturnCall*'s
// trailing parameter words, three argument slots packed per word.
func (t *Translator) emitArgWords(slots []ir.Slot) {
	i := 0
	for i < len(slots) {
		n := len(slots) - i
		if n > 3 {
			n = 3
		}
		var a, b, c ir.Slot
		a = slots[i]
		if n >= 2 {
			b = slots[i+1]
		}
		if n >= 3 {
			c = slots[i+2]
		}
		t.ops = append(t.ops, ir.ArgGroup(a, b, c, n))
		t.costVector = append(t.costVector, 0)
		i += n
	}
}

func (t *Translator) materializeArgs(args []operand) []ir.Slot {
	slots := make([]ir.Slot, len(args))
	for i, a := range args {
		slots[i] = t.materialize(a)
	}
	return slots
}

func (t *Translator) translateCall(ins wasmops.Instruction) {
	ft := t.mod.FuncTypes[ins.Index]
	args := t.popN(len(ft.Params))
	argSlots := t.materializeArgs(args)
	resultN := len(ft.Results)
	var resultHead ir.Slot
	if resultN > 0 {
		resultHead = t.layout.reserve(uint16(resultN))
	}
	t.emit(ir.Op{Kind: ir.OpCall, Result: resultHead, Index: ins.Index, Aux: uint32(len(args))})
	t.emitArgWords(argSlots)
	for _, a := range args {
		t.release(a)
	}
	for i := 0; i < resultN; i++ {
		t.push(tempOperand(resultHead+ir.Slot(i), ft.Results[i]))
	}
}

func (t *Translator) translateCallIndirect(ins wasmops.Instruction) {
	ft := t.mod.Types[ins.Index]
	elemIdx := t.pop()
	elemSlot := t.materialize(elemIdx)
	args := t.popN(len(ft.Params))
	argSlots := t.materializeArgs(args)
	resultN := len(ft.Results)
	var resultHead ir.Slot
	if resultN > 0 {
		resultHead = t.layout.reserve(uint16(resultN))
	}
	t.emit(ir.Op{
		Kind:   ir.OpCallIndirect,
		Result: resultHead,
		Index:  uint32(t.mod.TypeIDs[ins.Index]),
		A:      elemSlot,
		Cond:   ir.Slot(ins.Index2),
		Aux:    uint32(len(args)),
	})
	t.emitArgWords(argSlots)
	t.release(elemIdx)
	for _, a := range args {
		t.release(a)
	}
	for i := 0; i < resultN; i++ {
		t.push(tempOperand(resultHead+ir.Slot(i), ft.Results[i]))
	}
}

func (t *Translator) translateReturnCall(ins wasmops.Instruction) {
	ft := t.mod.FuncTypes[ins.Index]
	args := t.popN(len(ft.Params))
	argSlots := t.materializeArgs(args)
	t.emit(ir.Op{Kind: ir.OpReturnCall, Index: ins.Index, Aux: uint32(len(args))})
	t.emitArgWords(argSlots)
	for _, a := range args {
		t.release(a)
	}
	t.unreachable = true
}

func (t *Translator) translateReturnCallIndirect(ins wasmops.Instruction) {
	ft := t.mod.Types[ins.Index]
	elemIdx := t.pop()
	elemSlot := t.materialize(elemIdx)
	args := t.popN(len(ft.Params))
	argSlots := t.materializeArgs(args)
	t.emit(ir.Op{
		Kind:  ir.OpReturnCallIndirect,
		Index: uint32(t.mod.TypeIDs[ins.Index]),
		A:     elemSlot,
		Cond:  ir.Slot(ins.Index2),
		Aux:   uint32(len(args)),
	})
	t.emitArgWords(argSlots)
	t.release(elemIdx)
	for _, a := range args {
		t.release(a)
	}
	t.unreachable = true
}
