package ir

import (
	"fmt"
	"strings"
)

// Disassemble renders a CompiledFunction's op stream as human-readable
// text, one instruction per line prefixed with its op index. Grounded on
// wasmi's crates/ir2/build/display tooling (see SPEC_FULL.md §3); useful
// for debugging translator output and diffing against expected IR in
// tests, never consulted by the executor itself.
func Disassemble(f *CompiledFunction) string {
	var b strings.Builder
	i := 0
	for i < len(f.Ops) {
		op := f.Ops[i]
		fmt.Fprintf(&b, "%04d: %s\n", i, disasmOne(op))
		i += 1 + op.NumParamWords()
	}
	return b.String()
}

func disasmOne(op Op) string {
	switch op.Kind {
	case OpBinary:
		return fmt.Sprintf("%s <- %s, %s (op=%d)", op.Result, op.A, op.B, op.NumOp)
	case OpBinaryImmRHS:
		return fmt.Sprintf("%s <- %s, #%d (op=%d)", op.Result, op.A, op.Imm, op.NumOp)
	case OpBinaryImmLHS:
		return fmt.Sprintf("%s <- #%d, %s (op=%d)", op.Result, op.Imm, op.B, op.NumOp)
	case OpUnary:
		return fmt.Sprintf("%s <- unary(%s) (op=%d)", op.Result, op.A, op.NumOp)
	case OpConvert:
		return fmt.Sprintf("%s <- convert(%s) (op=%d)", op.Result, op.A, op.NumOp)
	case OpBranchCmp:
		return fmt.Sprintf("br_cmp %s, %s, cmp=%d -> %+d", op.A, op.B, op.Cmp, op.Offset)
	case OpBranchCmpImm:
		return fmt.Sprintf("br_cmp %s, #%d, cmp=%d -> %+d", op.A, op.Imm, op.Cmp, op.Offset)
	case OpBranchCmpFallback:
		return "br_cmp_fallback (see param word)"
	case OpSelect:
		return fmt.Sprintf("%s <- select(%s ? %s : %s)", op.Result, op.Cond, op.A, op.B)
	case OpSelectCmp:
		return fmt.Sprintf("%s <- select_cmp(cmp=%d ? %s : %s)", op.Result, op.Cmp, op.A, op.B)
	case OpCompare:
		return fmt.Sprintf("%s <- cmp(%s, %s) cmp=%d", op.Result, op.A, op.B, op.Cmp)
	case OpCompareImm:
		return fmt.Sprintf("%s <- cmp(%s, #%d) cmp=%d", op.Result, op.A, op.Imm, op.Cmp)
	case OpLoad:
		return fmt.Sprintf("%s <- load[mem%d](%s + %d)", op.Result, op.Index, op.A, op.Offset)
	case OpLoadAbs:
		return fmt.Sprintf("%s <- load_abs(%d)", op.Result, uint32(op.Imm))
	case OpStore:
		return fmt.Sprintf("store[mem%d](%s + %d) <- %s", op.Index, op.A, op.Offset, op.B)
	case OpStoreImm:
		return fmt.Sprintf("store(%s + %d) <- #%d", op.A, op.Offset, op.Imm)
	case OpTableGet, OpTableSet, OpTableSize, OpTableGrow, OpTableFill, OpTableInit, OpTableCopy:
		return fmt.Sprintf("table.%d idx=%d", op.Kind, op.Index)
	case OpMemorySize, OpMemoryGrow, OpMemoryFill, OpMemoryCopy, OpMemoryInit, OpDataDrop, OpElemDrop:
		return fmt.Sprintf("memory.%d idx=%d", op.Kind, op.Index)
	case OpCall:
		return fmt.Sprintf("%s <- call func=%d argn=%d", op.Result, op.Index, op.Aux)
	case OpCallIndirect:
		return fmt.Sprintf("%s <- call_indirect type=%d table=%d elem=%s argn=%d", op.Result, op.Index, op.Cond, op.A, op.Aux)
	case OpReturnCall:
		return fmt.Sprintf("return_call func=%d argn=%d", op.Index, op.Aux)
	case OpReturnCallIndirect:
		return fmt.Sprintf("return_call_indirect type=%d table=%d elem=%s argn=%d", op.Index, op.Cond, op.A, op.Aux)
	case OpBranch:
		return fmt.Sprintf("br -> %+d", op.Offset)
	case OpBranchTable:
		return fmt.Sprintf("br_table %s, n=%d", op.A, op.Index)
	case OpConsumeFuel:
		return fmt.Sprintf("consume_fuel %d", op.Imm)
	case OpTrap:
		return fmt.Sprintf("trap %s", TrapCode(op.Aux))
	case OpReturn:
		return "return"
	case OpReturnMany:
		return fmt.Sprintf("return_many %s, n=%d", op.Result, op.Aux)
	case OpCopySpan:
		return fmt.Sprintf("%s..<- copy_span %s.., n=%d", op.Result, op.A, op.Aux)
	case OpCopy:
		return fmt.Sprintf("%s <- copy %s", op.Result, op.A)
	case OpCopyImm:
		return fmt.Sprintf("%s <- #%d", op.Result, op.Imm)
	case OpConstRef:
		return fmt.Sprintf("%s <- const %s", op.Result, op.A)
	case OpGlobalGet:
		return fmt.Sprintf("%s <- global.get %d", op.Result, op.Index)
	case OpGlobalSet:
		return fmt.Sprintf("global.set %d <- %s", op.Index, op.A)
	case OpRefFunc:
		return fmt.Sprintf("%s <- ref.func %d", op.Result, op.Index)
	case OpRefIsNull:
		return fmt.Sprintf("%s <- ref.is_null(%s)", op.Result, op.A)
	default:
		return fmt.Sprintf("<invalid kind=%d>", op.Kind)
	}
}
