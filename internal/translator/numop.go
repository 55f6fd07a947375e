package translator

import (
	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/ir"
	"github.com/vmwasm/vmwasm/internal/wasmops"
)

// binaryNumOp maps a plain arithmetic/bitwise opcode to the NumOp the
// executor's evalBinary switches on. Comparisons are handled separately
// (compareCmp) since they lower to ir.Comparator, not ir.NumOp.
var binaryNumOp = map[wasmops.Opcode]ir.NumOp{
	wasmops.OpcodeI32Add:  ir.AddI32,
	wasmops.OpcodeI32Sub:  ir.SubI32,
	wasmops.OpcodeI32Mul:  ir.MulI32,
	wasmops.OpcodeI32DivS: ir.DivSI32,
	wasmops.OpcodeI32DivU: ir.DivUI32,
	wasmops.OpcodeI32RemS: ir.RemSI32,
	wasmops.OpcodeI32RemU: ir.RemUI32,
	wasmops.OpcodeI32And:  ir.AndI32,
	wasmops.OpcodeI32Or:   ir.OrI32,
	wasmops.OpcodeI32Xor:  ir.XorI32,
	wasmops.OpcodeI32Shl:  ir.ShlI32,
	wasmops.OpcodeI32ShrS: ir.ShrSI32,
	wasmops.OpcodeI32ShrU: ir.ShrUI32,
	wasmops.OpcodeI32Rotl: ir.RotlI32,
	wasmops.OpcodeI32Rotr: ir.RotrI32,

	wasmops.OpcodeI64Add:  ir.AddI64,
	wasmops.OpcodeI64Sub:  ir.SubI64,
	wasmops.OpcodeI64Mul:  ir.MulI64,
	wasmops.OpcodeI64DivS: ir.DivSI64,
	wasmops.OpcodeI64DivU: ir.DivUI64,
	wasmops.OpcodeI64RemS: ir.RemSI64,
	wasmops.OpcodeI64RemU: ir.RemUI64,
	wasmops.OpcodeI64And:  ir.AndI64,
	wasmops.OpcodeI64Or:   ir.OrI64,
	wasmops.OpcodeI64Xor:  ir.XorI64,
	wasmops.OpcodeI64Shl:  ir.ShlI64,
	wasmops.OpcodeI64ShrS: ir.ShrSI64,
	wasmops.OpcodeI64ShrU: ir.ShrUI64,
	wasmops.OpcodeI64Rotl: ir.RotlI64,
	wasmops.OpcodeI64Rotr: ir.RotrI64,

	wasmops.OpcodeF32Add: ir.AddF32,
	wasmops.OpcodeF32Sub: ir.SubF32,
	wasmops.OpcodeF32Mul: ir.MulF32,
	wasmops.OpcodeF32Div: ir.DivF32,
	wasmops.OpcodeF32Min: ir.MinF32,
	wasmops.OpcodeF32Max: ir.MaxF32,

	wasmops.OpcodeF64Add: ir.AddF64,
	wasmops.OpcodeF64Sub: ir.SubF64,
	wasmops.OpcodeF64Mul: ir.MulF64,
	wasmops.OpcodeF64Div: ir.DivF64,
	wasmops.OpcodeF64Min: ir.MinF64,
	wasmops.OpcodeF64Max: ir.MaxF64,
}

var unaryNumOp = map[wasmops.Opcode]ir.NumOp{
	wasmops.OpcodeI32Clz:    ir.ClzI32,
	wasmops.OpcodeI32Ctz:    ir.CtzI32,
	wasmops.OpcodeI32Popcnt: ir.PopcntI32,
	wasmops.OpcodeI64Clz:    ir.ClzI64,
	wasmops.OpcodeI64Ctz:    ir.CtzI64,
	wasmops.OpcodeI64Popcnt: ir.PopcntI64,
	wasmops.OpcodeF32Neg:    ir.NegF32,
	wasmops.OpcodeF64Neg:    ir.NegF64,
	wasmops.OpcodeF32Abs:    ir.AbsF32,
	wasmops.OpcodeF64Abs:    ir.AbsF64,
	wasmops.OpcodeF32Sqrt:   ir.SqrtF32,
	wasmops.OpcodeF64Sqrt:   ir.SqrtF64,
	wasmops.OpcodeI32Extend8S:  ir.Extend8S,
	wasmops.OpcodeI32Extend16S: ir.Extend16S,
	wasmops.OpcodeI64Extend8S:  ir.Extend8S,
	wasmops.OpcodeI64Extend16S: ir.Extend16S,
	wasmops.OpcodeI64Extend32S: ir.Extend32S,
	// eqz lowers to a plain boolean-producing unary rather than the
	// comparator machinery: EqzI32/EqzI64 already yield an ordinary i32
	// cell, so a following br_if/if/select just treats it like any other
	// value instead of needing a dedicated fused form.
	wasmops.OpcodeI32Eqz: ir.EqzI32,
	wasmops.OpcodeI64Eqz: ir.EqzI64,
}

// foldBinary evaluates numOp on two constants at translation time, for the
// common non-trapping integer operators where duplicating the executor's
// arithmetic is simple and safe. Division, remainder, and shifts are left
// to run normally (division/remainder can trap; shift-amount masking rules
// are easy to get subtly wrong to reimplement here), so the executor's
// evalBinary remains the single source of truth for them.
func foldBinary(numOp ir.NumOp, a, b cell.Cell) (cell.Cell, bool) {
	switch numOp {
	case ir.AddI32:
		return cell.FromU32(a.U32() + b.U32()), true
	case ir.SubI32:
		return cell.FromU32(a.U32() - b.U32()), true
	case ir.MulI32:
		return cell.FromU32(a.U32() * b.U32()), true
	case ir.AndI32:
		return cell.FromU32(a.U32() & b.U32()), true
	case ir.OrI32:
		return cell.FromU32(a.U32() | b.U32()), true
	case ir.XorI32:
		return cell.FromU32(a.U32() ^ b.U32()), true
	case ir.AddI64:
		return cell.FromU64(a.U64() + b.U64()), true
	case ir.SubI64:
		return cell.FromU64(a.U64() - b.U64()), true
	case ir.MulI64:
		return cell.FromU64(a.U64() * b.U64()), true
	case ir.AndI64:
		return cell.FromU64(a.U64() & b.U64()), true
	case ir.OrI64:
		return cell.FromU64(a.U64() | b.U64()), true
	case ir.XorI64:
		return cell.FromU64(a.U64() ^ b.U64()), true
	default:
		return cell.Zero, false
	}
}

var convertNumOp = map[wasmops.Opcode]ir.NumOp{
	wasmops.OpcodeI32WrapI64:        ir.WrapI64ToI32,
	wasmops.OpcodeI64ExtendI32S:     ir.ExtendI32ToI64S,
	wasmops.OpcodeI64ExtendI32U:     ir.ExtendI32ToI64U,
	wasmops.OpcodeF32ConvertI32S:    ir.ConvertI32ToF32S,
	wasmops.OpcodeF32ConvertI32U:    ir.ConvertI32ToF32U,
	wasmops.OpcodeF64ConvertI32S:    ir.ConvertI32ToF64S,
	wasmops.OpcodeF64ConvertI32U:    ir.ConvertI32ToF64U,
	wasmops.OpcodeF32ConvertI64S:    ir.ConvertI64ToF32S,
	wasmops.OpcodeF32ConvertI64U:    ir.ConvertI64ToF32U,
	wasmops.OpcodeF64ConvertI64S:    ir.ConvertI64ToF64S,
	wasmops.OpcodeF64ConvertI64U:    ir.ConvertI64ToF64U,
	wasmops.OpcodeF32DemoteF64:      ir.DemoteF64ToF32,
	wasmops.OpcodeF64PromoteF32:     ir.PromoteF32ToF64,
	wasmops.OpcodeI32TruncF32S:      ir.TruncF32ToI32S,
	wasmops.OpcodeI32TruncF32U:      ir.TruncF32ToI32U,
	wasmops.OpcodeI32TruncF64S:      ir.TruncF64ToI32S,
	wasmops.OpcodeI32TruncF64U:      ir.TruncF64ToI32U,
	wasmops.OpcodeI64TruncF32S:      ir.TruncF32ToI64S,
	wasmops.OpcodeI64TruncF32U:      ir.TruncF32ToI64U,
	wasmops.OpcodeI64TruncF64S:      ir.TruncF64ToI64S,
	wasmops.OpcodeI64TruncF64U:      ir.TruncF64ToI64U,
	// Reinterprets carry no bit pattern change in the Cell representation
	// (a Cell is already an untyped 64-bit container), so they emit no op
	// at all - see reinterpretOpcodes.
}

// reinterpretOpcodes are the four bit-reinterpretation casts; since cell.Cell
// never tags its type, these are free at the Cell level: the translator
// only relabels the operand's type (translateReinterpret) and emits no op.
var reinterpretOpcodes = map[wasmops.Opcode]bool{
	wasmops.OpcodeI32ReinterpretF32: true,
	wasmops.OpcodeI64ReinterpretF64: true,
	wasmops.OpcodeF32ReinterpretI32: true,
	wasmops.OpcodeF64ReinterpretI64: true,
}

// compareCmp maps a comparison opcode to its Comparator. i32.eqz/i64.eqz are
// not comparisons at all as far as the IR is concerned - see unaryNumOp.
var compareCmp = map[wasmops.Opcode]ir.Comparator{
	wasmops.OpcodeI32Eq:  ir.CmpI32Eq,
	wasmops.OpcodeI32Ne:  ir.CmpI32Ne,
	wasmops.OpcodeI32LtS: ir.CmpI32LtS,
	wasmops.OpcodeI32LtU: ir.CmpI32LtU,
	wasmops.OpcodeI32GtS: ir.CmpI32GtS,
	wasmops.OpcodeI32GtU: ir.CmpI32GtU,
	wasmops.OpcodeI32LeS: ir.CmpI32LeS,
	wasmops.OpcodeI32LeU: ir.CmpI32LeU,
	wasmops.OpcodeI32GeS: ir.CmpI32GeS,
	wasmops.OpcodeI32GeU: ir.CmpI32GeU,

	wasmops.OpcodeI64Eq:  ir.CmpI64Eq,
	wasmops.OpcodeI64Ne:  ir.CmpI64Ne,
	wasmops.OpcodeI64LtS: ir.CmpI64LtS,
	wasmops.OpcodeI64LtU: ir.CmpI64LtU,
	wasmops.OpcodeI64GtS: ir.CmpI64GtS,
	wasmops.OpcodeI64GtU: ir.CmpI64GtU,
	wasmops.OpcodeI64LeS: ir.CmpI64LeS,
	wasmops.OpcodeI64LeU: ir.CmpI64LeU,
	wasmops.OpcodeI64GeS: ir.CmpI64GeS,
	wasmops.OpcodeI64GeU: ir.CmpI64GeU,

	wasmops.OpcodeF32Eq: ir.CmpF32Eq,
	wasmops.OpcodeF32Ne: ir.CmpF32Ne,
	wasmops.OpcodeF32Lt: ir.CmpF32Lt,
	wasmops.OpcodeF32Gt: ir.CmpF32Gt,
	wasmops.OpcodeF32Le: ir.CmpF32Le,
	wasmops.OpcodeF32Ge: ir.CmpF32Ge,

	wasmops.OpcodeF64Eq: ir.CmpF64Eq,
	wasmops.OpcodeF64Ne: ir.CmpF64Ne,
	wasmops.OpcodeF64Lt: ir.CmpF64Lt,
	wasmops.OpcodeF64Gt: ir.CmpF64Gt,
	wasmops.OpcodeF64Le: ir.CmpF64Le,
	wasmops.OpcodeF64Ge: ir.CmpF64Ge,
}

// loadNumOp/storeNumOp map a load/store opcode to the width/sign selector
// the executor's memaccess helpers switch on.
var loadNumOp = map[wasmops.Opcode]ir.NumOp{
	wasmops.OpcodeI32Load:    ir.LoadI32,
	wasmops.OpcodeI64Load:    ir.LoadI64,
	wasmops.OpcodeF32Load:    ir.LoadF32,
	wasmops.OpcodeF64Load:    ir.LoadF64,
	wasmops.OpcodeI32Load8S:  ir.Load8S,
	wasmops.OpcodeI32Load8U:  ir.Load8U,
	wasmops.OpcodeI32Load16S: ir.Load16S,
	wasmops.OpcodeI32Load16U: ir.Load16U,
	wasmops.OpcodeI64Load8S:  ir.Load8S,
	wasmops.OpcodeI64Load8U:  ir.Load8U,
	wasmops.OpcodeI64Load16S: ir.Load16S,
	wasmops.OpcodeI64Load16U: ir.Load16U,
	wasmops.OpcodeI64Load32S: ir.Load32S,
	wasmops.OpcodeI64Load32U: ir.Load32U,
}

var storeNumOp = map[wasmops.Opcode]ir.NumOp{
	wasmops.OpcodeI32Store:   ir.StoreI32,
	wasmops.OpcodeI64Store:   ir.StoreI64,
	wasmops.OpcodeF32Store:   ir.StoreF32,
	wasmops.OpcodeF64Store:   ir.StoreF64,
	wasmops.OpcodeI32Store8:  ir.Store8,
	wasmops.OpcodeI32Store16: ir.Store16,
	wasmops.OpcodeI64Store8:  ir.Store8,
	wasmops.OpcodeI64Store16: ir.Store16,
	wasmops.OpcodeI64Store32: ir.Store32,
}
