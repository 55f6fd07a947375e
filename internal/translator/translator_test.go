package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmwasm/vmwasm/internal/cell"
	"github.com/vmwasm/vmwasm/internal/executor"
	"github.com/vmwasm/vmwasm/internal/ir"
	"github.com/vmwasm/vmwasm/internal/wasmops"
	"github.com/vmwasm/vmwasm/internal/wasmstore"
)

var (
	i32, i64 = wasmstore.ValueTypeI32, wasmstore.ValueTypeI64
	v_v      = &wasmstore.FunctionType{}
	i32_i32  = &wasmstore.FunctionType{Params: []wasmstore.ValueType{i32}, Results: []wasmstore.ValueType{i32}}
	i32i32_i32 = &wasmstore.FunctionType{Params: []wasmstore.ValueType{i32, i32}, Results: []wasmstore.ValueType{i32}}
)

func emptyModule() *ModuleContext {
	return &ModuleContext{}
}

func newTestTranslator(mod *ModuleContext) *Translator {
	if mod == nil {
		mod = emptyModule()
	}
	return New(mod, executor.DefaultFuelCosts(), false)
}

func ins(op wasmops.Opcode) wasmops.Instruction { return wasmops.Instruction{Op: op} }

func kindsOf(ops []ir.Op) []ir.OpKind {
	out := make([]ir.OpKind, len(ops))
	for i, o := range ops {
		out[i] = o.Kind
	}
	return out
}

func TestCompile_Nullary(t *testing.T) {
	tr := newTestTranslator(nil)
	cf, err := tr.Compile(v_v, wasmops.FunctionBody{Code: []wasmops.Instruction{}})
	require.NoError(t, err)
	assert.Equal(t, []ir.OpKind{ir.OpReturn}, kindsOf(cf.Ops))
	assert.Equal(t, uint16(0), cf.NumParams)
	assert.Equal(t, uint16(0), cf.NumResults)
}

func TestCompile_Identity(t *testing.T) {
	tr := newTestTranslator(nil)
	cf, err := tr.Compile(i32_i32, wasmops.FunctionBody{
		Code: []wasmops.Instruction{
			{Op: wasmops.OpcodeLocalGet, Index: 0},
		},
	})
	require.NoError(t, err)
	// The return span is a fresh slot, so the aliased local still has to be
	// copied into it before OpReturnMany reads the span.
	require.Len(t, cf.Ops, 2)
	require.Equal(t, ir.OpCopy, cf.Ops[0].Kind)
	assert.EqualValues(t, 0, cf.Ops[0].A)
	require.Equal(t, ir.OpReturnMany, cf.Ops[1].Kind)
	assert.EqualValues(t, cf.Ops[0].Result, cf.Ops[1].Result)
	assert.EqualValues(t, 1, cf.Ops[1].Aux)
}

func TestCompile_ConstFoldsBinaryAdd(t *testing.T) {
	tr := newTestTranslator(nil)
	cf, err := tr.Compile(v_v, wasmops.FunctionBody{
		Code: []wasmops.Instruction{
			{Op: wasmops.OpcodeI32Const, ConstI32: 2},
			{Op: wasmops.OpcodeI32Const, ConstI32: 3},
			{Op: wasmops.OpcodeI32Add},
			{Op: wasmops.OpcodeDrop},
		},
	})
	require.NoError(t, err)
	// Both operands are constant, so no OpBinary is ever emitted - the whole
	// arithmetic disappears into a folded immediate that drop then discards.
	for _, op := range cf.Ops {
		assert.NotEqual(t, ir.OpBinary, op.Kind)
		assert.NotEqual(t, ir.OpBinaryImmRHS, op.Kind)
	}
}

func TestCompile_BinaryNonConstEmitsOp(t *testing.T) {
	tr := newTestTranslator(nil)
	cf, err := tr.Compile(i32i32_i32, wasmops.FunctionBody{
		Code: []wasmops.Instruction{
			{Op: wasmops.OpcodeLocalGet, Index: 0},
			{Op: wasmops.OpcodeLocalGet, Index: 1},
			{Op: wasmops.OpcodeI32Add},
		},
	})
	require.NoError(t, err)
	require.Contains(t, kindsOf(cf.Ops), ir.OpBinary)
}

func TestCompile_BinaryImmRHSFusesConstantOperand(t *testing.T) {
	tr := newTestTranslator(nil)
	cf, err := tr.Compile(i32_i32, wasmops.FunctionBody{
		Code: []wasmops.Instruction{
			{Op: wasmops.OpcodeLocalGet, Index: 0},
			{Op: wasmops.OpcodeI32Const, ConstI32: 1},
			{Op: wasmops.OpcodeI32Add},
		},
	})
	require.NoError(t, err)
	require.Contains(t, kindsOf(cf.Ops), ir.OpBinaryImmRHS)
}

// TestCompile_BrIfFusesCompare checks that `a == b; br_if 0` never
// materialises the comparison into a temp slot first: it should fuse
// straight into OpBranchCmp.
func TestCompile_BrIfFusesCompare(t *testing.T) {
	tr := newTestTranslator(nil)
	cf, err := tr.Compile(v_v, wasmops.FunctionBody{
		Code: []wasmops.Instruction{
			{Op: wasmops.OpcodeBlock, Block: wasmops.BlockType{}},
			{Op: wasmops.OpcodeLocalGet, Index: 0},
			{Op: wasmops.OpcodeLocalGet, Index: 1},
			{Op: wasmops.OpcodeI32Eq},
			{Op: wasmops.OpcodeBrIf, Index: 0},
			{Op: wasmops.OpcodeEnd},
		},
		Locals: []wasmops.Local{i32, i32},
	})
	require.NoError(t, err)
	require.Contains(t, kindsOf(cf.Ops), ir.OpBranchCmp)
	for _, op := range cf.Ops {
		assert.NotEqual(t, ir.OpCompare, op.Kind)
	}
}

// TestCompile_IfNegatesComparatorForElseBranch checks that `if` lowers its
// condition by branching to the else/end arm on the *negated* sense: an
// eq comparator becomes ne.
func TestCompile_IfNegatesComparatorForElseBranch(t *testing.T) {
	tr := newTestTranslator(nil)
	cf, err := tr.Compile(v_v, wasmops.FunctionBody{
		Code: []wasmops.Instruction{
			{Op: wasmops.OpcodeLocalGet, Index: 0},
			{Op: wasmops.OpcodeLocalGet, Index: 1},
			{Op: wasmops.OpcodeI32Eq},
			{Op: wasmops.OpcodeIf, Block: wasmops.BlockType{}},
			{Op: wasmops.OpcodeEnd},
		},
		Locals: []wasmops.Local{i32, i32},
	})
	require.NoError(t, err)
	var found bool
	for _, op := range cf.Ops {
		if op.Kind == ir.OpBranchCmp {
			found = true
			assert.Equal(t, ir.CmpI32Ne, op.Cmp)
		}
	}
	assert.True(t, found, "expected a fused negated branch for the if condition")
}

// TestCompile_LoopBranchTargetsLoopStart checks that br 0 inside a loop
// patches its offset backward to the loop's own entry, not forward.
func TestCompile_LoopBranchTargetsLoopStart(t *testing.T) {
	tr := newTestTranslator(nil)
	cf, err := tr.Compile(v_v, wasmops.FunctionBody{
		Code: []wasmops.Instruction{
			{Op: wasmops.OpcodeI32Const, ConstI32: 0},
			{Op: wasmops.OpcodeLoop, Block: wasmops.BlockType{Params: []wasmstore.ValueType{i32}}},
			{Op: wasmops.OpcodeBr, Index: 0},
			{Op: wasmops.OpcodeEnd},
		},
	})
	require.NoError(t, err)
	var branchIdx = -1
	for i, op := range cf.Ops {
		if op.Kind == ir.OpBranch {
			branchIdx = i
		}
	}
	require.GreaterOrEqual(t, branchIdx, 0)
	dst := branchIdx + int(cf.Ops[branchIdx].Offset)
	assert.Less(t, dst, branchIdx, "loop branch must jump backward")
}

// TestCompile_BrTableSharesTransferPool checks that every arm of a
// multi-target br_table reuses the same per-arity transfer pool rather than
// each getting its own private copy destination.
func TestCompile_BrTableSharesTransferPool(t *testing.T) {
	tr := newTestTranslator(nil)
	cf, err := tr.Compile(v_v, wasmops.FunctionBody{
		Code: []wasmops.Instruction{
			{Op: wasmops.OpcodeBlock, Block: wasmops.BlockType{Results: []wasmstore.ValueType{i32}}},
			{Op: wasmops.OpcodeBlock, Block: wasmops.BlockType{Results: []wasmstore.ValueType{i32}}},
			{Op: wasmops.OpcodeLocalGet, Index: 0},
			{Op: wasmops.OpcodeLocalGet, Index: 1},
			{Op: wasmops.OpcodeBrTable, Targets: []uint32{0, 1}},
			{Op: wasmops.OpcodeEnd}, // inner
			{Op: wasmops.OpcodeEnd}, // outer
			{Op: wasmops.OpcodeDrop},
		},
		Locals: []wasmops.Local{i32, i32},
	})
	require.NoError(t, err)
	var branchTableIdx = -1
	for i, op := range cf.Ops {
		if op.Kind == ir.OpBranchTable {
			branchTableIdx = i
		}
	}
	require.GreaterOrEqual(t, branchTableIdx, 0)
	assert.EqualValues(t, 2, cf.Ops[branchTableIdx].Index)
	// The single copy ahead of the br_table fills the pool; both blocks'
	// copy-outs then read that same slot.
	require.Equal(t, ir.OpCopy, cf.Ops[branchTableIdx-1].Kind)
	pool := cf.Ops[branchTableIdx-1].Result
	copyOuts := 0
	for _, op := range cf.Ops[branchTableIdx+1:] {
		if op.Kind == ir.OpCopy && op.A == pool {
			copyOuts++
		}
	}
	assert.Equal(t, 2, copyOuts)
}

// TestCompile_ReturnCallMarksTailUnreachable checks that code after a
// return_call is translated as dead (validation allows this, and the
// translator must not emit a spurious implicit return on top of it).
func TestCompile_ReturnCallMarksTailUnreachable(t *testing.T) {
	mod := &ModuleContext{FuncTypes: []*wasmstore.FunctionType{i32_i32}}
	tr := newTestTranslator(mod)
	cf, err := tr.Compile(i32_i32, wasmops.FunctionBody{
		Code: []wasmops.Instruction{
			{Op: wasmops.OpcodeLocalGet, Index: 0},
			{Op: wasmops.OpcodeReturnCall, Index: 0},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, kindsOf(cf.Ops), ir.OpReturnCall)
	assert.NotContains(t, kindsOf(cf.Ops), ir.OpReturnMany)
}

// TestCompile_BrIfFunctionLevelInlinesReturn checks that `br_if` targeting
// function level (an implicit conditional return) lowers to a single
// skip-branch around an inline OpReturn, never touching the block control
// stack (which is empty at this point).
func TestCompile_BrIfFunctionLevelInlinesReturn(t *testing.T) {
	tr := newTestTranslator(nil)
	cf, err := tr.Compile(v_v, wasmops.FunctionBody{
		Code: []wasmops.Instruction{
			{Op: wasmops.OpcodeLocalGet, Index: 0},
			{Op: wasmops.OpcodeBrIf, Index: 0},
		},
		Locals: []wasmops.Local{i32},
	})
	require.NoError(t, err)
	kinds := kindsOf(cf.Ops)
	assert.Contains(t, kinds, ir.OpReturn)
	// Two returns total: the inline conditional one, and the implicit one
	// falling off the end for the not-taken path.
	count := 0
	for _, k := range kinds {
		if k == ir.OpReturn {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

// TestCompile_EqzIsPlainUnary checks that i32.eqz lowers through the
// ordinary unary-operator path (ir.EqzI32), not a fused comparator, since
// its result is consumed here by a plain drop rather than a branch.
func TestCompile_EqzIsPlainUnary(t *testing.T) {
	tr := newTestTranslator(nil)
	cf, err := tr.Compile(v_v, wasmops.FunctionBody{
		Code: []wasmops.Instruction{
			{Op: wasmops.OpcodeLocalGet, Index: 0},
			{Op: wasmops.OpcodeI32Eqz},
			{Op: wasmops.OpcodeDrop},
		},
		Locals: []wasmops.Local{i32},
	})
	require.NoError(t, err)
	var found bool
	for _, op := range cf.Ops {
		if op.Kind == ir.OpUnary && op.NumOp == ir.EqzI32 {
			found = true
		}
	}
	assert.True(t, found)
}

// TestCompile_SelectCmpFusesMinMaxIdiom checks that select(a, b, a < b)
// fuses into OpSelectCmp reusing a/b directly, the narrow idiom the IR
// supports; a select over an independently-computed condition must fall
// back to plain OpSelect (exercised by
// TestCompile_SelectWithIndependentConditionUsesPlainSelect).
func TestCompile_SelectCmpFusesMinMaxIdiom(t *testing.T) {
	tr := newTestTranslator(nil)
	cf, err := tr.Compile(i32i32_i32, wasmops.FunctionBody{
		Code: []wasmops.Instruction{
			{Op: wasmops.OpcodeLocalGet, Index: 0},
			{Op: wasmops.OpcodeLocalGet, Index: 1},
			{Op: wasmops.OpcodeLocalGet, Index: 0},
			{Op: wasmops.OpcodeLocalGet, Index: 1},
			{Op: wasmops.OpcodeI32LtS},
			{Op: wasmops.OpcodeSelect},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, kindsOf(cf.Ops), ir.OpSelectCmp)
}

func TestCompile_SelectWithIndependentConditionUsesPlainSelect(t *testing.T) {
	mod := &ModuleContext{Globals: []GlobalType{{ValType: i32}}}
	tr := newTestTranslator(mod)
	cf, err := tr.Compile(i32i32_i32, wasmops.FunctionBody{
		Code: []wasmops.Instruction{
			{Op: wasmops.OpcodeLocalGet, Index: 0},
			{Op: wasmops.OpcodeLocalGet, Index: 1},
			{Op: wasmops.OpcodeGlobalGet, Index: 0},
			{Op: wasmops.OpcodeSelect},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, kindsOf(cf.Ops), ir.OpSelect)
	assert.NotContains(t, kindsOf(cf.Ops), ir.OpSelectCmp)
}

// TestCompile_LocalSetPreservesAliasedStackValue checks the aliasing hazard
// local.get pushes a value that still names the same slot as a local; a
// subsequent local.set to that same local must materialise the earlier
// stack entry into a fresh temp first, rather than let it silently start
// reading the new value.
func TestCompile_LocalSetPreservesAliasedStackValue(t *testing.T) {
	tr := newTestTranslator(nil)
	cf, err := tr.Compile(i32_i32, wasmops.FunctionBody{
		Code: []wasmops.Instruction{
			{Op: wasmops.OpcodeLocalGet, Index: 0}, // alias of local 0 pushed
			{Op: wasmops.OpcodeI32Const, ConstI32: 9},
			{Op: wasmops.OpcodeLocalSet, Index: 0}, // local 0 overwritten
		},
	})
	require.NoError(t, err)
	// A copy out of local slot 0 must happen before local 0's value changes.
	sawCopyFromLocal0 := false
	for _, op := range cf.Ops {
		if op.Kind == ir.OpCopy && op.A == 0 {
			sawCopyFromLocal0 = true
		}
	}
	assert.True(t, sawCopyFromLocal0, "expected the aliased stack value to be preserved via a copy")
}

func TestCompile_CallIndirectUsesInternedTypeID(t *testing.T) {
	mod := &ModuleContext{
		Types:     []*wasmstore.FunctionType{i32_i32},
		TypeIDs:   []wasmstore.TypeID{7},
		Tables:    []TableType{{ElemType: wasmstore.ValueTypeFuncref}},
	}
	tr := newTestTranslator(mod)
	cf, err := tr.Compile(v_v, wasmops.FunctionBody{
		Code: []wasmops.Instruction{
			{Op: wasmops.OpcodeLocalGet, Index: 0},
			{Op: wasmops.OpcodeLocalGet, Index: 1},
			{Op: wasmops.OpcodeCallIndirect, Index: 0, Index2: 0},
			{Op: wasmops.OpcodeDrop},
		},
		Locals: []wasmops.Local{i32, i32},
	})
	require.NoError(t, err)
	var found bool
	for _, op := range cf.Ops {
		if op.Kind == ir.OpCallIndirect {
			found = true
			assert.EqualValues(t, 7, op.Index)
		}
	}
	assert.True(t, found)
}

func TestCompile_UnsupportedOpcodeFails(t *testing.T) {
	tr := newTestTranslator(nil)
	_, err := tr.Compile(v_v, wasmops.FunctionBody{
		Code: []wasmops.Instruction{
			{Op: wasmops.OpcodeF32Ceil},
		},
	})
	assert.Error(t, err)
}

func TestCompile_ReusesReturnTrampolineAcrossArms(t *testing.T) {
	// Two different functions compiled with the same Translator instance
	// must not see stale trampoline state bleed from one Compile call into
	// the next - this is the regression test for the returnTrampolines
	// map having to be reset every Compile.
	tr := newTestTranslator(nil)
	body := wasmops.FunctionBody{
		Code: []wasmops.Instruction{
			{Op: wasmops.OpcodeLocalGet, Index: 0},
			{Op: wasmops.OpcodeI32Const, ConstI32: 0},
			{Op: wasmops.OpcodeBrTable, Targets: []uint32{0, 0}},
		},
		Locals: []wasmops.Local{i32},
	}
	first, err := tr.Compile(i32_i32, body)
	require.NoError(t, err)
	second, err := tr.Compile(i32_i32, body)
	require.NoError(t, err)
	// Both arms share one trampoline, and the second Compile emits exactly
	// what the first did.
	returns := 0
	for _, op := range first.Ops {
		if op.Kind == ir.OpReturnMany {
			returns++
		}
	}
	assert.Equal(t, 1, returns)
	assert.Equal(t, first.Ops, second.Ops)
}

func TestCompile_ImmediateFoldingPreservesType(t *testing.T) {
	mod := &ModuleContext{Globals: []GlobalType{{ValType: i64, Mutable: true}}}
	tr := newTestTranslator(mod)
	cf, err := tr.Compile(v_v, wasmops.FunctionBody{
		Code: []wasmops.Instruction{
			{Op: wasmops.OpcodeI64Const, ConstI64: 40},
			{Op: wasmops.OpcodeI64Const, ConstI64: 2},
			{Op: wasmops.OpcodeI64Add},
			// global.set materialises its operand, interning the folded
			// immediate; a plain drop would discard it unmaterialised.
			{Op: wasmops.OpcodeGlobalSet, Index: 0},
		},
	})
	require.NoError(t, err)
	for _, c := range cf.Consts {
		if c.U64() == 42 {
			return
		}
	}
	t.Fatalf("expected the folded constant 42 to be interned, consts=%v", cf.Consts)
}

func TestFoldBinary(t *testing.T) {
	tests := []struct {
		name string
		op   ir.NumOp
		a, b cell.Cell
		want cell.Cell
		ok   bool
	}{
		{name: "add i32", op: ir.AddI32, a: cell.FromU32(2), b: cell.FromU32(3), want: cell.FromU32(5), ok: true},
		{name: "sub i32", op: ir.SubI32, a: cell.FromU32(5), b: cell.FromU32(3), want: cell.FromU32(2), ok: true},
		{name: "mul i64", op: ir.MulI64, a: cell.FromU64(6), b: cell.FromU64(7), want: cell.FromU64(42), ok: true},
		{name: "xor i32", op: ir.XorI32, a: cell.FromU32(0xf0), b: cell.FromU32(0x0f), want: cell.FromU32(0xff), ok: true},
		{name: "div not folded", op: ir.DivSI32, a: cell.FromU32(6), b: cell.FromU32(3), ok: false},
		{name: "shift not folded", op: ir.ShlI32, a: cell.FromU32(1), b: cell.FromU32(2), ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := foldBinary(tt.op, tt.a, tt.b)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
