package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNumParamWordsCall(t *testing.T) {
	op := Op{Kind: OpCall, Aux: 7}
	require.Equal(t, 3, op.NumParamWords()) // ceil(7/3)
	op.Aux = 0
	require.Equal(t, 0, op.NumParamWords())
	op.Aux = 3
	require.Equal(t, 1, op.NumParamWords())
}

func TestNumParamWordsBranchTable(t *testing.T) {
	op := Op{Kind: OpBranchTable, Index: 5}
	require.Equal(t, 5, op.NumParamWords())
}

func TestNumParamWordsFallback(t *testing.T) {
	op := Op{Kind: OpBranchCmpFallback}
	require.Equal(t, 1, op.NumParamWords())
}

func TestFallbackCmpWordRoundTrip(t *testing.T) {
	w := FallbackCmpWord(CmpI64LtS, BranchOffset(-12345))
	cmp, off := DecodeFallbackCmpWord(w)
	require.Equal(t, CmpI64LtS, cmp)
	require.Equal(t, BranchOffset(-12345), off)
}

func TestBranchOffsetUninitialized(t *testing.T) {
	var off BranchOffset
	require.False(t, off.IsPatched())
	off = FromPositions(3, 10)
	require.True(t, off.IsPatched())
	require.Equal(t, BranchOffset(7), off)
}

func TestDisassembleDoesNotPanic(t *testing.T) {
	f := &CompiledFunction{
		Ops: []Op{
			{Kind: OpCopyImm, Result: 0, Imm: 20},
			{Kind: OpBranch, Offset: 2},
			{Kind: OpReturn},
		},
	}
	out := Disassemble(f)
	require.Contains(t, out, "0000:")
	require.Contains(t, out, "return")
}
