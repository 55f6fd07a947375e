// Package wasmfixture provides a handful of named, hand-built
// wasmops.Module values standing in for the binary parser this module
// deliberately omits (SPEC_FULL.md §4: "the module accepts a pre-parsed
// operator stream... not a general parser"). cmd/vmwasm and the
// integration tests exercising spec.md §8's literal end-to-end scenarios
// (Fib-20, indirect-call signature mismatch) run these instead of an
// arbitrary .wasm file.
package wasmfixture

import "github.com/vmwasm/vmwasm/internal/wasmops"
import "github.com/vmwasm/vmwasm/internal/wasmstore"

var (
	i32 = wasmstore.ValueTypeI32
)

// Names lists every fixture Lookup accepts.
var Names = []string{"fib", "add", "indirect_mismatch"}

// Lookup returns the named fixture module, or nil if name isn't one of
// Names.
func Lookup(name string) *wasmops.Module {
	switch name {
	case "fib":
		return Fib()
	case "add":
		return Add()
	case "indirect_mismatch":
		return IndirectMismatch()
	default:
		return nil
	}
}

// Add is the minimal two-parameter i32 addition module used throughout
// the engine/instantiate test suites: one function, one export, no
// control flow.
func Add() *wasmops.Module {
	sig := &wasmstore.FunctionType{Params: []wasmstore.ValueType{i32, i32}, Results: []wasmstore.ValueType{i32}}
	return &wasmops.Module{
		Types: []*wasmstore.FunctionType{sig},
		Funcs: []wasmops.ModuleFunc{{
			TypeIndex: 0,
			Body: wasmops.FunctionBody{
				Code: []wasmops.Instruction{
					{Op: wasmops.OpcodeLocalGet, Index: 0},
					{Op: wasmops.OpcodeLocalGet, Index: 1},
					{Op: wasmops.OpcodeI32Add},
				},
			},
		}},
		Exports: []wasmops.ModuleExport{{Name: "add", Kind: wasmstore.ExportKindFunc, Index: 0}},
	}
}

// Fib is a naive recursive Fibonacci function exported as "fib", the
// module spec.md §8's "Fib-20" scenario runs: fib(n) = n for n < 2,
// else fib(n-1) + fib(n-2). The recursive calls target the module's own
// function index 0, exercising the translator's and executor's ordinary
// (non-tail) call path call depth 20 deep.
func Fib() *wasmops.Module {
	sig := &wasmstore.FunctionType{Params: []wasmstore.ValueType{i32}, Results: []wasmstore.ValueType{i32}}
	body := wasmops.FunctionBody{
		Code: []wasmops.Instruction{
			{Op: wasmops.OpcodeLocalGet, Index: 0},
			{Op: wasmops.OpcodeI32Const, ConstI32: 2},
			{Op: wasmops.OpcodeI32LtS},
			{Op: wasmops.OpcodeIf, Block: wasmops.BlockType{Results: []wasmstore.ValueType{i32}}},
			{Op: wasmops.OpcodeLocalGet, Index: 0},
			{Op: wasmops.OpcodeElse},
			{Op: wasmops.OpcodeLocalGet, Index: 0},
			{Op: wasmops.OpcodeI32Const, ConstI32: 1},
			{Op: wasmops.OpcodeI32Sub},
			{Op: wasmops.OpcodeCall, Index: 0},
			{Op: wasmops.OpcodeLocalGet, Index: 0},
			{Op: wasmops.OpcodeI32Const, ConstI32: 2},
			{Op: wasmops.OpcodeI32Sub},
			{Op: wasmops.OpcodeCall, Index: 0},
			{Op: wasmops.OpcodeI32Add},
			{Op: wasmops.OpcodeEnd},
		},
	}
	return &wasmops.Module{
		Types:   []*wasmstore.FunctionType{sig},
		Funcs:   []wasmops.ModuleFunc{{TypeIndex: 0, Body: body}},
		Exports: []wasmops.ModuleExport{{Name: "fib", Kind: wasmstore.ExportKindFunc, Index: 0}},
	}
}

// IndirectMismatch is spec.md §8's other literal scenario: a table holding
// a function of one signature, called indirectly through a call site
// declaring a different one, which must trap with a bad-signature error
// rather than silently misinterpreting the callee's arguments.
//
// Function 0 ("target", type0: i32,i32->i32) sits in table slot 0.
// Function 1 ("call_mismatch", type1: ()->()) calls that slot expecting
// type1 instead, which never matches any function's real signature.
func IndirectMismatch() *wasmops.Module {
	addSig := &wasmstore.FunctionType{Params: []wasmstore.ValueType{i32, i32}, Results: []wasmstore.ValueType{i32}}
	nullarySig := &wasmstore.FunctionType{}

	target := wasmops.ModuleFunc{
		TypeIndex: 0,
		Body: wasmops.FunctionBody{
			Code: []wasmops.Instruction{
				{Op: wasmops.OpcodeLocalGet, Index: 0},
				{Op: wasmops.OpcodeLocalGet, Index: 1},
				{Op: wasmops.OpcodeI32Add},
			},
		},
	}
	caller := wasmops.ModuleFunc{
		TypeIndex: 1,
		Body: wasmops.FunctionBody{
			Code: []wasmops.Instruction{
				{Op: wasmops.OpcodeI32Const, ConstI32: 0},
				{Op: wasmops.OpcodeCallIndirect, Index: 1, Index2: 0},
			},
		},
	}

	return &wasmops.Module{
		Types: []*wasmstore.FunctionType{addSig, nullarySig},
		Funcs: []wasmops.ModuleFunc{target, caller},
		Tables: []wasmops.ModuleTable{{
			ElemType:  wasmstore.ValueTypeFuncref,
			IndexType: wasmstore.IndexTypeI32,
			Limits:    wasmstore.Limits{Min: 1, Max: 1, HasMax: true},
		}},
		Elements: []wasmops.ModuleElement{{
			Mode:        wasmops.ElementActive,
			TableIndex:  0,
			Offset:      wasmops.ConstExpr{Kind: wasmops.ConstExprImmI32, ImmI32: 0},
			ElemType:    wasmstore.ValueTypeFuncref,
			FuncIndices: []uint32{0},
		}},
		Exports: []wasmops.ModuleExport{
			{Name: "target", Kind: wasmstore.ExportKindFunc, Index: 0},
			{Name: "call_mismatch", Kind: wasmstore.ExportKindFunc, Index: 1},
		},
	}
}
