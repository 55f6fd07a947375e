package wasmfixture

// FibWasmBinary is the canonical WebAssembly binary encoding of the same
// recursive Fibonacci function Fib builds as a decoded wasmops.Module,
// hand-assembled one section at a time (no encoder lives in this module;
// see SPEC_FULL.md §4's parser/encoder non-goal). cmd/vmwasm's bench
// subcommand feeds this to wasmtime-go and wasmer-go so all three engines
// run literally the same function.
//
//	(module
//	  (func $fib (param $n i32) (result i32)
//	    local.get 0
//	    i32.const 2
//	    i32.lt_s
//	    if (result i32)
//	      local.get 0
//	    else
//	      local.get 0
//	      i32.const 1
//	      i32.sub
//	      call $fib
//	      local.get 0
//	      i32.const 2
//	      i32.sub
//	      call $fib
//	      i32.add
//	    end)
//	  (export "fib" (func $fib)))
var FibWasmBinary = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // \0asm, version 1

	// type section: (i32) -> (i32)
	0x01, 0x06, 0x01, 0x60, 0x01, 0x7f, 0x01, 0x7f,

	// function section: func 0 uses type 0
	0x03, 0x02, 0x01, 0x00,

	// export section: export func 0 as "fib"
	0x07, 0x07, 0x01, 0x03, 0x66, 0x69, 0x62, 0x00, 0x00,

	// code section: one function body, no locals beyond the param
	0x0a, 0x1e, 0x01, 0x1c, 0x00,
	0x20, 0x00, // local.get 0
	0x41, 0x02, // i32.const 2
	0x48,       // i32.lt_s
	0x04, 0x7f, // if (result i32)
	0x20, 0x00, // local.get 0
	0x05,       // else
	0x20, 0x00, // local.get 0
	0x41, 0x01, // i32.const 1
	0x6b,       // i32.sub
	0x10, 0x00, // call 0
	0x20, 0x00, // local.get 0
	0x41, 0x02, // i32.const 2
	0x6b,       // i32.sub
	0x10, 0x00, // call 0
	0x6a, // i32.add
	0x0b, // end if
	0x0b, // end func
}
