// Package wasm encodes small WebAssembly core modules.
//
// It covers the subset needed to build guest libraries in Go code: function
// types, functions with locals, a single memory, i32 globals, exports and
// code bodies written with the Code instruction builder.
//
//	m := &wasm.Module{
//	    Types: []wasm.FuncType{{Results: []wasm.ValType{wasm.ValI32}}},
//	    Funcs: []uint32{0},
//	    Exports: []wasm.Export{{Name: "answer", Kind: wasm.KindFunc, Idx: 0}},
//	    Code: []wasm.FuncBody{{Code: wasm.NewCode().I32Const(42).End().Bytes()}},
//	}
//	bin := m.Encode()
package wasm
