package wasm_test

import (
	"bytes"
	"testing"

	"github.com/wippyai/handlekit/wasm"
)

func TestEncodeEmptyModule(t *testing.T) {
	m := &wasm.Module{}
	data := m.Encode()

	want := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	if !bytes.Equal(data, want) {
		t.Errorf("got %x, want %x", data, want)
	}
}

func TestEncodeFunction(t *testing.T) {
	m := &wasm.Module{
		Types:   []wasm.FuncType{{Results: []wasm.ValType{wasm.ValI32}}},
		Funcs:   []uint32{0},
		Exports: []wasm.Export{{Name: "answer", Kind: wasm.KindFunc, Idx: 0}},
		Code:    []wasm.FuncBody{{Code: wasm.NewCode().I32Const(42).End().Bytes()}},
	}

	want := []byte{
		0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7F, // type
		0x03, 0x02, 0x01, 0x00, // function
		0x07, 0x0A, 0x01, 0x06, 'a', 'n', 's', 'w', 'e', 'r', 0x00, 0x00, // export
		0x0A, 0x06, 0x01, 0x04, 0x00, 0x41, 0x2A, 0x0B, // code
	}
	if got := m.Encode(); !bytes.Equal(got, want) {
		t.Errorf("got  %x\nwant %x", got, want)
	}
}

func TestEncodeMemoryAndGlobals(t *testing.T) {
	maxPages := uint32(1)
	m := &wasm.Module{
		Memories: []wasm.MemoryType{{Min: 1, Max: &maxPages}},
		Globals:  []wasm.Global{wasm.I32Global(1, true)},
		Exports:  []wasm.Export{{Name: "memory", Kind: wasm.KindMemory, Idx: 0}},
	}

	data := m.Encode()[8:]
	want := []byte{
		0x05, 0x04, 0x01, 0x01, 0x01, 0x01, // memory {min 1, max 1}
		0x06, 0x06, 0x01, 0x7F, 0x01, 0x41, 0x01, 0x0B, // global mut i32 = 1
		0x07, 0x0A, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	}
	if !bytes.Equal(data, want) {
		t.Errorf("got  %x\nwant %x", data, want)
	}
}

func TestCodeBuilder(t *testing.T) {
	got := wasm.NewCode().
		LocalGet(0).
		I32Load8U(0).
		If().
		I32Const(2).
		Return().
		End().
		I32Const(0).
		End().
		Bytes()

	want := []byte{0x20, 0x00, 0x2D, 0x00, 0x00, 0x04, 0x40, 0x41, 0x02, 0x0F, 0x0B, 0x41, 0x00, 0x0B}
	if !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}
}

func TestExportNames(t *testing.T) {
	m := &wasm.Module{Exports: []wasm.Export{
		{Name: "create", Kind: wasm.KindFunc},
		{Name: "memory", Kind: wasm.KindMemory},
		{Name: "release", Kind: wasm.KindFunc, Idx: 1},
	}}
	names := m.ExportNames(wasm.KindFunc)
	if len(names) != 2 || names[0] != "create" || names[1] != "release" {
		t.Errorf("ExportNames = %v", names)
	}
}
