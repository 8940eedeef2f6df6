package wasm

// ValType is a WebAssembly value type.
type ValType byte

// Module is a WebAssembly module.
type Module struct {
	Types    []FuncType
	Funcs    []uint32 // type indices for declared functions
	Memories []MemoryType
	Globals  []Global
	Exports  []Export
	Code     []FuncBody
}

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// MemoryType describes a linear memory in 64KiB pages.
type MemoryType struct {
	Max *uint32
	Min uint32
}

// GlobalType describes a global variable.
type GlobalType struct {
	ValType ValType
	Mutable bool
}

// Global is a global with its constant init expression.
type Global struct {
	Init []byte // raw init expression including end opcode
	Type GlobalType
}

// Export is an exported item.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// FuncBody is a function body.
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte // raw code bytes including end opcode
}

// LocalEntry declares Count locals of type ValType.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// I32Global returns a global of type i32 initialised to v.
func I32Global(v int32, mutable bool) Global {
	return Global{
		Type: GlobalType{ValType: ValI32, Mutable: mutable},
		Init: NewCode().I32Const(v).End().Bytes(),
	}
}

// ExportNames returns the names of all exports of the given kind.
func (m *Module) ExportNames(kind byte) []string {
	var names []string
	for _, e := range m.Exports {
		if e.Kind == kind {
			names = append(names, e.Name)
		}
	}
	return names
}
