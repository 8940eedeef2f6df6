package wasm

import "encoding/binary"

// Encode returns the module in WebAssembly binary format. Empty sections are
// omitted. Sections are written in the order the binary format requires.
func (m *Module) Encode() []byte {
	out := binary.LittleEndian.AppendUint32(nil, Magic)
	out = binary.LittleEndian.AppendUint32(out, Version)

	out = appendVec(out, SectionType, len(m.Types), func(b []byte, i int) []byte {
		ft := m.Types[i]
		b = append(b, FuncTypeByte)
		b = appendValTypes(b, ft.Params)
		return appendValTypes(b, ft.Results)
	})
	out = appendVec(out, SectionFunction, len(m.Funcs), func(b []byte, i int) []byte {
		return AppendUleb128(b, m.Funcs[i])
	})
	out = appendVec(out, SectionMemory, len(m.Memories), func(b []byte, i int) []byte {
		return appendLimits(b, m.Memories[i])
	})
	out = appendVec(out, SectionGlobal, len(m.Globals), func(b []byte, i int) []byte {
		g := m.Globals[i]
		mut := byte(0)
		if g.Type.Mutable {
			mut = 1
		}
		b = append(b, byte(g.Type.ValType), mut)
		return append(b, g.Init...)
	})
	out = appendVec(out, SectionExport, len(m.Exports), func(b []byte, i int) []byte {
		exp := m.Exports[i]
		b = appendName(b, exp.Name)
		b = append(b, exp.Kind)
		return AppendUleb128(b, exp.Idx)
	})
	out = appendVec(out, SectionCode, len(m.Code), func(b []byte, i int) []byte {
		body := m.Code[i]
		fn := AppendUleb128(nil, uint32(len(body.Locals)))
		for _, local := range body.Locals {
			fn = append(AppendUleb128(fn, local.Count), byte(local.ValType))
		}
		fn = append(fn, body.Code...)
		return append(AppendUleb128(b, uint32(len(fn))), fn...)
	})

	return out
}

// appendVec appends a section holding a vector of n entries produced by item.
func appendVec(out []byte, id byte, n int, item func(b []byte, i int) []byte) []byte {
	if n == 0 {
		return out
	}
	content := AppendUleb128(nil, uint32(n))
	for i := 0; i < n; i++ {
		content = item(content, i)
	}
	out = append(out, id)
	out = AppendUleb128(out, uint32(len(content)))
	return append(out, content...)
}

func appendName(b []byte, name string) []byte {
	b = AppendUleb128(b, uint32(len(name)))
	return append(b, name...)
}

func appendValTypes(b []byte, types []ValType) []byte {
	b = AppendUleb128(b, uint32(len(types)))
	for _, t := range types {
		b = append(b, byte(t))
	}
	return b
}

func appendLimits(b []byte, m MemoryType) []byte {
	if m.Max == nil {
		return AppendUleb128(append(b, 0), m.Min)
	}
	b = AppendUleb128(append(b, LimitsHasMax), m.Min)
	return AppendUleb128(b, *m.Max)
}
