package engine

import (
	"github.com/wippyai/handlekit/wasm"
)

// Guest export names.
const (
	ExportCreate         = "create"
	ExportRelease        = "release"
	ExportIsLive         = "is_live"
	ExportLive           = "live"
	ExportReleased       = "released"
	ExportDoubleReleases = "double_releases"
	ExportMemory         = "memory"
)

// RequiredExports lists the functions a guest must export to back a Library.
var RequiredExports = []string{
	ExportCreate,
	ExportRelease,
	ExportIsLive,
	ExportLive,
	ExportReleased,
	ExportDoubleReleases,
}

// MaxHandles is the number of identifiers the built-in guest can issue.
// One byte of guest memory tracks each identifier.
const MaxHandles = 65535

// Release status codes returned by the guest.
const (
	StatusOK            = 0
	StatusInvalidHandle = 1
	StatusDoubleRelease = 2
)

// slot states stored in guest memory
const (
	slotLive     = 1
	slotReleased = 2
)

// globals
const (
	gNext uint32 = iota
	gLive
	gReleased
	gDouble
)

// GuestModule builds the handle-table guest module.
func GuestModule() *wasm.Module {
	i32 := []wasm.ValType{wasm.ValI32}
	pages := uint32(1)

	return &wasm.Module{
		Types: []wasm.FuncType{
			{Results: i32},              // () -> i32
			{Params: i32, Results: i32}, // (i32) -> i32
		},
		Funcs:    []uint32{0, 1, 1, 0, 0, 0},
		Memories: []wasm.MemoryType{{Min: pages, Max: &pages}},
		Globals: []wasm.Global{
			wasm.I32Global(1, true), // next
			wasm.I32Global(0, true), // live
			wasm.I32Global(0, true), // released
			wasm.I32Global(0, true), // double releases
		},
		Exports: []wasm.Export{
			{Name: ExportCreate, Kind: wasm.KindFunc, Idx: 0},
			{Name: ExportRelease, Kind: wasm.KindFunc, Idx: 1},
			{Name: ExportIsLive, Kind: wasm.KindFunc, Idx: 2},
			{Name: ExportLive, Kind: wasm.KindFunc, Idx: 3},
			{Name: ExportReleased, Kind: wasm.KindFunc, Idx: 4},
			{Name: ExportDoubleReleases, Kind: wasm.KindFunc, Idx: 5},
			{Name: ExportMemory, Kind: wasm.KindMemory, Idx: 0},
		},
		Code: []wasm.FuncBody{
			{Locals: []wasm.LocalEntry{{Count: 1, ValType: wasm.ValI32}}, Code: createBody()},
			{Code: releaseBody()},
			{Code: isLiveBody()},
			{Code: wasm.NewCode().GlobalGet(gLive).End().Bytes()},
			{Code: wasm.NewCode().GlobalGet(gReleased).End().Bytes()},
			{Code: wasm.NewCode().GlobalGet(gDouble).End().Bytes()},
		},
	}
}

// GuestBinary returns the encoded guest module.
func GuestBinary() []byte {
	return GuestModule().Encode()
}

func createBody() []byte {
	c := wasm.NewCode()
	// exhausted
	c.GlobalGet(gNext).I32Const(MaxHandles + 1).I32GeU().
		If().I32Const(0).Return().End()
	// mem[next] = live; id = next
	c.GlobalGet(gNext).LocalTee(0).I32Const(slotLive).I32Store8(0)
	c.LocalGet(0).I32Const(1).I32Add().GlobalSet(gNext)
	incr(c, gLive, 1)
	c.LocalGet(0).End()
	return c.Bytes()
}

func releaseBody() []byte {
	c := wasm.NewCode()
	c.LocalGet(0).I32Eqz().
		If().I32Const(StatusInvalidHandle).Return().End()
	c.LocalGet(0).GlobalGet(gNext).I32GeU().
		If().I32Const(StatusInvalidHandle).Return().End()
	c.LocalGet(0).I32Load8U(0).I32Const(slotReleased).I32Eq().
		If()
	incr(c, gDouble, 1)
	c.I32Const(StatusDoubleRelease).Return().End()
	c.LocalGet(0).I32Const(slotReleased).I32Store8(0)
	incr(c, gLive, -1)
	incr(c, gReleased, 1)
	c.I32Const(StatusOK).End()
	return c.Bytes()
}

func isLiveBody() []byte {
	c := wasm.NewCode()
	c.LocalGet(0).I32Const(MaxHandles + 1).I32GeU().
		If().I32Const(0).Return().End()
	c.LocalGet(0).I32Load8U(0).I32Const(slotLive).I32Eq().End()
	return c.Bytes()
}

func incr(c *wasm.Code, global uint32, delta int32) {
	c.GlobalGet(global).I32Const(delta).I32Add().GlobalSet(global)
}
