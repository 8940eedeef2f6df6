package wasm

// WebAssembly binary format magic number and version.
const (
	// Magic is the WebAssembly binary magic number ("\0asm" in little-endian).
	Magic uint32 = 0x6D736100

	// Version is the supported WebAssembly binary format version.
	Version uint32 = 0x01
)

// Section IDs. Sections must appear in increasing order by ID.
const (
	SectionType     byte = 1
	SectionFunction byte = 3
	SectionMemory   byte = 5
	SectionGlobal   byte = 6
	SectionExport   byte = 7
	SectionCode     byte = 10
)

// Export descriptor kinds.
const (
	KindFunc   byte = 0
	KindMemory byte = 2
	KindGlobal byte = 3
)

// Value type encodings.
const (
	ValI32 ValType = 0x7F
	ValI64 ValType = 0x7E
)

const (
	// FuncTypeByte prefixes every function type.
	FuncTypeByte byte = 0x60

	// BlockTypeVoid is the empty block type.
	BlockTypeVoid byte = 0x40

	// LimitsHasMax is set in limits flags when a maximum follows.
	LimitsHasMax byte = 0x01
)

// Opcodes emitted by Code.
const (
	OpBlock     byte = 0x02
	OpIf        byte = 0x04
	OpElse      byte = 0x05
	OpEnd       byte = 0x0B
	OpBr        byte = 0x0C
	OpBrIf      byte = 0x0D
	OpReturn    byte = 0x0F
	OpDrop      byte = 0x1A
	OpLocalGet  byte = 0x20
	OpLocalSet  byte = 0x21
	OpLocalTee  byte = 0x22
	OpGlobalGet byte = 0x23
	OpGlobalSet byte = 0x24
	OpI32Load8U byte = 0x2D
	OpI32Store8 byte = 0x3A
	OpI32Const  byte = 0x41
	OpI32Eqz    byte = 0x45
	OpI32Eq     byte = 0x46
	OpI32Ne     byte = 0x47
	OpI32LtU    byte = 0x49
	OpI32GeU    byte = 0x4F
	OpI32Add    byte = 0x6A
	OpI32Sub    byte = 0x6B
)
