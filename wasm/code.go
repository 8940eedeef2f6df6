package wasm

// Code builds a function body instruction by instruction.
// Methods return the receiver so sequences read like the text format.
type Code struct {
	buf []byte
}

// NewCode creates an empty instruction sequence.
func NewCode() *Code {
	return &Code{}
}

// Bytes returns the encoded instructions.
func (c *Code) Bytes() []byte {
	return c.buf
}

// Op emits an instruction without immediates.
func (c *Code) Op(op byte) *Code {
	c.buf = append(c.buf, op)
	return c
}

func (c *Code) opU32(op byte, v uint32) *Code {
	c.buf = AppendUleb128(append(c.buf, op), v)
	return c
}

// memarg emits a load or store with alignment 1 (encoded as 0).
func (c *Code) memarg(op byte, offset uint32) *Code {
	c.buf = AppendUleb128(append(c.buf, op, 0), offset)
	return c
}

// Block opens a block with an empty result type.
func (c *Code) Block() *Code {
	c.buf = append(c.buf, OpBlock, BlockTypeVoid)
	return c
}

// If opens an if with an empty result type.
func (c *Code) If() *Code {
	c.buf = append(c.buf, OpIf, BlockTypeVoid)
	return c
}

func (c *Code) Else() *Code   { return c.Op(OpElse) }
func (c *Code) End() *Code    { return c.Op(OpEnd) }
func (c *Code) Return() *Code { return c.Op(OpReturn) }
func (c *Code) Drop() *Code   { return c.Op(OpDrop) }

func (c *Code) Br(depth uint32) *Code      { return c.opU32(OpBr, depth) }
func (c *Code) BrIf(depth uint32) *Code    { return c.opU32(OpBrIf, depth) }
func (c *Code) LocalGet(idx uint32) *Code  { return c.opU32(OpLocalGet, idx) }
func (c *Code) LocalSet(idx uint32) *Code  { return c.opU32(OpLocalSet, idx) }
func (c *Code) LocalTee(idx uint32) *Code  { return c.opU32(OpLocalTee, idx) }
func (c *Code) GlobalGet(idx uint32) *Code { return c.opU32(OpGlobalGet, idx) }
func (c *Code) GlobalSet(idx uint32) *Code { return c.opU32(OpGlobalSet, idx) }

// I32Const pushes a constant.
func (c *Code) I32Const(v int32) *Code {
	c.buf = AppendSleb128(append(c.buf, OpI32Const), v)
	return c
}

// I32Load8U loads one byte zero-extended.
func (c *Code) I32Load8U(offset uint32) *Code { return c.memarg(OpI32Load8U, offset) }

// I32Store8 stores the low byte of an i32.
func (c *Code) I32Store8(offset uint32) *Code { return c.memarg(OpI32Store8, offset) }

func (c *Code) I32Eqz() *Code { return c.Op(OpI32Eqz) }
func (c *Code) I32Eq() *Code  { return c.Op(OpI32Eq) }
func (c *Code) I32Ne() *Code  { return c.Op(OpI32Ne) }
func (c *Code) I32LtU() *Code { return c.Op(OpI32LtU) }
func (c *Code) I32GeU() *Code { return c.Op(OpI32GeU) }
func (c *Code) I32Add() *Code { return c.Op(OpI32Add) }
func (c *Code) I32Sub() *Code { return c.Op(OpI32Sub) }
