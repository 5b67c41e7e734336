package compiler

import (
	"encoding/binary"

	"github.com/yarel-lang/yarel/lang/token"
)

// Chunk is a function's compiled code: a flat byte sequence of opcodes and
// operands, a constant pool shared by the whole function, and a parallel
// positions table used to turn a runtime instruction pointer back into a
// source line for error reporting. Shape is grounded on the teacher's
// (mna-nenuphar) lang/compiler.Chunk.
type Chunk struct {
	Code      []byte
	Constants []interface{}
	Positions []token.Pos // Positions[i] is the position of the instruction Code[i] belongs to, set for opcode and operand bytes alike
}

func NewChunk() *Chunk {
	return &Chunk{}
}

func (c *Chunk) emit(pos token.Pos, bytes ...byte) int {
	start := len(c.Code)
	for len(c.Positions) < start+len(bytes) {
		c.Positions = append(c.Positions, 0)
	}
	for i := range bytes {
		c.Positions[start+i] = pos
	}
	c.Code = append(c.Code, bytes...)
	return start
}

func (c *Chunk) EmitOp(pos token.Pos, op Op) int {
	return c.emit(pos, byte(op))
}

// EmitRawByte appends a single operand byte with no opcode of its own, used
// for the per-upvalue (isLocal, index) pairs that trail an OP_CLOSURE.
func (c *Chunk) EmitRawByte(pos token.Pos, b byte) int {
	return c.emit(pos, b)
}

func (c *Chunk) EmitOpByte(pos token.Pos, op Op, operand byte) int {
	return c.emit(pos, byte(op), operand)
}

func (c *Chunk) EmitOpU16(pos token.Pos, op Op, operand uint16) int {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], operand)
	return c.emit(pos, byte(op), buf[0], buf[1])
}

// EmitJump emits op followed by a placeholder 2-byte offset, returning the
// offset of the first operand byte so the caller can patch it once the jump
// target is known.
func (c *Chunk) EmitJump(pos token.Pos, op Op) int {
	c.emit(pos, byte(op), 0xff, 0xff)
	return len(c.Code) - 2
}

// PatchJump backfills the jump at operandOffset to land at the current end
// of the chunk.
func (c *Chunk) PatchJump(operandOffset int) {
	offset := len(c.Code) - (operandOffset + 2)
	binary.BigEndian.PutUint16(c.Code[operandOffset:], uint16(int16(offset)))
}

// EmitLoop emits OP_LOOP with a backward offset to loopStart.
func (c *Chunk) EmitLoop(pos token.Pos, loopStart int) {
	start := c.emit(pos, byte(OpLoop), 0, 0)
	offset := (start + 3) - loopStart
	binary.BigEndian.PutUint16(c.Code[start+1:], uint16(offset))
}

// AddConstant interns value into the constant pool, returning its index.
// Equal literal constants are shared to keep the pool small, mirroring the
// teacher's constant-folding table.
func (c *Chunk) AddConstant(value interface{}) uint16 {
	for i, existing := range c.Constants {
		if existing == value {
			return uint16(i)
		}
	}
	c.Constants = append(c.Constants, value)
	return uint16(len(c.Constants) - 1)
}

func (c *Chunk) Len() int { return len(c.Code) }

func ReadU16(code []byte, offset int) uint16 {
	return binary.BigEndian.Uint16(code[offset:])
}

func ReadI16(code []byte, offset int) int16 {
	return int16(binary.BigEndian.Uint16(code[offset:]))
}
