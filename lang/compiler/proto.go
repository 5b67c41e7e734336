package compiler

import "github.com/yarel-lang/yarel/lang/resolver"

// Proto is a compiled function prototype: its bytecode plus the static shape
// (arity, locals frame size, upvalue capture list) the machine package needs
// to instantiate a runtime Function/Closure. A Proto is itself stored as a
// Chunk constant for nested functions, picked up by OP_CLOSURE.
type Proto struct {
	Name      string
	Arity     int
	Chunk     *Chunk
	NumLocals int
	Upvalues  []resolver.UpvalueDesc
	IsMethod  bool
}
