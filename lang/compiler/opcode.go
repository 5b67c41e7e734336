// Package compiler lowers a resolved AST into bytecode chunks the machine
// package can execute. Opcode naming and the fused INVOKE instruction are
// grounded on the teacher's (mna-nenuphar) lang/compiler package; the
// CLASS/INHERIT/METHOD opcode trio and the class-construction sequence are
// grounded on spec.md §4.4 and kristofer-smog's compiler, since nenuphar has
// no notion of classes.
package compiler

// Op is a single bytecode instruction opcode.
type Op uint8

const (
	OpConstant Op = iota // operand: u16 constant index; pushes pool[idx]
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpDup

	OpGetLocal  // operand: u8 slot
	OpSetLocal  // operand: u8 slot
	OpGetUpvalue // operand: u8 index
	OpSetUpvalue // operand: u8 index
	OpGetGlobal  // operand: u16 constant index (name)
	OpSetGlobal  // operand: u16 constant index (name)
	OpDefineGlobal

	OpGetField  // operand: u16 constant index (name); pops instance, pushes value
	OpSetField  // operand: u16 constant index (name); pops instance, value; pushes value
	OpGetIndex  // pops collection, index; pushes value
	OpSetIndex  // pops collection, index, value; pushes value
	OpGetSuper  // operand: u16 constant index (name); pops superclass, self; pushes bound method

	OpNewList // operand: u16 item count
	OpNewMap  // operand: u16 pair count

	OpNegate
	OpNot
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpConcat
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual

	OpJump        // operand: i16 offset
	OpJumpIfFalse // operand: i16 offset; peeks, does not pop
	OpJumpIfTrue  // operand: i16 offset; peeks, does not pop
	OpLoop        // operand: u16 offset, jumps backward

	OpCall       // operand: u8 arg count
	OpInvoke     // operand: u16 constant index (name), u8 arg count; fused GET_FIELD+CALL
	OpInvokeSuper // operand: u16 constant index (name), u8 arg count
	OpClosure    // operand: u16 constant index (Function); followed by per-upvalue (isLocal u8, index u8) pairs
	OpCloseUpvalue
	OpReturn

	OpClass      // operand: u16 constant index (name); pushes new Class
	OpInherit    // copies the methods of the parent (below, left on the stack) into the class on top, then pops the class
	OpMethod     // operand: u16 constant index (name); pops Closure, binds as method of class below

	OpPrint
	OpFiberYield // pops the yielded value; on resume pushes the value passed to call. Both `yield` and `Fiber.yield(v)` compile to it

	numOps
)

var opNames = [numOps]string{
	OpConstant:     "CONSTANT",
	OpNil:          "NIL",
	OpTrue:         "TRUE",
	OpFalse:        "FALSE",
	OpPop:          "POP",
	OpDup:          "DUP",
	OpGetLocal:     "GET_LOCAL",
	OpSetLocal:     "SET_LOCAL",
	OpGetUpvalue:   "GET_UPVALUE",
	OpSetUpvalue:   "SET_UPVALUE",
	OpGetGlobal:    "GET_GLOBAL",
	OpSetGlobal:    "SET_GLOBAL",
	OpDefineGlobal: "DEFINE_GLOBAL",
	OpGetField:     "GET_FIELD",
	OpSetField:     "SET_FIELD",
	OpGetIndex:     "GET_INDEX",
	OpSetIndex:     "SET_INDEX",
	OpGetSuper:     "GET_SUPER",
	OpNewList:      "NEW_LIST",
	OpNewMap:       "NEW_MAP",
	OpNegate:       "NEGATE",
	OpNot:          "NOT",
	OpAdd:          "ADD",
	OpSubtract:     "SUBTRACT",
	OpMultiply:     "MULTIPLY",
	OpDivide:       "DIVIDE",
	OpConcat:       "CONCAT",
	OpEqual:        "EQUAL",
	OpNotEqual:     "NOT_EQUAL",
	OpLess:         "LESS",
	OpLessEqual:    "LESS_EQUAL",
	OpGreater:      "GREATER",
	OpGreaterEqual: "GREATER_EQUAL",
	OpJump:         "JUMP",
	OpJumpIfFalse:  "JUMP_IF_FALSE",
	OpJumpIfTrue:   "JUMP_IF_TRUE",
	OpLoop:         "LOOP",
	OpCall:         "CALL",
	OpInvoke:       "INVOKE",
	OpInvokeSuper:  "INVOKE_SUPER",
	OpClosure:      "CLOSURE",
	OpCloseUpvalue: "CLOSE_UPVALUE",
	OpReturn:       "RETURN",
	OpClass:        "CLASS",
	OpInherit:      "INHERIT",
	OpMethod:       "METHOD",
	OpPrint:        "PRINT",
	OpFiberYield:   "FIBER_YIELD",
}

func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "UNKNOWN_OP"
}
