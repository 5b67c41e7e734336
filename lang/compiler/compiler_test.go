package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yarel-lang/yarel/lang/compiler"
	"github.com/yarel-lang/yarel/lang/parser"
	"github.com/yarel-lang/yarel/lang/resolver"
)

func mustCompile(t *testing.T, src string) *compiler.Proto {
	t.Helper()
	chunk, err := parser.Parse("test", src)
	require.NoError(t, err)
	require.NoError(t, resolver.Resolve(chunk))
	proto, err := compiler.Compile(chunk)
	require.NoError(t, err)
	return proto
}

// operandSize reports how many bytes of operand follow op's own byte, per
// the field comments in opcode.go. OP_CLOSURE is variable-length (two extra
// bytes per captured upvalue), so it needs the referenced Proto to size.
func operandSize(ch *compiler.Chunk, op compiler.Op, operandStart int) int {
	switch op {
	case compiler.OpConstant, compiler.OpGetGlobal, compiler.OpSetGlobal,
		compiler.OpDefineGlobal, compiler.OpGetField, compiler.OpSetField,
		compiler.OpGetSuper, compiler.OpNewList, compiler.OpNewMap,
		compiler.OpJump, compiler.OpJumpIfFalse, compiler.OpJumpIfTrue,
		compiler.OpLoop, compiler.OpClass, compiler.OpMethod:
		return 2
	case compiler.OpGetLocal, compiler.OpSetLocal, compiler.OpGetUpvalue,
		compiler.OpSetUpvalue, compiler.OpCall:
		return 1
	case compiler.OpInvoke, compiler.OpInvokeSuper:
		return 3
	case compiler.OpClosure:
		idx := compiler.ReadU16(ch.Code, operandStart)
		proto := ch.Constants[idx].(*compiler.Proto)
		return 2 + 2*len(proto.Upvalues)
	default:
		return 0
	}
}

// opsOf decodes just the opcode stream of a chunk, ignoring operand values,
// for shape assertions that don't want to hardcode constant-pool indices.
func opsOf(t *testing.T, ch *compiler.Chunk) []compiler.Op {
	t.Helper()
	var ops []compiler.Op
	for i := 0; i < len(ch.Code); {
		op := compiler.Op(ch.Code[i])
		ops = append(ops, op)
		i += 1 + operandSize(ch, op, i+1)
	}
	return ops
}

func TestCompileArithmeticExprStmt(t *testing.T) {
	proto := mustCompile(t, `1 + 2;`)
	ops := opsOf(t, proto.Chunk)
	assert.Equal(t, []compiler.Op{
		compiler.OpConstant,
		compiler.OpConstant,
		compiler.OpAdd,
		compiler.OpPop,
		compiler.OpNil,
		compiler.OpReturn,
	}, ops)
}

func TestCompileConstructorAttributeAliasesToNew(t *testing.T) {
	proto := mustCompile(t, `
#[constructor(make)]
class Widget {
    fn make(n) {
        self.n = n;
    }
}
`)
	ops := opsOf(t, proto.Chunk)
	assert.Equal(t, []compiler.Op{
		compiler.OpClass,
		compiler.OpDefineGlobal, // binds the class name itself
		compiler.OpGetGlobal,    // re-fetches the class to bind methods onto
		compiler.OpClosure,
		compiler.OpMethod, // bound under its declared name "make"
		compiler.OpClosure, // a second, independent Closure over the same body
		compiler.OpMethod,  // aliased under "new"
		compiler.OpPop,
		compiler.OpNil,
		compiler.OpReturn,
	}, ops)

	// The aliased and declared names are both present in the constant pool.
	assert.Contains(t, proto.Chunk.Constants, "new")
	assert.Contains(t, proto.Chunk.Constants, "make")
}

func TestCompilePlainNamedNewEmitsOnlyOneMethodBind(t *testing.T) {
	proto := mustCompile(t, `
class Widget {
    fn new(n) {
        self.n = n;
    }
}
`)
	ops := opsOf(t, proto.Chunk)
	assert.Equal(t, []compiler.Op{
		compiler.OpClass,
		compiler.OpDefineGlobal,
		compiler.OpGetGlobal,
		compiler.OpClosure,
		compiler.OpMethod,
		compiler.OpPop,
		compiler.OpNil,
		compiler.OpReturn,
	}, ops)
}

func TestCompileClassWithParentEmitsInherit(t *testing.T) {
	proto := mustCompile(t, `
class A {
    fn f() { return 1; }
}
class B < A {
    fn g() { return 2; }
}
`)
	ops := opsOf(t, proto.Chunk)
	assert.Contains(t, ops, compiler.OpInherit)
}

func TestCompileFiberYieldSugarBypassesCall(t *testing.T) {
	proto := mustCompile(t, `
var fiber = Fiber.new(|| {
    Fiber.yield(1);
});
`)
	// The top level sees the OP_CLOSURE for the lambda and the OP_INVOKE for
	// Fiber.new(...).
	ops := opsOf(t, proto.Chunk)
	assert.Contains(t, ops, compiler.OpClosure)
	assert.Contains(t, ops, compiler.OpInvoke)

	// The lambda body is a separate Proto in the constant pool; its
	// Fiber.yield(1) compiles to OP_FIBER_YIELD, not to an OP_INVOKE or
	// OP_CALL of a "yield" member.
	var lambda *compiler.Proto
	for _, c := range proto.Chunk.Constants {
		if p, ok := c.(*compiler.Proto); ok {
			lambda = p
		}
	}
	require.NotNil(t, lambda)
	lambdaOps := opsOf(t, lambda.Chunk)
	assert.Contains(t, lambdaOps, compiler.OpFiberYield)
	assert.NotContains(t, lambdaOps, compiler.OpInvoke)
	assert.NotContains(t, lambdaOps, compiler.OpCall)
}
