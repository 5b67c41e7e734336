package compiler

import (
	"fmt"

	"github.com/yarel-lang/yarel/lang/ast"
	"github.com/yarel-lang/yarel/lang/resolver"
	"github.com/yarel-lang/yarel/lang/token"
)

// Compile lowers a resolved chunk (one that has already been through
// resolver.Resolve) into a top-level Proto with arity 0, representing the
// script body as an implicit function. Grounded on the teacher's (nenuphar)
// compiler.Compile entry point, generalized to emit a single bytecode dialect
// instead of Starlark's.
func Compile(chunk *ast.Chunk) (proto *Proto, err error) {
	scope, ok := chunk.Resolved.(*resolver.FuncScope)
	if !ok {
		return nil, fmt.Errorf("compiler: chunk was not resolved")
	}
	c := &compiler{}
	c.pushFunc(chunk.Name, 0, scope)
	defer func() {
		if r := recover(); r != nil {
			if ce, isCE := r.(compileError); isCE {
				err = ce.err
				return
			}
			panic(r)
		}
	}()
	c.block(chunk.Block.Stmts)
	endPos := chunk.EOF
	c.cur.proto.Chunk.EmitOp(endPos, OpNil)
	c.cur.proto.Chunk.EmitOp(endPos, OpReturn)
	proto = c.popFunc()
	return proto, nil
}

// compileError is panicked to unwind out of deeply nested statement/expr
// compilation on an unrecoverable error (an ill-formed AST the resolver
// should have already rejected); Compile recovers it at the top level.
type compileError struct{ err error }

func (c *compiler) fail(pos token.Pos, format string, args ...interface{}) {
	line, col := pos.LineCol()
	panic(compileError{fmt.Errorf("%d:%d: "+format, append([]interface{}{line, col}, args...)...)})
}

type loopCtx struct {
	continueTarget int
	mark           int
	breakJumps     []int
}

type funcCompiler struct {
	enclosing   *funcCompiler
	proto       *Proto
	localsStack []*resolver.Ref
	loops       []loopCtx
}

type compiler struct {
	cur *funcCompiler
}

func (c *compiler) pushFunc(name string, arity int, scope *resolver.FuncScope) {
	fc := &funcCompiler{
		enclosing: c.cur,
		proto: &Proto{
			Name:      name,
			Arity:     arity,
			Chunk:     NewChunk(),
			NumLocals: scope.NumLocals,
			Upvalues:  scope.Upvalues,
			IsMethod:  scope.IsMethod,
		},
	}
	c.cur = fc
}

func (c *compiler) popFunc() *Proto {
	p := c.cur.proto
	c.cur = c.cur.enclosing
	return p
}

func (c *compiler) chunk() *Chunk { return c.cur.proto.Chunk }

// beginScope/endScope bracket a lexical block. mark records how many
// compiler-tracked locals existed at block entry; endScope emits a Pop (or
// CloseUpvalue, for any local an inner closure captured) for each local
// introduced since, in reverse declaration order, matching the teacher's
// (nenuphar) scope-exit cleanup.
func (c *compiler) beginScope() int {
	return len(c.cur.localsStack)
}

func (c *compiler) endScope(pos token.Pos, mark int) {
	c.closeLocalsAbove(pos, mark)
	c.cur.localsStack = c.cur.localsStack[:mark]
}

// closeLocalsAbove emits cleanup instructions for locals above mark without
// removing them from the compiler's bookkeeping; used by break/continue,
// which transfer control before the enclosing endScope runs.
func (c *compiler) closeLocalsAbove(pos token.Pos, mark int) {
	ch := c.chunk()
	for i := len(c.cur.localsStack) - 1; i >= mark; i-- {
		if c.cur.localsStack[i].Captured {
			ch.EmitOp(pos, OpCloseUpvalue)
		} else {
			ch.EmitOp(pos, OpPop)
		}
	}
}

func (c *compiler) pushLocal(ref *resolver.Ref) {
	c.cur.localsStack = append(c.cur.localsStack, ref)
}

// ---- Ref-based load/store/define ----

func (c *compiler) emitGet(pos token.Pos, ref *resolver.Ref) {
	ch := c.chunk()
	switch ref.Kind {
	case resolver.RefLocal:
		ch.EmitOpByte(pos, OpGetLocal, byte(ref.Index))
	case resolver.RefUpvalue:
		ch.EmitOpByte(pos, OpGetUpvalue, byte(ref.Index))
	case resolver.RefGlobal:
		idx := ch.AddConstant(ref.Name)
		ch.EmitOpU16(pos, OpGetGlobal, idx)
	}
}

func (c *compiler) emitSet(pos token.Pos, ref *resolver.Ref) {
	ch := c.chunk()
	switch ref.Kind {
	case resolver.RefLocal:
		ch.EmitOpByte(pos, OpSetLocal, byte(ref.Index))
	case resolver.RefUpvalue:
		ch.EmitOpByte(pos, OpSetUpvalue, byte(ref.Index))
	case resolver.RefGlobal:
		idx := ch.AddConstant(ref.Name)
		ch.EmitOpU16(pos, OpSetGlobal, idx)
	}
}

// emitDefine finishes a declaration whose initializer value is already on
// top of the stack. Locals need nothing further (the stack slot itself *is*
// the local storage); globals are popped into the globals table.
func (c *compiler) emitDefine(pos token.Pos, ref *resolver.Ref) {
	switch ref.Kind {
	case resolver.RefGlobal:
		idx := c.chunk().AddConstant(ref.Name)
		c.chunk().EmitOpU16(pos, OpDefineGlobal, idx)
	case resolver.RefLocal:
		c.pushLocal(ref)
	}
}
