package compiler

import (
	"github.com/yarel-lang/yarel/lang/ast"
	"github.com/yarel-lang/yarel/lang/resolver"
)

func (c *compiler) block(stmts []ast.Stmt) {
	for _, s := range stmts {
		c.stmt(s)
	}
}

func (c *compiler) scopedBlock(b *ast.Block) {
	mark := c.beginScope()
	c.block(b.Stmts)
	c.endScope(b.End, mark)
}

func (c *compiler) stmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarStmt:
		c.expr(n.Value)
		ref := n.Resolved.(*resolver.Ref)
		c.emitDefine(n.Var, ref)

	case *ast.FnStmt:
		fr := n.Resolved.(*resolver.FnResolved)
		c.compileClosure(n.Fn, n.Name.Name, fr.Scope, len(n.Params), n.Body, n.End)
		c.emitDefine(n.Fn, fr.Decl)

	case *ast.ClassStmt:
		c.classStmt(n)

	case *ast.ExprStmt:
		c.expr(n.Expr)
		start, _ := n.Expr.Span()
		c.chunk().EmitOp(start, OpPop)

	case *ast.AssignStmt:
		c.assign(n)

	case *ast.PrintStmt:
		c.expr(n.Value)
		c.chunk().EmitOp(n.Print, OpPrint)

	case *ast.IfStmt:
		c.ifStmt(n)

	case *ast.WhileStmt:
		c.whileStmt(n)

	case *ast.ForInStmt:
		c.forInStmt(n)

	case *ast.ReturnStmt:
		if n.Value != nil {
			c.expr(n.Value)
		} else {
			c.chunk().EmitOp(n.Return, OpNil)
		}
		c.chunk().EmitOp(n.Return, OpReturn)

	case *ast.BreakStmt:
		c.breakStmt(n)

	case *ast.ContinueStmt:
		c.continueStmt(n)

	case *ast.BlockStmt:
		c.scopedBlock(n.Block)

	default:
		c.fail(0, "unhandled statement node %T", s)
	}
}

func (c *compiler) assign(n *ast.AssignStmt) {
	switch target := n.Target.(type) {
	case *ast.IdentExpr:
		c.expr(n.Value)
		ref := target.Resolved.(*resolver.Ref)
		c.emitSet(n.Eq, ref)
		c.chunk().EmitOp(n.Eq, OpPop)
	case *ast.DotExpr:
		c.expr(target.Left)
		c.expr(n.Value)
		idx := c.chunk().AddConstant(target.Name.Name)
		c.chunk().EmitOpU16(n.Eq, OpSetField, idx)
		c.chunk().EmitOp(n.Eq, OpPop)
	case *ast.IndexExpr:
		c.expr(target.Left)
		c.expr(target.Index)
		c.expr(n.Value)
		c.chunk().EmitOp(n.Eq, OpSetIndex)
		c.chunk().EmitOp(n.Eq, OpPop)
	default:
		c.fail(n.Eq, "invalid assignment target %T", n.Target)
	}
}

func (c *compiler) ifStmt(n *ast.IfStmt) {
	c.expr(n.Cond)
	thenJump := c.chunk().EmitJump(n.If, OpJumpIfFalse)
	c.chunk().EmitOp(n.If, OpPop)
	c.scopedBlock(n.Then)
	elseJump := c.chunk().EmitJump(n.If, OpJump)
	c.chunk().PatchJump(thenJump)
	c.chunk().EmitOp(n.If, OpPop)
	if n.Else != nil {
		c.scopedBlock(n.Else)
	}
	c.chunk().PatchJump(elseJump)
}

// whileStmt: standard condition-re-evaluating loop. Stack is balanced on
// every path: the JUMP_IF_FALSE/JUMP_IF_TRUE family peeks rather than pops,
// so both the fallthrough and the exit path must separately POP the
// condition once.
func (c *compiler) whileStmt(n *ast.WhileStmt) {
	loopStart := c.chunk().Len()
	c.expr(n.Cond)
	exitJump := c.chunk().EmitJump(n.While, OpJumpIfFalse)
	c.chunk().EmitOp(n.While, OpPop)

	mark := c.beginScope()
	c.cur.loops = append(c.cur.loops, loopCtx{continueTarget: loopStart, mark: mark})
	c.block(n.Body.Stmts)
	c.endScope(n.Body.End, mark)

	c.chunk().EmitLoop(n.While, loopStart)
	c.chunk().PatchJump(exitJump)
	c.chunk().EmitOp(n.While, OpPop)

	lc := c.cur.loops[len(c.cur.loops)-1]
	c.cur.loops = c.cur.loops[:len(c.cur.loops)-1]
	for _, j := range lc.breakJumps {
		c.chunk().PatchJump(j)
	}
}

// SentinelMarker is the constant-pool placeholder compared against for loop
// exhaustion; the machine package substitutes its own canonical sentinel
// object when loading constants, since the Iter protocol's sentinel must be
// a single shared identity (spec.md §4.6), not a fresh value per chunk.
type SentinelMarker struct{}

// forInStmt lowers `for x in iter { body }` into a manual iterator-protocol
// loop: fetch the iterator once via __iter__ into a hidden local, then each
// iteration call __next__ and compare against the Iter sentinel to detect
// exhaustion (spec.md §4.6). The loop variable occupies a single fixed slot,
// overwritten via SET_LOCAL every iteration rather than re-pushed, so the
// stack height stays constant across iterations.
func (c *compiler) forInStmt(n *ast.ForInStmt) {
	fr := n.Resolved.(*resolver.ForInResolved)
	mark0 := c.beginScope()

	c.expr(n.Iter)
	iterMethod := c.chunk().AddConstant("__iter__")
	c.chunk().EmitOpU16(n.For, OpInvoke, iterMethod)
	c.chunk().EmitRawByte(n.For, 0)
	c.pushLocal(fr.IterSlot)

	c.chunk().EmitOp(n.For, OpNil)
	c.pushLocal(fr.Var)

	loopStart := c.chunk().Len()
	c.emitGet(n.For, fr.IterSlot)
	nextMethod := c.chunk().AddConstant("__next__")
	c.chunk().EmitOpU16(n.For, OpInvoke, nextMethod)
	c.chunk().EmitRawByte(n.For, 0)

	c.chunk().EmitOp(n.For, OpDup)
	sentinelIdx := c.chunk().AddConstant(SentinelMarker{})
	c.chunk().EmitOpU16(n.For, OpConstant, sentinelIdx)
	c.chunk().EmitOp(n.For, OpEqual)
	exitJump := c.chunk().EmitJump(n.For, OpJumpIfTrue)
	c.chunk().EmitOp(n.For, OpPop) // discard "exhausted" bool (false case)
	c.emitSet(n.For, fr.Var)
	c.chunk().EmitOp(n.For, OpPop) // discard the SET_LOCAL expression value

	bodyMark := c.beginScope()
	c.cur.loops = append(c.cur.loops, loopCtx{continueTarget: loopStart, mark: bodyMark})
	c.block(n.Body.Stmts)
	c.endScope(n.Body.End, bodyMark)

	c.chunk().EmitLoop(n.For, loopStart)
	c.chunk().PatchJump(exitJump)
	c.chunk().EmitOp(n.For, OpPop) // discard "exhausted" bool (true case)
	c.chunk().EmitOp(n.For, OpPop) // discard the peeked next() result

	lc := c.cur.loops[len(c.cur.loops)-1]
	c.cur.loops = c.cur.loops[:len(c.cur.loops)-1]
	for _, j := range lc.breakJumps {
		c.chunk().PatchJump(j)
	}

	c.endScope(n.Body.End, mark0)
}

func (c *compiler) breakStmt(n *ast.BreakStmt) {
	if len(c.cur.loops) == 0 {
		c.fail(n.Start, "break outside of a loop")
	}
	lc := &c.cur.loops[len(c.cur.loops)-1]
	c.closeLocalsAbove(n.Start, lc.mark)
	j := c.chunk().EmitJump(n.Start, OpJump)
	lc.breakJumps = append(lc.breakJumps, j)
}

func (c *compiler) continueStmt(n *ast.ContinueStmt) {
	if len(c.cur.loops) == 0 {
		c.fail(n.Start, "continue outside of a loop")
	}
	lc := c.cur.loops[len(c.cur.loops)-1]
	c.closeLocalsAbove(n.Start, lc.mark)
	c.chunk().EmitLoop(n.Start, lc.continueTarget)
}
