package compiler

import (
	"github.com/yarel-lang/yarel/lang/ast"
	"github.com/yarel-lang/yarel/lang/resolver"
	"github.com/yarel-lang/yarel/lang/token"
)

func (c *compiler) expr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		c.literal(n)
	case *ast.InterpExpr:
		c.interp(n)
	case *ast.IdentExpr:
		ref, ok := n.Resolved.(*resolver.Ref)
		if !ok {
			c.fail(n.Start, "identifier %q was never resolved", n.Name)
		}
		c.emitGet(n.Start, ref)
	case *ast.SelfExpr:
		ref := n.Resolved.(*resolver.Ref)
		c.emitGet(n.Start, ref)
	case *ast.SuperExpr:
		c.superAccess(n)
	case *ast.UnaryExpr:
		c.expr(n.Right)
		switch n.Op {
		case token.MINUS:
			c.chunk().EmitOp(n.OpPos, OpNegate)
		case token.BANG:
			c.chunk().EmitOp(n.OpPos, OpNot)
		}
	case *ast.BinaryExpr:
		c.binary(n)
	case *ast.CallExpr:
		c.call(n)
	case *ast.DotExpr:
		c.expr(n.Left)
		idx := c.chunk().AddConstant(n.Name.Name)
		c.chunk().EmitOpU16(n.Dot, OpGetField, idx)
	case *ast.IndexExpr:
		c.expr(n.Left)
		c.expr(n.Index)
		c.chunk().EmitOp(n.Lbrack, OpGetIndex)
	case *ast.ListExpr:
		for _, item := range n.Items {
			c.expr(item)
		}
		c.chunk().EmitOpU16(n.Lbrack, OpNewList, uint16(len(n.Items)))
	case *ast.MapExpr:
		for _, kv := range n.Items {
			c.expr(kv.Key)
			c.expr(kv.Value)
		}
		c.chunk().EmitOpU16(n.Lbrace, OpNewMap, uint16(len(n.Items)))
	case *ast.YieldExpr:
		if n.Value != nil {
			c.expr(n.Value)
		} else {
			c.chunk().EmitOp(n.Start, OpNil)
		}
		c.chunk().EmitOp(n.Start, OpFiberYield)
	case *ast.LambdaExpr:
		c.lambda(n)
	default:
		c.fail(0, "unhandled expression node %T", e)
	}
}

func (c *compiler) literal(n *ast.LiteralExpr) {
	ch := c.chunk()
	switch n.Type {
	case token.NIL:
		ch.EmitOp(n.Start, OpNil)
	case token.TRUE:
		ch.EmitOp(n.Start, OpTrue)
	case token.FALSE:
		ch.EmitOp(n.Start, OpFalse)
	case token.NUMBER:
		idx := ch.AddConstant(n.Value)
		ch.EmitOpU16(n.Start, OpConstant, idx)
	case token.STRING:
		idx := ch.AddConstant(n.Value)
		ch.EmitOpU16(n.Start, OpConstant, idx)
	}
}

// interp lowers "a${x}b" into a left-to-right OP_CONCAT chain, per spec.md's
// string interpolation semantics.
func (c *compiler) interp(n *ast.InterpExpr) {
	if len(n.Parts) == 0 {
		idx := c.chunk().AddConstant("")
		c.chunk().EmitOpU16(n.Start, OpConstant, idx)
		return
	}
	c.expr(n.Parts[0])
	for _, part := range n.Parts[1:] {
		c.expr(part)
		c.chunk().EmitOp(n.Start, OpConcat)
	}
}

func (c *compiler) binary(n *ast.BinaryExpr) {
	switch n.Op {
	case token.AND:
		c.expr(n.Left)
		endJump := c.chunk().EmitJump(n.OpPos, OpJumpIfFalse)
		c.chunk().EmitOp(n.OpPos, OpPop)
		c.expr(n.Right)
		c.chunk().PatchJump(endJump)
		return
	case token.OR:
		c.expr(n.Left)
		endJump := c.chunk().EmitJump(n.OpPos, OpJumpIfTrue)
		c.chunk().EmitOp(n.OpPos, OpPop)
		c.expr(n.Right)
		c.chunk().PatchJump(endJump)
		return
	}

	c.expr(n.Left)
	c.expr(n.Right)
	ch := c.chunk()
	switch n.Op {
	case token.PLUS:
		ch.EmitOp(n.OpPos, OpAdd)
	case token.MINUS:
		ch.EmitOp(n.OpPos, OpSubtract)
	case token.STAR:
		ch.EmitOp(n.OpPos, OpMultiply)
	case token.SLASH:
		ch.EmitOp(n.OpPos, OpDivide)
	case token.EQEQ:
		ch.EmitOp(n.OpPos, OpEqual)
	case token.NEQ:
		ch.EmitOp(n.OpPos, OpNotEqual)
	case token.LT:
		ch.EmitOp(n.OpPos, OpLess)
	case token.LE:
		ch.EmitOp(n.OpPos, OpLessEqual)
	case token.GT:
		ch.EmitOp(n.OpPos, OpGreater)
	case token.GE:
		ch.EmitOp(n.OpPos, OpGreaterEqual)
	default:
		c.fail(n.OpPos, "unhandled binary operator %s", n.Op)
	}
}

// call lowers f(args), x.m(args) (fused into OP_INVOKE) and super.m(args)
// (fused into OP_INVOKE_SUPER); a bare callee otherwise evaluates normally
// and uses OP_CALL.
func (c *compiler) call(n *ast.CallExpr) {
	switch callee := n.Callee.(type) {
	case *ast.DotExpr:
		// `Fiber.yield(v)` is sugar for the `yield` expression, the same way
		// `print` is a dedicated opcode rather than a real call: the global
		// Fiber namespace's "yield" field is never actually bound to a Native,
		// only recognized syntactically here, so it compiles to OP_FIBER_YIELD
		// directly instead of going through a native call that has no way to
		// suspend the fiber mid-dispatch.
		if ident, ok := callee.Left.(*ast.IdentExpr); ok && ident.Name == "Fiber" && callee.Name.Name == "yield" {
			switch len(n.Args) {
			case 0:
				c.chunk().EmitOp(n.Lparen, OpNil)
			case 1:
				c.expr(n.Args[0])
			default:
				c.fail(n.Lparen, "Fiber.yield takes at most 1 argument")
			}
			c.chunk().EmitOp(n.Lparen, OpFiberYield)
			return
		}
		c.expr(callee.Left)
		for _, a := range n.Args {
			c.expr(a)
		}
		idx := c.chunk().AddConstant(callee.Name.Name)
		c.chunk().EmitOpU16(n.Lparen, OpInvoke, idx)
		c.chunk().EmitRawByte(n.Lparen, byte(len(n.Args)))
		return
	case *ast.SuperExpr:
		c.superInvoke(callee, n.Args, n.Lparen)
		return
	default:
		c.expr(n.Callee)
		for _, a := range n.Args {
			c.expr(a)
		}
		c.chunk().EmitOpByte(n.Lparen, OpCall, byte(len(n.Args)))
	}
}

func (c *compiler) lambda(n *ast.LambdaExpr) {
	scope := n.Resolved.(*resolver.FuncScope)
	var body *ast.Block
	if n.Body != nil {
		body = n.Body
	} else {
		body = &ast.Block{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: n.ExprBody}}}
	}
	c.compileClosure(n.Start, "<lambda>", scope, len(n.Params), body, body.End)
}
