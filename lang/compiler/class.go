package compiler

import (
	"github.com/yarel-lang/yarel/lang/ast"
	"github.com/yarel-lang/yarel/lang/resolver"
	"github.com/yarel-lang/yarel/lang/token"
)

// superAccess compiles a bare `super.name` reference (no call) into
// OP_GET_SUPER. Stack discipline: push self, then the statically-resolved
// super binding; OP_GET_SUPER pops both and pushes a bound method looked up
// in the superclass's method table.
func (c *compiler) superAccess(n *ast.SuperExpr) {
	sr := n.Resolved.(*resolver.SuperResolved)
	c.emitGet(n.Start, sr.Self)
	c.emitGet(n.Start, sr.Super)
	idx := c.chunk().AddConstant(n.Name.Name)
	c.chunk().EmitOpU16(n.Start, OpGetSuper, idx)
}

// superInvoke compiles `super.name(args)`, fusing the super lookup and the
// call into OP_INVOKE_SUPER the same way a plain method call is fused into
// OP_INVOKE. Stack discipline: self, args..., super binding.
func (c *compiler) superInvoke(n *ast.SuperExpr, args []ast.Expr, callPos token.Pos) {
	sr := n.Resolved.(*resolver.SuperResolved)
	c.emitGet(n.Start, sr.Self)
	for _, a := range args {
		c.expr(a)
	}
	c.emitGet(n.Start, sr.Super)
	idx := c.chunk().AddConstant(n.Name.Name)
	c.chunk().EmitOpU16(callPos, OpInvokeSuper, idx)
	c.chunk().EmitRawByte(callPos, byte(len(args)))
}

// compileClosure compiles a function/method/lambda body in its own
// funcCompiler, then emits OP_CLOSURE in the enclosing compiler to
// instantiate it at the call site, followed by one (isLocal, index) operand
// pair per captured upvalue. Grounded on clox's closure-construction
// sequence as adapted by the teacher's (nenuphar) compiler for its own
// closures.
func (c *compiler) compileClosure(pos token.Pos, name string, scope *resolver.FuncScope, arity int, body *ast.Block, endPos token.Pos) *Proto {
	c.pushFunc(name, arity, scope)
	c.block(body.Stmts)
	c.chunk().EmitOp(endPos, OpNil)
	c.chunk().EmitOp(endPos, OpReturn)
	proto := c.popFunc()
	c.emitClosure(pos, proto)
	return proto
}

// emitClosure instantiates proto at the current position: OP_CLOSURE plus
// one (isLocal, index) operand pair per captured upvalue. Split out of
// compileClosure so a method bound under more than one name (a
// #[constructor(name)] alias) can get its own independent Closure value for
// each binding instead of sharing one that a single OP_METHOD would consume.
func (c *compiler) emitClosure(pos token.Pos, proto *Proto) {
	idx := c.chunk().AddConstant(proto)
	c.chunk().EmitOpU16(pos, OpClosure, idx)
	for _, uv := range proto.Upvalues {
		isLocal := byte(0)
		if uv.IsLocal {
			isLocal = 1
		}
		c.chunk().EmitRawByte(pos, isLocal)
		c.chunk().EmitRawByte(pos, byte(uv.Index))
	}
}

// classStmt compiles a class declaration: OP_CLASS, binding its name, then
// (if it has a parent) re-fetching the parent to seed the class's synthetic
// `super` local and running OP_INHERIT, then compiling and binding each
// method, grounded on spec.md §4.4's copy-on-declare inheritance model.
func (c *compiler) classStmt(n *ast.ClassStmt) {
	cr := n.Resolved.(*resolver.ClassResolved)

	nameIdx := c.chunk().AddConstant(n.Name.Name)
	c.chunk().EmitOpU16(n.Class, OpClass, nameIdx)
	c.emitDefine(n.Class, cr.Decl)

	hasParent := cr.Class.HasParent
	var scopeMark int
	if hasParent {
		scopeMark = c.beginScope()
		parentRef := n.Parent.Resolved.(*resolver.Ref)
		c.emitGet(n.Class, parentRef)
		// The parent value just pushed occupies the synthetic "super" local's
		// slot; no further opcode is needed to "declare" it, matching how a
		// VarStmt local needs no store once its initializer sits at the slot.
		c.pushLocal(cr.SuperSlot)
		c.emitGet(n.Class, cr.Decl)
		c.chunk().EmitOp(n.Class, OpInherit)
	}

	var ctorName string
	if n.Attrs != nil && n.Attrs.ConstructorName != nil {
		ctorName = n.Attrs.ConstructorName.Name
	}

	c.emitGet(n.Class, cr.Decl)
	for _, m := range n.Methods {
		fr := m.Resolved.(*resolver.FnResolved)
		proto := c.compileClosure(m.Fn, m.Name.Name, fr.Scope, len(m.Params), m.Body, m.End)
		methodIdx := c.chunk().AddConstant(m.Name.Name)
		c.chunk().EmitOpU16(m.Fn, OpMethod, methodIdx)
		// A class with a #[constructor(name)] attribute also binds that
		// method under the canonical "new" key, so the machine package's
		// instance-construction lookup never needs to know the declared
		// name (spec.md §4.4's constructor convention). OP_METHOD pops its
		// closure and expects the class directly beneath it on the stack,
		// so the alias needs its own freshly-instantiated Closure value
		// (same proto, re-emitted) rather than a duplicate of the one the
		// bind above already consumed.
		if m.Name.Name == ctorName && ctorName != "new" {
			c.emitClosure(m.Fn, proto)
			aliasIdx := c.chunk().AddConstant("new")
			c.chunk().EmitOpU16(m.Fn, OpMethod, aliasIdx)
		}
	}
	c.chunk().EmitOp(n.End, OpPop) // drop the class reference used for method binding

	if hasParent {
		c.endScope(n.End, scopeMark)
	}
}
