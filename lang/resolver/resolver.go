// Package resolver walks a parsed AST and resolves every identifier
// reference to a local slot, a captured upvalue, or a global name, and
// resolves class hierarchies ahead of compilation. Structure (a per-function
// scope chain, locals marked "captured" on first outer reference, upvalue
// descriptors built by walking outward) is grounded on the teacher's
// (mna-nenuphar) lang/resolver package, generalized from its label/Starlark
// scope model down to spec.md's simpler local/upvalue/global model; the
// self/super synthetic-local technique for methods is grounded on spec.md
// §4.4 directly (no teacher file implements classes).
package resolver

import (
	"fmt"

	"github.com/yarel-lang/yarel/lang/ast"
	"github.com/yarel-lang/yarel/lang/scanner"
	"github.com/yarel-lang/yarel/lang/token"
)

// Resolve walks chunk in place, filling in Resolved fields throughout the
// tree. The returned error, if non-nil, is a scanner.ErrorList.
func Resolve(chunk *ast.Chunk) error {
	r := &resolver{}
	r.cur = &funcState{}
	r.block(chunk.Block.Stmts)
	chunk.Resolved = r.popTop()
	r.errs.Sort()
	return r.errs.Err()
}

type localVar struct {
	name  string
	depth int // -1 => declared but not yet initialized
	ref   *Ref
}

type funcState struct {
	enclosing  *funcState
	locals     []localVar
	scopeDepth int
	maxLocals  int
	upvalues   []UpvalueDesc
	loopDepth  int
}

type resolver struct {
	cur  *funcState
	errs scanner.ErrorList
}

func (r *resolver) errorf(pos token.Pos, format string, args ...interface{}) {
	r.errs.Add(pos, fmt.Sprintf(format, args...))
}

func (r *resolver) popTop() *FuncScope {
	fs := r.cur
	return &FuncScope{NumLocals: fs.maxLocals, Upvalues: fs.upvalues}
}

func (r *resolver) pushFunc(reserveSelf bool) {
	fs := &funcState{enclosing: r.cur}
	if reserveSelf {
		fs.locals = append(fs.locals, localVar{name: "self", depth: 0, ref: &Ref{Kind: RefLocal, Index: 0, Name: "self"}})
		fs.maxLocals = 1
	}
	r.cur = fs
}

func (r *resolver) popFunc() *FuncScope {
	fs := r.cur
	r.cur = fs.enclosing
	return &FuncScope{NumLocals: fs.maxLocals, Upvalues: fs.upvalues}
}

func (r *resolver) beginScope() { r.cur.scopeDepth++ }

func (r *resolver) endScope() {
	fs := r.cur
	fs.scopeDepth--
	for len(fs.locals) > 0 && fs.locals[len(fs.locals)-1].depth > fs.scopeDepth {
		fs.locals = fs.locals[:len(fs.locals)-1]
	}
}

// isGlobalScope reports whether a new declaration right now belongs to the
// process-wide globals table rather than to a function's locals.
func (r *resolver) isGlobalScope() bool {
	return r.cur.enclosing == nil && r.cur.scopeDepth == 0
}

// declare registers name as a new binding in the current scope, returning
// the Ref to record on the declaring node. For locals, the binding starts
// "uninitialized" (depth -1) until finalize is called, so that
// `var x = x;` is a compile error per spec.md §4.4.
func (r *resolver) declare(name string, pos token.Pos) *Ref {
	if r.isGlobalScope() {
		return &Ref{Kind: RefGlobal, Name: name}
	}
	fs := r.cur
	for i := len(fs.locals) - 1; i >= 0; i-- {
		lv := fs.locals[i]
		if lv.depth != -1 && lv.depth < fs.scopeDepth {
			break
		}
		if lv.name == name {
			r.errorf(pos, "variable %q already declared in this scope", name)
			break
		}
	}
	idx := len(fs.locals)
	ref := &Ref{Kind: RefLocal, Index: idx, Name: name}
	fs.locals = append(fs.locals, localVar{name: name, depth: -1, ref: ref})
	if len(fs.locals) > fs.maxLocals {
		fs.maxLocals = len(fs.locals)
	}
	return ref
}

func (r *resolver) finalize(ref *Ref) {
	if ref.Kind == RefLocal {
		r.cur.locals[ref.Index].depth = r.cur.scopeDepth
	}
}

func (r *resolver) declareAndFinalize(name string, pos token.Pos) *Ref {
	ref := r.declare(name, pos)
	r.finalize(ref)
	return ref
}

func (r *resolver) resolveName(fs *funcState, name string, pos token.Pos) *Ref {
	if fs == nil {
		return &Ref{Kind: RefGlobal, Name: name}
	}
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			if fs.locals[i].depth == -1 {
				r.errorf(pos, "cannot read local variable %q in its own initializer", name)
			}
			return fs.locals[i].ref
		}
	}
	if fs.enclosing == nil {
		return &Ref{Kind: RefGlobal, Name: name}
	}
	outer := r.resolveName(fs.enclosing, name, pos)
	switch outer.Kind {
	case RefLocal:
		outer.Captured = true
		idx := r.addUpvalue(fs, outer.Index, true)
		return &Ref{Kind: RefUpvalue, Index: idx, Name: name}
	case RefUpvalue:
		idx := r.addUpvalue(fs, outer.Index, false)
		return &Ref{Kind: RefUpvalue, Index: idx, Name: name}
	default:
		return outer
	}
}

func (r *resolver) addUpvalue(fs *funcState, index int, isLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.Index == index && uv.IsLocal == isLocal {
			return i
		}
	}
	fs.upvalues = append(fs.upvalues, UpvalueDesc{Index: index, IsLocal: isLocal})
	return len(fs.upvalues) - 1
}

func (r *resolver) ident(id *ast.IdentExpr) {
	id.Resolved = r.resolveName(r.cur, id.Name, id.Start)
}

// ---- statements ----

func (r *resolver) block(stmts []ast.Stmt) {
	for _, s := range stmts {
		r.stmt(s)
	}
}

func (r *resolver) scopedBlock(b *ast.Block) {
	r.beginScope()
	r.block(b.Stmts)
	r.endScope()
}

func (r *resolver) stmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarStmt:
		ref := r.declare(n.Name.Name, n.Name.Start)
		r.expr(n.Value)
		r.finalize(ref)
		n.Resolved = ref

	case *ast.FnStmt:
		ref := r.declareAndFinalize(n.Name.Name, n.Name.Start)
		scope := r.resolveFunc(n.Params, n.Body, false)
		n.Resolved = &FnResolved{Decl: ref, Scope: scope}

	case *ast.ClassStmt:
		ref := r.declareAndFinalize(n.Name.Name, n.Name.Start)
		if n.Parent != nil {
			r.ident(n.Parent)
		}
		r.beginScope()
		hasParent := n.Parent != nil
		var superSlot *Ref
		if hasParent {
			superSlot = r.declareAndFinalize("super", n.Class)
		}
		for _, m := range n.Methods {
			scope := r.resolveFunc(m.Params, m.Body, true)
			scope.IsMethod = true
			scope.HasSuper = hasParent
			m.Resolved = &FnResolved{Scope: scope}
		}
		r.endScope()
		n.Resolved = &ClassResolved{Decl: ref, Class: &ClassScope{HasParent: hasParent}, SuperSlot: superSlot}

	case *ast.ExprStmt:
		r.expr(n.Expr)

	case *ast.AssignStmt:
		r.expr(n.Value)
		r.expr(n.Target)

	case *ast.PrintStmt:
		r.expr(n.Value)

	case *ast.IfStmt:
		r.expr(n.Cond)
		r.scopedBlock(n.Then)
		if n.Else != nil {
			r.scopedBlock(n.Else)
		}

	case *ast.WhileStmt:
		r.expr(n.Cond)
		r.cur.loopDepth++
		r.scopedBlock(n.Body)
		r.cur.loopDepth--

	case *ast.ForInStmt:
		r.expr(n.Iter)
		r.beginScope()
		iterRef := r.declareAndFinalize("$iter", n.For)
		varRef := r.declareAndFinalize(n.Name.Name, n.Name.Start)
		n.Resolved = &ForInResolved{IterSlot: iterRef, Var: varRef}
		r.cur.loopDepth++
		r.block(n.Body.Stmts)
		r.cur.loopDepth--
		r.endScope()

	case *ast.ReturnStmt:
		if n.Value != nil {
			r.expr(n.Value)
		}

	case *ast.BreakStmt:
		if r.cur.loopDepth == 0 {
			r.errorf(n.Start, "break outside of a loop")
		}

	case *ast.ContinueStmt:
		if r.cur.loopDepth == 0 {
			r.errorf(n.Start, "continue outside of a loop")
		}

	case *ast.BlockStmt:
		r.scopedBlock(n.Block)

	default:
		panic(fmt.Sprintf("resolver: unhandled statement %T", s))
	}
}

// resolveFunc resolves a function/method/lambda body in a fresh funcState
// and returns its locals/upvalues shape.
func (r *resolver) resolveFunc(params []*ast.IdentExpr, body *ast.Block, isMethod bool) *FuncScope {
	r.pushFunc(isMethod)
	for _, p := range params {
		ref := r.declareAndFinalize(p.Name, p.Start)
		p.Resolved = ref
	}
	r.block(body.Stmts)
	return r.popFunc()
}

// ---- expressions ----

func (r *resolver) expr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		// no references
	case *ast.InterpExpr:
		for _, p := range n.Parts {
			r.expr(p)
		}
	case *ast.IdentExpr:
		r.ident(n)
	case *ast.SelfExpr:
		n.Resolved = r.resolveSynthetic("self", n.Start, "self used outside of a method")
	case *ast.SuperExpr:
		super := r.resolveSynthetic("super", n.Start, "super used outside of a method with a parent class")
		self := r.resolveName(r.cur, "self", n.Start)
		n.Resolved = &SuperResolved{Self: self, Super: super}
	case *ast.UnaryExpr:
		r.expr(n.Right)
	case *ast.BinaryExpr:
		r.expr(n.Left)
		r.expr(n.Right)
	case *ast.CallExpr:
		r.expr(n.Callee)
		for _, a := range n.Args {
			r.expr(a)
		}
	case *ast.DotExpr:
		r.expr(n.Left)
	case *ast.IndexExpr:
		r.expr(n.Left)
		r.expr(n.Index)
	case *ast.ListExpr:
		for _, it := range n.Items {
			r.expr(it)
		}
	case *ast.MapExpr:
		for _, kv := range n.Items {
			r.expr(kv.Key)
			r.expr(kv.Value)
		}
	case *ast.YieldExpr:
		if n.Value != nil {
			r.expr(n.Value)
		}
	case *ast.LambdaExpr:
		var body *ast.Block
		if n.Body != nil {
			body = n.Body
		} else {
			body = &ast.Block{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: n.ExprBody}}}
		}
		n.Resolved = r.resolveFunc(n.Params, body, false)
	default:
		panic(fmt.Sprintf("resolver: unhandled expression %T", e))
	}
}

func (r *resolver) resolveSynthetic(name string, pos token.Pos, errMsg string) *Ref {
	ref := r.resolveName(r.cur, name, pos)
	if ref.Kind == RefGlobal {
		r.errorf(pos, "%s", errMsg)
	}
	return ref
}
