package ast

import (
	"fmt"

	"github.com/yarel-lang/yarel/lang/token"
)

type (
	// VarStmt is `var name = expr;`.
	VarStmt struct {
		Var   token.Pos
		Name  *IdentExpr
		Value Expr // never nil; `var x;` implicitly initializes to nil

		// Resolved is filled by the resolver (a *resolver.Binding).
		Resolved interface{}
	}

	// FnStmt is a named function declaration, `fn name(params) { ... }`.
	FnStmt struct {
		Fn     token.Pos
		Name   *IdentExpr
		Params []*IdentExpr
		Body   *Block
		End    token.Pos

		Resolved interface{}
	}

	// ClassAttrs is the optional `#[constructor(name), derive(Parent)]`
	// attribute list preceding a class declaration. Either field may be nil.
	ClassAttrs struct {
		Start           token.Pos
		ConstructorName *IdentExpr
		DeriveName      *IdentExpr
		End             token.Pos
	}

	// ClassStmt is a class declaration, in either attribute form
	// (`#[derive(Parent)] class Name { ... }`) or legacy form
	// (`class Name < Parent { ... }`), both of which lower identically.
	ClassStmt struct {
		Attrs   *ClassAttrs // nil if no attribute prefix
		Class   token.Pos
		Name    *IdentExpr
		Parent  *IdentExpr // nil if no parent, from either syntax
		Methods []*FnStmt
		End     token.Pos

		Resolved interface{}
	}

	// ExprStmt is an expression used as a statement (calls, assignments).
	ExprStmt struct {
		Expr Expr
	}

	// AssignStmt is `target = value;` where target is an IdentExpr, DotExpr or
	// IndexExpr.
	AssignStmt struct {
		Target Expr
		Eq     token.Pos
		Value  Expr
	}

	// PrintStmt is `print expr;`.
	PrintStmt struct {
		Print token.Pos
		Value Expr
	}

	// IfStmt is `if cond { ... } else { ... }`; Else may be nil.
	IfStmt struct {
		If   token.Pos
		Cond Expr
		Then *Block
		Else *Block // may itself contain a single IfStmt for `else if`
	}

	// WhileStmt is `while cond { ... }`.
	WhileStmt struct {
		While token.Pos
		Cond  Expr
		Body  *Block
	}

	// ForInStmt is `for x in expr { ... }`.
	ForInStmt struct {
		For  token.Pos
		Name *IdentExpr
		In   token.Pos
		Iter Expr
		Body *Block

		Resolved interface{}
	}

	// ReturnStmt is `return expr;` or bare `return;`.
	ReturnStmt struct {
		Return token.Pos
		Value  Expr // nil if bare return
	}

	// BreakStmt is `break;`.
	BreakStmt struct{ Start token.Pos }

	// ContinueStmt is `continue;`.
	ContinueStmt struct{ Start token.Pos }

	// BlockStmt wraps a bare `{ ... }` block used as a statement.
	BlockStmt struct {
		Block *Block
	}
)

func (n *VarStmt) String() string { return "var " + n.Name.Name }
func (n *VarStmt) Span() (token.Pos, token.Pos) {
	_, end := n.Value.Span()
	return n.Var, end
}
func (*VarStmt) stmt() {}

func (n *FnStmt) String() string { return "fn " + n.Name.Name }
func (n *FnStmt) Span() (token.Pos, token.Pos) { return n.Fn, n.End }
func (*FnStmt) stmt()                          {}

func (n *ClassStmt) String() string {
	return fmt.Sprintf("class %s (%d methods)", n.Name.Name, len(n.Methods))
}
func (n *ClassStmt) Span() (token.Pos, token.Pos) {
	if n.Attrs != nil {
		return n.Attrs.Start, n.End
	}
	return n.Class, n.End
}
func (*ClassStmt) stmt() {}

func (n *ExprStmt) String() string { return "expr stmt" }
func (n *ExprStmt) Span() (token.Pos, token.Pos) { return n.Expr.Span() }
func (*ExprStmt) stmt()                          {}

func (n *AssignStmt) String() string { return "assign" }
func (n *AssignStmt) Span() (token.Pos, token.Pos) {
	start, _ := n.Target.Span()
	_, end := n.Value.Span()
	return start, end
}
func (*AssignStmt) stmt() {}

func (n *PrintStmt) String() string { return "print" }
func (n *PrintStmt) Span() (token.Pos, token.Pos) {
	_, end := n.Value.Span()
	return n.Print, end
}
func (*PrintStmt) stmt() {}

func (n *IfStmt) String() string { return "if" }
func (n *IfStmt) Span() (token.Pos, token.Pos) {
	_, end := n.Then.Span()
	if n.Else != nil {
		_, end = n.Else.Span()
	}
	return n.If, end
}
func (*IfStmt) stmt() {}

func (n *WhileStmt) String() string { return "while" }
func (n *WhileStmt) Span() (token.Pos, token.Pos) {
	_, end := n.Body.Span()
	return n.While, end
}
func (*WhileStmt) stmt() {}

func (n *ForInStmt) String() string { return "for " + n.Name.Name + " in" }
func (n *ForInStmt) Span() (token.Pos, token.Pos) {
	_, end := n.Body.Span()
	return n.For, end
}
func (*ForInStmt) stmt() {}

func (n *ReturnStmt) String() string { return "return" }
func (n *ReturnStmt) Span() (token.Pos, token.Pos) {
	end := n.Return + token.Pos(len("return"))
	if n.Value != nil {
		_, end = n.Value.Span()
	}
	return n.Return, end
}
func (*ReturnStmt) stmt() {}

func (n *BreakStmt) String() string { return "break" }
func (n *BreakStmt) Span() (token.Pos, token.Pos) {
	return n.Start, n.Start + token.Pos(len("break"))
}
func (*BreakStmt) stmt() {}

func (n *ContinueStmt) String() string { return "continue" }
func (n *ContinueStmt) Span() (token.Pos, token.Pos) {
	return n.Start, n.Start + token.Pos(len("continue"))
}
func (*ContinueStmt) stmt() {}

func (n *BlockStmt) String() string              { return "block stmt" }
func (n *BlockStmt) Span() (token.Pos, token.Pos) { return n.Block.Span() }
func (*BlockStmt) stmt()                          {}
