package ast

import (
	"fmt"

	"github.com/yarel-lang/yarel/lang/token"
)

type (
	// LiteralExpr is a nil, bool, number or (non-interpolated) string literal.
	LiteralExpr struct {
		Type  token.Token // NIL, TRUE, FALSE, NUMBER or STRING
		Start token.Pos
		Raw   string
		Value interface{} // float64 | string | nil
	}

	// InterpExpr is an interpolated string, "...${e}...". Parts alternates
	// (conceptually) literal segments and expressions; literal segments are
	// represented as *LiteralExpr(STRING). Lowered to a string-concat chain by
	// the compiler, per spec.
	InterpExpr struct {
		Start, End token.Pos
		Parts      []Expr
	}

	// IdentExpr is a bare identifier reference. When used as an expression
	// (not a declared name), Resolved is filled in by the resolver with a
	// *resolver.Ref.
	IdentExpr struct {
		Start    token.Pos
		Name     string
		Resolved interface{}
	}

	// SelfExpr is the `self` keyword used inside a method body.
	SelfExpr struct {
		Start    token.Pos
		Resolved interface{}
	}

	// SuperExpr is `super.Name`, statically bound to the enclosing method's
	// class's parent at compile time (spec.md §4.4).
	SuperExpr struct {
		Start    token.Pos
		Name     *IdentExpr
		Resolved interface{}
	}

	// UnaryExpr is a prefix unary operator expression, -x or !x.
	UnaryExpr struct {
		Op    token.Token
		OpPos token.Pos
		Right Expr
	}

	// BinaryExpr is an infix binary expression, including `and`/`or` which the
	// compiler gives short-circuit evaluation.
	BinaryExpr struct {
		Left  Expr
		Op    token.Token
		OpPos token.Pos
		Right Expr
	}

	// CallExpr is a function/method call, f(args).
	CallExpr struct {
		Callee Expr
		Lparen token.Pos
		Args   []Expr
		Rparen token.Pos
	}

	// DotExpr is a field/method access, x.name. When the Dot immediately
	// precedes a CallExpr, the compiler fuses them into an INVOKE instruction.
	DotExpr struct {
		Left Expr
		Dot  token.Pos
		Name *IdentExpr
	}

	// IndexExpr is x[y].
	IndexExpr struct {
		Left   Expr
		Lbrack token.Pos
		Index  Expr
		Rbrack token.Pos
	}

	// ListExpr is a list literal, [a, b, c].
	ListExpr struct {
		Lbrack token.Pos
		Items  []Expr
		Rbrack token.Pos
	}

	// KeyVal is one key:value pair of a MapExpr.
	KeyVal struct {
		Key, Value Expr
	}

	// MapExpr is a map literal, {"a": 1, "b": 2}.
	MapExpr struct {
		Lbrace token.Pos
		Items  []*KeyVal
		Rbrace token.Pos
	}

	// YieldExpr is `yield value` (or bare `yield`, value defaults to nil),
	// suspending the enclosing fiber and evaluating to whatever the resumer
	// passes to its next call (spec.md §5).
	YieldExpr struct {
		Start token.Pos
		Value Expr // nil for bare `yield`
	}

	// LambdaExpr is an anonymous function literal, |params| expr or
	// |params| { stmts }.
	LambdaExpr struct {
		Start  token.Pos
		Params []*IdentExpr
		// ExprBody is set for the short `|x| x + 1` form; Body is set for the
		// block form. Exactly one is non-nil.
		ExprBody Expr
		Body     *Block
		End      token.Pos

		// Resolved is filled in by the resolver (a *resolver.FuncScope),
		// indirected through interface{} to avoid an import cycle.
		Resolved interface{}
	}
)

func (n *LiteralExpr) String() string { return n.Type.String() + " " + n.Raw }
func (n *LiteralExpr) Span() (token.Pos, token.Pos) {
	return n.Start, n.Start + token.Pos(len(n.Raw))
}
func (*LiteralExpr) expr() {}

func (n *InterpExpr) String() string { return "interpolated string" }
func (n *InterpExpr) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (*InterpExpr) expr()                          {}

func (n *IdentExpr) String() string { return n.Name }
func (n *IdentExpr) Span() (token.Pos, token.Pos) {
	return n.Start, n.Start + token.Pos(len(n.Name))
}
func (*IdentExpr) expr() {}

func (n *SelfExpr) String() string { return "self" }
func (n *SelfExpr) Span() (token.Pos, token.Pos) {
	return n.Start, n.Start + token.Pos(len("self"))
}
func (*SelfExpr) expr() {}

func (n *SuperExpr) String() string { return "super." + n.Name.Name }
func (n *SuperExpr) Span() (token.Pos, token.Pos) {
	_, end := n.Name.Span()
	return n.Start, end
}
func (*SuperExpr) expr() {}

func (n *UnaryExpr) String() string { return "unary " + n.Op.GoString() }
func (n *UnaryExpr) Span() (token.Pos, token.Pos) {
	_, end := n.Right.Span()
	return n.OpPos, end
}
func (*UnaryExpr) expr() {}

func (n *BinaryExpr) String() string { return "binary " + n.Op.GoString() }
func (n *BinaryExpr) Span() (token.Pos, token.Pos) {
	start, _ := n.Left.Span()
	_, end := n.Right.Span()
	return start, end
}
func (*BinaryExpr) expr() {}

func (n *CallExpr) String() string {
	return fmt.Sprintf("call(%d args)", len(n.Args))
}
func (n *CallExpr) Span() (token.Pos, token.Pos) {
	start, _ := n.Callee.Span()
	return start, n.Rparen + 1
}
func (*CallExpr) expr() {}

func (n *DotExpr) String() string { return "." + n.Name.Name }
func (n *DotExpr) Span() (token.Pos, token.Pos) {
	start, _ := n.Left.Span()
	_, end := n.Name.Span()
	return start, end
}
func (*DotExpr) expr() {}

func (n *IndexExpr) String() string { return "index" }
func (n *IndexExpr) Span() (token.Pos, token.Pos) {
	start, _ := n.Left.Span()
	return start, n.Rbrack + 1
}
func (*IndexExpr) expr() {}

func (n *ListExpr) String() string { return fmt.Sprintf("list(%d)", len(n.Items)) }
func (n *ListExpr) Span() (token.Pos, token.Pos) { return n.Lbrack, n.Rbrack + 1 }
func (*ListExpr) expr()                          {}

func (n *MapExpr) String() string { return fmt.Sprintf("map(%d)", len(n.Items)) }
func (n *MapExpr) Span() (token.Pos, token.Pos) { return n.Lbrace, n.Rbrace + 1 }
func (*MapExpr) expr()                          {}

func (n *YieldExpr) String() string { return "yield" }
func (n *YieldExpr) Span() (token.Pos, token.Pos) {
	if n.Value == nil {
		return n.Start, n.Start + token.Pos(len("yield"))
	}
	_, end := n.Value.Span()
	return n.Start, end
}
func (*YieldExpr) expr() {}

func (n *LambdaExpr) String() string { return fmt.Sprintf("lambda(%d params)", len(n.Params)) }
func (n *LambdaExpr) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (*LambdaExpr) expr()                          {}
