// Package ast defines the abstract syntax tree produced by the parser.
// Node shapes (Span/String per node, Chunk/Block wrapping) are grounded
// on the teacher's (mna-nenuphar) lang/ast package; ClassStmt
// shapes are generalized from the teacher's own class AST, which already
// matches Yarel's "class Name < Parent" / "#[derive(Parent)]" grammar.
package ast

import (
	"fmt"

	"github.com/yarel-lang/yarel/lang/token"
)

// Node is any node in the AST.
type Node interface {
	fmt.Stringer
	Span() (start, end token.Pos)
}

// Expr is an expression node.
type Expr interface {
	Node
	expr()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmt()
}

// Chunk is the root of a parsed source file.
type Chunk struct {
	Name  string
	Block *Block
	EOF   token.Pos

	// Resolved is filled by the resolver (a *resolver.FuncScope) describing
	// the top-level script's locals/upvalues shape.
	Resolved interface{}
}

func (n *Chunk) String() string { return "chunk " + n.Name }
func (n *Chunk) Span() (token.Pos, token.Pos) {
	if n.Block != nil {
		return n.Block.Span()
	}
	return n.EOF, n.EOF
}

// Block is a sequence of statements delimited by braces (or the top level).
type Block struct {
	Start, End token.Pos
	Stmts      []Stmt
}

func (n *Block) String() string               { return "block" }
func (n *Block) Span() (token.Pos, token.Pos) { return n.Start, n.End }
