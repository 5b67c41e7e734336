// Package parser implements a recursive-descent, Pratt-style parser that
// turns a token stream into an *ast.Chunk. Structure (a parser struct
// holding the scanner plus next()/expect() helpers, precedence-climbing
// expression parsing) is grounded on the teacher's (mna-nenuphar)
// lang/parser package; class declaration parsing (attributes, legacy
// `< Parent` form, `super`) is grounded on kristofer-smog's
// pkg/parser/parser.go, the pack's only example of this exact grammar.
package parser

import (
	"fmt"

	"github.com/yarel-lang/yarel/lang/ast"
	"github.com/yarel-lang/yarel/lang/scanner"
	"github.com/yarel-lang/yarel/lang/token"
)

// Parse parses a single source file named name into a Chunk. On error it
// returns a scanner.ErrorList (possibly with more than one entry, as the
// parser attempts to synchronize at statement boundaries to report multiple
// errors, per spec.md §4.4).
func Parse(name, src string) (*ast.Chunk, error) {
	p := &parser{name: name, sc: scanner.New(src)}
	p.advance()
	p.advance()

	block := &ast.Block{Start: p.cur.Pos}
	for p.cur.Type != token.EOF {
		if s := p.declaration(); s != nil {
			block.Stmts = append(block.Stmts, s)
		}
	}
	block.End = p.cur.Pos
	p.errs = append(p.errs, p.sc.Errors()...)
	p.errs.Sort()
	if err := p.errs.Err(); err != nil {
		return nil, err
	}
	return &ast.Chunk{Name: name, Block: block, EOF: p.cur.Pos}, nil
}

type parser struct {
	name string
	sc   *scanner.Scanner
	cur  scanner.Tok
	next scanner.Tok
	errs scanner.ErrorList
}

func (p *parser) advance() {
	p.cur = p.next
	p.next = p.sc.Next()
}

func (p *parser) check(t token.Token) bool { return p.cur.Type == t }

func (p *parser) matchTok(t token.Token) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(t token.Token) scanner.Tok {
	if !p.check(t) {
		p.errorf(p.cur.Pos, "expected %s, got %s", t, p.cur.Type)
		return p.cur
	}
	tok := p.cur
	p.advance()
	return tok
}

func (p *parser) errorf(pos token.Pos, format string, args ...interface{}) {
	p.errs.Add(pos, fmt.Sprintf(format, args...))
}

// synchronize skips tokens until a likely statement boundary, so the parser
// can keep reporting further errors instead of failing fast on the first
// one, per spec.md §4.4.
func (p *parser) synchronize() {
	for p.cur.Type != token.EOF {
		if p.cur.Type == token.SEMI {
			p.advance()
			return
		}
		switch p.cur.Type {
		case token.CLASS, token.FN, token.VAR, token.FOR, token.IF,
			token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}
