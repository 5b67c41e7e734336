package parser

import (
	"github.com/yarel-lang/yarel/lang/ast"
	"github.com/yarel-lang/yarel/lang/token"
)

const (
	precLowest = iota
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
)

func binPrec(t token.Token) int {
	switch t {
	case token.OR:
		return precOr
	case token.AND:
		return precAnd
	case token.EQEQ, token.NEQ:
		return precEquality
	case token.LT, token.LE, token.GT, token.GE:
		return precComparison
	case token.PLUS, token.MINUS:
		return precTerm
	case token.STAR, token.SLASH:
		return precFactor
	default:
		return precLowest
	}
}

// expression parses an expression with precedence climbing, stopping when
// the next operator binds less tightly than minPrec.
func (p *parser) expression(minPrec int) ast.Expr {
	left := p.unary()
	for {
		prec := binPrec(p.cur.Type)
		if prec == precLowest || prec < minPrec {
			return left
		}
		op := p.cur.Type
		opPos := p.cur.Pos
		p.advance()
		right := p.expression(prec + 1)
		left = &ast.BinaryExpr{Left: left, Op: op, OpPos: opPos, Right: right}
	}
}

func (p *parser) unary() ast.Expr {
	if p.check(token.MINUS) || p.check(token.BANG) {
		op := p.cur.Type
		pos := p.cur.Pos
		p.advance()
		right := p.unary()
		return &ast.UnaryExpr{Op: op, OpPos: pos, Right: right}
	}
	return p.callOrIndexOrDot()
}

func (p *parser) callOrIndexOrDot() ast.Expr {
	e := p.primary()
	for {
		switch {
		case p.check(token.LPAREN):
			lparen := p.cur.Pos
			p.advance()
			var args []ast.Expr
			for !p.check(token.RPAREN) && p.cur.Type != token.EOF {
				args = append(args, p.expression(precLowest))
				if !p.matchTok(token.COMMA) {
					break
				}
			}
			rparen := p.expect(token.RPAREN).Pos
			e = &ast.CallExpr{Callee: e, Lparen: lparen, Args: args, Rparen: rparen}
		case p.check(token.DOT):
			p.advance()
			var name *ast.IdentExpr
			if p.check(token.YIELD) {
				// `yield` is a keyword, but after a dot it names a member, as in
				// the `Fiber.yield(v)` form the compiler recognizes.
				name = &ast.IdentExpr{Start: p.cur.Pos, Name: "yield"}
				p.advance()
			} else {
				name = p.ident()
			}
			e = &ast.DotExpr{Left: e, Name: name}
		case p.check(token.LBRACK):
			lbrack := p.cur.Pos
			p.advance()
			idx := p.expression(precLowest)
			rbrack := p.expect(token.RBRACK).Pos
			e = &ast.IndexExpr{Left: e, Lbrack: lbrack, Index: idx, Rbrack: rbrack}
		default:
			return e
		}
	}
}

func (p *parser) primary() ast.Expr {
	switch p.cur.Type {
	case token.NIL, token.TRUE, token.FALSE:
		t := p.cur
		p.advance()
		return &ast.LiteralExpr{Type: t.Type, Start: t.Pos, Raw: t.Type.String()}
	case token.NUMBER:
		t := p.cur
		p.advance()
		return &ast.LiteralExpr{Type: token.NUMBER, Start: t.Pos, Raw: t.Lit, Value: t.Value}
	case token.STRING:
		t := p.cur
		p.advance()
		return &ast.LiteralExpr{Type: token.STRING, Start: t.Pos, Raw: t.Lit, Value: t.Value}
	case token.INTERP_BEGIN:
		return p.interpString()
	case token.IDENT:
		t := p.cur
		p.advance()
		return &ast.IdentExpr{Start: t.Pos, Name: t.Lit}
	case token.SELF:
		t := p.cur
		p.advance()
		return &ast.SelfExpr{Start: t.Pos}
	case token.SUPER:
		start := p.cur.Pos
		p.advance()
		p.expect(token.DOT)
		name := p.ident()
		return &ast.SuperExpr{Start: start, Name: name}
	case token.LPAREN:
		p.advance()
		e := p.expression(precLowest)
		p.expect(token.RPAREN)
		return e
	case token.LBRACK:
		return p.listLiteral()
	case token.LBRACE:
		return p.mapLiteral()
	case token.PIPE:
		return p.lambda()
	case token.YIELD:
		start := p.cur.Pos
		p.advance()
		var val ast.Expr
		if !p.check(token.SEMI) && !p.check(token.RPAREN) && !p.check(token.RBRACE) && !p.check(token.COMMA) {
			val = p.expression(precLowest)
		}
		return &ast.YieldExpr{Start: start, Value: val}
	default:
		p.errorf(p.cur.Pos, "unexpected token %s", p.cur.Type)
		t := p.cur
		p.advance()
		return &ast.LiteralExpr{Type: token.NIL, Start: t.Pos, Raw: "nil"}
	}
}

func (p *parser) interpString() ast.Expr {
	start := p.expect(token.INTERP_BEGIN).Pos
	var parts []ast.Expr
	for {
		seg := p.expect(token.STRPART)
		if s, _ := seg.Value.(string); s != "" || len(parts) == 0 {
			parts = append(parts, &ast.LiteralExpr{Type: token.STRING, Start: seg.Pos, Raw: s, Value: s})
		}
		if p.check(token.INTERP_END) {
			break
		}
		parts = append(parts, p.expression(precLowest))
	}
	end := p.expect(token.INTERP_END).Pos
	return &ast.InterpExpr{Start: start, End: end, Parts: parts}
}

func (p *parser) listLiteral() ast.Expr {
	lbrack := p.expect(token.LBRACK).Pos
	var items []ast.Expr
	for !p.check(token.RBRACK) && p.cur.Type != token.EOF {
		items = append(items, p.expression(precLowest))
		if !p.matchTok(token.COMMA) {
			break
		}
	}
	rbrack := p.expect(token.RBRACK).Pos
	return &ast.ListExpr{Lbrack: lbrack, Items: items, Rbrack: rbrack}
}

func (p *parser) mapLiteral() ast.Expr {
	lbrace := p.expect(token.LBRACE).Pos
	var items []*ast.KeyVal
	for !p.check(token.RBRACE) && p.cur.Type != token.EOF {
		key := p.expression(precLowest)
		p.expect(token.COLON)
		val := p.expression(precLowest)
		items = append(items, &ast.KeyVal{Key: key, Value: val})
		if !p.matchTok(token.COMMA) {
			break
		}
	}
	rbrace := p.expect(token.RBRACE).Pos
	return &ast.MapExpr{Lbrace: lbrace, Items: items, Rbrace: rbrace}
}

func (p *parser) lambda() ast.Expr {
	start := p.expect(token.PIPE).Pos
	var params []*ast.IdentExpr
	for !p.check(token.PIPE) && p.cur.Type != token.EOF {
		params = append(params, p.ident())
		if !p.matchTok(token.COMMA) {
			break
		}
	}
	p.expect(token.PIPE)
	if p.check(token.LBRACE) {
		body := p.block()
		return &ast.LambdaExpr{Start: start, Params: params, Body: body, End: body.End}
	}
	e := p.expression(precLowest)
	_, end := e.Span()
	return &ast.LambdaExpr{Start: start, Params: params, ExprBody: e, End: end}
}
