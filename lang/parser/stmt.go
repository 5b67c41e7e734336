package parser

import (
	"github.com/yarel-lang/yarel/lang/ast"
	"github.com/yarel-lang/yarel/lang/token"
)

// declaration parses a top-level or block-level declaration/statement and
// recovers from errors at the next statement boundary.
func (p *parser) declaration() (s ast.Stmt) {
	startErrs := len(p.errs)
	defer func() {
		if len(p.errs) > startErrs {
			p.synchronize()
		}
	}()

	switch {
	case p.check(token.HASH_LBRACK):
		return p.classDeclWithAttrs()
	case p.check(token.CLASS):
		return p.classDecl(nil)
	case p.check(token.VAR):
		return p.varDecl()
	case p.check(token.FN):
		return p.fnDecl()
	default:
		return p.statement()
	}
}

func (p *parser) varDecl() ast.Stmt {
	start := p.expect(token.VAR).Pos
	name := p.ident()
	var value ast.Expr = &ast.LiteralExpr{Type: token.NIL, Start: p.cur.Pos, Raw: "nil"}
	if p.matchTok(token.EQ) {
		value = p.expression(precLowest)
	}
	p.expect(token.SEMI)
	return &ast.VarStmt{Var: start, Name: name, Value: value}
}

func (p *parser) fnDecl() *ast.FnStmt {
	fn := p.expect(token.FN).Pos
	name := p.ident()
	params, body, end := p.funcTail()
	return &ast.FnStmt{Fn: fn, Name: name, Params: params, Body: body, End: end}
}

// funcTail parses "(params) { body }" shared by fn declarations, lambdas and
// methods.
func (p *parser) funcTail() ([]*ast.IdentExpr, *ast.Block, token.Pos) {
	p.expect(token.LPAREN)
	var params []*ast.IdentExpr
	for !p.check(token.RPAREN) && p.cur.Type != token.EOF {
		params = append(params, p.ident())
		if !p.matchTok(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	body := p.block()
	end := body.End
	return params, body, end
}

func (p *parser) ident() *ast.IdentExpr {
	start := p.cur.Pos
	lit := p.cur.Lit
	p.expect(token.IDENT)
	return &ast.IdentExpr{Start: start, Name: lit}
}

func (p *parser) classDeclWithAttrs() ast.Stmt {
	start := p.expect(token.HASH_LBRACK).Pos
	attrs := &ast.ClassAttrs{Start: start}
	for {
		name := p.ident()
		switch name.Name {
		case "constructor":
			p.expect(token.LPAREN)
			attrs.ConstructorName = p.ident()
			p.expect(token.RPAREN)
		case "derive":
			p.expect(token.LPAREN)
			attrs.DeriveName = p.ident()
			p.expect(token.RPAREN)
		default:
			p.errorf(name.Start, "unknown class attribute %q", name.Name)
		}
		if !p.matchTok(token.COMMA) {
			break
		}
	}
	attrs.End = p.expect(token.RBRACK).Pos
	return p.classDecl(attrs)
}

func (p *parser) classDecl(attrs *ast.ClassAttrs) ast.Stmt {
	classPos := p.expect(token.CLASS).Pos
	name := p.ident()

	var parent *ast.IdentExpr
	if attrs != nil && attrs.DeriveName != nil {
		parent = attrs.DeriveName
	}
	if p.matchTok(token.LT) {
		if parent != nil {
			p.errorf(p.cur.Pos, "class %s has both #[derive(...)] and legacy '< Parent' inheritance", name.Name)
		}
		parent = p.ident()
	}

	p.expect(token.LBRACE)
	var methods []*ast.FnStmt
	for !p.check(token.RBRACE) && p.cur.Type != token.EOF {
		methods = append(methods, p.fnDecl())
	}
	end := p.expect(token.RBRACE).Pos

	return &ast.ClassStmt{
		Attrs:   attrs,
		Class:   classPos,
		Name:    name,
		Parent:  parent,
		Methods: methods,
		End:     end,
	}
}

func (p *parser) block() *ast.Block {
	start := p.expect(token.LBRACE).Pos
	b := &ast.Block{Start: start}
	for !p.check(token.RBRACE) && p.cur.Type != token.EOF {
		if s := p.declaration(); s != nil {
			b.Stmts = append(b.Stmts, s)
		}
	}
	b.End = p.expect(token.RBRACE).Pos
	return b
}

func (p *parser) statement() ast.Stmt {
	switch {
	case p.check(token.LBRACE):
		return &ast.BlockStmt{Block: p.block()}
	case p.check(token.IF):
		return p.ifStmt()
	case p.check(token.WHILE):
		return p.whileStmt()
	case p.check(token.FOR):
		return p.forInStmt()
	case p.check(token.RETURN):
		return p.returnStmt()
	case p.check(token.BREAK):
		start := p.cur.Pos
		p.advance()
		p.expect(token.SEMI)
		return &ast.BreakStmt{Start: start}
	case p.check(token.CONTINUE):
		start := p.cur.Pos
		p.advance()
		p.expect(token.SEMI)
		return &ast.ContinueStmt{Start: start}
	case p.check(token.PRINT):
		return p.printStmt()
	default:
		return p.exprOrAssignStmt()
	}
}

func (p *parser) ifStmt() ast.Stmt {
	start := p.expect(token.IF).Pos
	cond := p.expression(precLowest)
	then := p.block()
	var elseBlock *ast.Block
	if p.matchTok(token.ELSE) {
		if p.check(token.IF) {
			inner := p.ifStmt().(*ast.IfStmt)
			elseBlock = &ast.Block{Start: inner.If, End: inner.If, Stmts: []ast.Stmt{inner}}
		} else {
			elseBlock = p.block()
		}
	}
	return &ast.IfStmt{If: start, Cond: cond, Then: then, Else: elseBlock}
}

func (p *parser) whileStmt() ast.Stmt {
	start := p.expect(token.WHILE).Pos
	cond := p.expression(precLowest)
	body := p.block()
	return &ast.WhileStmt{While: start, Cond: cond, Body: body}
}

func (p *parser) forInStmt() ast.Stmt {
	start := p.expect(token.FOR).Pos
	name := p.ident()
	p.expect(token.IN)
	iter := p.expression(precLowest)
	body := p.block()
	return &ast.ForInStmt{For: start, Name: name, In: start, Iter: iter, Body: body}
}

func (p *parser) returnStmt() ast.Stmt {
	start := p.expect(token.RETURN).Pos
	var val ast.Expr
	if !p.check(token.SEMI) {
		val = p.expression(precLowest)
	}
	p.expect(token.SEMI)
	return &ast.ReturnStmt{Return: start, Value: val}
}

func (p *parser) printStmt() ast.Stmt {
	start := p.expect(token.PRINT).Pos
	val := p.expression(precLowest)
	p.expect(token.SEMI)
	return &ast.PrintStmt{Print: start, Value: val}
}

func (p *parser) exprOrAssignStmt() ast.Stmt {
	e := p.expression(precLowest)
	if p.matchTok(token.EQ) {
		if !isAssignable(e) {
			p.errorf(p.cur.Pos, "invalid assignment target")
		}
		val := p.expression(precLowest)
		p.expect(token.SEMI)
		return &ast.AssignStmt{Target: e, Value: val}
	}
	p.expect(token.SEMI)
	return &ast.ExprStmt{Expr: e}
}

func isAssignable(e ast.Expr) bool {
	switch e.(type) {
	case *ast.IdentExpr, *ast.DotExpr, *ast.IndexExpr:
		return true
	default:
		return false
	}
}
