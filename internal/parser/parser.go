// Package parser implements a recursive-descent parser over the
// Pascal dialect's token stream, producing an ast.Program.
//
// Grounded on the teacher compiler's cpq/parser.go match/expect
// primitives (one-token lookahead, single-token consume) and its
// grammar-production comments, generalized to the richer Pascal
// grammar of spec.md §4.2 (procedures, functions, arrays, for/repeat,
// full expression precedence). Error handling follows
// original_source/pascal_parser.py's abort-at-first-error policy
// (spec.md §4.2 "the parser aborts at the first unexpected token"),
// implemented the idiomatic Go way for recursive descent: an internal
// panic of the diagnostic type, recovered at the single exported
// entry point.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nof-sh/pascal-tac/internal/ast"
	"github.com/nof-sh/pascal-tac/internal/diag"
	"github.com/nof-sh/pascal-tac/internal/lexer"
	"github.com/nof-sh/pascal-tac/internal/token"
)

// Parser holds the one-token lookahead over a Lexer.
type Parser struct {
	lex *lexer.Lexer
	tok token.Token
}

// Parse tokenizes and parses src, returning the Program AST or the
// first lexical or syntax error encountered.
func Parse(src string) (prog *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()

	p := &Parser{lex: lexer.New(src)}
	p.advance()
	prog = p.parseProgram()
	return prog, nil
}

func (p *Parser) advance() {
	tok, err := p.lex.Next()
	if err != nil {
		panic(err)
	}
	p.tok = tok
}

func (p *Parser) fail(format string, args ...any) {
	panic(&diag.SyntaxError{Message: fmt.Sprintf(format, args...), Position: p.tok.Position})
}

func (p *Parser) at(tt token.Type) bool {
	return p.tok.Type == tt
}

func (p *Parser) atAny(types ...token.Type) bool {
	for _, tt := range types {
		if p.tok.Type == tt {
			return true
		}
	}
	return false
}

// expect consumes the current token if it matches tt, otherwise
// raises a syntax error naming what was found and expected.
func (p *Parser) expect(tt token.Type) token.Token {
	if p.tok.Type != tt {
		p.fail("expected %s, got %s", tt, p.tok.Type)
	}
	tok := p.tok
	p.advance()
	return tok
}

// ---- Program & declarations ----

func (p *Parser) parseProgram() *ast.Program {
	pos := p.tok.Position
	p.expect(token.PROGRAM)
	name := p.expect(token.IDENT).Lexeme
	p.expect(token.SEMICOLON)

	var decls []ast.Declaration
	for p.atAny(token.VAR, token.CONST, token.PROCEDURE, token.FUNCTION) {
		decls = append(decls, p.parseDeclarationGroup()...)
	}

	block := p.parseBlock()
	p.expect(token.DOT)
	p.expect(token.EOF)

	prog := &ast.Program{Name: name, Declarations: decls, Block: block}
	prog.Position = pos
	return prog
}

func (p *Parser) parseDeclarationGroup() []ast.Declaration {
	switch p.tok.Type {
	case token.VAR:
		return p.parseVarDecls()
	case token.CONST:
		return p.parseConstDecls()
	case token.PROCEDURE:
		return []ast.Declaration{p.parseProcDecl()}
	case token.FUNCTION:
		return []ast.Declaration{p.parseFuncDecl()}
	}
	return nil
}

func (p *Parser) parseVarDecls() []ast.Declaration {
	p.expect(token.VAR)
	var decls []ast.Declaration
	for p.at(token.IDENT) {
		pos := p.tok.Position
		names := p.parseIdentList()
		p.expect(token.COLON)
		ts := p.parseTypeSpec()
		p.expect(token.SEMICOLON)
		d := &ast.VarDecl{Names: names, Type: ts}
		d.Position = pos
		decls = append(decls, d)
	}
	return decls
}

func (p *Parser) parseConstDecls() []ast.Declaration {
	p.expect(token.CONST)
	var decls []ast.Declaration
	for p.at(token.IDENT) {
		pos := p.tok.Position
		name := p.expect(token.IDENT).Lexeme
		p.expect(token.EQ)
		value := p.parseExpression()
		p.expect(token.SEMICOLON)
		d := &ast.ConstDecl{Name: name, Value: value}
		d.Position = pos
		decls = append(decls, d)
	}
	return decls
}

func (p *Parser) parseIdentList() []string {
	names := []string{p.expect(token.IDENT).Lexeme}
	for p.at(token.COMMA) {
		p.advance()
		names = append(names, p.expect(token.IDENT).Lexeme)
	}
	return names
}

func (p *Parser) parseProcDecl() *ast.ProcDecl {
	pos := p.tok.Position
	p.expect(token.PROCEDURE)
	name := p.expect(token.IDENT).Lexeme

	var formals []*ast.FormalParameter
	if p.at(token.LPAREN) {
		formals = p.parseFormals()
	}
	p.expect(token.SEMICOLON)

	var locals []ast.Declaration
	for p.atAny(token.VAR, token.CONST) {
		locals = append(locals, p.parseDeclarationGroup()...)
	}

	body := p.parseBlock()
	p.expect(token.SEMICOLON)

	d := &ast.ProcDecl{Name: name, Formals: formals, Locals: locals, Body: body}
	d.Position = pos
	return d
}

func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	pos := p.tok.Position
	p.expect(token.FUNCTION)
	name := p.expect(token.IDENT).Lexeme

	var formals []*ast.FormalParameter
	if p.at(token.LPAREN) {
		formals = p.parseFormals()
	}
	p.expect(token.COLON)
	returnType := p.parseTypeSpec()
	p.expect(token.SEMICOLON)

	var locals []ast.Declaration
	for p.atAny(token.VAR, token.CONST) {
		locals = append(locals, p.parseDeclarationGroup()...)
	}

	body := p.parseBlock()
	p.expect(token.SEMICOLON)

	d := &ast.FuncDecl{Name: name, Formals: formals, Locals: locals, ReturnType: returnType, Body: body}
	d.Position = pos
	return d
}

func (p *Parser) parseFormals() []*ast.FormalParameter {
	p.expect(token.LPAREN)
	var formals []*ast.FormalParameter

	if !p.at(token.RPAREN) {
		for {
			byRef := false
			if p.at(token.VAR) {
				byRef = true
				p.advance()
			}

			pos := p.tok.Position
			names := p.parseIdentList()
			p.expect(token.COLON)
			ts := p.parseTypeSpec()

			for _, n := range names {
				f := &ast.FormalParameter{Name: n, Type: ts, ByRef: byRef}
				f.Position = pos
				formals = append(formals, f)
			}

			if !p.at(token.SEMICOLON) {
				break
			}
			p.advance()
		}
	}

	p.expect(token.RPAREN)
	return formals
}

var simpleTypeNames = map[token.Type]string{
	token.INTEGER: "integer",
	token.REAL:    "real",
	token.BOOLEAN: "boolean",
	token.CHAR:    "char",
	token.STRING:  "string",
}

func (p *Parser) parseTypeSpec() ast.TypeSpec {
	pos := p.tok.Position
	if p.at(token.ARRAY) {
		return p.parseArrayType()
	}
	if name, ok := simpleTypeNames[p.tok.Type]; ok {
		p.advance()
		t := &ast.SimpleType{Name: name}
		t.Position = pos
		return t
	}
	p.fail("expected type specification, got %s", p.tok.Type)
	return nil
}

func (p *Parser) parseArrayType() *ast.ArrayType {
	pos := p.tok.Position
	p.expect(token.ARRAY)
	p.expect(token.LBRACKET)

	var ranges []ast.IndexRange
	ranges = append(ranges, p.parseIndexRange())
	for p.at(token.COMMA) {
		p.advance()
		ranges = append(ranges, p.parseIndexRange())
	}

	p.expect(token.RBRACKET)
	p.expect(token.OF)
	elem := p.parseTypeSpec()

	t := &ast.ArrayType{ElementType: elem, Ranges: ranges}
	t.Position = pos
	return t
}

func (p *Parser) parseIndexRange() ast.IndexRange {
	low := p.parseSignedInt()
	p.expect(token.DOTDOT)
	high := p.parseSignedInt()
	return ast.IndexRange{Low: low, High: high}
}

func (p *Parser) parseSignedInt() int64 {
	neg := false
	if p.at(token.MINUS) {
		neg = true
		p.advance()
	}
	tok := p.expect(token.INT_LITERAL)
	v, err := strconv.ParseInt(tok.Lexeme, 10, 64)
	if err != nil {
		panic(&diag.SyntaxError{Message: "malformed integer literal " + tok.Lexeme, Position: tok.Position})
	}
	if neg {
		v = -v
	}
	return v
}

// ---- Blocks & statements ----

func (p *Parser) parseBlock() *ast.Block {
	pos := p.tok.Position
	p.expect(token.BEGIN)
	stmts := p.parseStatementList()
	p.expect(token.END)
	b := &ast.Block{Statements: stmts}
	b.Position = pos
	return b
}

func (p *Parser) parseStatementList() []ast.Statement {
	var stmts []ast.Statement
	if p.atAny(token.END, token.UNTIL) {
		return stmts
	}

	stmts = append(stmts, p.parseStatement())
	for p.at(token.SEMICOLON) {
		p.advance()
		if p.atAny(token.END, token.UNTIL) {
			break
		}
		stmts = append(stmts, p.parseStatement())
	}
	return stmts
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.tok.Type {
	case token.BEGIN:
		return p.parseBlock()
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.REPEAT:
		return p.parseRepeatStatement()
	case token.IDENT:
		return p.parseAssignOrCall()
	}
	p.fail("unexpected token %s in statement", p.tok.Type)
	return nil
}

func (p *Parser) parseIfStatement() ast.Statement {
	pos := p.tok.Position
	p.expect(token.IF)
	cond := p.parseExpression()
	p.expect(token.THEN)
	thenStmt := p.parseStatement()

	var elseStmt ast.Statement
	if p.at(token.ELSE) {
		p.advance()
		elseStmt = p.parseStatement()
	}

	s := &ast.If{Cond: cond, Then: thenStmt, Else: elseStmt}
	s.Position = pos
	return s
}

func (p *Parser) parseWhileStatement() ast.Statement {
	pos := p.tok.Position
	p.expect(token.WHILE)
	cond := p.parseExpression()
	p.expect(token.DO)
	body := p.parseStatement()
	s := &ast.While{Cond: cond, Body: body}
	s.Position = pos
	return s
}

func (p *Parser) parseForStatement() ast.Statement {
	pos := p.tok.Position
	p.expect(token.FOR)
	v := p.expect(token.IDENT).Lexeme
	p.expect(token.ASSIGN)
	start := p.parseExpression()

	dir := ast.Up
	switch p.tok.Type {
	case token.TO:
		p.advance()
	case token.DOWNTO:
		p.advance()
		dir = ast.Down
	default:
		p.fail("expected to or downto, got %s", p.tok.Type)
	}

	end := p.parseExpression()
	p.expect(token.DO)
	body := p.parseStatement()

	s := &ast.For{Variable: v, Start: start, End: end, Direction: dir, Body: body}
	s.Position = pos
	return s
}

func (p *Parser) parseRepeatStatement() ast.Statement {
	pos := p.tok.Position
	p.expect(token.REPEAT)
	stmts := p.parseStatementList()
	p.expect(token.UNTIL)
	cond := p.parseExpression()
	s := &ast.Repeat{Body: stmts, Cond: cond}
	s.Position = pos
	return s
}

var builtinNewline = map[string]bool{
	"writeln": true,
	"readln":  true,
}

func (p *Parser) parseAssignOrCall() ast.Statement {
	pos := p.tok.Position
	name := p.expect(token.IDENT).Lexeme
	lower := strings.ToLower(name)

	if p.at(token.LBRACKET) || p.at(token.ASSIGN) {
		v := &ast.Variable{Name: name}
		v.Position = pos
		target := p.parseLValueTail(v)
		p.expect(token.ASSIGN)
		value := p.parseExpression()
		s := &ast.Assign{Target: target, Value: value}
		s.Position = pos
		return s
	}

	var args []ast.Expression
	if p.at(token.LPAREN) {
		args = p.parseArgs()
	}

	switch lower {
	case "write", "writeln":
		s := &ast.Write{Args: args, Newline: builtinNewline[lower]}
		s.Position = pos
		return s
	case "read", "readln":
		s := &ast.Read{Args: args, Newline: builtinNewline[lower]}
		s.Position = pos
		return s
	}

	s := &ast.Call{Callee: name, Args: args}
	s.Position = pos
	return s
}

// parseLValueTail extends a bare Variable reference with an optional
// single bracketed index list, producing an ArrayElement.
func (p *Parser) parseLValueTail(v *ast.Variable) ast.Expression {
	if !p.at(token.LBRACKET) {
		return v
	}
	pos := p.tok.Position
	p.advance()
	indices := []ast.Expression{p.parseExpression()}
	for p.at(token.COMMA) {
		p.advance()
		indices = append(indices, p.parseExpression())
	}
	p.expect(token.RBRACKET)
	e := &ast.ArrayElement{Array: v, Indices: indices}
	e.Position = pos
	return e
}

func (p *Parser) parseArgs() []ast.Expression {
	p.expect(token.LPAREN)
	var args []ast.Expression
	if !p.at(token.RPAREN) {
		args = append(args, p.parseExpression())
		for p.at(token.COMMA) {
			p.advance()
			args = append(args, p.parseExpression())
		}
	}
	p.expect(token.RPAREN)
	return args
}

// ---- Expressions ----
// relational < additive(+,-,or) < multiplicative(*,/,div,mod,and) < unary < atom

func (p *Parser) parseExpression() ast.Expression {
	return p.parseRelational()
}

var relOps = map[token.Type]string{
	token.EQ:  "=",
	token.NEQ: "<>",
	token.LT:  "<",
	token.LTE: "<=",
	token.GT:  ">",
	token.GTE: ">=",
}

func (p *Parser) parseRelational() ast.Expression {
	left := p.parseAdditive()
	for {
		op, ok := relOps[p.tok.Type]
		if !ok {
			return left
		}
		pos := p.tok.Position
		p.advance()
		right := p.parseAdditive()
		b := &ast.BinaryOp{Op: op, Left: left, Right: right}
		b.Position = pos
		left = b
	}
}

func (p *Parser) parseAdditive() ast.Expression {
	left := p.parseMultiplicative()
	for {
		var op string
		switch p.tok.Type {
		case token.PLUS:
			op = "+"
		case token.MINUS:
			op = "-"
		case token.OR:
			op = "or"
		default:
			return left
		}
		pos := p.tok.Position
		p.advance()
		right := p.parseMultiplicative()
		b := &ast.BinaryOp{Op: op, Left: left, Right: right}
		b.Position = pos
		left = b
	}
}

func (p *Parser) parseMultiplicative() ast.Expression {
	left := p.parseUnary()
	for {
		var op string
		switch p.tok.Type {
		case token.STAR:
			op = "*"
		case token.SLASH:
			op = "/"
		case token.DIV:
			op = "div"
		case token.MOD:
			op = "mod"
		case token.AND:
			op = "and"
		default:
			return left
		}
		pos := p.tok.Position
		p.advance()
		right := p.parseUnary()
		b := &ast.BinaryOp{Op: op, Left: left, Right: right}
		b.Position = pos
		left = b
	}
}

func (p *Parser) parseUnary() ast.Expression {
	pos := p.tok.Position
	switch p.tok.Type {
	case token.PLUS:
		p.advance()
		u := &ast.UnaryOp{Op: "+", Operand: p.parseUnary()}
		u.Position = pos
		return u
	case token.MINUS:
		p.advance()
		u := &ast.UnaryOp{Op: "-", Operand: p.parseUnary()}
		u.Position = pos
		return u
	case token.NOT:
		p.advance()
		u := &ast.UnaryOp{Op: "not", Operand: p.parseUnary()}
		u.Position = pos
		return u
	}
	return p.parseAtom()
}

func (p *Parser) parseAtom() ast.Expression {
	pos := p.tok.Position
	switch p.tok.Type {
	case token.INT_LITERAL:
		tok := p.tok
		p.advance()
		v, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			panic(&diag.SyntaxError{Message: "malformed integer literal " + tok.Lexeme, Position: tok.Position})
		}
		e := &ast.IntegerLiteral{Value: v}
		e.Position = pos
		return e

	case token.REAL_LITERAL:
		tok := p.tok
		p.advance()
		v, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			panic(&diag.SyntaxError{Message: "malformed real literal " + tok.Lexeme, Position: tok.Position})
		}
		e := &ast.RealLiteral{Value: v}
		e.Position = pos
		return e

	case token.STRING_LITERAL:
		tok := p.tok
		p.advance()
		e := &ast.StringLiteral{Value: tok.Lexeme}
		e.Position = pos
		return e

	case token.TRUE:
		p.advance()
		e := &ast.BooleanLiteral{Value: true}
		e.Position = pos
		return e

	case token.FALSE:
		p.advance()
		e := &ast.BooleanLiteral{Value: false}
		e.Position = pos
		return e

	case token.IDENT:
		name := p.tok.Lexeme
		p.advance()

		if p.at(token.LPAREN) {
			args := p.parseArgs()
			e := &ast.FuncCall{Callee: name, Args: args}
			e.Position = pos
			return e
		}
		if p.at(token.LBRACKET) {
			p.advance()
			indices := []ast.Expression{p.parseExpression()}
			for p.at(token.COMMA) {
				p.advance()
				indices = append(indices, p.parseExpression())
			}
			p.expect(token.RBRACKET)
			v := &ast.Variable{Name: name}
			v.Position = pos
			e := &ast.ArrayElement{Array: v, Indices: indices}
			e.Position = pos
			return e
		}
		v := &ast.Variable{Name: name}
		v.Position = pos
		return v

	case token.LPAREN:
		p.advance()
		expr := p.parseExpression()
		p.expect(token.RPAREN)
		return expr
	}

	p.fail("unexpected token %s in expression", p.tok.Type)
	return nil
}
