// Package parser builds an AST from a token slice.
//
// Statements are parsed by recursive descent. Expressions use one function
// per grammar level:
//
//	expression  = assignment
//	assignment  = conditional [ ("=" | "+=" | "-=" | "*=" | "/=") assignment ]
//	conditional = binary [ "?" expression ":" conditional ]
//	binary      = unary { binop unary }     (precedence climbing, left-assoc)
//	unary       = ("-" | "!") unary | postfix
//	postfix     = primary { "[" expression "]" | "." IDENT | "(" args ")" }
//	primary     = NUMBER | STRING | true | false | null | IDENT
//	            | "[" [ expression { "," expression } [","] ] "]"
//	            | "(" expression ")"
package parser

import (
	"notjs/internal/ast"
	"notjs/internal/diag"
	"notjs/internal/lexer"
	"notjs/internal/span"
	"notjs/internal/token"
	"strconv"
)

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens []token.Token
	pos    int
	diags  diag.List
}

// bailout unwinds the parse of the current statement after an error has
// been recorded.
type bailout struct{}

// New creates a new parser from a token slice. The slice should end with
// an EOF token; one is synthesized if it does not.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// ParseProgram parses every statement. On failure it returns a nil Program
// and a diag.List with one entry per statement that failed to parse.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	start := p.peek().Span.Start

	p.skipSemis()
	for !p.isAtEnd() {
		if stmt := p.parseStmtRecover(); stmt != nil {
			prog.Stmts = append(prog.Stmts, stmt)
		}
		p.skipSemis()
	}

	prog.Span = span.Span{Start: start, End: p.peek().Span.End}
	if err := p.diags.Err(); err != nil {
		return nil, err
	}
	return prog, nil
}

// Diagnostics returns everything recorded during the last parse, including
// warnings that do not fail it.
func (p *Parser) Diagnostics() diag.List { return p.diags }

// ParseSource lexes and parses src in one step. A lexical error stops
// before parsing begins.
func ParseSource(src, filename string) (*ast.Program, error) {
	prog, _, err := Parse(src, filename)
	return prog, err
}

// Parse is ParseSource that also returns the warnings recorded by a
// successful parse, such as number literals that overflow to infinity.
func Parse(src, filename string) (*ast.Program, diag.List, error) {
	tokens, err := lexer.Tokenize(src, filename)
	if err != nil {
		return nil, nil, err
	}
	p := New(tokens)
	prog, err := p.ParseProgram()
	if err != nil {
		return nil, nil, err
	}
	var warnings diag.List
	for _, d := range p.Diagnostics() {
		if d.Severity == diag.Warning {
			warnings = append(warnings, d)
		}
	}
	return prog, warnings, nil
}

// ParseExpression parses src as a single expression followed by end of input.
func ParseExpression(src string) (ast.Expr, error) {
	tokens, err := lexer.Tokenize(src, "")
	if err != nil {
		return nil, err
	}
	p := New(tokens)
	var expr ast.Expr
	func() {
		defer p.recoverBailout()
		expr = p.parseExpression()
		p.expect(token.EOF)
	}()
	if err := p.diags.Err(); err != nil {
		return nil, err
	}
	return expr, nil
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		var end span.Position
		if n := len(p.tokens); n > 0 {
			end = p.tokens[n-1].Span.End
		} else {
			end = span.Start
		}
		return token.Token{Kind: token.EOF, Span: span.Span{Start: end, End: end}}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	if p.pos+n < len(p.tokens) {
		return p.tokens[p.pos+n]
	}
	return token.Token{Kind: token.EOF}
}

func (p *Parser) peekKind() token.Kind {
	return p.peek().Kind
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peekKind() == kind
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			return true
		}
	}
	return false
}

// expect consumes a token of the given kind or aborts the statement.
func (p *Parser) expect(kind token.Kind) token.Token {
	if p.check(kind) {
		return p.advance()
	}
	tok := p.peek()
	p.fail(diag.Errorf(diag.CodeUnexpectedToken, tok.Span,
		"expected '%s', got %s", kind, describe(tok)))
	panic("unreachable")
}

func (p *Parser) isAtEnd() bool {
	return p.peekKind() == token.EOF
}

// skipSemis consumes optional statement terminators.
func (p *Parser) skipSemis() {
	for p.check(token.SEMICOLON) {
		p.advance()
	}
}

// fail records d and abandons the current statement.
func (p *Parser) fail(d diag.Diagnostic) {
	p.diags = append(p.diags, d)
	panic(bailout{})
}

func (p *Parser) recoverBailout() {
	if r := recover(); r != nil {
		if _, ok := r.(bailout); !ok {
			panic(r)
		}
	}
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of input"
	case token.IDENT, token.NUMBER:
		return tok.Kind.Class().String() + " '" + tok.Lexeme + "'"
	case token.STRING:
		return "string " + strconv.Quote(tok.Lexeme)
	}
	return "'" + tok.Kind.String() + "'"
}

// ============================================================
// Error recovery
// ============================================================

// parseStmtRecover parses one statement, turning a bailout into a skip to
// the next likely statement boundary.
func (p *Parser) parseStmtRecover() (stmt ast.Stmt) {
	start := p.pos
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			stmt = nil
			p.synchronize(start)
		}
	}()
	return p.parseStmt()
}

// synchronize skips tokens until a likely statement boundary. It always
// makes progress so a stray token cannot stall the parser.
func (p *Parser) synchronize(start int) {
	if p.pos == start {
		p.advance()
	}
	for !p.isAtEnd() {
		switch p.peekKind() {
		case token.SEMICOLON:
			p.advance()
			return
		case token.RBRACE, token.LBRACE,
			token.KW_LET, token.KW_CONST, token.KW_IF, token.KW_WHILE,
			token.KW_RETURN, token.KW_PRINT:
			return
		}
		p.advance()
	}
}

// ============================================================
// Statement parsing
// ============================================================

func (p *Parser) parseStmt() ast.Stmt {
	switch p.peekKind() {
	case token.LBRACE:
		return p.parseBlock()
	case token.KW_LET, token.KW_CONST:
		return p.parseVarDecl()
	case token.KW_IF:
		return p.parseIfStmt()
	case token.KW_WHILE:
		return p.parseWhileStmt()
	case token.KW_RETURN:
		return p.parseReturnStmt()
	case token.KW_PRINT:
		return p.parsePrintStmt()
	default:
		return p.parseExprStmt()
	}
}

// parseBlock parses: { stmts }
func (p *Parser) parseBlock() *ast.BlockStmt {
	start := p.expect(token.LBRACE)
	block := &ast.BlockStmt{}

	p.skipSemis()
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		if stmt := p.parseStmtRecover(); stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
		p.skipSemis()
	}

	p.expect(token.RBRACE)
	block.Span = p.makeSpan(start.Span.Start)
	return block
}

// parseVarDecl parses: (let | const) IDENT [ = expr ]
func (p *Parser) parseVarDecl() *ast.VarDeclStmt {
	start := p.advance()
	stmt := &ast.VarDeclStmt{Kind: ast.DeclLet}
	if start.Kind == token.KW_CONST {
		stmt.Kind = ast.DeclConst
	}

	stmt.Name = p.expect(token.IDENT).Lexeme

	if p.check(token.ASSIGN) {
		p.advance()
		stmt.Init = p.parseExpression()
	}

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseIfStmt parses: if ( expr ) stmt [ else stmt ]
func (p *Parser) parseIfStmt() *ast.IfStmt {
	start := p.advance()
	stmt := &ast.IfStmt{}

	p.expect(token.LPAREN)
	stmt.Cond = p.parseExpression()
	p.expect(token.RPAREN)
	stmt.Then = p.parseStmt()

	// A terminator may separate the then-branch from its else.
	if p.check(token.SEMICOLON) && p.peekAt(1).Kind == token.KW_ELSE {
		p.advance()
	}
	if p.check(token.KW_ELSE) {
		p.advance()
		stmt.Else = p.parseStmt()
	}

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseWhileStmt parses: while ( expr ) stmt
func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	start := p.advance()
	stmt := &ast.WhileStmt{}

	p.expect(token.LPAREN)
	stmt.Cond = p.parseExpression()
	p.expect(token.RPAREN)
	stmt.Body = p.parseStmt()

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseReturnStmt parses: return [expr]
func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	start := p.advance()
	stmt := &ast.ReturnStmt{}

	if !p.match(token.SEMICOLON, token.RBRACE, token.EOF) {
		stmt.Value = p.parseExpression()
	}

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parsePrintStmt parses: print expr
func (p *Parser) parsePrintStmt() *ast.PrintStmt {
	start := p.advance()
	stmt := &ast.PrintStmt{Expr: p.parseExpression()}
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

func (p *Parser) parseExprStmt() *ast.ExprStmt {
	expr := p.parseExpression()
	return &ast.ExprStmt{
		StmtBase: makeStmtBase(expr.GetSpan().Start, expr.GetSpan().End),
		Expr:     expr,
	}
}

// ============================================================
// Expression parsing
// ============================================================

func (p *Parser) parseExpression() ast.Expr {
	return p.parseAssignment()
}

// parseAssignment is right-associative: a = b = c is a = (b = c).
// Any expression is accepted as a target; the evaluator rejects the ones
// that do not denote a storage location.
func (p *Parser) parseAssignment() ast.Expr {
	target := p.parseConditional()

	op, ok := ast.AssignOpFor(p.peekKind())
	if !ok {
		return target
	}
	p.advance()
	value := p.parseAssignment()

	return &ast.AssignExpr{
		ExprBase: joinExprBase(target, value),
		Op:       op,
		Target:   target,
		Value:    value,
	}
}

// parseConditional parses cond ? then : else, where else is itself a
// conditional so that chains nest to the right.
func (p *Parser) parseConditional() ast.Expr {
	cond := p.parseBinary(ast.PrecOr)
	if !p.check(token.QUESTION) {
		return cond
	}
	p.advance()
	then := p.parseExpression()
	p.expect(token.COLON)
	els := p.parseConditional()

	return &ast.CondExpr{
		ExprBase: joinExprBase(cond, els),
		Cond:     cond,
		Then:     then,
		Else:     els,
	}
}

// parseBinary climbs the binary precedence levels. Every level is
// left-associative, so the right operand is parsed one level tighter.
func (p *Parser) parseBinary(minPrec int) ast.Expr {
	left := p.parseUnary()

	for {
		op, ok := ast.BinaryOpFor(p.peekKind())
		if !ok || op.Precedence() < minPrec {
			return left
		}
		p.advance()
		right := p.parseBinary(op.Precedence() + 1)
		left = &ast.BinaryExpr{
			ExprBase: joinExprBase(left, right),
			Op:       op,
			Left:     left,
			Right:    right,
		}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	tok := p.peek()
	op, ok := ast.UnaryOpFor(tok.Kind)
	if !ok {
		return p.parsePostfix()
	}
	p.advance()
	operand := p.parseUnary()
	return &ast.UnaryExpr{
		ExprBase: makeExprBase(tok.Span.Start, operand.GetSpan().End),
		Op:       op,
		Operand:  operand,
	}
}

// parsePostfix applies index, member and call suffixes left to right.
func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()

	for {
		switch p.peekKind() {
		case token.LBRACKET:
			p.advance()
			index := p.parseExpression()
			end := p.expect(token.RBRACKET)
			expr = &ast.IndexExpr{
				ExprBase: makeExprBase(expr.GetSpan().Start, end.Span.End),
				Target:   expr,
				Index:    index,
			}

		case token.DOT:
			p.advance()
			name := p.expect(token.IDENT)
			expr = &ast.MemberExpr{
				ExprBase: makeExprBase(expr.GetSpan().Start, name.Span.End),
				Target:   expr,
				Name:     name.Lexeme,
			}

		case token.LPAREN:
			p.advance()
			args := p.parseList(token.RPAREN)
			end := p.expect(token.RPAREN)
			expr = &ast.CallExpr{
				ExprBase: makeExprBase(expr.GetSpan().Start, end.Span.End),
				Callee:   expr,
				Args:     args,
			}

		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek()
	base := makeExprBase(tok.Span.Start, tok.Span.End)

	switch tok.Kind {
	case token.NUMBER:
		p.advance()
		val, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			// Only range errors get here; ParseFloat still returns ±Inf.
			p.diags = append(p.diags, diag.Warningf(diag.CodeNumberRange, tok.Span,
				"number literal %s is out of range", tok.Lexeme))
		}
		return &ast.NumberLit{ExprBase: base, Value: val, Raw: tok.Lexeme}

	case token.STRING:
		p.advance()
		return &ast.StringLit{ExprBase: base, Value: tok.Lexeme}

	case token.KW_TRUE, token.KW_FALSE:
		p.advance()
		return &ast.BoolLit{ExprBase: base, Value: tok.Kind == token.KW_TRUE}

	case token.KW_NULL:
		p.advance()
		return &ast.NullLit{ExprBase: base}

	case token.IDENT:
		p.advance()
		return &ast.Ident{ExprBase: base, Name: tok.Lexeme}

	case token.LBRACKET:
		p.advance()
		elements := p.parseList(token.RBRACKET)
		end := p.expect(token.RBRACKET)
		return &ast.ArrayLit{
			ExprBase: makeExprBase(tok.Span.Start, end.Span.End),
			Elements: elements,
		}

	case token.LPAREN:
		p.advance()
		inner := p.parseExpression()
		end := p.expect(token.RPAREN)
		return &ast.GroupExpr{
			ExprBase: makeExprBase(tok.Span.Start, end.Span.End),
			Inner:    inner,
		}
	}

	p.fail(diag.Errorf(diag.CodeExpectedExpr, tok.Span,
		"expected expression, got %s", describe(tok)))
	panic("unreachable")
}

// parseList parses comma-separated expressions up to, but not including,
// the closing token. A trailing comma is allowed.
func (p *Parser) parseList(closing token.Kind) []ast.Expr {
	var list []ast.Expr
	for !p.check(closing) {
		list = append(list, p.parseExpression())
		if !p.check(token.COMMA) {
			break
		}
		p.advance()
	}
	return list
}

// ============================================================
// Span helpers
// ============================================================

func (p *Parser) prevEnd() span.Position {
	if p.pos > 0 && p.pos-1 < len(p.tokens) {
		return p.tokens[p.pos-1].Span.End
	}
	return p.peek().Span.Start
}

func (p *Parser) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: p.prevEnd()}
}

func makeExprBase(start, end span.Position) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}

// joinExprBase covers both operands of an infix form.
func joinExprBase(a, b ast.Expr) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{Span: span.Join(a.GetSpan(), b.GetSpan())}}
}

func makeStmtBase(start, end span.Position) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}
