// Package format prints an AST back to canonical source text.
//
// Parsing the output yields a tree with the same shape as the input:
// GroupExpr nodes print as parentheses and every other child is
// parenthesized only when its precedence would otherwise change the parse.
package format

import (
	"math"
	"notjs/internal/ast"
	"strconv"
	"strings"
)

const indent = "  "

// Program formats a whole program, one statement per line.
func Program(prog *ast.Program) string {
	p := &printer{}
	for _, s := range prog.Stmts {
		p.stmt(s)
		p.b.WriteByte('\n')
	}
	return p.b.String()
}

// Stmt formats a single statement at indentation depth 0.
func Stmt(s ast.Stmt) string {
	p := &printer{}
	p.stmt(s)
	return p.b.String()
}

// Expr formats a single expression.
func Expr(e ast.Expr) string {
	p := &printer{}
	p.expr(e, ast.PrecLowest)
	return p.b.String()
}

type printer struct {
	b     strings.Builder
	depth int
}

func (p *printer) write(parts ...string) {
	for _, s := range parts {
		p.b.WriteString(s)
	}
}

func (p *printer) newline() {
	p.b.WriteByte('\n')
	p.b.WriteString(strings.Repeat(indent, p.depth))
}

// ---- statements ----

func (p *printer) stmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.BlockStmt:
		p.block(n)
	case *ast.VarDeclStmt:
		p.write(n.Kind.String(), " ", n.Name)
		if n.Init != nil {
			p.write(" = ")
			p.expr(n.Init, ast.PrecAssign)
		}
		p.write(";")
	case *ast.ExprStmt:
		p.expr(n.Expr, ast.PrecLowest)
		p.write(";")
	case *ast.PrintStmt:
		p.write("print ")
		p.expr(n.Expr, ast.PrecLowest)
		p.write(";")
	case *ast.IfStmt:
		p.write("if (")
		p.expr(n.Cond, ast.PrecLowest)
		p.write(") ")
		p.stmt(n.Then)
		if n.Else != nil {
			p.write(" else ")
			p.stmt(n.Else)
		}
	case *ast.WhileStmt:
		p.write("while (")
		p.expr(n.Cond, ast.PrecLowest)
		p.write(") ")
		p.stmt(n.Body)
	case *ast.ReturnStmt:
		p.write("return")
		if n.Value != nil {
			p.write(" ")
			p.expr(n.Value, ast.PrecLowest)
		}
		p.write(";")
	}
}

func (p *printer) block(n *ast.BlockStmt) {
	if len(n.Stmts) == 0 {
		p.write("{}")
		return
	}
	p.write("{")
	p.depth++
	for _, s := range n.Stmts {
		p.newline()
		p.stmt(s)
	}
	p.depth--
	p.newline()
	p.write("}")
}

// ---- expressions ----

// prec returns the precedence level an expression was parsed at.
func prec(e ast.Expr) int {
	switch n := e.(type) {
	case *ast.AssignExpr:
		return ast.PrecAssign
	case *ast.CondExpr:
		return ast.PrecCond
	case *ast.BinaryExpr:
		return n.Op.Precedence()
	case *ast.UnaryExpr:
		return ast.PrecUnary
	}
	return ast.PrecPostfix
}

// expr prints e, wrapping it in parentheses if it binds looser than min.
func (p *printer) expr(e ast.Expr, min int) {
	if prec(e) < min {
		p.write("(")
		defer p.write(")")
	}

	switch n := e.(type) {
	case *ast.Ident:
		p.write(n.Name)
	case *ast.NumberLit:
		p.write(number(n))
	case *ast.StringLit:
		p.write(Quote(n.Value))
	case *ast.BoolLit:
		p.write(strconv.FormatBool(n.Value))
	case *ast.NullLit:
		p.write("null")
	case *ast.ArrayLit:
		p.write("[")
		p.list(n.Elements)
		p.write("]")
	case *ast.AssignExpr:
		p.expr(n.Target, ast.PrecCond)
		p.write(" ", n.Op.String(), " ")
		p.expr(n.Value, ast.PrecAssign)
	case *ast.CondExpr:
		p.expr(n.Cond, ast.PrecOr)
		p.write(" ? ")
		p.expr(n.Then, ast.PrecLowest)
		p.write(" : ")
		p.expr(n.Else, ast.PrecCond)
	case *ast.BinaryExpr:
		lvl := n.Op.Precedence()
		p.expr(n.Left, lvl)
		p.write(" ", n.Op.String(), " ")
		p.expr(n.Right, lvl+1)
	case *ast.UnaryExpr:
		p.write(n.Op.String())
		// Keep "- -x" apart for readability; the lexer has no "--" token.
		if u, ok := n.Operand.(*ast.UnaryExpr); ok && u.Op == n.Op && n.Op == ast.OpNeg {
			p.write(" ")
		}
		p.expr(n.Operand, ast.PrecUnary)
	case *ast.IndexExpr:
		p.expr(n.Target, ast.PrecPostfix)
		p.write("[")
		p.expr(n.Index, ast.PrecLowest)
		p.write("]")
	case *ast.MemberExpr:
		p.expr(n.Target, ast.PrecPostfix)
		p.write(".", n.Name)
	case *ast.CallExpr:
		p.expr(n.Callee, ast.PrecPostfix)
		p.write("(")
		p.list(n.Args)
		p.write(")")
	case *ast.GroupExpr:
		p.write("(")
		p.expr(n.Inner, ast.PrecLowest)
		p.write(")")
	}
}

func (p *printer) list(exprs []ast.Expr) {
	for i, e := range exprs {
		if i > 0 {
			p.write(", ")
		}
		p.expr(e, ast.PrecAssign)
	}
}

func number(n *ast.NumberLit) string {
	if n.Raw != "" {
		return n.Raw
	}
	return Number(n.Value)
}

// Number formats v the way the lexer reads numbers back: integral values
// without a fraction, others in the shortest exact form.
func Number(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Quote renders s as a double-quoted literal using only escapes the lexer
// understands.
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case 0:
			b.WriteString(`\0`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
