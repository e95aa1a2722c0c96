package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"notjs/internal/ast"
	"notjs/internal/diag"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helper: parse source and fail on any diagnostic
func parseOK(t *testing.T, source string) *ast.Program {
	t.Helper()
	prog, err := ParseSource(source, "test.nj")
	require.NoError(t, err)
	return prog
}

func parseErr(t *testing.T, source string) diag.List {
	t.Helper()
	_, err := ParseSource(source, "test.nj")
	require.Error(t, err)
	var list diag.List
	require.ErrorAs(t, err, &list)
	return list
}

// sexpr renders an expression as a fully parenthesized prefix form so tests
// can assert on tree shape compactly.
func sexpr(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.Ident:
		return n.Name
	case *ast.NumberLit:
		return n.Raw
	case *ast.StringLit:
		return fmt.Sprintf("%q", n.Value)
	case *ast.BoolLit:
		return fmt.Sprint(n.Value)
	case *ast.NullLit:
		return "null"
	case *ast.ArrayLit:
		parts := make([]string, len(n.Elements))
		for i, el := range n.Elements {
			parts[i] = sexpr(el)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case *ast.AssignExpr:
		return fmt.Sprintf("(%s %s %s)", n.Op, sexpr(n.Target), sexpr(n.Value))
	case *ast.CondExpr:
		return fmt.Sprintf("(? %s %s %s)", sexpr(n.Cond), sexpr(n.Then), sexpr(n.Else))
	case *ast.BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", n.Op, sexpr(n.Left), sexpr(n.Right))
	case *ast.UnaryExpr:
		return fmt.Sprintf("(%s %s)", n.Op, sexpr(n.Operand))
	case *ast.IndexExpr:
		return fmt.Sprintf("(index %s %s)", sexpr(n.Target), sexpr(n.Index))
	case *ast.MemberExpr:
		return fmt.Sprintf("(. %s %s)", sexpr(n.Target), n.Name)
	case *ast.CallExpr:
		parts := []string{"call", sexpr(n.Callee)}
		for _, a := range n.Args {
			parts = append(parts, sexpr(a))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *ast.GroupExpr:
		return "(group " + sexpr(n.Inner) + ")"
	}
	return fmt.Sprintf("<%T>", e)
}

func exprOf(t *testing.T, source string) ast.Expr {
	t.Helper()
	prog := parseOK(t, source)
	require.Len(t, prog.Stmts, 1)
	stmt, ok := prog.Stmts[0].(*ast.ExprStmt)
	require.True(t, ok, "expected ExprStmt, got %T", prog.Stmts[0])
	return stmt.Expr
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"(1 + 2) * 3", "(* (group (+ 1 2)) 3)"},
		{"1 - 2 - 3", "(- (- 1 2) 3)"},
		{"8 / 4 / 2", "(/ (/ 8 4) 2)"},
		{"a = b = 1", "(= a (= b 1))"},
		{"a += b -= 2", "(+= a (-= b 2))"},
		{"x ? 1 : y ? 2 : 3", "(? x 1 (? y 2 3))"},
		{"a | b & c", "(| a (& b c))"},
		{"a & b | c & d", "(| (& a b) (& c d))"},
		{"a == b < c", "(== a (< b c))"},
		{"a != b == c", "(== (!= a b) c)"},
		{"1 < 2 + 3", "(< 1 (+ 2 3))"},
		{"-a * b", "(* (- a) b)"},
		{"!!a", "(! (! a))"},
		{"- -1", "(- (- 1))"},
		{"-a[0]", "(- (index a 0))"},
		{"a[0].b(1, 2)", "(call (. (index a 0) b) 1 2)"},
		{"f()()", "(call (call f))"},
		{"a.b.c", "(. (. a b) c)"},
		{"[1, 'two', [3], null, true]", `[1 "two" [3] null true]`},
		{"[1, 2,]", "[1 2]"},
		{"[]", "[]"},
		{"a ? b = 1 : c", "(? a (= b 1) c)"},
		{"x = a ? b : c", "(= x (? a b c))"},
		{"1 + 2 = 3", "(= (+ 1 2) 3)"},
		{"a | b ? c : d", "(? (| a b) c d)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sexpr(exprOf(t, tt.input)))
		})
	}
}

func TestParseVarDecl(t *testing.T) {
	prog := parseOK(t, `let x = 42; const PI = 3.14; let y`)
	require.Len(t, prog.Stmts, 3)

	x := prog.Stmts[0].(*ast.VarDeclStmt)
	assert.Equal(t, ast.DeclLet, x.Kind)
	assert.Equal(t, "x", x.Name)
	assert.Equal(t, 42.0, x.Init.(*ast.NumberLit).Value)

	pi := prog.Stmts[1].(*ast.VarDeclStmt)
	assert.Equal(t, ast.DeclConst, pi.Kind)
	assert.Equal(t, "PI", pi.Name)

	y := prog.Stmts[2].(*ast.VarDeclStmt)
	assert.Nil(t, y.Init)
}

func TestParseIfStmt(t *testing.T) {
	source := `if (x > 0) {
  print x
} else if (x == 0) print 0
else {
  print -1
}`
	prog := parseOK(t, source)
	ifStmt, ok := prog.Stmts[0].(*ast.IfStmt)
	require.True(t, ok)
	assert.Equal(t, "(> x 0)", sexpr(ifStmt.Cond))
	assert.IsType(t, &ast.BlockStmt{}, ifStmt.Then)

	elseIf, ok := ifStmt.Else.(*ast.IfStmt)
	require.True(t, ok, "else branch should be a nested if")
	assert.IsType(t, &ast.PrintStmt{}, elseIf.Then)
	assert.IsType(t, &ast.BlockStmt{}, elseIf.Else)
}

func TestParseWhileStmt(t *testing.T) {
	prog := parseOK(t, "while (i < 10) {\n  i += 1\n}")
	w, ok := prog.Stmts[0].(*ast.WhileStmt)
	require.True(t, ok)
	assert.Equal(t, "(< i 10)", sexpr(w.Cond))
	body := w.Body.(*ast.BlockStmt)
	require.Len(t, body.Stmts, 1)
	assert.Equal(t, "(+= i 1)", sexpr(body.Stmts[0].(*ast.ExprStmt).Expr))
}

func TestParseReturnStmt(t *testing.T) {
	prog := parseOK(t, "{ return } return 1; return")
	require.Len(t, prog.Stmts, 3)
	assert.Nil(t, prog.Stmts[0].(*ast.BlockStmt).Stmts[0].(*ast.ReturnStmt).Value)
	assert.Equal(t, "1", sexpr(prog.Stmts[1].(*ast.ReturnStmt).Value))
	assert.Nil(t, prog.Stmts[2].(*ast.ReturnStmt).Value)
}

func TestParseTerminators(t *testing.T) {
	prog := parseOK(t, ";; let a = 1;; print a\nprint a;")
	require.Len(t, prog.Stmts, 3)
}

func TestParseSpans(t *testing.T) {
	prog := parseOK(t, "let x = 1\nprint x + 2")
	p := prog.Stmts[1].(*ast.PrintStmt)
	assert.Equal(t, 2, p.Span.Start.Line)
	assert.Equal(t, 1, p.Span.Start.Column)
	assert.Equal(t, 12, p.Span.End.Column)

	bin := p.Expr.(*ast.BinaryExpr)
	assert.Equal(t, 7, bin.Span.Start.Column)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
		line int
		col  int
		msg  string
	}{
		{"missing paren", "if (x { }", diag.CodeUnexpectedToken, 1, 7, "expected ')'"},
		{"missing expression", "let x = ;", diag.CodeExpectedExpr, 1, 9, "expected expression"},
		{"missing name", "let = 1", diag.CodeUnexpectedToken, 1, 5, "expected 'IDENT'"},
		{"missing colon", "a ? b c", diag.CodeUnexpectedToken, 1, 7, "expected ':'"},
		{"unclosed block", "{ print 1", diag.CodeUnexpectedToken, 1, 10, "end of input"},
		{"bad member", "a.1", diag.CodeUnexpectedToken, 1, 3, "number '1'"},
		{"stray brace", "}", diag.CodeExpectedExpr, 1, 1, "'}'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := parseErr(t, tt.src)
			assert.Equal(t, tt.code, list[0].Code)
			assert.Equal(t, tt.line, list[0].Span.Start.Line)
			assert.Equal(t, tt.col, list[0].Span.Start.Column)
			assert.Contains(t, list[0].Message, tt.msg)
		})
	}
}

func TestParseErrorRecovery(t *testing.T) {
	list := parseErr(t, "let = 1;\nprint 2\nlet y = );\nprint 3")
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].Span.Start.Line)
	assert.Equal(t, 3, list[1].Span.Start.Line)
	assert.True(t, errors.Is(list, diag.ErrParse))
}

func TestParseNumberOutOfRange(t *testing.T) {
	prog, warnings, err := Parse("print 1e400\nprint 2", "test.nj")
	require.NoError(t, err)
	require.Len(t, prog.Stmts, 2)
	require.Len(t, warnings, 1)
	assert.Equal(t, diag.CodeNumberRange, warnings[0].Code)
	assert.Equal(t, diag.Warning, warnings[0].Severity)
	assert.Contains(t, warnings[0].Message, "1e400")

	lit := prog.Stmts[0].(*ast.PrintStmt).Expr.(*ast.NumberLit)
	assert.True(t, math.IsInf(lit.Value, 1))

	_, warnings, err = Parse("print 1e300", "test.nj")
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestLexErrorStopsParse(t *testing.T) {
	_, err := ParseSource(`print "abc`, "test.nj")
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.ErrLex))
	assert.False(t, errors.Is(err, diag.ErrParse))
}

func TestParseExpression(t *testing.T) {
	expr, err := ParseExpression("a[1] + b")
	require.NoError(t, err)
	assert.Equal(t, "(+ (index a 1) b)", sexpr(expr))

	_, err = ParseExpression("a b")
	require.Error(t, err)
}

func TestNodeToMapJSON(t *testing.T) {
	prog := parseOK(t, `let a = [1, 2]; a[0] = -a[1]`)
	data, err := json.Marshal(ast.NodeToMap(prog))
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"kind":"Program"`)
	assert.Contains(t, out, `"kind":"AssignExpr"`)
	assert.Contains(t, out, `"op":"="`)
	assert.Contains(t, out, `"kind":"UnaryExpr"`)
	assert.Contains(t, out, `"span"`)

	shape, err := json.Marshal(ast.Shape(prog))
	require.NoError(t, err)
	assert.NotContains(t, string(shape), `"span"`)
}
