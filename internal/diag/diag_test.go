package diag

import (
	"errors"
	"notjs/internal/span"
	"testing"

	"github.com/stretchr/testify/assert"
)

func at(line, col, offset, length int) span.Span {
	start := span.Position{Offset: offset, Line: line, Column: col}
	end := span.Position{Offset: offset + length, Line: line, Column: col + length}
	return span.Span{Start: start, End: end}
}

func TestDiagnosticString(t *testing.T) {
	d := Errorf(CodeExpectedExpr, at(2, 9, 19, 1), "expected expression, got %s", "';'")
	assert.Equal(t, "[E2002] error at 2:9: expected expression, got ';'", d.String())

	d = d.WithHint("add a value")
	assert.Equal(t, "[E2002] error at 2:9: expected expression, got ';' (hint: add a value)", d.Error())
}

func TestDiagnosticSentinels(t *testing.T) {
	lex := Errorf(CodeUnterminatedString, at(1, 1, 0, 3), "unterminated string")
	parse := Errorf(CodeUnexpectedToken, at(1, 1, 0, 1), "unexpected")

	assert.ErrorIs(t, lex, ErrLex)
	assert.ErrorIs(t, parse, ErrParse)
	assert.NotErrorIs(t, lex, ErrParse)
	assert.ErrorIs(t, List{lex, parse}, ErrParse)

	assert.ErrorIs(t, Warningf(CodeUndeclared, at(1, 1, 0, 1), "x"), ErrCheck)
	assert.ErrorIs(t, Warningf(CodeNumberRange, at(1, 1, 0, 5), "big"), ErrParse)
}

func TestListError(t *testing.T) {
	a := Errorf(CodeUnexpectedChar, at(1, 3, 2, 1), "unexpected character '@'")
	b := Errorf(CodeUnexpectedChar, at(1, 5, 4, 1), "unexpected character '#'")

	assert.Equal(t, "no diagnostics", List{}.Error())
	assert.Equal(t, a.Error(), List{a}.Error())
	assert.Equal(t, a.Error()+" (and 1 more)", List{a, b}.Error())

	var d Diagnostic
	assert.True(t, errors.As(List{a, b}, &d))
	assert.Equal(t, a, d)
}

func TestListErr(t *testing.T) {
	assert.NoError(t, List{}.Err())
	assert.NoError(t, List{Warningf("W0001", at(1, 1, 0, 1), "meh")}.Err())
	assert.Error(t, List{Errorf(CodeBadEscape, at(1, 1, 0, 2), "bad escape")}.Err())
}

func TestRender(t *testing.T) {
	src := "let a = 1\nprint (a\n"
	d := Errorf(CodeUnexpectedToken, at(2, 9, 18, 1), "expected ')', got end of input").
		WithHint("close the group")

	want := "error[E2001]: expected ')', got end of input\n" +
		" --> main.nj:2:9\n" +
		"  |\n" +
		"2 | print (a\n" +
		"  |         ^\n" +
		"  = hint: close the group\n"
	assert.Equal(t, want, d.Render("main.nj", src, PlainStyles()))
}

func TestRenderKeepsTabs(t *testing.T) {
	src := "\tx = @"
	d := Errorf(CodeUnexpectedChar, at(1, 6, 5, 1), "unexpected character '@'")

	out := List{d}.Render("", src, PlainStyles())
	assert.Contains(t, out, " --> 1:6\n")
	assert.Contains(t, out, "  | \t    ^\n")
}

func TestRenderOutOfRangeLine(t *testing.T) {
	d := Errorf(CodeUnexpectedToken, at(7, 1, 100, 0), "late")
	assert.Equal(t, "error[E2001]: late\n --> f.nj:7:1\n", d.Render("f.nj", "one line", PlainStyles()))
}
