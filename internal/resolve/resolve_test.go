package resolve

import (
	"errors"
	"notjs/internal/diag"
	"notjs/internal/parser"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func check(t *testing.T, src string, globals map[string]bool) diag.List {
	t.Helper()
	prog, err := parser.ParseSource(src, "test.nj")
	require.NoError(t, err)
	return Program(prog, globals)
}

func codes(list diag.List) []string {
	out := make([]string, len(list))
	for i, d := range list {
		out[i] = d.Code
	}
	return out
}

func TestCleanProgram(t *testing.T) {
	list := check(t, `
let i = 0
const limit = 3
while (i < limit) {
  let sq = i * i
  print sq
  i += 1
}
print len([i])
`, map[string]bool{"len": false})
	assert.Empty(t, list)
}

func TestUndeclared(t *testing.T) {
	list := check(t, "print x\ny = 1", nil)
	require.Len(t, list, 2)
	assert.Equal(t, []string{diag.CodeUndeclared, diag.CodeUndeclared}, codes(list))
	assert.Equal(t, "undefined identifier 'x'", list[0].Message)
	assert.Equal(t, 1, list[0].Span.Start.Line)
	assert.Equal(t, 7, list[0].Span.Start.Column)
	assert.Equal(t, 2, list[1].Span.Start.Line)
	assert.Equal(t, diag.Warning, list[0].Severity)
	assert.True(t, errors.Is(list, diag.ErrCheck))
	assert.NoError(t, list.Err())
}

func TestDeclarationIsVisibleOnlyAfterwards(t *testing.T) {
	assert.Equal(t, []string{diag.CodeUndeclared}, codes(check(t, "let a = a", nil)))
	assert.Equal(t, []string{diag.CodeUndeclared}, codes(check(t, "print b; let b = 1", nil)))
	// The initializer sees the outer binding.
	assert.Empty(t, check(t, "let a = 1; { let a = a + 1; print a }", nil))
}

func TestBlocksAndBodiesAreScopes(t *testing.T) {
	assert.Equal(t, []string{diag.CodeUndeclared}, codes(check(t, "{ let x = 1 } print x", nil)))
	assert.Equal(t, []string{diag.CodeUndeclared}, codes(check(t, "if (true) let y = 1; print y", nil)))
	assert.Equal(t, []string{diag.CodeUndeclared}, codes(check(t, "while (false) let z = 1; z", nil)))
	assert.Empty(t, check(t, "if (true) let y = 1; else let y = 2; let y = 3", nil))
}

func TestConstAssignment(t *testing.T) {
	list := check(t, "const c = 1\nc = 2; (c) += 1", map[string]bool{})
	assert.Equal(t, []string{diag.CodeConstAssign, diag.CodeConstAssign}, codes(list))
	assert.Equal(t, "cannot assign to constant 'c'", list[0].Message)

	list = check(t, "len = 1; counter = 1", map[string]bool{"len": false, "counter": true})
	assert.Equal(t, []string{diag.CodeConstAssign}, codes(list))

	// A shadowing let makes the name assignable again.
	assert.Empty(t, check(t, "const c = 1; { let c = 2; c = 3 }", nil))
}

func TestRedeclaration(t *testing.T) {
	list := check(t, "let a = 1\nconst a = 2", nil)
	assert.Equal(t, []string{diag.CodeRedeclaration}, codes(list))
	assert.Equal(t, 2, list[0].Span.Start.Line)

	assert.Equal(t, []string{diag.CodeRedeclaration}, codes(check(t, "let len = 1", map[string]bool{"len": false})))
	assert.Empty(t, check(t, "let a = 1; { let a = 2 }", nil))
}

func TestExpressionsAreWalked(t *testing.T) {
	src := `let a = [p, q ? r : s]
a[i] = -t
a.u
f(v, !w)
a.length = x
return y | z`
	list := check(t, src, nil)
	var names []string
	for _, d := range list {
		names = append(names, d.Message[len("undefined identifier '"):len(d.Message)-1])
	}
	assert.Equal(t, []string{"p", "q", "r", "s", "i", "t", "f", "v", "w", "x", "y", "z"}, names)
}
