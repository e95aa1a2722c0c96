package repl

import (
	"bytes"
	"context"
	"notjs/internal/engine"
	"notjs/internal/log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) (*session, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errw bytes.Buffer
	s, err := newSession(engine.New(), log.Logger{}, &out, &errw, false)
	require.NoError(t, err)
	return s, &out, &errw
}

func feedAll(t *testing.T, s *session, lines ...string) {
	t.Helper()
	for _, line := range lines {
		require.True(t, s.feed(context.Background(), line), "session ended at %q", line)
	}
}

func TestSessionKeepsBindings(t *testing.T) {
	s, out, errw := newTestSession(t)

	feedAll(t, s, "let n = 20", "n += 1", "print n * 2")
	assert.Equal(t, "21\n42\n", out.String())
	assert.Empty(t, errw.String())
}

func TestSessionEchoesTrailingExpression(t *testing.T) {
	s, out, _ := newTestSession(t)

	feedAll(t, s, `"a" + "b"`, "[1, 2]", "null", "let x = 1")
	assert.Equal(t, "\"ab\"\n[1, 2]\n", out.String())
}

func TestSessionMultiLine(t *testing.T) {
	s, out, _ := newTestSession(t)

	feedAll(t, s, "let i = 0", "while (i < 3) {", "  i += 1")
	assert.True(t, s.inChunk())
	assert.Empty(t, out.String())

	feedAll(t, s, "}", "print i")
	assert.False(t, s.inChunk())
	assert.Equal(t, "3\n", out.String())
}

func TestSessionBlockComment(t *testing.T) {
	s, out, _ := newTestSession(t)

	feedAll(t, s, "/* start", "still comment */ print 1")
	assert.Equal(t, "1\n", out.String())
}

func TestSessionDiscard(t *testing.T) {
	s, out, _ := newTestSession(t)

	feedAll(t, s, "print [1,")
	require.True(t, s.inChunk())
	s.discard()
	feedAll(t, s, "print 2")
	assert.Equal(t, "2\n", out.String())
}

func TestSessionReportsErrors(t *testing.T) {
	s, out, errw := newTestSession(t)

	feedAll(t, s, "let x = ;")
	assert.Contains(t, errw.String(), "error[E2002]: expected expression, got ';'")
	assert.Contains(t, errw.String(), "--> <repl>:1:9")

	errw.Reset()
	feedAll(t, s, "let y = 1", "y / 0")
	assert.Contains(t, errw.String(), "error[DivisionByZero]: division by zero")

	// A failed chunk leaves earlier bindings in place.
	feedAll(t, s, "print y")
	assert.Equal(t, "1\n", out.String())
}

func TestSessionShowsWarnings(t *testing.T) {
	s, out, errw := newTestSession(t)

	feedAll(t, s, "print -1e999")
	assert.Equal(t, "-inf\n", out.String())
	assert.Contains(t, errw.String(), "warning[W2003]")
}

func TestSessionRedeclareFails(t *testing.T) {
	s, _, errw := newTestSession(t)

	feedAll(t, s, "let a = 1", "let a = 2")
	assert.Contains(t, errw.String(), "DuplicateBinding")
}

func TestSessionCommands(t *testing.T) {
	s, out, errw := newTestSession(t)

	feedAll(t, s, ":help")
	assert.Contains(t, out.String(), ":find PATTERN")

	out.Reset()
	feedAll(t, s, "let total = 1", ":names")
	assert.Contains(t, out.String(), "total")
	assert.Contains(t, out.String(), "number")
	assert.Contains(t, out.String(), "math")

	feedAll(t, s, ":reset")
	assert.NotContains(t, s.names(), "total")
	assert.Contains(t, s.names(), "len")

	feedAll(t, s, ":bogus")
	assert.Contains(t, errw.String(), "unknown command :bogus")

	assert.False(t, s.feed(context.Background(), ":quit"))
	assert.False(t, s.feed(context.Background(), "  exit  "))
}

func TestSessionFind(t *testing.T) {
	s, out, _ := newTestSession(t)

	feedAll(t, s, "let counter = 0", ":find cntr")
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "counter", lines[0])

	out.Reset()
	feedAll(t, s, ":find zzz")
	assert.Equal(t, "no matches\n", out.String())
}

func TestIncomplete(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"print 1", false},
		{"{", true},
		{"f(1,", true},
		{"[[1], [2]]", false},
		{"/* open", true},
		{"}", false},
		{`print "{"`, false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, incomplete(tt.src))
		})
	}
}
