package engine

import (
	"bytes"
	"context"
	"errors"
	"notjs/internal/diag"
	"notjs/internal/log"
	"notjs/internal/runtime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCollect runs src and returns everything it printed, one value per line,
// followed by the returned value and any error.
func runCollect(t *testing.T, e *Engine, src, name string) string {
	t.Helper()

	var lines []string
	comp, err := e.Run(context.Background(), src, name, runtime.WithPrint(func(v runtime.Value) error {
		lines = append(lines, v.String())
		return nil
	}))
	if err == nil && comp.Returned {
		lines = append(lines, "return: "+comp.Value.String())
	}
	if err != nil {
		lines = append(lines, "error: "+err.Error())
	}
	return strings.Join(lines, "\n")
}

// goldenTest runs testdata/name.nj and compares its output to name.expected.
func goldenTest(t *testing.T, name string) {
	t.Helper()

	srcPath := filepath.Join("testdata", name+".nj")
	expectedPath := filepath.Join("testdata", name+".expected")

	e := New()
	src, err := e.Load(srcPath)
	require.NoError(t, err)

	expected, err := os.ReadFile(expectedPath)
	require.NoError(t, err)

	expectedStr := strings.TrimRight(string(expected), "\n")
	gotStr := runCollect(t, e, src.Text, src.Name)

	if gotStr != expectedStr {
		expectedLines := strings.Split(expectedStr, "\n")
		gotLines := strings.Split(gotStr, "\n")

		t.Errorf("output mismatch for %s", name)
		for i := 0; i < max(len(expectedLines), len(gotLines)); i++ {
			exp, got := "<missing>", "<missing>"
			if i < len(expectedLines) {
				exp = expectedLines[i]
			}
			if i < len(gotLines) {
				got = gotLines[i]
			}
			prefix := "  "
			if exp != got {
				prefix = "! "
			}
			t.Logf("%sline %d: expected=%q got=%q", prefix, i+1, exp, got)
		}
	}
}

func TestGoldenBasics(t *testing.T)       { goldenTest(t, "basics") }
func TestGoldenLoops(t *testing.T)        { goldenTest(t, "loops") }
func TestGoldenFizzBuzz(t *testing.T)     { goldenTest(t, "fizzbuzz") }
func TestGoldenArrays(t *testing.T)       { goldenTest(t, "arrays") }
func TestGoldenScope(t *testing.T)        { goldenTest(t, "scope") }
func TestGoldenEarlyReturn(t *testing.T)  { goldenTest(t, "early_return") }
func TestGoldenRuntimeError(t *testing.T) { goldenTest(t, "runtime_error") }
func TestGoldenParseError(t *testing.T)   { goldenTest(t, "parse_error") }

func TestCompileCache(t *testing.T) {
	e := New()

	p1, err := e.Compile("print 1", "a.nj")
	require.NoError(t, err)
	p2, err := e.Compile("print 1", "b.nj")
	require.NoError(t, err)
	assert.Same(t, p1, p2)

	_, err = e.Compile("print 2", "a.nj")
	require.NoError(t, err)

	assert.Equal(t, CacheStats{Entries: 2, Hits: 1, Misses: 2}, e.Stats())
}

func TestCompileCachesFailures(t *testing.T) {
	e := New()

	_, err1 := e.Compile("let = 1", "bad.nj")
	require.Error(t, err1)
	var list diag.List
	require.True(t, errors.As(err1, &list))

	_, err2 := e.Compile("let = 1", "bad.nj")
	assert.Equal(t, err1, err2)
	assert.Equal(t, 1, e.Stats().Hits)
}

func TestCompileConcurrent(t *testing.T) {
	e := New()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Compile("let x = 1 + 2 * 3", "c.nj")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stats := e.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 1, stats.Misses)
	assert.Equal(t, 15, stats.Hits)
}

func TestRunsAreIsolated(t *testing.T) {
	e := New()

	assert.Equal(t, "", runCollect(t, e, "let x = 1", "a.nj"))
	// A second run of different text must not see x from the first.
	assert.Equal(t, "error: runtime error at 1:7: undefined identifier 'x'",
		runCollect(t, e, "print x", "b.nj"))
}

func TestLoadStdin(t *testing.T) {
	e := New(WithStdin(strings.NewReader("print 40 + 2\n")))

	src, err := e.Load(StdinName)
	require.NoError(t, err)
	assert.Equal(t, "<stdin>", src.Name)
	assert.Equal(t, "print 40 + 2\n", src.Text)
	assert.Equal(t, "42", runCollect(t, e, src.Text, src.Name))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := New().Load(filepath.Join(t.TempDir(), "nope.nj"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "nope.nj")
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ret.nj")
	require.NoError(t, os.WriteFile(path, []byte("return [1, 2].length"), 0o644))

	src, comp, err := New().RunFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, src.Name)
	assert.True(t, comp.Returned)
	assert.Equal(t, runtime.Number(2), comp.Value)
}

func TestWithGlobal(t *testing.T) {
	e := New(WithGlobal("answer", runtime.Number(42)))

	assert.Equal(t, "42", runCollect(t, e, "print answer", "g.nj"))
	assert.Contains(t, runCollect(t, e, "answer = 1", "g.nj"), "cannot assign to constant 'answer'")

	env, err := e.NewEnvironment()
	require.NoError(t, err)
	assert.Contains(t, env.Names(env.Root()), "answer")
}

func TestWithGlobalShadowingBuiltin(t *testing.T) {
	_, err := New(WithGlobal("len", runtime.Null{})).NewEnvironment()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "global len")
}

func TestWithRuntimeOptions(t *testing.T) {
	e := New(WithRuntimeOptions(runtime.WithStepBudget(10)))

	_, err := e.Run(context.Background(), "while (true) {}", "spin.nj")
	require.Error(t, err)
	assert.ErrorIs(t, err, runtime.ErrBudgetExceeded)
}

func TestInterpreterKeepsState(t *testing.T) {
	var out []string
	in, err := New().Interpreter(runtime.WithPrint(func(v runtime.Value) error {
		out = append(out, v.String())
		return nil
	}))
	require.NoError(t, err)

	e := New()
	for _, line := range []string{"let n = 2", "n *= 21", "print n"} {
		prog, err := e.Compile(line, "<repl>")
		require.NoError(t, err)
		_, err = in.Run(context.Background(), prog)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"42"}, out)
}

func TestEngineLogsCompile(t *testing.T) {
	var buf bytes.Buffer
	logger := log.Make(&buf, log.WithLevel(log.LevelTrace), log.WithTimeLayout("none"))
	e := New(WithLogger(logger))

	_, err := e.Compile("print 1", "t.nj")
	require.NoError(t, err)
	_, err = e.Compile("print 1", "t.nj")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "msg=compile")
	assert.Contains(t, out, "cache_hit=false")
	assert.Contains(t, out, "cache_hit=true")
}

func TestDiagnostics(t *testing.T) {
	e := New()

	_, err := e.Compile("let x = ;", "d.nj")
	list := Diagnostics(err)
	require.Len(t, list, 1)
	assert.Equal(t, diag.CodeExpectedExpr, list[0].Code)

	_, err = e.Run(context.Background(), "let a = 1\nprint a / 0", "d.nj")
	list = Diagnostics(err)
	require.Len(t, list, 1)
	assert.Equal(t, "DivisionByZero", list[0].Code)
	assert.Equal(t, 2, list[0].Span.Start.Line)
	assert.Equal(t, 7, list[0].Span.Start.Column)

	assert.Nil(t, Diagnostics(errors.New("plain")))
	assert.Nil(t, Diagnostics(nil))
}

func TestReport(t *testing.T) {
	src := Source{Name: "r.nj", Text: "print [1][3]"}
	_, err := New().Run(context.Background(), src.Text, src.Name)
	require.Error(t, err)

	var buf bytes.Buffer
	require.True(t, Report(&buf, src, err, diag.PlainStyles()))
	assert.Equal(t, "error[IndexOutOfRange]: index 3 out of range for length 1\n"+
		" --> r.nj:1:7\n"+
		"  |\n"+
		"1 | print [1][3]\n"+
		"  |       ^^^^^^\n", buf.String())

	buf.Reset()
	assert.False(t, Report(&buf, src, errors.New("plain"), diag.PlainStyles()))
	assert.Empty(t, buf.String())
}

func TestWarnings(t *testing.T) {
	e := New()

	ws := e.Warnings("let big = 1e400\nprint big", "w.nj")
	require.Len(t, ws, 1)
	assert.Equal(t, diag.CodeNumberRange, ws[0].Code)
	assert.Equal(t, 1, ws[0].Span.Start.Line)
	assert.Equal(t, 11, ws[0].Span.Start.Column)

	// The warning does not stop the program.
	assert.Equal(t, "inf", runCollect(t, e, "let big = 1e400\nprint big", "w.nj"))
	assert.Equal(t, CacheStats{Entries: 1, Hits: 1, Misses: 1}, e.Stats())

	assert.Empty(t, e.Warnings("print 1", "w.nj"))
	assert.Empty(t, e.Warnings("print (", "w.nj"))
}

func TestCheck(t *testing.T) {
	e := New(WithGlobal("answer", runtime.Number(42)))

	list, err := e.Check("print len([answer])", "c.nj")
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = e.Check("answer = 1\nlen = 2\nprint missing + 1e999", "c.nj")
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, diag.CodeConstAssign, list[0].Code)
	assert.Equal(t, diag.CodeConstAssign, list[1].Code)
	assert.Equal(t, diag.CodeUndeclared, list[2].Code)
	assert.Equal(t, diag.CodeNumberRange, list[3].Code)
	assert.True(t, errors.Is(list, diag.ErrCheck))

	_, err = e.Check("let = 1", "c.nj")
	assert.ErrorIs(t, err, diag.ErrParse)
}
