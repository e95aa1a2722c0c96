// Package engine loads, compiles and runs notjs sources.
//
// An Engine owns a compile cache keyed by the xxh3 hash of the source text,
// so running the same text twice lexes and parses it once. Each Run gets a
// fresh root environment seeded with the builtins and any host globals.
package engine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"notjs/internal/ast"
	"notjs/internal/diag"
	"notjs/internal/log"
	"notjs/internal/parser"
	"notjs/internal/resolve"
	"notjs/internal/runtime"
	"os"
	"slices"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// Source is program text together with the name used in diagnostics.
type Source struct {
	Name string
	Text string
}

// StdinName is the path Load treats as standard input.
const StdinName = "-"

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for the engine and the interpreters it starts.
func WithLogger(l log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithStdin replaces os.Stdin as the reader behind Load("-").
func WithStdin(r io.Reader) Option {
	return func(e *Engine) { e.stdin = r }
}

// WithRuntimeOptions appends options passed to every run.
func WithRuntimeOptions(opts ...runtime.Option) Option {
	return func(e *Engine) { e.runOpts = append(e.runOpts, opts...) }
}

// WithGlobal binds name to v (as a constant) in every environment the
// engine creates.
func WithGlobal(name string, v runtime.Value) Option {
	return func(e *Engine) {
		if e.globals == nil {
			e.globals = map[string]runtime.Value{}
		}
		e.globals[name] = v
	}
}

// Engine compiles and runs programs. It is safe for concurrent use; each
// Run has its own interpreter and environment.
type Engine struct {
	logger  log.Logger
	stdin   io.Reader
	runOpts []runtime.Option
	globals map[string]runtime.Value

	mu     sync.Mutex
	cache  map[uint64]*entry
	hits   int
	misses int
}

// entry is one compiled source. Parsing happens once even when several
// goroutines ask for the same text at the same time.
type entry struct {
	once     sync.Once
	prog     *ast.Program
	warnings diag.List
	err      error
}

// CacheStats reports compile cache usage.
type CacheStats struct {
	Entries int
	Hits    int
	Misses  int
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		stdin: os.Stdin,
		cache: map[uint64]*entry{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load reads a source file, or standard input when path is "-".
func (e *Engine) Load(path string) (Source, error) {
	var r io.Reader
	name := path
	if path == StdinName {
		r = e.stdin
		name = "<stdin>"
	} else {
		f, err := os.Open(path)
		if err != nil {
			return Source{}, fmt.Errorf("load %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return Source{}, fmt.Errorf("load %s: %w", path, err)
	}

	e.logger.Trace("loaded source",
		slog.String("name", name),
		slog.Int("bytes", len(data)))
	return Source{Name: name, Text: string(data)}, nil
}

// Compile lexes and parses src. Results, failures included, are cached by
// source text; the returned Program must not be modified.
func (e *Engine) Compile(src, name string) (*ast.Program, error) {
	ent := e.compile(src, name)
	return ent.prog, ent.err
}

// Warnings returns the diagnostics that did not fail compiling src, such
// as number literals that overflow to infinity.
func (e *Engine) Warnings(src, name string) diag.List {
	return e.compile(src, name).warnings
}

// Check compiles src and reports its warnings together with the names that
// cannot resolve against a fresh root environment, ordered by position.
func (e *Engine) Check(src, name string) (diag.List, error) {
	ent := e.compile(src, name)
	if ent.err != nil {
		return nil, ent.err
	}
	env, err := e.NewEnvironment()
	if err != nil {
		return nil, err
	}

	globals := map[string]bool{}
	for _, n := range env.Names(env.Root()) {
		globals[n], _ = env.Mutable(env.Root(), n)
	}

	list := append(slices.Clone(ent.warnings), resolve.Program(ent.prog, globals)...)
	slices.SortStableFunc(list, func(a, b diag.Diagnostic) int {
		return cmp.Compare(a.Span.Start.Offset, b.Span.Start.Offset)
	})
	return list, nil
}

func (e *Engine) compile(src, name string) *entry {
	key := xxh3.HashString(src)

	e.mu.Lock()
	ent, hit := e.cache[key]
	if hit {
		e.hits++
	} else {
		ent = &entry{}
		e.cache[key] = ent
		e.misses++
	}
	e.mu.Unlock()

	ent.once.Do(func() {
		ent.prog, ent.warnings, ent.err = parser.Parse(src, name)
		for _, w := range ent.warnings {
			e.logger.Debug("compile warning", slog.String("name", name), slog.Any("diagnostic", w))
		}
	})

	e.logger.Trace("compile",
		slog.String("name", name),
		slog.String("hash", strconv.FormatUint(key, 16)),
		slog.Bool("cache_hit", hit),
		slog.Bool("ok", ent.err == nil))
	return ent
}

// NewEnvironment returns a root environment with the builtins and the
// engine's globals bound.
func (e *Engine) NewEnvironment() (*runtime.Environment, error) {
	env := runtime.NewEnvironment()
	if err := runtime.DefineBuiltins(env); err != nil {
		return nil, err
	}
	for name, v := range e.globals {
		if err := env.Define(name, v, false); err != nil {
			return nil, fmt.Errorf("global %s: %w", name, err)
		}
	}
	return env, nil
}

// Interpreter returns a reusable interpreter over a fresh environment, for
// hosts such as the REPL that run many programs against shared state.
func (e *Engine) Interpreter(opts ...runtime.Option) (*runtime.Interpreter, error) {
	env, err := e.NewEnvironment()
	if err != nil {
		return nil, err
	}
	return runtime.New(env, e.runtimeOptions(opts)...), nil
}

// Run compiles src and executes it in a fresh environment. opts are applied
// after the engine's own runtime options.
func (e *Engine) Run(ctx context.Context, src, name string, opts ...runtime.Option) (runtime.Completion, error) {
	prog, err := e.Compile(src, name)
	if err != nil {
		return runtime.Completion{}, err
	}
	env, err := e.NewEnvironment()
	if err != nil {
		return runtime.Completion{}, err
	}
	return runtime.Execute(ctx, prog, env, e.runtimeOptions(opts)...)
}

// RunFile loads path and runs it.
func (e *Engine) RunFile(ctx context.Context, path string, opts ...runtime.Option) (Source, runtime.Completion, error) {
	src, err := e.Load(path)
	if err != nil {
		return src, runtime.Completion{}, err
	}
	comp, err := e.Run(ctx, src.Text, src.Name, opts...)
	return src, comp, err
}

// Stats returns a snapshot of the compile cache counters.
func (e *Engine) Stats() CacheStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return CacheStats{Entries: len(e.cache), Hits: e.hits, Misses: e.misses}
}

func (e *Engine) runtimeOptions(extra []runtime.Option) []runtime.Option {
	opts := make([]runtime.Option, 0, len(e.runOpts)+len(extra)+1)
	opts = append(opts, runtime.WithLogger(e.logger))
	opts = append(opts, e.runOpts...)
	return append(opts, extra...)
}

// ---- reporting ----

// Diagnostics converts a compile or runtime error into diagnostics that can
// be rendered against the source. Other errors yield nil.
func Diagnostics(err error) diag.List {
	var list diag.List
	if errors.As(err, &list) {
		return list
	}
	var d diag.Diagnostic
	if errors.As(err, &d) {
		return diag.List{d}
	}
	var rerr *runtime.RuntimeError
	if errors.As(err, &rerr) {
		return diag.List{diag.Errorf(rerr.Kind.String(), rerr.Span, "%s", rerr.Message)}
	}
	return nil
}

// Report renders err with source context to w. It reports false, writing
// nothing, when err carries no position.
func Report(w io.Writer, src Source, err error, st diag.Styles) bool {
	list := Diagnostics(err)
	if len(list) == 0 {
		return false
	}
	io.WriteString(w, list.Render(src.Name, src.Text, st))
	return true
}
