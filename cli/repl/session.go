package repl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"notjs/internal/diag"
	"notjs/internal/engine"
	"notjs/internal/format"
	"notjs/internal/lexer"
	"notjs/internal/log"
	"notjs/internal/runtime"
	"notjs/internal/token"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
)

// sourceName labels REPL input in diagnostics.
const sourceName = "<repl>"

// session is the REPL state that does not depend on the line editor: the
// pending multi-line chunk and the interpreter whose root scope persists
// between chunks.
type session struct {
	engine *engine.Engine
	logger log.Logger
	interp *runtime.Interpreter
	out    io.Writer
	errw   io.Writer
	styles styles
	diags  diag.Styles

	pending strings.Builder
}

func newSession(e *engine.Engine, logger log.Logger, out, errw io.Writer, color bool) (*session, error) {
	s := &session{
		engine: e,
		logger: logger,
		out:    out,
		errw:   errw,
		styles: plainStyles(),
		diags:  diag.PlainStyles(),
	}
	if color {
		s.styles = defaultStyles()
		s.diags = diag.DefaultStyles()
	}
	if err := s.reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// reset discards every binding made so far.
func (s *session) reset() error {
	interp, err := s.engine.Interpreter(runtime.WithPrint(func(v runtime.Value) error {
		_, err := fmt.Fprintln(s.out, v.String())
		return err
	}))
	if err != nil {
		return err
	}
	s.interp = interp
	return nil
}

// inChunk reports whether a multi-line chunk is being collected.
func (s *session) inChunk() bool { return s.pending.Len() > 0 }

func (s *session) discard() { s.pending.Reset() }

// feed consumes one line of input. It reports false when the user asked to
// leave.
func (s *session) feed(ctx context.Context, line string) bool {
	if !s.inChunk() {
		cmd := strings.TrimSpace(line)
		if cmd == "exit" || strings.HasPrefix(cmd, ":") {
			return s.command(cmd)
		}
	}

	s.pending.WriteString(line)
	s.pending.WriteByte('\n')

	src := s.pending.String()
	if incomplete(src) {
		return true
	}
	s.pending.Reset()

	if strings.TrimSpace(src) != "" {
		s.eval(ctx, src)
	}
	return true
}

// incomplete reports whether src has unclosed brackets or an unterminated
// block comment, so more lines should be read before running it.
func incomplete(src string) bool {
	l := lexer.New(src, sourceName)
	depth := 0
	for {
		tok := l.Next()
		switch tok.Kind {
		case token.LBRACE, token.LPAREN, token.LBRACKET:
			depth++
		case token.RBRACE, token.RPAREN, token.RBRACKET:
			depth--
		}
		if tok.Kind == token.EOF {
			break
		}
	}
	for _, d := range l.Diagnostics() {
		if d.Code == diag.CodeUnterminatedComment {
			return true
		}
	}
	return depth > 0
}

// eval compiles and runs one chunk, echoing the value of a trailing
// expression. An interrupt cancels the chunk, not the session.
func (s *session) eval(ctx context.Context, text string) {
	src := engine.Source{Name: sourceName, Text: text}

	prog, err := s.engine.Compile(text, sourceName)
	if err != nil {
		engine.Report(s.errw, src, err, s.diags)
		return
	}
	if ws := s.engine.Warnings(text, sourceName); len(ws) > 0 {
		io.WriteString(s.errw, ws.Render(sourceName, text, s.diags))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	comp, err := s.interp.Run(ctx, prog)
	if err != nil {
		if !engine.Report(s.errw, src, err, s.diags) {
			fmt.Fprintln(s.errw, s.styles.err.Render("error: "+err.Error()))
		}
		return
	}

	s.logger.TraceContext(ctx, "repl eval",
		slog.Int("steps", comp.Steps),
		slog.Bool("returned", comp.Returned),
	)

	if _, null := comp.Value.(runtime.Null); comp.Value != nil && !null {
		fmt.Fprintln(s.out, s.styles.result.Render(echo(comp.Value)))
	}
}

// echo renders a result the way it would be written in source.
func echo(v runtime.Value) string {
	if str, ok := v.(runtime.String); ok {
		return format.Quote(string(str))
	}
	return v.String()
}

// ---- commands ----

const helpText = `Commands:
  :help           Show this help
  :names          List bound names and their types
  :find PATTERN   Fuzzy-search bound names and keywords
  :reset          Forget every binding
  :quit, exit     Leave the session

Statements run when their brackets balance. Press Tab to complete names,
Ctrl+C to drop a pending chunk or stop a running one, Ctrl+D to quit.`

func (s *session) command(line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "exit", ":quit", ":q":
		return false
	case ":help", ":h":
		fmt.Fprintln(s.out, helpText)
	case ":names":
		s.listNames()
	case ":find":
		s.find(arg)
	case ":reset":
		if err := s.reset(); err != nil {
			fmt.Fprintln(s.errw, s.styles.err.Render("error: "+err.Error()))
		}
	default:
		fmt.Fprintln(s.errw, s.styles.err.Render(fmt.Sprintf("unknown command %s (try :help)", name)))
	}
	return true
}

// names returns the names bound in the root scope.
func (s *session) names() []string {
	env := s.interp.Env()
	return env.Names(env.Root())
}

func (s *session) listNames() {
	env := s.interp.Env()
	names := s.names()
	width := 0
	for _, n := range names {
		width = max(width, len(n))
	}
	for _, n := range names {
		v, _ := env.Lookup(env.Root(), n)
		fmt.Fprintf(s.out, "%-*s  %s\n", width, n, s.styles.hint.Render(v.TypeName()))
	}
}

// find prints the fuzzy matches for pattern among bound names and
// keywords, best first, with matched characters highlighted.
func (s *session) find(pattern string) {
	if pattern == "" {
		fmt.Fprintln(s.errw, s.styles.err.Render("usage: :find PATTERN"))
		return
	}
	matches := fuzzy.Find(pattern, s.vocabulary())
	if len(matches) == 0 {
		fmt.Fprintln(s.out, s.styles.hint.Render("no matches"))
		return
	}
	for _, m := range matches {
		fmt.Fprintln(s.out, s.highlight(m))
	}
}

func (s *session) highlight(m fuzzy.Match) string {
	var b strings.Builder
	for i, r := range m.Str {
		if slices.Contains(m.MatchedIndexes, i) {
			b.WriteString(s.styles.match.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// vocabulary is every top-level word completion can offer.
func (s *session) vocabulary() []string {
	words := append(token.Keywords(), s.names()...)
	slices.Sort(words)
	return slices.Compact(words)
}
