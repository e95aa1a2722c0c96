package cli

import (
	"context"
	"fmt"
	"log/slog"
	"notjs/cli/repl"
	"notjs/internal/ast"
	"notjs/internal/diag"
	"notjs/internal/engine"
	"notjs/internal/format"
	"notjs/internal/lexer"
	"notjs/internal/runtime"
	"notjs/internal/token"
	"os"
	"os/signal"
	"runtime/debug"
)

// RunCmd executes a program.
type RunCmd struct {
	Source string `arg:"" default:"-" help:"Program file or '-' for stdin." name:"source"`
}

// Run executes the run command. An interrupt cancels the program.
func (c *RunCmd) Run(ctx context.Context, s *Session) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	src, err := s.Engine.Load(c.Source)
	if err != nil {
		return err
	}

	s.warn(src, s.Engine.Warnings(src.Text, src.Name))

	comp, err := s.Engine.Run(ctx, src.Text, src.Name, runtime.WithPrint(s.print))
	if err != nil {
		s.report(src, err)
		return err
	}

	s.Logger.DebugContext(ctx, "program finished",
		slog.String("source", src.Name),
		slog.Bool("returned", comp.Returned),
		slog.Int("steps", comp.Steps),
	)
	return nil
}

// TokensCmd prints the token stream of a program.
type TokensCmd struct {
	Output string `default:"text" enum:"text,json,yaml" help:"Output format." short:"o"`

	Source string `arg:"" default:"-" help:"Program file or '-' for stdin." name:"source"`
}

// tokenDump is the JSON and YAML shape of the tokens command.
type tokenDump struct {
	Tokens      []token.Token `json:"tokens"                yaml:"tokens"`
	Diagnostics diag.List     `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// Run executes the tokens command. Tokens are printed even when the lexer
// reports errors.
func (c *TokensCmd) Run(s *Session) error {
	src, err := s.Engine.Load(c.Source)
	if err != nil {
		return err
	}

	tokens, lexErr := lexer.Tokenize(src.Text, src.Name)

	switch c.Output {
	case "json":
		err = writeJSON(s.IO.Out, tokenDump{tokens, engine.Diagnostics(lexErr)})
	case "yaml":
		err = writeYAML(s.IO.Out, tokenDump{tokens, engine.Diagnostics(lexErr)})
	default:
		err = writeTokens(s.IO.Out, tokens)
	}
	if err != nil {
		return err
	}

	if lexErr != nil {
		s.report(src, lexErr)
		return lexErr
	}
	return nil
}

// ParseCmd prints the syntax tree of a program.
type ParseCmd struct {
	Output string `default:"json" enum:"json,yaml" help:"Output format." short:"o"`
	Spans  bool   `default:"true"                  help:"Include source spans." negatable:""`

	Source string `arg:"" default:"-" help:"Program file or '-' for stdin." name:"source"`
}

// Run executes the parse command.
func (c *ParseCmd) Run(s *Session) error {
	src, err := s.Engine.Load(c.Source)
	if err != nil {
		return err
	}

	prog, err := s.Engine.Compile(src.Text, src.Name)
	if err != nil {
		s.report(src, err)
		return err
	}

	tree := ast.Shape(prog)
	if c.Spans {
		tree = ast.NodeToMap(prog)
	}

	if c.Output == "yaml" {
		return writeYAML(s.IO.Out, tree)
	}
	return writeJSON(s.IO.Out, tree)
}

// FmtCmd prints a program in canonical form.
type FmtCmd struct {
	Check bool `help:"List the program if it is not formatted and fail." short:"c"`
	Write bool `help:"Rewrite the source file in place."                short:"w"`

	Source string `arg:"" default:"-" help:"Program file or '-' for stdin." name:"source"`
}

// Run executes the fmt command.
func (c *FmtCmd) Run(s *Session) error {
	src, err := s.Engine.Load(c.Source)
	if err != nil {
		return err
	}

	prog, err := s.Engine.Compile(src.Text, src.Name)
	if err != nil {
		s.report(src, err)
		return err
	}
	out := format.Program(prog)

	switch {
	case c.Check:
		if out != src.Text {
			fmt.Fprintln(s.IO.Out, src.Name)
			return fmt.Errorf("%s: %w", src.Name, errCheckFailed)
		}
		return nil

	case c.Write && c.Source != engine.StdinName:
		if out == src.Text {
			return nil
		}
		info, err := os.Stat(c.Source)
		if err != nil {
			return err
		}
		s.Logger.Info("formatted", slog.String("source", src.Name))
		return os.WriteFile(c.Source, []byte(out), info.Mode().Perm())
	}

	_, err = fmt.Fprint(s.IO.Out, out)
	return err
}

// CheckCmd reports problems a run could hit without running the program:
// undeclared names, assignments to constants, redeclarations and number
// literals out of range.
type CheckCmd struct {
	Source string `arg:"" default:"-" help:"Program file or '-' for stdin." name:"source"`
}

// Run executes the check command. It fails when anything was reported.
func (c *CheckCmd) Run(s *Session) error {
	src, err := s.Engine.Load(c.Source)
	if err != nil {
		return err
	}

	list, err := s.Engine.Check(src.Text, src.Name)
	if err != nil {
		s.report(src, err)
		return err
	}
	if len(list) == 0 {
		return nil
	}

	s.warn(src, list)
	return fmt.Errorf("%s: %d problem(s): %w", src.Name, len(list), errCheckFailed)
}

// ReplCmd starts an interactive session.
type ReplCmd struct {
	History string `default:"${historyFile}" help:"History file (empty disables history)."`
}

// Run executes the repl command.
func (c *ReplCmd) Run(ctx context.Context, s *Session) error {
	return repl.Run(ctx, repl.Config{
		Engine:      s.Engine,
		Logger:      s.Logger,
		HistoryFile: expandPath(c.History),
		Color:       s.Color,
	})
}

// VersionCmd prints the version.
type VersionCmd struct{}

// Run executes the version command.
func (VersionCmd) Run(s *Session) error {
	goVersion := "unknown"
	if info, ok := debug.ReadBuildInfo(); ok {
		goVersion = info.GoVersion
	}
	_, err := fmt.Fprintf(s.IO.Out, "%s %s (%s)\n", Name, Version, goVersion)
	return err
}
