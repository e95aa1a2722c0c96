// Package repl implements the interactive notjs session.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"notjs/internal/engine"
	"notjs/internal/log"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
)

// Config configures Run.
type Config struct {
	Engine      *engine.Engine
	Logger      log.Logger
	HistoryFile string // empty disables persistent history
	Color       bool
}

// Run reads chunks from the terminal and runs them against one persistent
// root scope until the user quits or ctx is done.
func Run(ctx context.Context, cfg Config) error {
	if cfg.HistoryFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.HistoryFile), 0o700); err != nil {
			cfg.Logger.WarnContext(ctx, "history disabled",
				slog.String("file", cfg.HistoryFile),
				slog.Any("error", err),
			)
			cfg.HistoryFile = ""
		}
	}

	// The completer needs the session, which needs the editor's writers.
	comp := &completer{}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            mainPrompt,
		AutoComplete:      comp,
		HistoryFile:       cfg.HistoryFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("readline init failed: %w", err)
	}
	defer rl.Close()

	s, err := newSession(cfg.Engine, cfg.Logger, rl.Stdout(), rl.Stderr(), cfg.Color)
	if err != nil {
		return err
	}
	comp.s = s

	cfg.Logger.DebugContext(ctx, "repl start",
		slog.String("history", cfg.HistoryFile),
	)

	fmt.Fprintf(rl.Stdout(), "%s %s\n\n",
		s.styles.banner.Render("notjs REPL"),
		s.styles.hint.Render("(type :help for commands, Ctrl+D to quit)"))

	return loop(ctx, rl, s)
}

func loop(ctx context.Context, rl *readline.Instance, s *session) error {
	for ctx.Err() == nil {
		rl.SetPrompt(s.prompt())

		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if s.inChunk() {
				s.discard()
				continue
			}
			fmt.Fprintln(rl.Stdout(), s.styles.hint.Render("(use :quit or Ctrl+D to exit)"))
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(rl.Stdout())
			return nil
		case err != nil:
			return err
		}

		if !s.feed(ctx, line) {
			return nil
		}
	}
	return nil
}
