// Package cli implements the notjs command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"notjs/internal/diag"
	"notjs/internal/engine"
	"notjs/internal/log"
	"notjs/internal/runtime"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/chzyer/readline"
)

// Name is the program name used in help output and default paths.
const Name = "notjs"

const description = "Run, inspect and format notjs programs."

// Version is overridden at link time with -ldflags "-X notjs/cli.Version=...".
var Version = "dev"

// IO is the set of streams a command talks to.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdIO returns the process streams.
func StdIO() IO {
	return IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// CLI is the top-level command-line interface for notjs.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Config   string `default:"${configFile}" help:"YAML configuration file."`
	MaxSteps int    `default:"0"             help:"Abort a run after this many steps (0 is unlimited)."`

	Run     RunCmd     `cmd:"" default:"withargs" help:"Run a program."`
	Tokens  TokensCmd  `cmd:""                    help:"Print the tokens of a program."`
	Parse   ParseCmd   `cmd:""                    help:"Print the syntax tree of a program."`
	Fmt     FmtCmd     `cmd:""                    help:"Print a program in canonical form."`
	Check   CheckCmd   `cmd:""                    help:"Report problems without running a program."`
	Repl    ReplCmd    `cmd:""                    help:"Start an interactive session."`
	Version VersionCmd `cmd:""                    help:"Print the version."`
}

// Session is what every command receives once flags are parsed.
type Session struct {
	IO     IO
	Logger log.Logger
	Engine *engine.Engine
	Styles diag.Styles
	Color  bool
}

// Run executes the notjs CLI with the given arguments. exit is called by
// kong for --help; failures are logged and returned.
func Run(ctx context.Context, exit func(code int), stdio IO, args ...string) error {
	var cli CLI

	logger := log.Make(stdio.Err)

	configFile, err := configPath(args)
	if err != nil {
		logger.ErrorContext(ctx, "invalid arguments", slog.Any("error", err))
		return err
	}

	vars := kong.Vars{
		"configFile":  configFile,
		"historyFile": historyPath(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	options := []kong.Option{
		kong.Name(Name),
		kong.Description(description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.Writers(stdio.Out, stdio.Err),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				NoExpandSubcommands: true,
			}),
		vars,
	}
	if configFile != "" {
		options = append(options, kong.Configuration(loadYAML, configFile))
	}

	parser, err := kong.New(&cli, options...)
	if err != nil {
		logger.ErrorContext(ctx, "invalid command line", slog.Any("error", err))
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		logger.ErrorContext(ctx, "invalid arguments", slog.Any("error", err))
		return err
	}

	logger = cli.Log.start(ctx, stdio.Err)

	defer cli.Pprof.start(ctx, logger)()

	color := isTerminal(stdio.Err)
	styles := diag.PlainStyles()
	if color {
		styles = diag.DefaultStyles()
	}

	sess := &Session{
		IO:     stdio,
		Logger: logger,
		Engine: engine.New(
			engine.WithLogger(logger),
			engine.WithStdin(stdio.In),
			engine.WithRuntimeOptions(runtime.WithStepBudget(cli.MaxSteps)),
		),
		Styles: styles,
		Color:  color,
	}

	err = ktx.Run(sess)
	if err != nil {
		logger.ErrorContext(ctx, "command failed",
			slog.String("command", ktx.Command()),
			slog.Any("error", err),
		)
	}
	return err
}

// report renders a positioned error against its source.
func (s *Session) report(src engine.Source, err error) {
	engine.Report(s.IO.Err, src, err, s.Styles)
}

// warn renders warnings against their source. An empty list writes nothing.
func (s *Session) warn(src engine.Source, list diag.List) {
	if len(list) > 0 {
		io.WriteString(s.IO.Err, list.Render(src.Name, src.Text, s.Styles))
	}
}

func (s *Session) print(v runtime.Value) error {
	_, err := fmt.Fprintln(s.IO.Out, v.String())
	return err
}

// configPath picks the configuration file: an explicit --config value, which
// must exist, or the per-user default, which may be absent.
func configPath(args []string) (string, error) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		var path string
		switch {
		case strings.HasPrefix(arg, "--config="):
			path = strings.TrimPrefix(arg, "--config=")
		case arg == "--config" && i+1 < len(args):
			path = args[i+1]
		default:
			continue
		}
		path = expandPath(path)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config: %w", err)
		}
		return path, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", nil
	}
	return filepath.Join(dir, Name, "config.yaml"), nil
}

// expandPath expands a leading ~ and makes path absolute. The empty path
// stays empty.
func expandPath(path string) string {
	if path == "" {
		return ""
	}
	return kong.ExpandPath(path)
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "."+Name+"_history")
}

func cacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, Name)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && readline.IsTerminal(int(f.Fd()))
}

// errCheckFailed is returned by fmt --check when a file is not canonical
// and by check when it reports anything.
var errCheckFailed = errors.New("check failed")
