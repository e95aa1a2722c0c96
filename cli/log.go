package cli

import (
	"context"
	"io"
	"log/slog"
	"notjs/internal/log"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
)

type logConfig struct {
	Level      string `default:"${logLevel}"  enum:"${logLevels}"  help:"Set log level."`
	Format     string `default:"${logFormat}" enum:"${logFormats}" help:"Set log format."`
	TimeLayout string `default:"none"                              help:"Set timestamp layout (rfc3339, kitchen, ms, none, or a Go layout)."`
	Caller     bool   `default:"false"                             help:"Include caller information."       negatable:""`
	Pretty     bool   `default:"false"                             help:"Enable colorized pretty printing." negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevel":   log.DefaultLevel.String(),
		"logLevels":  strings.Join(slices.Collect(log.Levels()), ","),
		"logFormat":  log.DefaultFormat.String(),
		"logFormats": strings.Join(slices.Collect(log.Formats()), ","),
	}
}

func (*logConfig) group() kong.Group {
	var group kong.Group

	group.Key = "log"
	group.Title = "Logging options"

	return group
}

// start builds the process logger from the parsed flags.
func (f *logConfig) start(ctx context.Context, w io.Writer) log.Logger {
	logger := log.Make(w,
		log.WithLevel(log.ParseLevel(f.Level)),
		log.WithFormat(log.ParseFormat(f.Format)),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	)

	logger.DebugContext(ctx, "logger initialized",
		slog.String("level", f.Level),
		slog.String("format", f.Format),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)
	return logger
}
