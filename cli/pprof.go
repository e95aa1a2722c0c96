package cli

import (
	"context"
	"log/slog"
	"maps"
	"notjs/internal/log"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/pkg/profile"
)

var profileModes = map[string]func(*profile.Profile){
	"block":     profile.BlockProfile,
	"cpu":       profile.CPUProfile,
	"clock":     profile.ClockProfile,
	"goroutine": profile.GoroutineProfile,
	"mem":       profile.MemProfile,
	"allocs":    profile.MemProfileAllocs,
	"heap":      profile.MemProfileHeap,
	"mutex":     profile.MutexProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
}

// ProfileModes returns the accepted --pprof-mode values, sorted.
func ProfileModes() []string {
	return slices.Sorted(maps.Keys(profileModes))
}

type pprofConfig struct {
	Mode string `default:""            enum:",${pprofModes}" help:"Enable profiling."        placeholder:"MODE"`
	Dir  string `default:"${pprofDir}"                       help:"Profile output directory." type:"path"`
}

func (pprofConfig) vars() kong.Vars {
	return kong.Vars{
		"pprofModes": strings.Join(ProfileModes(), ","),
		"pprofDir":   filepath.Join(cacheDir(), "pprof"),
	}
}

func (pprofConfig) group() kong.Group {
	var group kong.Group

	group.Key = "pprof"
	group.Title = "Profiling (pprof)"

	return group
}

// start starts profiling if a mode is set. The returned func stops it.
func (f pprofConfig) start(ctx context.Context, logger log.Logger) (stop func()) {
	mode, ok := profileModes[f.Mode]
	if !ok {
		return func() {}
	}

	logger.DebugContext(ctx, "pprof start",
		slog.String("mode", f.Mode),
		slog.String("dir", f.Dir),
	)

	profiler := profile.Start(
		mode,
		profile.ProfilePath(f.Dir),
		profile.Quiet,
		profile.NoShutdownHook,
	)

	return func() {
		profiler.Stop()
		logger.DebugContext(ctx, "pprof stop",
			slog.String("mode", f.Mode),
			slog.String("dir", f.Dir),
		)
	}
}
