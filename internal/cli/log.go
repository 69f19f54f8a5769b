// Package cli implements the nadir command-line interface.
//
// The CLI is built using cobra and logs through charmbracelet/log. All
// commands support --verbose (-v) for debug-level logging, which also
// routes pipeline, cache and HTTP events to the log.
//
// # Commands
//
// The main commands are:
//   - fit: Compute the camera placement and render parameters for a region
//   - render: Fit and render an image with the raster or Blender backend
//   - batch: Render every area of interest listed in a TOML job file
//   - serve: Expose camera fitting over HTTP
//   - cache: Manage the bounds cache
//
// # Regions
//
// Regions are given with the corner flags -x/-y/-X/-Y. Y values are
// entered as positive numbers and negated when both are non-zero. Leaving
// all four flags unset images the whole scene; setting them all to zero
// explicitly is ambiguous and produces a warning (an error with --strict).
//
// # Logging
//
// Loggers are passed through context.Context to allow structured progress
// tracking.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a logger writing to w at level, with short
// wall-clock timestamps ("14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// stopwatch logs the wall time of an operation when it finishes.
type stopwatch struct {
	logger *log.Logger
	start  time.Time
}

func startStopwatch(l *log.Logger) stopwatch {
	return stopwatch{logger: l, start: time.Now()}
}

// done logs msg at info level with keyvals and the elapsed time, rounded
// to the millisecond.
func (s stopwatch) done(msg string, keyvals ...any) {
	elapsed := time.Since(s.start).Round(time.Millisecond)
	s.logger.Info(msg, append(keyvals, "elapsed", elapsed)...)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger attached by the root command, or
// log.Default() when a command runs without one.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
