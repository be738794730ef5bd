// Package log provides the structured logger used across the data
// availability pipeline. It mirrors the shape of go-ethereum's own log
// package (New/Root, level methods taking alternating key/value pairs) but
// is built directly on the standard library's log/slog instead of a
// vendored log15 fork.
package log

import (
	"context"
	"log/slog"
	"os"
)

// Logger is the interface every component logs through. It is satisfied by
// *logger, returned from New and Root.
type Logger interface {
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)
	New(ctx ...any) Logger
}

// LevelTrace sits below slog.LevelDebug, matching go-ethereum's six-level
// scheme (Trace/Debug/Info/Warn/Error/Crit); Crit is its own level above
// Error.
const LevelTrace = slog.Level(-8)

type logger struct {
	inner *slog.Logger
}

var root Logger = &logger{inner: slog.New(NewTerminalHandler(os.Stderr, false))}

// Root returns the package-wide default logger.
func Root() Logger { return root }

// SetRoot replaces the package-wide default logger, used once at process
// start after flags/config have picked a handler.
func SetRoot(l Logger) { root = l }

// New returns a Logger pre-bound with the given key/value context, the way
// log.New("worker", "ipfs") reads at every call site in this pipeline.
func New(ctx ...any) Logger { return root.New(ctx...) }

func newLogger(inner *slog.Logger) Logger { return &logger{inner: inner} }

func (l *logger) New(ctx ...any) Logger {
	return newLogger(l.inner.With(ctx...))
}

func (l *logger) Trace(msg string, ctx ...any) { l.log(LevelTrace, msg, ctx...) }
func (l *logger) Debug(msg string, ctx ...any) { l.log(slog.LevelDebug, msg, ctx...) }
func (l *logger) Info(msg string, ctx ...any)  { l.log(slog.LevelInfo, msg, ctx...) }
func (l *logger) Warn(msg string, ctx ...any)  { l.log(slog.LevelWarn, msg, ctx...) }
func (l *logger) Error(msg string, ctx ...any) { l.log(slog.LevelError, msg, ctx...) }
func (l *logger) Crit(msg string, ctx ...any)  { l.log(slog.LevelError+4, msg, ctx...) }

func (l *logger) log(level slog.Level, msg string, ctx ...any) {
	l.inner.Log(context.Background(), level, msg, ctx...)
}

// NewWithHandler builds a standalone Logger over an arbitrary slog.Handler,
// used by the CLI entrypoint to install the JSON or terminal handler chosen
// by configuration.
func NewWithHandler(h slog.Handler) Logger { return newLogger(slog.New(h)) }
