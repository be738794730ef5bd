package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// levelNames mirrors the fixed-width level tags go-ethereum prints in its
// terminal handler ("TRCE", "DBUG", "INFO", "WARN", "EROR", "CRIT").
var levelNames = map[slog.Level]string{
	LevelTrace:           "TRCE",
	slog.LevelDebug:      "DBUG",
	slog.LevelInfo:       "INFO",
	slog.LevelWarn:       "WARN",
	slog.LevelError:      "EROR",
	slog.LevelError + 4:  "CRIT",
}

// levelColor entries always emit escape codes: whether to colorize is decided
// by the handler's useColor, not by fatih/color's own stdout TTY check.
var levelColor = map[slog.Level]*color.Color{
	LevelTrace:          forcedColor(color.FgHiBlack),
	slog.LevelDebug:     forcedColor(color.FgBlue),
	slog.LevelInfo:      forcedColor(color.FgGreen),
	slog.LevelWarn:      forcedColor(color.FgYellow),
	slog.LevelError:     forcedColor(color.FgRed),
	slog.LevelError + 4: forcedColor(color.FgRed, color.Bold),
}

func forcedColor(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	return c
}

// TerminalHandler renders records the way a human reads them at a terminal:
// "LVL[timestamp] message key=value ...", colorized when useColor is set.
// It implements slog.Handler directly so it can be swapped for a JSON
// handler with no call-site changes (both satisfy Logger through slog).
type TerminalHandler struct {
	mu       sync.Mutex
	out      io.Writer
	useColor bool
	minLevel slog.Level
	attrs    []slog.Attr
}

// NewTerminalHandler wires a handler to w. Color detection is left to the
// caller (the CLI passes DetectColor(fd) unless --log.format forces JSON).
func NewTerminalHandler(w io.Writer, useColor bool) *TerminalHandler {
	return &TerminalHandler{out: w, useColor: useColor, minLevel: LevelTrace}
}

// DetectColor is the standalone TTY probe the CLI entrypoint performs
// before installing its handler.
func DetectColor(fd uintptr) bool { return isatty.IsTerminal(fd) }

// WithMinLevel returns a copy of h that only emits records at or above lvl,
// used by the CLI entrypoint to honor --log.level.
func (h *TerminalHandler) WithMinLevel(lvl slog.Level) *TerminalHandler {
	cp := *h
	cp.minLevel = lvl
	return &cp
}

func (h *TerminalHandler) Enabled(_ context.Context, lvl slog.Level) bool { return lvl >= h.minLevel }

func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &cp
}

func (h *TerminalHandler) WithGroup(_ string) slog.Handler { return h }

func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	lvl := levelNames[r.Level]
	if lvl == "" {
		lvl = r.Level.String()
	}

	var b strings.Builder
	if h.useColor {
		if c, ok := levelColor[r.Level]; ok {
			b.WriteString(c.Sprint(lvl))
		} else {
			b.WriteString(lvl)
		}
	} else {
		b.WriteString(lvl)
	}

	b.WriteByte('[')
	b.WriteString(r.Time.Format(time.RFC3339))
	b.WriteString("] ")
	b.WriteString(r.Message)

	attrs := append(append([]slog.Attr{}, h.attrs...), collectAttrs(r)...)
	sort.SliceStable(attrs, func(i, j int) bool { return attrs[i].Key < attrs[j].Key })
	for _, a := range attrs {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value.Any())
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func collectAttrs(r slog.Record) []slog.Attr {
	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	return attrs
}
