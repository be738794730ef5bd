package log

import (
	"log/slog"

	"github.com/zk-thunder/da-pipeline/internal/errs"
)

// ParseLevel decodes a configured level name into its slog.Level, returning
// a ConstraintError on anything unrecognized rather than silently defaulting.
func ParseLevel(s string) (slog.Level, error) {
	switch s {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "crit", "critical":
		return slog.LevelError + 4, nil
	default:
		return 0, errs.Constraintf("unrecognized log level: %q", s)
	}
}
