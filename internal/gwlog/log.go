// Package gwlog builds the process-wide structured logger and hands out
// per-component children of it via zerolog.Logger.With() chains.
package gwlog

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Init builds the process-wide logger at the given level ("debug", "info",
// "warn", "error"). Unknown levels fall back to info.
func Init(levelStr string, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	level := parseLevel(levelStr)
	zerolog.SetGlobalLevel(level)
	return zerolog.New(out).With().Timestamp().Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Component narrows a logger to a named subsystem, e.g. gwlog.Component(base, "session").
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}
