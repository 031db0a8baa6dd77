// Package logging builds the root zerolog logger for service entrypoints.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// New returns a root logger writing to w at the named level. Console output
// is human-readable; otherwise lines are zerolog JSON.
func New(w io.Writer, level string, console bool) zerolog.Logger {
	zerolog.TimeFieldFormat = timeFormat
	zerolog.ErrorFieldName = "err"
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: timeFormat}
	}
	return zerolog.New(w).Level(ParseLevel(level, zerolog.InfoLevel)).With().Timestamp().Logger()
}

// NewConsole returns a human-readable stdout logger, for bootstrapping
// commands before configuration is parsed.
func NewConsole(level string) zerolog.Logger {
	return New(os.Stdout, level, true)
}

// ParseLevel maps a level name to a zerolog level, falling back to def for
// unknown names.
func ParseLevel(s string, def zerolog.Level) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return def
	}
}
