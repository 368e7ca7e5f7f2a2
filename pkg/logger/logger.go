// Package logger configures the structured logger used across sweep.
package logger

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// New returns a leveled logger writing to out with timestamps enabled.
func New(out io.Writer, level string) *log.Logger {
	l := log.NewWithOptions(out, log.Options{
		Level:           ParseLevel(level),
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	return l
}

// ParseLevel maps a level string to a log level, defaulting to info for
// unknown values.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}
