// Package logging builds the loggers used throughout the module.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// New returns a logger that writes to w. The level is taken from
// $LOG_LEVEL and defaults to info. Setting $WAYLAND_DEBUG to a
// positive number forces the debug level, which also enables tracing
// of every protocol message.
func New(w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
	})
	logger.SetLevel(Level(os.Getenv("LOG_LEVEL")))
	if WireDebug() {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// Default returns a logger writing to stderr.
func Default() *log.Logger {
	return New(os.Stderr)
}

// Discard returns a logger that drops everything. It is used when a
// caller does not provide one.
func Discard() *log.Logger {
	logger := log.New(io.Discard)
	logger.SetLevel(log.FatalLevel)
	return logger
}

// Level parses a level name. Unknown names map to info.
func Level(name string) log.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return log.DebugLevel
	case "WARN", "WARNING":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	case "FATAL":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// WireDebug reports whether $WAYLAND_DEBUG asks for protocol tracing.
func WireDebug() bool {
	debugLevel, err := strconv.ParseInt(os.Getenv("WAYLAND_DEBUG"), 10, 0)
	return (err == nil) && (debugLevel > 0)
}
