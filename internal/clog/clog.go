// Package clog is the small logging shim shared by the funnel and engine
// binaries: a standard library logger with a fixed prefix and a severity
// gate, rather than a structured logging package, since neither process
// needs more than leveled, timestamped lines to stderr.
package clog

import (
	"log"
	"os"
)

// Level controls which calls reach the underlying logger. Lower values are
// more verbose.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger wraps a *log.Logger with a level gate, configured once from the
// CHESS_LOG_LEVEL environment variable (debug|info|warn|error; unset or
// unrecognized defaults to info).
type Logger struct {
	level Level
	*log.Logger
}

// New builds a Logger writing prefix-tagged lines to stderr.
func New(prefix string) *Logger {
	return &Logger{
		level:  levelFromEnv(),
		Logger: log.New(os.Stderr, prefix+" ", log.LstdFlags),
	}
}

func levelFromEnv() Level {
	switch os.Getenv("CHESS_LOG_LEVEL") {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Debugf logs a diagnostic message, suppressed unless CHESS_LOG_LEVEL=debug.
func (l *Logger) Debugf(format string, args ...any) {
	if l.level <= LevelDebug {
		l.Printf(format, args...)
	}
}

// Infof logs a routine event.
func (l *Logger) Infof(format string, args ...any) {
	if l.level <= LevelInfo {
		l.Printf(format, args...)
	}
}

// Warnf logs a recoverable fault: a malformed message, a dropped session, a
// failed accept. The process keeps running, but an operator should know.
func (l *Logger) Warnf(format string, args ...any) {
	if l.level <= LevelWarn {
		l.Printf(format, args...)
	}
}

// Errorf logs a fault the caller is about to treat as fatal.
func (l *Logger) Errorf(format string, args ...any) {
	if l.level <= LevelError {
		l.Printf(format, args...)
	}
}
