package simcollab

import (
	"fmt"
	"log"
	"os"

	"github.com/flowsim/workerpool/workerpool"
)

// Logger wraps the standard library's *log.Logger, the same logging
// facility the teacher repo's platform shims reach for on a warning path.
type Logger struct {
	*log.Logger
	level workerpool.LogLevel
}

// NewLogger creates a Logger writing to os.Stderr at the given level.
func NewLogger(level workerpool.LogLevel) *Logger {
	return &Logger{
		Logger: log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds),
		level:  level,
	}
}

// LevelEnabled implements workerpool.Logger.
func (l *Logger) LevelEnabled(level workerpool.LogLevel) bool {
	return level <= l.level
}

// Warnf implements workerpool.Logger.
func (l *Logger) Warnf(format string, args ...any) {
	if !l.LevelEnabled(workerpool.LogWarning) {
		return
	}
	l.Printf("WARN "+format, args...)
}

// Fatalf implements workerpool.Logger. Unlike the standard library's
// log.Fatalf, this does not call os.Exit — a worker goroutine hitting a
// fatal precondition should panic so the caller can decide how to die.
func (l *Logger) Fatalf(format string, args ...any) {
	l.Printf("FATAL "+format, args...)
	panic("simcollab: fatal logged: " + fmt.Sprintf(format, args...))
}
