package logging

import (
	"log"
)

const (
	// TraceLevel indicates a log message's level of criticality. Levels start
	// at 1 so that a zero Logger threshold means "unset" rather than trace.
	TraceLevel = iota + 1
	// DebugLevel indicates a log message's level of criticality
	DebugLevel
	// InfoLevel indicates a log message's level of criticality
	InfoLevel
	// WarnLevel indicates a log message's level of criticality
	WarnLevel
	// ErrorLevel indicates a log message's level of criticality
	ErrorLevel
	// FatalLevel indicates a log message's level of criticality
	FatalLevel
)

// LogLevelToString translates a log level enum to a string representation
func LogLevelToString(level int) string {
	switch level {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "TRACE"
	}
}

// A Logger filters and prefixes log messages by level. The zero value logs
// at InfoLevel and above.
type Logger struct {
	Level int
}

// Logf logs a formatted message if level meets this Logger's threshold
func (l *Logger) Logf(level int, format string, args ...interface{}) {
	threshold := l.Level
	if threshold == 0 {
		threshold = InfoLevel
	}
	if level < threshold {
		return
	}
	log.Printf("["+LogLevelToString(level)+"] "+format, args...)
}
