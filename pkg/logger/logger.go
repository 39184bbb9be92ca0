// Package logger provides structured logging for smarttimers tooling.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// LogFilePermissions defines the file permissions for log files (owner
// read/write only).
const LogFilePermissions = 0o600

// timestampFormat is the entry timestamp layout (local time with zone
// offset).
const timestampFormat = "2006-01-02T15:04:05-07:00"

// Logger provides a structured logging interface.
type Logger interface {
	// Debug logs debug-level messages with optional key-value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs info-level messages with optional key-value pairs.
	Info(msg string, keysAndValues ...any)

	// Error logs error-level messages with optional key-value pairs.
	Error(msg string, keysAndValues ...any)

	// With returns a new logger with additional key-value pairs.
	With(keysAndValues ...any) Logger
}

// WriterLogger implements Logger with plain-text output to a writer.
type WriterLogger struct {
	out     io.Writer
	level   Level
	baseKVs []any
}

// NewWriterLogger creates a logger writing entries at or above level to w.
func NewWriterLogger(w io.Writer, level Level) *WriterLogger {
	return &WriterLogger{out: w, level: level}
}

// NewFileLogger creates a logger appending to the log file at path.
func NewFileLogger(path string, level Level) (*WriterLogger, error) {
	//nolint:gosec // File path is a caller-controlled log destination
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, LogFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &WriterLogger{out: file, level: level}, nil
}

// Debug logs debug-level messages.
func (l *WriterLogger) Debug(msg string, keysAndValues ...any) {
	l.log(LevelDebug, msg, keysAndValues...)
}

// Info logs info-level messages.
func (l *WriterLogger) Info(msg string, keysAndValues ...any) {
	l.log(LevelInfo, msg, keysAndValues...)
}

// Error logs error-level messages.
func (l *WriterLogger) Error(msg string, keysAndValues ...any) {
	l.log(LevelError, msg, keysAndValues...)
}

// With returns a new logger with additional base key-value pairs.
//
//nolint:ireturn // With is intended to return an interface for chaining
func (l *WriterLogger) With(keysAndValues ...any) Logger {
	newKVs := make([]any, len(l.baseKVs)+len(keysAndValues))
	copy(newKVs, l.baseKVs)
	copy(newKVs[len(l.baseKVs):], keysAndValues)

	return &WriterLogger{out: l.out, level: l.level, baseKVs: newKVs}
}

// log writes one entry in "timestamp LEVEL msg key=value" form.
func (l *WriterLogger) log(level Level, msg string, keysAndValues ...any) {
	if level < l.level {
		return
	}

	var builder strings.Builder

	builder.WriteString(time.Now().Format(timestampFormat))
	builder.WriteString(" ")
	builder.WriteString(level.String())
	builder.WriteString(" ")
	builder.WriteString(msg)

	if len(l.baseKVs) > 0 {
		writeKeyValues(&builder, l.baseKVs)
	}

	if len(keysAndValues) > 0 {
		writeKeyValues(&builder, keysAndValues)
	}

	builder.WriteString("\n")

	_, _ = io.WriteString(l.out, builder.String())
}

// writeKeyValues formats key-value pairs and appends them to builder.
// An odd trailing argument is dropped.
func writeKeyValues(builder *strings.Builder, kvs []any) {
	for i := 0; i+1 < len(kvs); i += 2 {
		key := fmt.Sprintf("%v", kvs[i])
		value := fmt.Sprintf("%v", kvs[i+1])

		builder.WriteString(" ")
		builder.WriteString(key)
		builder.WriteString("=")

		if strings.ContainsAny(value, " \t\n\"") {
			builder.WriteString(quoteValue(value))
		} else {
			builder.WriteString(value)
		}
	}
}

// quoteValue escapes and quotes a string value.
func quoteValue(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")

	return "\"" + s + "\""
}

// NoOpLogger is a logger that does nothing.
type NoOpLogger struct{}

// NewNoOpLogger creates a new NoOpLogger.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// Debug does nothing.
func (*NoOpLogger) Debug(string, ...any) {}

// Info does nothing.
func (*NoOpLogger) Info(string, ...any) {}

// Error does nothing.
func (*NoOpLogger) Error(string, ...any) {}

// With returns the same NoOpLogger.
//
//nolint:ireturn // With is intended to return an interface for chaining
func (n *NoOpLogger) With(...any) Logger {
	return n
}
