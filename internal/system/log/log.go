// Package log provides a thin structured logging facade backed by logrus.
package log

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// LoggerKeyComponentName is the conventional field key for the emitting component.
const LoggerKeyComponentName = "component"

// Field is a single structured log attribute.
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Error creates an error field.
func Error(err error) Field {
	return Field{Key: "error", Value: err}
}

// Logger wraps a logrus entry so call sites stay decoupled from the backend.
type Logger struct {
	entry *logrus.Entry
}

var (
	rootLogger *Logger
	once       sync.Once
)

// GetLogger returns the process-wide logger, initializing it on first use.
func GetLogger() *Logger {
	once.Do(func() {
		l := logrus.New()
		l.SetFormatter(&logrus.JSONFormatter{})
		l.SetOutput(os.Stdout)
		l.SetLevel(logrus.InfoLevel)
		rootLogger = &Logger{entry: logrus.NewEntry(l)}
	})
	return rootLogger
}

// SetLevel adjusts the global log level. Unknown levels are ignored.
func SetLevel(level string) {
	if parsed, err := logrus.ParseLevel(level); err == nil {
		GetLogger().entry.Logger.SetLevel(parsed)
	}
}

// With returns a logger that always carries the given fields.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{entry: l.entry.WithFields(toLogrusFields(fields))}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Debug(msg)
}

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Info(msg)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Warn(msg)
}

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Error(msg)
}

// Fatal logs at fatal level and exits.
func (l *Logger) Fatal(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Fatal(msg)
}

func toLogrusFields(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}
