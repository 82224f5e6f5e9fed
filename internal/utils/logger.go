// internal/utils/logger.go

// Package utils provides logging and error handling utilities shared by
// the extraction and history packages.
package utils

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger defines the interface for logging throughout the application.
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Warn(msg string)
	Warnf(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// logrusAdapter implements Logger on top of a logrus entry.
type logrusAdapter struct {
	entry *logrus.Entry
}

// NewLogger creates a logger writing human-readable output at info level.
func NewLogger() Logger {
	return NewLoggerWithLevel("info")
}

// NewLoggerWithLevel creates a logger with the given level name
// (debug, info, warn, error). Unknown names fall back to info.
func NewLoggerWithLevel(level string) Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)

	return &logrusAdapter{entry: logrus.NewEntry(l)}
}

// NewTestLogger creates a silent logger for use in tests.
func NewTestLogger() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &logrusAdapter{entry: logrus.NewEntry(l)}
}

func (a *logrusAdapter) Debug(msg string)                          { a.entry.Debug(msg) }
func (a *logrusAdapter) Debugf(format string, args ...interface{}) { a.entry.Debugf(format, args...) }
func (a *logrusAdapter) Info(msg string)                           { a.entry.Info(msg) }
func (a *logrusAdapter) Infof(format string, args ...interface{})  { a.entry.Infof(format, args...) }
func (a *logrusAdapter) Warn(msg string)                           { a.entry.Warn(msg) }
func (a *logrusAdapter) Warnf(format string, args ...interface{})  { a.entry.Warnf(format, args...) }
func (a *logrusAdapter) Error(msg string)                          { a.entry.Error(msg) }
func (a *logrusAdapter) Errorf(format string, args ...interface{}) { a.entry.Errorf(format, args...) }

func (a *logrusAdapter) WithField(key string, value interface{}) Logger {
	return &logrusAdapter{entry: a.entry.WithField(key, value)}
}

func (a *logrusAdapter) WithFields(fields map[string]interface{}) Logger {
	return &logrusAdapter{entry: a.entry.WithFields(logrus.Fields(fields))}
}
