// Package logging is a thin facade over logrus, giving the engine a small,
// swappable logging interface instead of a hard dependency on the global
// logrus logger.
package logging

import (
	"github.com/sirupsen/logrus"
)

// Fields carries structured key/value context attached to a log entry.
type Fields = logrus.Fields

// Logger is the interface the engine logs through. NewStandard and NewNoOp
// return implementations backed by a *logrus.Entry; *logrus.Logger and
// *logrus.Entry do not satisfy it directly, since their WithFields returns
// a *logrus.Entry rather than a Logger.
type Logger interface {
	WithFields(fields Fields) Logger
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type logrusLogger struct {
	entry *logrus.Entry
}

// NewStandard returns a Logger backed by a fresh logrus.Logger with the
// engine's default formatter and level.
func NewStandard() Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

// NewNoOp returns a Logger that discards everything, for embedders that
// don't want engine log output.
func NewNoOp() Logger {
	l := logrus.New()
	l.SetOutput(noopWriter{})
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func (l *logrusLogger) WithFields(fields Fields) Logger {
	return &logrusLogger{entry: l.entry.WithFields(fields)}
}

func (l *logrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *logrusLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *logrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
