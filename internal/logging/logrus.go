// Package logging adapts logrus to contextualized logger.
package logging

import (
	"context"
	"fmt"
	"io"

	"github.com/bool64/ctxd"
	"github.com/sirupsen/logrus"
)

var _ ctxd.Logger = &Logger{}

// Logger implements ctxd.Logger with logrus.
type Logger struct {
	FieldLogger logrus.FieldLogger
}

// New creates JSON logger with level, e.g. "debug", "info".
func New(w io.Writer, level string) (*Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.JSONFormatter{})

	return &Logger{FieldLogger: l}, nil
}

// Debug logs a message.
func (l *Logger) Debug(_ context.Context, msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Debug(msg)
}

// Info logs a message.
func (l *Logger) Info(_ context.Context, msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Info(msg)
}

// Important logs a message regardless of level.
func (l *Logger) Important(_ context.Context, msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).WithField("important", true).Warn(msg)
}

// Warn logs a message.
func (l *Logger) Warn(_ context.Context, msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Warn(msg)
}

// Error logs a message.
func (l *Logger) Error(_ context.Context, msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Error(msg)
}

func (l *Logger) entry(keysAndValues []interface{}) logrus.FieldLogger {
	if len(keysAndValues) == 0 {
		return l.FieldLogger
	}

	fields := make(logrus.Fields, len(keysAndValues)/2+1)

	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 == len(keysAndValues) {
			fields["!BADKEY"] = keysAndValues[i]

			break
		}

		v := keysAndValues[i+1]
		if err, ok := v.(error); ok {
			v = err.Error()
		}

		fields[fmt.Sprint(keysAndValues[i])] = v
	}

	return l.FieldLogger.WithFields(fields)
}
