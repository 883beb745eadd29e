package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger writes one JSON line per event. Every line carries the service name,
// the action that produced it and the host it ran on.
type Logger struct {
	service string
	base    *logrus.Logger
}

func New(service string) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stdout)
	base.SetLevel(logrus.InfoLevel)
	base.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyMsg:   "message",
			logrus.FieldKeyLevel: "level",
		},
	})
	return &Logger{service: service, base: base}
}

// SetLevel accepts logrus level names (debug, info, warn, error).
func (l *Logger) SetLevel(level string) error {
	if level == "" {
		return nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	l.base.SetLevel(lvl)
	return nil
}

func (l *Logger) SetOutput(w io.Writer) { l.base.SetOutput(w) }

func (l *Logger) entry(action string, fields map[string]any) *logrus.Entry {
	e := l.base.WithFields(logrus.Fields{
		"service":  l.service,
		"action":   action,
		"hostname": hostname,
	})
	if len(fields) > 0 {
		e = e.WithFields(logrus.Fields(fields))
	}
	return e
}

func (l *Logger) Info(action string, fields map[string]any)  { l.entry(action, fields).Info(action) }
func (l *Logger) Debug(action string, fields map[string]any) { l.entry(action, fields).Debug(action) }
func (l *Logger) Warn(action string, fields map[string]any)  { l.entry(action, fields).Warn(action) }

func (l *Logger) Error(action string, err error, fields map[string]any) {
	e := l.entry(action, fields)
	if err != nil {
		e = e.WithField("error", map[string]any{"msg": err.Error(), "type": fmt.Sprintf("%T", err)})
	}
	e.Error(action)
}

var hostname = func() string { h, _ := os.Hostname(); return h }()
