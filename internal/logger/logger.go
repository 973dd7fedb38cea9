package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the structured logger handed out to components.
type Logger = *logrus.Entry

var (
	base *logrus.Logger
	once sync.Once
)

func root() *logrus.Logger {
	once.Do(func() {
		base = logrus.New()
		base.SetOutput(os.Stderr)
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
		// Quiet by default: library consumers opt in via SetLevel.
		base.SetLevel(logrus.WarnLevel)
	})
	return base
}

// SetLevel adjusts verbosity. Unknown levels fall back to warn.
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		parsed = logrus.WarnLevel
	}
	root().SetLevel(parsed)
}

// WithField returns a logger carrying a single structured field.
func WithField(key string, value interface{}) Logger {
	return root().WithField(key, value)
}

// WithFields returns a logger carrying multiple structured fields.
func WithFields(fields map[string]interface{}) Logger {
	return root().WithFields(fields)
}

func Debug(args ...interface{}) { root().Debug(args...) }
func Info(args ...interface{})  { root().Info(args...) }
func Warn(args ...interface{})  { root().Warn(args...) }
func Error(args ...interface{}) { root().Error(args...) }

func Debugf(format string, args ...interface{}) { root().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { root().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { root().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { root().Errorf(format, args...) }
