// Package logger provides the process-wide structured logger.
//
// Two call styles are supported: printf-style (Info, Warn, Error) for plain
// messages, and the X variants (InfoX, WarnX, ErrorX) which tag the entry with
// a module name plus key/value fields.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var std = newDefault()

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	return l
}

// Options configures the global logger.
type Options struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is "text" or "json".
	Format string
	// Output overrides the destination (default stderr).
	Output io.Writer
}

// Init reconfigures the global logger. Safe to call once at process start.
func Init(opts Options) {
	if opts.Output != nil {
		std.SetOutput(opts.Output)
	}
	if opts.Format == "json" {
		std.SetFormatter(&logrus.JSONFormatter{})
	}
	if opts.Level != "" {
		lvl, err := logrus.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			std.Warnf("unknown log level %q, keeping %s", opts.Level, std.GetLevel())
			return
		}
		std.SetLevel(lvl)
	}
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// Debug logs a debug message with printf semantics.
func Debug(format string, args ...interface{}) {
	std.Debugf(format, args...)
}

// Info logs an info message with printf semantics.
func Info(format string, args ...interface{}) {
	std.Infof(format, args...)
}

// Warn logs a warning with printf semantics.
func Warn(format string, args ...interface{}) {
	std.Warnf(format, args...)
}

// Error logs an error with printf semantics.
func Error(format string, args ...interface{}) {
	std.Errorf(format, args...)
}

// Fatal logs an error and exits.
func Fatal(format string, args ...interface{}) {
	std.Fatalf(format, args...)
}

func fields(module string, kv []interface{}) logrus.Fields {
	f := logrus.Fields{"module": module}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		f[key] = kv[i+1]
	}
	return f
}

// InfoX logs an info message tagged with a module and key/value fields.
func InfoX(module, msg string, kv ...interface{}) {
	std.WithFields(fields(module, kv)).Info(msg)
}

// WarnX logs a warning tagged with a module and key/value fields.
func WarnX(module, msg string, kv ...interface{}) {
	std.WithFields(fields(module, kv)).Warn(msg)
}

// ErrorX logs an error tagged with a module and key/value fields.
func ErrorX(module, msg string, kv ...interface{}) {
	std.WithFields(fields(module, kv)).Error(msg)
}
