// Package logger carries a logrus entry in context.Context. Diagnostics go
// to stderr so that stdout stays reserved for command output such as
// compiled JSON and lint reports.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// G is shorthand for GetLogger
	G = GetLogger
	// L is the global entry used when the context carries none
	L = logrus.NewEntry(newLogger())
)

type loggerKey struct{}

// Options configures the global logger
type Options struct {
	Level  string    // logrus level name, e.g. "debug"
	Format string    // "json" or "text"
	Output io.Writer // defaults to stderr
}

// WithLogger attaches a logger entry to ctx
func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger.WithContext(ctx))
}

// GetLogger returns the entry stored in ctx, or L bound to ctx.
func GetLogger(ctx context.Context) *logrus.Entry {
	if logger, ok := ctx.Value(loggerKey{}).(*logrus.Entry); ok {
		return logger
	}
	return L.WithContext(ctx)
}

// ForCommand returns ctx carrying a logger tagged with the command name
func ForCommand(ctx context.Context, command string) context.Context {
	return WithLogger(ctx, G(ctx).WithField("command", command))
}

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	setFormat(l, "text")
	return l
}

func setFormat(l *logrus.Logger, format string) {
	switch format {
	case "json":
		l.Formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "logLevel",
				logrus.FieldKeyMsg:   "message",
			},
			TimestampFormat: time.RFC3339Nano,
		}
	default:
		l.Formatter = &logrus.TextFormatter{
			TimestampFormat: time.RFC3339Nano,
			FullTimestamp:   true,
		}
	}
}

// Configure applies opts to the global logger. Empty fields keep the
// current setting.
func Configure(opts Options) error {
	return configure(L.Logger, opts)
}

func configure(l *logrus.Logger, opts Options) error {
	if opts.Level != "" {
		level, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return errors.Wrapf(err, "invalid log level %q", opts.Level)
		}
		l.SetLevel(level)
	}
	if opts.Format != "" {
		setFormat(l, opts.Format)
	}
	if opts.Output != nil {
		l.SetOutput(opts.Output)
	}
	return nil
}
