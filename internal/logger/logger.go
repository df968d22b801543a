package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ekisa-team/yoloexport/internal/env"
)

type options struct {
	out       io.Writer
	level     slog.Level
	logFile   string
	logToFile bool
}

// Option configures the logger.
type Option func(*options)

// WithLogToFile enables the rotating file sink.
func WithLogToFile(enabled bool) Option {
	return func(o *options) { o.logToFile = enabled }
}

// WithLogFile sets the rotating file path.
func WithLogFile(path string) Option {
	return func(o *options) { o.logFile = path }
}

// WithLevel sets the minimum level for every sink.
func WithLevel(level slog.Level) Option {
	return func(o *options) { o.level = level }
}

// WithOutput replaces the console writer (stderr by default).
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// New builds the process logger for the given environment.
// Development logs are colored through tint, production logs are JSON.
// The file sink, when enabled, always writes JSON.
func New(environment env.Environment, opts ...Option) *slog.Logger {
	o := &options{
		out:     os.Stderr,
		level:   slog.LevelInfo,
		logFile: "logs/yoloexport.log",
	}
	for _, opt := range opts {
		opt(o)
	}

	var console slog.Handler
	if environment.IsProduction() {
		console = slog.NewJSONHandler(o.out, &slog.HandlerOptions{Level: o.level})
	} else {
		console = tint.NewHandler(o.out, &tint.Options{
			Level:      o.level,
			TimeFormat: time.TimeOnly,
			NoColor:    !isTerminal(o.out),
		})
	}

	if !o.logToFile || o.logFile == "" {
		return slog.New(console)
	}

	file := &lumberjack.Logger{
		Filename:   o.logFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	return slog.New(fanout{
		console,
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: o.level}),
	})
}

// ParseLevel converts a textual level into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
