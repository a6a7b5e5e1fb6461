package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFormat represents the format of the log output.
type LogFormat string

const (
	// LogFormatJSON represents the JSON log format.
	LogFormatJSON LogFormat = "json"

	// LogFormatText represents the text log format.
	LogFormatText LogFormat = "text"
)

const (
	defaultFileMaxSizeMB  = 100
	defaultFileMaxBackups = 5
	defaultFileMaxAgeDays = 30
)

type logger struct {
	level     *slog.LevelVar
	format    LogFormat
	addSource bool
	output    io.Writer
	file      *lumberjack.Logger
}

// NewLogger creates a new logger.
func NewLogger(opts ...Option) *slog.Logger {
	logg, _ := NewLoggerWithCloser(opts...)

	return logg
}

// NewLoggerWithCloser creates a new logger and returns a closer that
// releases the log file opened by WithFile. The closer is a no-op
// when file output is disabled.
func NewLoggerWithCloser(opts ...Option) (*slog.Logger, io.Closer) {
	logg := &logger{
		level:  &slog.LevelVar{}, // Default log level is INFO.
		format: LogFormatJSON,
		output: os.Stdout,
	}

	// Apply options
	for _, opt := range opts {
		opt(logg)
	}

	out := logg.output
	if logg.file != nil {
		out = io.MultiWriter(logg.output, logg.file)
	}

	slogOpts := &slog.HandlerOptions{
		AddSource: logg.addSource,
		Level:     logg.level,
	}

	var logHandler slog.Handler = slog.NewJSONHandler(out, slogOpts)
	if logg.format == LogFormatText {
		logHandler = slog.NewTextHandler(out, slogOpts)
	}

	var closer io.Closer = nopCloser{}
	if logg.file != nil {
		closer = logg.file
	}

	return slog.New(logHandler), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type Option func(l *logger)

func WithLevel(level slog.Level) Option {
	return func(l *logger) {
		l.level.Set(level)
	}
}

func WithFormat(format LogFormat) Option {
	return func(l *logger) {
		l.format = format
	}
}

func WithAddSource(addSource bool) Option {
	return func(l *logger) {
		l.addSource = addSource
	}
}

// WithOutput replaces stdout as the primary log destination.
func WithOutput(w io.Writer) Option {
	return func(l *logger) {
		l.output = w
	}
}

// WithFile additionally writes logs to a size-rotated file.
// An empty filename disables file output.
func WithFile(filename string, maxSizeMB int) Option {
	return func(l *logger) {
		if filename == "" {
			return
		}

		if maxSizeMB <= 0 {
			maxSizeMB = defaultFileMaxSizeMB
		}

		l.file = &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    maxSizeMB,
			MaxBackups: defaultFileMaxBackups,
			MaxAge:     defaultFileMaxAgeDays,
			Compress:   true,
		}
	}
}

func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", level)
	}
}

func ParseLogFormat(format string) (LogFormat, error) {
	switch f := LogFormat(strings.ToLower(format)); f {
	case LogFormatJSON, LogFormatText:
		return f, nil
	default:
		return "", fmt.Errorf("unknown log format: %s", format)
	}
}
