package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Format selects the log encoder.
type Format string

const (
	// FormatConsole renders human-readable, comma-separated lines.
	FormatConsole Format = "console"
	// FormatJSON renders one JSON object per line.
	FormatJSON Format = "json"
)

// settings collects the values applied by Options.
type settings struct {
	// format selects the encoder.
	format Format
	// writer receives encoded entries.
	writer io.Writer
}

// Option customizes a logger built by New.
type Option func(*settings)

// WithFormat selects console or JSON output.
func WithFormat(f Format) Option {
	return func(s *settings) {
		if f != "" {
			s.format = f
		}
	}
}

// WithWriter redirects output, mainly for tests.
func WithWriter(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.writer = w
		}
	}
}

// ParseFormat converts a configuration string into a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatConsole, FormatJSON:
		return f, nil
	case "":
		return FormatConsole, nil
	default:
		return "", fmt.Errorf("unknown log format %q", s)
	}
}

func newSettings(opts []Option) *settings {
	s := &settings{
		format: FormatConsole,
		writer: os.Stderr,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

//nolint:ireturn // zapcore.Encoder is the zap extension point.
func (s *settings) encoder() zapcore.Encoder {
	//nolint:exhaustruct // Default values are fine for the remaining fields.
	cfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		MessageKey:       "message",
		LevelKey:         "level",
		NameKey:          "logger",
		CallerKey:        "caller",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: ", ",
	}

	if s.format == FormatJSON {
		return zapcore.NewJSONEncoder(cfg)
	}

	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	return zapcore.NewConsoleEncoder(cfg)
}
