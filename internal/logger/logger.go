package logger

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// global is the shared logger instance used when a context carries none.
	//nolint:gochecknoglobals // Logger is used all over the project, so it's okay.
	global *zap.SugaredLogger
	// level is the minimum log level shared by every logger built by New.
	//nolint:gochecknoglobals // Commands adjust the level once from flags or settings.
	level = zap.NewAtomicLevelAt(zap.InfoLevel)
)

func init() { //nolint:gochecknoinits // Logging must work before any command parses its flags.
	SetLogger(New())
}

// New creates a sugared logger bound to the shared atomic level.
func New(opts ...Option) *zap.SugaredLogger {
	s := newSettings(opts)

	core := zapcore.NewCore(
		s.encoder(),
		zapcore.AddSync(s.writer),
		level,
	)

	return zap.New(core).Sugar()
}

// Setup applies the level and format chosen by the user and installs the
// resulting logger globally. Unknown levels fall back to info and are reported.
func Setup(levelName, formatName string) error {
	format, err := ParseFormat(formatName)
	if err != nil {
		return err
	}

	SetLogger(New(WithFormat(format)))

	if levelName == "" {
		return nil
	}

	lvl, ok := ParseLogLevel(levelName)
	if !ok {
		Warnf(context.Background(), "Unknown log level %q, using %s", levelName, lvl)
	}

	SetLevel(lvl)

	return nil
}

// ParseLogLevel converts string input to zap log level.
func ParseLogLevel(s string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, true
	case "info":
		return zapcore.InfoLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

// Level returns the current logging level.
func Level() zapcore.Level {
	return level.Level()
}

// Logger returns the global logger.
func Logger() *zap.SugaredLogger {
	return global
}

// SetLogger sets the global logger.
// This function is not thread-safe.
func SetLogger(l *zap.SugaredLogger) {
	global = l
}

// SetLevel sets the shared log level.
func SetLevel(lvl zapcore.Level) {
	//nolint:errcheck // Sync errors on stderr are not actionable.
	defer global.Sync()

	level.SetLevel(lvl)
}

// Debugf writes a formatted debug level message using the logger from the context.
func Debugf(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Debugf(format, args...)
}

// DebugKV writes a message and key-value pairs
// at the debug level using the logger from the context.
func DebugKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Debugw(message, kvs...)
}

// Info writes an information level message using the logger from the context.
func Info(ctx context.Context, args ...any) {
	FromContext(ctx).Info(args...)
}

// Infof writes a formatted information level message using the logger from the context.
func Infof(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Infof(format, args...)
}

// InfoKV writes a message and key-value pairs
// at the information level using the logger from the context.
func InfoKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Infow(message, kvs...)
}

// Warnf writes a formatted warning level message using the logger from the context.
func Warnf(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Warnf(format, args...)
}

// WarnKV writes a message and key-value pairs
// at the warning level using the logger from the context.
func WarnKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Warnw(message, kvs...)
}

// ErrorKV writes a message and key-value pairs
// at the error level using the logger from the context.
func ErrorKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Errorw(message, kvs...)
}
