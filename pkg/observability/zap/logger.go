package zap

import (
	"context"
	"errors"
	"os"
	"strings"

	ubzap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/theory-cloud/cdntheory/pkg/observability"
	"github.com/theory-cloud/cdntheory/pkg/sanitization"
)

const (
	levelDebug = "debug"
	levelInfo  = "info"
	levelWarn  = "warn"
	levelError = "error"
)

type Option func(*loggerOptions)

type loggerOptions struct {
	zapLogger *ubzap.Logger
	sanitizer observability.SanitizerFunc
	sink      zapcore.WriteSyncer
}

// WithZapLogger uses an existing zap logger instead of building one from config.
func WithZapLogger(logger *ubzap.Logger) Option {
	return func(opts *loggerOptions) {
		opts.zapLogger = logger
	}
}

func WithSanitizer(fn observability.SanitizerFunc) Option {
	return func(opts *loggerOptions) {
		opts.sanitizer = fn
	}
}

// WithSink redirects output; defaults to stderr so synthesized output on stdout stays clean.
func WithSink(sink zapcore.WriteSyncer) Option {
	return func(opts *loggerOptions) {
		opts.sink = sink
	}
}

type Logger struct {
	log       *ubzap.Logger
	sanitizer observability.SanitizerFunc
}

var _ observability.StructuredLogger = (*Logger)(nil)

func NewZapLogger(config observability.LoggerConfig, options ...Option) (observability.StructuredLogger, error) {
	opts := &loggerOptions{
		sanitizer: sanitization.SanitizeFieldValue,
		sink:      zapcore.AddSync(os.Stderr),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(opts)
	}

	base := opts.zapLogger
	if base == nil {
		level, err := parseZapLevel(config.Level)
		if err != nil {
			return nil, err
		}

		enc := zapEncoderConfig(config.EnableCaller)
		var encoder zapcore.Encoder
		switch strings.ToLower(strings.TrimSpace(config.Format)) {
		case "console", "":
			encoder = zapcore.NewConsoleEncoder(enc)
		case "json":
			encoder = zapcore.NewJSONEncoder(enc)
		default:
			return nil, errors.New("observability/zap: unsupported log format")
		}

		base = ubzap.New(zapcore.NewCore(encoder, opts.sink, level))
		if config.EnableCaller {
			base = base.WithOptions(ubzap.AddCaller(), ubzap.AddCallerSkip(1))
		}
		if config.EnableStack {
			base = base.WithOptions(ubzap.AddStacktrace(zapcore.ErrorLevel))
		}
	}

	return &Logger{log: base, sanitizer: opts.sanitizer}, nil
}

func parseZapLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case levelDebug:
		return zapcore.DebugLevel, nil
	case levelInfo, "":
		return zapcore.InfoLevel, nil
	case levelWarn, "warning":
		return zapcore.WarnLevel, nil
	case levelError:
		return zapcore.ErrorLevel, nil
	default:
		return 0, errors.New("observability/zap: unsupported log level")
	}
}

func zapEncoderConfig(enableCaller bool) zapcore.EncoderConfig {
	enc := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	if enableCaller {
		enc.CallerKey = "caller"
		enc.EncodeCaller = zapcore.ShortCallerEncoder
	}
	return enc
}

func (l *Logger) Debug(message string, fields ...map[string]any) {
	l.write(zapcore.DebugLevel, message, fields...)
}
func (l *Logger) Info(message string, fields ...map[string]any) {
	l.write(zapcore.InfoLevel, message, fields...)
}
func (l *Logger) Warn(message string, fields ...map[string]any) {
	l.write(zapcore.WarnLevel, message, fields...)
}
func (l *Logger) Error(message string, fields ...map[string]any) {
	l.write(zapcore.ErrorLevel, message, fields...)
}

func (l *Logger) WithField(key string, value any) observability.StructuredLogger {
	return l.WithFields(map[string]any{key: value})
}

func (l *Logger) WithFields(fields map[string]any) observability.StructuredLogger {
	return &Logger{log: l.log.With(l.zapFields(fields)...), sanitizer: l.sanitizer}
}

func (l *Logger) WithComponent(path string) observability.StructuredLogger {
	return &Logger{log: l.log.With(ubzap.String("component", sanitization.SanitizeLogString(path))), sanitizer: l.sanitizer}
}

func (l *Logger) WithStack(name string) observability.StructuredLogger {
	return &Logger{log: l.log.With(ubzap.String("stack", sanitization.SanitizeLogString(name))), sanitizer: l.sanitizer}
}

func (l *Logger) Flush(_ context.Context) error {
	if l == nil || l.log == nil {
		return nil
	}
	if err := l.log.Sync(); err != nil && !isIgnorableSyncError(err) {
		return err
	}
	return nil
}

func (l *Logger) Close() error {
	return l.Flush(context.Background())
}

func (l *Logger) write(level zapcore.Level, message string, fields ...map[string]any) {
	if l == nil || l.log == nil {
		return
	}
	ce := l.log.Check(level, sanitization.SanitizeLogString(message))
	if ce == nil {
		return
	}
	var zf []ubzap.Field
	for _, set := range fields {
		zf = append(zf, l.zapFields(set)...)
	}
	ce.Write(zf...)
}

func (l *Logger) zapFields(fields map[string]any) []ubzap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]ubzap.Field, 0, len(fields))
	for k, v := range fields {
		if l.sanitizer != nil {
			v = l.sanitizer(k, v)
		}
		out = append(out, ubzap.Any(k, v))
	}
	return out
}

// Syncing a terminal returns EINVAL/ENOTTY on most platforms.
func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid argument") || strings.Contains(msg, "inappropriate ioctl")
}
