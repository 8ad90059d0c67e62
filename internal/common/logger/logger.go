package logger

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Logger is the field-map logger every agent component takes.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger
	With(fields map[string]interface{}) Logger
}

var levels = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// ParseLevel defaults to info for anything it does not recognise.
func ParseLevel(level string) zapcore.Level {
	if l, ok := levels[strings.ToLower(strings.TrimSpace(level))]; ok {
		return l
	}
	return zapcore.InfoLevel
}

// New builds the process-wide zap logger; "json" selects the production encoder.
func New(level, format string) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if format == "json" {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func NewStructured(level, format string) Logger { return NewZapAdapter(New(level, format)) }

func NewZapAdapter(l *zap.Logger) Logger { return &zapLogger{z: l} }

// NewTestLogger routes output through t.Log so it only shows for failing or -v runs.
func NewTestLogger(t testing.TB) Logger { return NewZapAdapter(zaptest.NewLogger(t)) }

func NewNoOpLogger() Logger { return NewZapAdapter(zap.NewNop()) }

// Component tags every line with the emitting component.
func Component(l Logger, name string) Logger {
	return l.With(map[string]interface{}{"component": name})
}

type zapLogger struct {
	z *zap.Logger
}

func (l *zapLogger) Debug(msg string, fields map[string]interface{}) { l.z.Debug(msg, toZap(fields)...) }
func (l *zapLogger) Info(msg string, fields map[string]interface{})  { l.z.Info(msg, toZap(fields)...) }
func (l *zapLogger) Warn(msg string, fields map[string]interface{})  { l.z.Warn(msg, toZap(fields)...) }
func (l *zapLogger) Error(msg string, fields map[string]interface{}) { l.z.Error(msg, toZap(fields)...) }

func (l *zapLogger) WithFields(fields map[string]interface{}) Logger {
	return &zapLogger{z: l.z.With(toZap(fields)...)}
}

func (l *zapLogger) With(fields map[string]interface{}) Logger { return l.WithFields(fields) }

func (l *zapLogger) WithError(err error) Logger {
	return &zapLogger{z: l.z.With(zap.Error(err))}
}

// toZap keeps errors as named error fields so they render their message.
func toZap(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
		} else {
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
