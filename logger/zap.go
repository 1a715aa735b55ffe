package logger

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapBridge struct {
	logger Logger
}

func zapToLevel(level zapcore.Level) LogLevel {
	switch level {
	case zapcore.DebugLevel:
		return LevelDebug
	case zapcore.InfoLevel:
		return LevelInfo
	case zapcore.WarnLevel:
		return LevelWarn
	default:
		return LevelError
	}
}

// fieldsToMetadata resolves zap's strongly-typed fields through a
// MapObjectEncoder, so zap.String/zap.Int values survive instead of
// arriving as nil interfaces.
func fieldsToMetadata(fields []zapcore.Field) map[string]interface{} {
	enc := zapcore.NewMapObjectEncoder()
	for _, field := range fields {
		field.AddTo(enc)
	}
	return enc.Fields
}

func (z *zapBridge) Enabled(level zapcore.Level) bool {
	return z.logger.IsLevelEnabled(zapToLevel(level))
}

func (z *zapBridge) With(fields []zapcore.Field) zapcore.Core {
	return &zapBridge{logger: z.logger.With(fieldsToMetadata(fields))}
}

func (z *zapBridge) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !z.Enabled(entry.Level) {
		return ce
	}
	return ce.AddCore(entry, z)
}

func (z *zapBridge) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	metadata := fieldsToMetadata(fields)
	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]interface{}, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, metadata[key])
	}

	switch zapToLevel(entry.Level) {
	case LevelDebug:
		z.logger.Debug(entry.Message, args...)
	case LevelInfo:
		z.logger.Info(entry.Message, args...)
	case LevelWarn:
		z.logger.Warn(entry.Message, args...)
	default:
		z.logger.Error(entry.Message, args...)
	}

	return nil
}

func (z *zapBridge) Sync() error {
	return nil
}

// ToZap returns a zap.Logger instance that will output to the provided logger
func ToZap(logger Logger) *zap.Logger {
	core := &zapBridge{logger: logger}
	return zap.New(core)
}

// FromZap returns a Logger backed by an existing zap.Logger, so an
// application already on zap can sink cache warnings through it.
func FromZap(z *zap.Logger) Logger {
	return &zapLogger{sugar: z.Sugar()}
}

type zapLogger struct {
	sugar    *zap.SugaredLogger
	prefixes []string
}

var _ Logger = (*zapLogger)(nil)

func (l *zapLogger) With(metadata map[string]interface{}) Logger {
	args := make([]interface{}, 0, len(metadata)*2)
	for k, v := range metadata {
		args = append(args, k, v)
	}
	return &zapLogger{sugar: l.sugar.With(args...), prefixes: l.prefixes}
}

func (l *zapLogger) WithPrefix(prefix string) Logger {
	prefixes := make([]string, len(l.prefixes), len(l.prefixes)+1)
	copy(prefixes, l.prefixes)
	return &zapLogger{sugar: l.sugar, prefixes: append(prefixes, prefix)}
}

func (l *zapLogger) IsLevelEnabled(level LogLevel) bool {
	return true
}

func (l *zapLogger) format(msg string, args []interface{}) string {
	formatted := msg
	if len(args) > 0 {
		formatted = fmt.Sprintf(msg, args...)
	}
	if len(l.prefixes) > 0 {
		return strings.Join(l.prefixes, " ") + " " + formatted
	}
	return formatted
}

func (l *zapLogger) Trace(msg string, args ...interface{}) {
	l.sugar.Debug(l.format(msg, args))
}

func (l *zapLogger) Debug(msg string, args ...interface{}) {
	l.sugar.Debug(l.format(msg, args))
}

func (l *zapLogger) Info(msg string, args ...interface{}) {
	l.sugar.Info(l.format(msg, args))
}

func (l *zapLogger) Warn(msg string, args ...interface{}) {
	l.sugar.Warn(l.format(msg, args))
}

func (l *zapLogger) Error(msg string, args ...interface{}) {
	l.sugar.Error(l.format(msg, args))
}
