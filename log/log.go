// Package log provides pbaasd's package-level structured logger. The call
// shape (Info/Warn/Error/Debug/Trace with alternating key/value pairs)
// mirrors klaytn's own log package; the backend is zap's SugaredLogger
// rather than log15, since klaytn's original log implementation did not
// travel with this retrieval pack.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a named, structured logger. Every pbaasd package that logs holds
// one package-level instance created with New.
type Logger struct {
	name    string
	sugared *zap.SugaredLogger
}

var root = buildRoot()

// level is the root logger's adjustable minimum level, shared by every
// Logger derived from root.
var level zap.AtomicLevel

func buildRoot() *zap.Logger {
	cfg := zap.NewProductionConfig()
	level = cfg.Level
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.TimeKey = "t"
	cfg.EncoderConfig.LevelKey = "lvl"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Fall back to a bare encoder rather than panicking on a logging
		// misconfiguration; pbaasd never panics on ambient-stack failures.
		logger = zap.NewExample()
	}
	return logger
}

// SetLevel adjusts the minimum level the root logger emits. Intended for use
// from cmd/pbaasd at startup, keyed off a --verbosity flag the way klaytn's
// cmd/utils/flags.go wires its own log level flag.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

// New returns a Logger scoped to the given module name, e.g. "mergemine" or
// "aggregator". Every message it emits carries a "module" field.
func New(module string) *Logger {
	return &Logger{
		name:    module,
		sugared: root.Sugar().With("module", module),
	}
}

func (l *Logger) Trace(msg string, kv ...interface{}) { l.sugared.Debugw(msg, kv...) }
func (l *Logger) Debug(msg string, kv ...interface{}) { l.sugared.Debugw(msg, kv...) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.sugared.Infow(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.sugared.Warnw(msg, kv...) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.sugared.Errorw(msg, kv...) }

// Crit logs at error level and then exits the process. cmd/pbaasd calls it
// for startup failures, and currency.NewRegistry calls it if its definition
// cache cannot be allocated.
func (l *Logger) Crit(msg string, kv ...interface{}) {
	l.sugared.Errorw(msg, kv...)
	os.Exit(1)
}
