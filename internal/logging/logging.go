// Package logging builds the zap loggers that are handed to every component.
package logging

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// TraceLevel sits below zap's DebugLevel and carries per-tick chatter.
const TraceLevel = zapcore.DebugLevel - 1

// Options controls how the root logger is built.
type Options struct {
	// Level is the minimum level written to the outputs.
	Level zapcore.Level

	// File is an optional path to a rolling log file. Logs are still written to stdout.
	File string
}

// New returns the root logger. Components should derive named children from it.
func New(opts Options) *zap.SugaredLogger {
	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stdout)}
	if opts.File != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		}))
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.NewMultiWriteSyncer(sinks...),
		zap.NewAtomicLevelAt(opts.Level),
	)
	return zap.New(core, zap.AddCaller()).Sugar()
}

// NewNop returns a logger that discards everything.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// encoderConfig mirrors zap's development config without stack traces and with
// a TRACE name for TraceLevel.
func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    encodeLevel,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func encodeLevel(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if level == TraceLevel {
		enc.AppendString("TRACE")
		return
	}
	zapcore.CapitalLevelEncoder(level, enc)
}

// Tracef logs a formatted message at TraceLevel.
func Tracef(logger *zap.SugaredLogger, template string, args ...interface{}) {
	base := logger.Desugar()
	if !base.Core().Enabled(TraceLevel) {
		return
	}
	if ce := base.WithOptions(zap.AddCallerSkip(1)).Check(TraceLevel, fmt.Sprintf(template, args...)); ce != nil {
		ce.Write()
	}
}

// Sync flushes buffered log entries. Errors from syncing a console are ignored.
func Sync(logger *zap.SugaredLogger) {
	_ = logger.Sync()
}

// Once remembers messages that were already logged so they are only written
// once for the lifetime of the process.
type Once struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewOnce creates an empty Once.
func NewOnce() *Once {
	return &Once{seen: make(map[string]struct{})}
}

// Warn logs message as a warning unless the exact message was logged before.
func (o *Once) Warn(logger *zap.SugaredLogger, message string) {
	if o.first(message) {
		logger.Warn(message)
	}
}

func (o *Once) first(message string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.seen[message]; ok {
		return false
	}
	o.seen[message] = struct{}{}
	return true
}
