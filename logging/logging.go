// Package logging contains the structured logger used across the reconstruction pipeline.
package logging

import (
	"io"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// Logger is the logging interface used by every package of the module.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Fatal(args ...interface{})
	Fatalf(template string, args ...interface{})

	SetLevel(level Level)
	GetLevel() Level
	Sublogger(subname string) Logger
	WithFields(keysAndValues ...interface{}) Logger
	AddAppender(appender Appender)
	AsZap() *zap.SugaredLogger
	Sync() error
}

// NewLoggerConfig returns a new default zap config used when a zap logger is requested.
func NewLoggerConfig() zap.Config {
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(zap.InfoLevel),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// NewLogger returns a new logger that outputs Info+ logs to stdout in UTC.
func NewLogger(name string) Logger {
	return newImpl(name, INFO, true, NewStdoutAppender())
}

// NewDebugLogger returns a new logger that outputs Debug+ logs to stdout in UTC.
func NewDebugLogger(name string) Logger {
	return newImpl(name, DEBUG, true, NewStdoutAppender())
}

// NewBlankLogger returns a new logger with no appenders.
func NewBlankLogger(name string) Logger {
	return newImpl(name, DEBUG, true)
}

// NewFileLogger returns a logger writing to stdout and to a rotating log file. The closer
// releases the file.
func NewFileLogger(name string, level Level, cfg FileAppenderConfig) (Logger, io.Closer) {
	fileAppender, closer := NewFileAppender(cfg)
	return newImpl(name, level, true, NewStdoutAppender(), fileAppender), closer
}

// NewTestLogger returns a new logger that outputs Debug+ logs to the test object.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also saves logs to an in memory observer.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	logger := newImpl("", DEBUG, false)
	logger.AddAppender(NewTestAppender(tb))

	observerCore, observedLogs := observer.New(zap.LevelEnablerFunc(zapcore.DebugLevel.Enabled))
	logger.AddAppender(observerCore)

	return logger, observedLogs
}

func newImpl(name string, level Level, inUTC bool, appenders ...Appender) *impl {
	return &impl{name: name, level: NewAtomicLevelAt(level), inUTC: inUTC, appenders: appenders}
}
