package logging

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// impl fans every entry out to its appenders. Subloggers share the appenders but own their
// level.
type impl struct {
	name      string
	level     AtomicLevel
	inUTC     bool
	appenders []Appender
	// fields are attached to every entry, ahead of the call site's own fields.
	fields []zapcore.Field
}

// callerSkip is the distance between caller and the user's logging call: caller, emit, then
// the exported method.
const callerSkip = 3

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders = append(imp.appenders, appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) Sublogger(subname string) Logger {
	child := imp.clone()
	child.name = subname
	if imp.name != "" {
		child.name = imp.name + "." + subname
	}
	return child
}

// WithFields returns a logger adding keysAndValues to every entry.
func (imp *impl) WithFields(keysAndValues ...interface{}) Logger {
	child := imp.clone()
	child.fields = append(child.fields, toFields(keysAndValues)...)
	return child
}

func (imp *impl) clone() *impl {
	return &impl{
		name:      imp.name,
		level:     NewAtomicLevelAt(imp.level.Get()),
		inUTC:     imp.inUTC,
		appenders: imp.appenders,
		fields:    append([]zapcore.Field(nil), imp.fields...),
	}
}

func (imp *impl) Sync() error {
	var err error
	for _, appender := range imp.appenders {
		err = multierr.Append(err, appender.Sync())
	}
	return err
}

// AsZap builds a zap logger that also writes to the appenders that are zap cores, such as the
// observer of NewObservedTestLogger.
func (imp *impl) AsZap() *zap.SugaredLogger {
	config := NewLoggerConfig()
	config.Level = zap.NewAtomicLevelAt(imp.level.Get().AsZap())
	sugared := zap.Must(config.Build()).Sugar().Named(imp.name)
	for _, appender := range imp.appenders {
		core, ok := appender.(zapcore.Core)
		if !ok {
			continue
		}
		sugared = sugared.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, core)
		}))
	}
	return sugared.With(fieldsToArgs(imp.fields)...)
}

func (imp *impl) enabled(level Level) bool {
	return level >= imp.level.Get()
}

// emit must be called directly by the exported logging methods for callerSkip to hold.
func (imp *impl) emit(level Level, msg string, fields []zapcore.Field) {
	entry := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       time.Now(),
		LoggerName: imp.name,
		Message:    msg,
		Caller:     caller(),
	}
	if imp.inUTC {
		entry.Time = entry.Time.UTC()
	}
	if len(imp.fields) > 0 {
		fields = append(append([]zapcore.Field(nil), imp.fields...), fields...)
	}
	for _, appender := range imp.appenders {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// toFields pairs odd elements as keys with the element after them.
func toFields(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.Any(key, errors.New("unpaired log key")))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

func fieldsToArgs(fields []zapcore.Field) []interface{} {
	args := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		args = append(args, f)
	}
	return args
}

func (imp *impl) Debug(args ...interface{}) {
	if imp.enabled(DEBUG) {
		imp.emit(DEBUG, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) Debugf(template string, args ...interface{}) {
	if imp.enabled(DEBUG) {
		imp.emit(DEBUG, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	if imp.enabled(DEBUG) {
		imp.emit(DEBUG, msg, toFields(keysAndValues))
	}
}

func (imp *impl) Info(args ...interface{}) {
	if imp.enabled(INFO) {
		imp.emit(INFO, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) Infof(template string, args ...interface{}) {
	if imp.enabled(INFO) {
		imp.emit(INFO, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	if imp.enabled(INFO) {
		imp.emit(INFO, msg, toFields(keysAndValues))
	}
}

func (imp *impl) Warn(args ...interface{}) {
	if imp.enabled(WARN) {
		imp.emit(WARN, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) Warnf(template string, args ...interface{}) {
	if imp.enabled(WARN) {
		imp.emit(WARN, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	if imp.enabled(WARN) {
		imp.emit(WARN, msg, toFields(keysAndValues))
	}
}

func (imp *impl) Error(args ...interface{}) {
	if imp.enabled(ERROR) {
		imp.emit(ERROR, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) Errorf(template string, args ...interface{}) {
	if imp.enabled(ERROR) {
		imp.emit(ERROR, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	if imp.enabled(ERROR) {
		imp.emit(ERROR, msg, toFields(keysAndValues))
	}
}

// Fatal logs as an error then exits the process.
func (imp *impl) Fatal(args ...interface{}) {
	imp.emit(ERROR, fmt.Sprint(args...), nil)
	os.Exit(1)
}

// Fatalf logs as an error then exits the process.
func (imp *impl) Fatalf(template string, args ...interface{}) {
	imp.emit(ERROR, fmt.Sprintf(template, args...), nil)
	os.Exit(1)
}

func caller() zapcore.EntryCaller {
	pc, file, line, ok := runtime.Caller(callerSkip)
	if !ok {
		return zapcore.EntryCaller{}
	}
	ec := zapcore.EntryCaller{Defined: true, PC: pc, File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		ec.Function = fn.Name()
	}
	return ec
}
