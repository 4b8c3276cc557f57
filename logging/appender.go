package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultTimeFormatStr is the default time format string for log appenders.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

// Appender is an output for log entries. This is a subset of the `zapcore.Core` interface.
type Appender interface {
	// Write submits a structured log entry to the appender for logging.
	Write(zapcore.Entry, []zapcore.Field) error
	// Sync is for signaling that any buffered logs to `Write` should be flushed. E.g: at shutdown.
	Sync() error
}

// ConsoleAppender will create human readable lines from log events and write them to the desired
// output sync. E.g: stdout or a file.
type ConsoleAppender struct {
	io.Writer
}

// NewStdoutAppender creates a new appender that outputs to stdout.
func NewStdoutAppender() ConsoleAppender {
	return ConsoleAppender{os.Stdout}
}

// NewWriterAppender creates a new appender that outputs to the input writer.
func NewWriterAppender(writer io.Writer) ConsoleAppender {
	return ConsoleAppender{writer}
}

// FileAppenderConfig describes a size-rotated log file.
type FileAppenderConfig struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
	Compress   bool   `json:"compress,omitempty"`
}

// NewFileAppender creates an appender writing to a rotating log file. The returned closer
// should be closed when the session ends.
func NewFileAppender(cfg FileAppenderConfig) (ConsoleAppender, io.Closer) {
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 100
	}
	writer := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    maxSize,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}
	return ConsoleAppender{writer}, writer
}

// Write outputs the log entry to the underlying stream.
func (appender ConsoleAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	line, err := formatLine(entry, fields, entry.LoggerName != "")
	fmt.Fprintln(appender.Writer, line)
	return err
}

// formatLine renders an entry as tab separated time, level, name, caller and message, followed
// by the fields as a JSON object. When the fields cannot be encoded the line is returned without
// them, along with the error.
func formatLine(entry zapcore.Entry, fields []zapcore.Field, withName bool) (string, error) {
	parts := []string{
		entry.Time.Format(DefaultTimeFormatStr),
		strings.ToUpper(entry.Level.String()),
	}
	if withName {
		parts = append(parts, entry.LoggerName)
	}
	if entry.Caller.Defined {
		parts = append(parts, callerToString(&entry.Caller))
	}
	parts = append(parts, entry.Message)
	if len(fields) == 0 {
		return strings.Join(parts, "\t"), nil
	}

	// an empty entry makes the encoder emit the fields alone, in order
	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{SkipLineEnding: true})
	buf, err := enc.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		return strings.Join(parts, "\t"), err
	}
	defer buf.Free()
	return strings.Join(append(parts, buf.String()), "\t"), nil
}

// Sync is a no-op unless the writer is a file.
func (appender ConsoleAppender) Sync() error {
	if f, ok := appender.Writer.(*os.File); ok && f != os.Stdout && f != os.Stderr {
		return f.Sync()
	}
	return nil
}

// callerToString returns "<package>/<file>:<line>" for an entry caller.
func callerToString(caller *zapcore.EntryCaller) string {
	// The file returned by `runtime.Caller` is a full path and always contains '/' to separate
	// directories, including on windows. We only want the last directory and the filename.
	idx := strings.LastIndexByte(caller.File, '/')
	if idx == -1 {
		return fmt.Sprintf("%s:%d", caller.File, caller.Line)
	}
	idx = strings.LastIndexByte(caller.File[:idx], '/')
	if idx == -1 {
		return fmt.Sprintf("%s:%d", caller.File, caller.Line)
	}
	return fmt.Sprintf("%s:%d", caller.File[idx+1:], caller.Line)
}
