package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

// testAppender sends entries to the running test so parallel tests keep their lines apart.
type testAppender struct {
	tb testing.TB
}

// NewTestAppender returns an appender logging through tb.Log.
func NewTestAppender(tb testing.TB) Appender {
	return &testAppender{tb}
}

func (tapp *testAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	tapp.tb.Helper()
	line, err := formatLine(entry, fields, true)
	tapp.tb.Log(line)
	return err
}

func (tapp *testAppender) Sync() error {
	return nil
}
