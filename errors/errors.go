package errors

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// New creates a new error annotated with the caller's file and line.
func New(format string, a ...interface{}) error {
	return fmt.Errorf("[%s] %s", callsite(), fmt.Sprintf(format, a...))
}

// Wrapf adds context (including the caller's file and line) to an existing
// error. If the provided error is nil, Wrapf returns nil.
func Wrapf(err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("[%s] %s: %w", callsite(), fmt.Sprintf(format, a...), err)
}

func callsite() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "???:0"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}
