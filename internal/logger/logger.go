// Package logger provides logging for the discover CLI.
//
// Debug, Info, Warn and Section trace the search and ingestion pipeline.
// With --verbose they print plain lines to stderr; otherwise they are
// forwarded to the structured zap logger returned by L, which is a no-op
// until a long-running command installs one.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose output is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects verbose output. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func emit(level zapcore.Level, tag, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "["+tag+"] "+format+"\n", args...)
		return
	}
	if ce := L().Check(level, ""); ce != nil {
		ce.Message = fmt.Sprintf(format, args...)
		ce.Write()
	}
}

func Debug(format string, args ...any) { emit(zapcore.DebugLevel, "DEBUG", format, args...) }
func Info(format string, args ...any)  { emit(zapcore.InfoLevel, "INFO", format, args...) }
func Warn(format string, args ...any)  { emit(zapcore.WarnLevel, "WARN", format, args...) }

// Section prints a pipeline stage header. It has no structured form.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
