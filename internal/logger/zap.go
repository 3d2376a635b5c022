package logger

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var structured atomic.Pointer[zap.Logger]

func init() {
	structured.Store(zap.NewNop())
}

// L returns the process-wide structured logger. It is a no-op logger until
// SetZap installs one.
func L() *zap.Logger {
	return structured.Load()
}

// SetZap replaces the structured logger. A nil logger restores the no-op logger.
func SetZap(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	structured.Store(l)
}

// NewZap builds a structured logger. Verbose selects a development console
// logger at debug level; otherwise a JSON production logger at info level.
func NewZap(verbose bool) (*zap.Logger, error) {
	if verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Sampling = nil
	return cfg.Build()
}
