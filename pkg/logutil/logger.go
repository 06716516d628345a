package logutil

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	once   sync.Once
)

// InitLogger builds the process-wide JSON logger. Calling it again is a
// no-op.
func InitLogger() {
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Level = level
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		l, err := cfg.Build()
		if err != nil {
			l = zap.NewExample()
		}
		logger = l
	})
}

func GetLogger() *zap.Logger {
	InitLogger()
	return logger
}

// SetLevel changes the level of the process-wide logger, e.g. "debug".
func SetLevel(lvl string) error {
	return level.UnmarshalText([]byte(lvl))
}

// ReplaceLogger swaps the process-wide logger, mostly for tests using
// zaptest/observer.
func ReplaceLogger(l *zap.Logger) func() {
	InitLogger()
	prev := logger
	logger = l
	return func() { logger = prev }
}
