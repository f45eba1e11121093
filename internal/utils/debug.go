package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger   = zap.NewNop().Sugar()
	loggerMu sync.RWMutex
)

// ConfigureDebug routes debug output to <logsDir>/debug.log at the given level.
// The TUI owns stdout, so nothing is ever written there.
func ConfigureDebug(logsDir string, level string) error {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return err
	}

	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(zapLevel),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			MessageKey:     "msg",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     timestampEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
		OutputPaths:      []string{filepath.Join(logsDir, "debug.log")},
		ErrorOutputPaths: []string{filepath.Join(logsDir, "debug.log")},
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	loggerMu.Lock()
	old := logger
	logger = l.Sugar()
	loggerMu.Unlock()
	_ = old.Sync()
	return nil
}

// CloseDebug flushes the debug log and resets to a no-op logger.
func CloseDebug() {
	loggerMu.Lock()
	old := logger
	logger = zap.NewNop().Sugar()
	loggerMu.Unlock()
	_ = old.Sync()
}

// Debug writes a message to debug.log
func Debug(format string, args ...any) {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	l.Debugf(format, args...)
}

// Info writes an info level message to debug.log
func Info(format string, args ...any) {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	l.Infof(format, args...)
}

// Error writes an error level message to debug.log
func Error(format string, args ...any) {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	l.Errorf(format, args...)
}

func timestampEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05"))
}
