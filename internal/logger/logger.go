// Package logger provides the process-wide structured logger for the sync server.
package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log  *zap.SugaredLogger
	once sync.Once
)

// Initialize sets up the global logger. Safe to call more than once; only the
// first call takes effect. The log level is read from BANDROOM_SYNC_LOG_LEVEL
// and defaults to info.
func Initialize() {
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(levelFromEnv())
		cfg.OutputPaths = []string{"stderr"}
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

		l, err := cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			// zap only fails on invalid config; fall back to a bare logger
			l = zap.NewNop()
		}
		log = l.Sugar()
	})
}

func levelFromEnv() zapcore.Level {
	switch strings.ToLower(os.Getenv("BANDROOM_SYNC_LOG_LEVEL")) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func ensure() *zap.SugaredLogger {
	if log == nil {
		Initialize()
	}
	return log
}

// Info logs a message at info level.
func Info(msg string) { ensure().Info(msg) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) { ensure().Infof(format, args...) }

// Infow logs a message with key-value pairs at info level.
func Infow(msg string, keysAndValues ...any) { ensure().Infow(msg, keysAndValues...) }

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) { ensure().Debugf(format, args...) }

// Debugw logs a message with key-value pairs at debug level.
func Debugw(msg string, keysAndValues ...any) { ensure().Debugw(msg, keysAndValues...) }

// Warn logs a message at warn level.
func Warn(msg string) { ensure().Warn(msg) }

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...any) { ensure().Warnf(format, args...) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) { ensure().Errorf(format, args...) }

// Errorw logs a message with key-value pairs at error level.
func Errorw(msg string, keysAndValues ...any) { ensure().Errorw(msg, keysAndValues...) }

// Fatalf logs a formatted message at fatal level and exits.
func Fatalf(format string, args ...any) { ensure().Fatalf(format, args...) }
