// Package logging provides structured logging capabilities using slog.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// global logger instances, initialized in Init()
var (
	structuredLogger    *slog.Logger
	humanReadableLogger *slog.Logger
	loggerMu            sync.RWMutex
)

// currentLogLevel stores the dynamic level for all loggers
var currentLogLevel = new(slog.LevelVar)
var initOnce sync.Once
var initialized bool

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

// Add trace and fatal level names.
var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

// FileConfig controls the rotated JSON log file.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
}

// defaultReplaceAttr provides common attribute formatting for all loggers.
// It formats time to second precision and customizes level names.
func defaultReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		a.Value = slog.StringValue(a.Value.Time().Format("2006-01-02T15:04:05Z07:00"))
	}
	if a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok {
			levelLabel, exists := levelNames[level]
			if !exists {
				levelLabel = level.String()
			}
			a.Value = slog.StringValue(levelLabel)
		} else {
			a.Value = slog.StringValue(fmt.Sprintf("%v", a.Value.Any()))
		}
	}
	return a
}

// Init initializes the global loggers based on configuration.
// It sets up a structured (JSON) logger writing to a rotated file and a
// human-readable (Text) logger writing to the console.
func Init(fileCfg *FileConfig) {
	initOnce.Do(func() {
		currentLogLevel.Set(slog.LevelInfo)

		var structuredOutput io.Writer = os.Stderr
		if fileCfg != nil && fileCfg.Path != "" {
			structuredOutput = &lumberjack.Logger{
				Filename:   fileCfg.Path,
				MaxSize:    fileCfg.MaxSizeMB,
				MaxAge:     fileCfg.MaxAgeDays,
				MaxBackups: fileCfg.MaxBackups,
				Compress:   fileCfg.Compress,
			}
		}

		structuredHandler := slog.NewJSONHandler(structuredOutput, &slog.HandlerOptions{
			Level:       currentLogLevel,
			ReplaceAttr: defaultReplaceAttr,
		})
		humanReadableHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:       currentLogLevel,
			ReplaceAttr: defaultReplaceAttr,
		})

		loggerMu.Lock()
		structuredLogger = slog.New(structuredHandler)
		humanReadableLogger = slog.New(humanReadableHandler)
		loggerMu.Unlock()

		slog.SetDefault(structuredLogger)
		initialized = true
	})
}

// IsInitialized returns true if the logging system has been initialized
func IsInitialized() bool {
	return initialized
}

// SetLevel changes the logging level for all initialized loggers.
func SetLevel(level slog.Level) {
	currentLogLevel.Set(level)
}

// SetOutput redirects logger output, e.g. to an in-memory buffer in tests.
func SetOutput(structuredOutput, humanReadableOutput io.Writer) error {
	if structuredOutput == nil {
		return fmt.Errorf("structuredOutput writer cannot be nil")
	}
	if humanReadableOutput == nil {
		return fmt.Errorf("humanReadableOutput writer cannot be nil")
	}

	structuredHandler := slog.NewJSONHandler(structuredOutput, &slog.HandlerOptions{
		Level:       currentLogLevel,
		ReplaceAttr: defaultReplaceAttr,
	})
	humanReadableHandler := slog.NewTextHandler(humanReadableOutput, &slog.HandlerOptions{
		Level:       currentLogLevel,
		ReplaceAttr: defaultReplaceAttr,
	})

	loggerMu.Lock()
	structuredLogger = slog.New(structuredHandler)
	humanReadableLogger = slog.New(humanReadableHandler)
	loggerMu.Unlock()

	slog.SetDefault(structuredLogger)
	return nil
}

// Structured returns the globally configured structured (JSON) logger.
// Returns nil if Init() has not been called.
func Structured() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return structuredLogger
}

// HumanReadable returns the globally configured human-readable (Text) logger.
// Returns nil if Init() has not been called.
func HumanReadable() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return humanReadableLogger
}

// ForService creates a new logger instance with the 'service' attribute added.
// It uses the global structured logger as the base.
// Returns nil if Init() has not been called.
func ForService(serviceName string) *slog.Logger {
	loggerMu.RLock()
	logger := structuredLogger
	loggerMu.RUnlock()

	if logger == nil {
		return nil
	}
	return logger.With("service", serviceName)
}

// --- Convenience functions using the default logger ---

// Debug logs a debug message using the default slog logger.
func Debug(msg string, args ...any) {
	slog.Debug(msg, args...)
}

// Info logs an info message using the default slog logger.
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Warn logs a warning message using the default slog logger.
func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// Error logs an error message using the default slog logger.
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}

// Fatal logs a message at the custom Fatal level and then exits.
func Fatal(msg string, args ...any) {
	loggerMu.RLock()
	logger := structuredLogger
	loggerMu.RUnlock()
	if logger == nil {
		logger = slog.Default()
	}
	logger.Log(context.Background(), LevelFatal, msg, args...)
	os.Exit(1)
}
