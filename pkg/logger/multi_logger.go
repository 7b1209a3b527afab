package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory represents different log categories
type LogCategory string

const (
	CategorySession LogCategory = "session" // Session lifecycle and outcomes (JSON)
	CategoryQueue   LogCategory = "queue"   // Queue lifecycle events (JSON)
	CategoryError   LogCategory = "error"   // Application errors (JSON)
	CategoryBackend LogCategory = "backend" // Raw yt-dlp output (plain text)
)

// Categories lists every category that has a log file
func Categories() []LogCategory {
	return []LogCategory{CategorySession, CategoryQueue, CategoryError, CategoryBackend}
}

// ValidCategory reports whether c names a known category
func ValidCategory(c LogCategory) bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// MultiLogger provides categorized logging with one file per category and
// day. Files are reopened when the date changes.
type MultiLogger struct {
	config      MultiLoggerConfig
	level       zapcore.Level
	mu          sync.RWMutex
	loggers     map[LogCategory]*zap.Logger
	files       map[LogCategory]*os.File
	currentDate string
	now         func() time.Time
}

// MultiLoggerConfig contains configuration for multi-output logging
type MultiLoggerConfig struct {
	Level   string // debug, info, warn, error
	LogsDir string // Directory for log files
}

// NewMultiLogger creates a new multi-output logger
func NewMultiLogger(config MultiLoggerConfig) (*MultiLogger, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}

	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	ml := &MultiLogger{
		config: config,
		level:  ParseLevel(config.Level),
		now:    time.Now,
	}
	if err := ml.open(ml.now().Format("20060102")); err != nil {
		return nil, err
	}
	return ml, nil
}

// open creates the category files for date. Caller holds mu or owns ml.
func (ml *MultiLogger) open(date string) error {
	loggers := make(map[LogCategory]*zap.Logger)
	files := make(map[LogCategory]*os.File)

	for _, category := range Categories() {
		file, err := os.OpenFile(filepath.Join(ml.config.LogsDir, fmt.Sprintf("%s-%s.log", category, date)), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			for _, f := range files {
				f.Close()
			}
			return fmt.Errorf("failed to create %s logger: %w", category, err)
		}
		files[category] = file

		switch category {
		case CategoryBackend:
			// written through LogBackendLine
		case CategoryError:
			loggers[category] = newStructuredLogger(file, zapcore.ErrorLevel)
		default:
			loggers[category] = newStructuredLogger(file, ml.level)
		}
	}

	ml.closeFiles()
	ml.loggers = loggers
	ml.files = files
	ml.currentDate = date
	return nil
}

func newStructuredLogger(file *os.File, level zapcore.Level) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.CallerKey = ""

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(file), level)
	return zap.New(core)
}

func (ml *MultiLogger) closeFiles() error {
	var lastErr error
	for _, logger := range ml.loggers {
		logger.Sync()
	}
	for _, file := range ml.files {
		if err := file.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// rotate reopens files when the day changed since they were opened
func (ml *MultiLogger) rotate() {
	date := ml.now().Format("20060102")

	ml.mu.RLock()
	current := ml.currentDate
	ml.mu.RUnlock()
	if date == current {
		return
	}

	ml.mu.Lock()
	defer ml.mu.Unlock()
	if date == ml.currentDate {
		return
	}
	if err := ml.open(date); err != nil {
		// keep writing to the previous files
		if logger, ok := ml.loggers[CategoryError]; ok {
			logger.Error("Failed to rotate logs", zap.Error(err))
		}
	}
}

// GetLogsDir returns the logs directory path
func (ml *MultiLogger) GetLogsDir() string {
	return ml.config.LogsDir
}

// GetLogger returns the structured logger for a specific category
func (ml *MultiLogger) GetLogger(category LogCategory) *zap.Logger {
	ml.rotate()

	ml.mu.RLock()
	defer ml.mu.RUnlock()

	if logger, ok := ml.loggers[category]; ok {
		return logger
	}
	if logger, ok := ml.loggers[CategoryError]; ok {
		return logger
	}
	return zap.NewNop()
}

// Session returns the session logger (JSON format)
func (ml *MultiLogger) Session() *zap.Logger {
	return ml.GetLogger(CategorySession)
}

// Queue returns the queue logger (JSON format)
func (ml *MultiLogger) Queue() *zap.Logger {
	return ml.GetLogger(CategoryQueue)
}

// Error returns the error logger (JSON format)
func (ml *MultiLogger) Error() *zap.Logger {
	return ml.GetLogger(CategoryError)
}

// LogAppError logs an application-level error
func (ml *MultiLogger) LogAppError(msg string, fields ...zap.Field) {
	ml.Error().Error(msg, fields...)
}

// LogQueueEvent logs a queue lifecycle event with structured data
func (ml *MultiLogger) LogQueueEvent(event string, fields ...zap.Field) {
	ml.Queue().Info(event, fields...)
}

// LogSessionEvent logs a session lifecycle event with structured data
func (ml *MultiLogger) LogSessionEvent(event string, fields ...zap.Field) {
	ml.Session().Info(event, fields...)
}

// LogBackendLine appends one raw backend output line to the backend log
func (ml *MultiLogger) LogBackendLine(sessionID, level, line string) {
	ml.rotate()

	ml.mu.Lock()
	defer ml.mu.Unlock()

	file, ok := ml.files[CategoryBackend]
	if !ok {
		return
	}
	fmt.Fprintf(file, "%s [%s] %-7s %s\n",
		ml.now().Format(time.RFC3339), sessionID, strings.ToUpper(level), line)
}

// Sync flushes all loggers
func (ml *MultiLogger) Sync() error {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	var lastErr error
	for _, logger := range ml.loggers {
		if err := logger.Sync(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close flushes and closes every log file
func (ml *MultiLogger) Close() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	err := ml.closeFiles()
	ml.loggers = map[LogCategory]*zap.Logger{}
	ml.files = map[LogCategory]*os.File{}
	return err
}
