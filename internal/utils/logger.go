package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes leveled, printf-style messages to the console and, when a
// log directory is configured, to a timestamped file.
type Logger struct {
	zap   *zap.Logger
	sugar *zap.SugaredLogger
	file  string
}

// NewLogger builds a logger at the given level. Console output goes to stderr
// so that display output on stdout stays clean. An empty dir disables the log file.
func NewLogger(level string, dir string) (*Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.DisableCaller = true
	config.DisableStacktrace = true
	config.Sampling = nil
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	var filename string
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		filename = filepath.Join(dir, fmt.Sprintf("divcompiler_%s.log", timestamp))
		config.OutputPaths = append(config.OutputPaths, filename)
	}

	zapLogger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	l := NewLoggerFromZap(zapLogger)
	l.file = filename
	return l, nil
}

// NewLoggerFromZap wraps an existing zap logger.
func NewLoggerFromZap(z *zap.Logger) *Logger {
	return &Logger{zap: z, sugar: z.Sugar()}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	return NewLoggerFromZap(zap.NewNop())
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	// chromedp reports cookie events it cannot decode; they are noise.
	if strings.Contains(format, "could not unmarshal event") {
		return
	}
	l.sugar.Debugf(format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// Fatal logs and exits the process with status 1.
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.sugar.Fatalf(format, args...)
}

// File returns the path of the log file, or "" when logging to the console only.
func (l *Logger) File() string {
	return l.file
}

// Close flushes buffered entries.
func (l *Logger) Close() error {
	if l == nil || l.zap == nil {
		return nil
	}
	// Syncing a terminal returns EINVAL on Linux; only file errors matter.
	if err := l.zap.Sync(); err != nil && l.file != "" && !isConsoleSyncError(err) {
		return err
	}
	return nil
}

func isConsoleSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "/dev/stderr") || strings.Contains(msg, "/dev/stdout")
}
