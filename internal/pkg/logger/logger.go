package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Log is the global logger instance
	Log = zap.NewNop()
	// Sugar is the sugared logger for convenience methods
	Sugar = Log.Sugar()
	// currentLevel stores the current log level for IsDebug checks
	currentLevel = zapcore.WarnLevel
)

// Config holds logger configuration
type Config struct {
	Level  string
	Format string
	// Output defaults to stderr; stdout belongs to the training program.
	Output io.Writer
}

// Init initializes the global logger
func Init(cfg Config) error {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.WarnLevel
	}
	currentLevel = level

	var encoder zapcore.Encoder
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	var out io.Writer = os.Stderr
	if cfg.Output != nil {
		out = cfg.Output
	}

	core := zapcore.NewCore(
		encoder,
		zapcore.AddSync(out),
		level,
	)

	Log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	Sugar = Log.Sugar()

	return nil
}

// Sync flushes any buffered log entries
func Sync() error {
	if Log != nil {
		return Log.Sync()
	}
	return nil
}

// WithRunID returns a logger with run ID
func WithRunID(runID string) *zap.Logger {
	return Log.With(zap.String("run_id", runID))
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	Log.Debug(msg, fields...)
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	Log.Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}

// IsDebug returns true if the logger is configured for debug level
func IsDebug() bool {
	return currentLevel <= zapcore.DebugLevel
}
