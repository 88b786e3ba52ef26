package common

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is the process-wide logger instance. A nop logger until
	// InitLogger replaces it, so library code can log unconditionally.
	Logger  = zap.NewNop()
	LogMode string

	levelColors = map[zapcore.Level]string{
		zapcore.DebugLevel: "\033[36m",
		zapcore.InfoLevel:  "\033[32m",
		zapcore.WarnLevel:  "\033[33m",
		zapcore.ErrorLevel: "\033[31m",
		zapcore.FatalLevel: "\033[35m",
	}
	resetColor = "\033[0m"
)

func getEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "",
		CallerKey:      "",
		MessageKey:     "msg",
		StacktraceKey:  "",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    customLevelEncoder,
		EncodeTime:     customTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   nil,
	}
}

func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05.000"))
}

func customLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	color := levelColors[l]
	level := l.String()
	switch l {
	case zapcore.DebugLevel:
		level = "DBG"
	case zapcore.InfoLevel:
		level = "INF"
	case zapcore.WarnLevel:
		level = "WRN"
	case zapcore.ErrorLevel:
		level = "ERR"
	case zapcore.FatalLevel:
		level = "FAT"
	}
	enc.AppendString(color + level + resetColor)
}

// InitLogger sets up the global logger with a colored console core and a JSON
// file core. Must run after the .env file has been loaded.
func InitLogger(logLevel string) error {
	var level zapcore.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	case "fatal":
		level = zapcore.FatalLevel
	default:
		level = zapcore.InfoLevel
	}

	LogMode = os.Getenv("LOG_MODE")

	if err := os.MkdirAll("logs", 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile("logs/app.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	fileWriter := zapcore.AddSync(logFile)
	consoleWriter := zapcore.AddSync(os.Stdout)

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(getEncoderConfig()),
		fileWriter,
		level,
	)
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(getEncoderConfig()),
		consoleWriter,
		level,
	)

	core := zapcore.NewTee(fileCore, consoleCore)

	Logger = zap.New(core,
		zap.AddCallerSkip(1),
		zap.Fields(
			zap.String("service", "recipe-extractor"),
		),
	)

	zap.ReplaceGlobals(Logger)

	return nil
}

// filterFields drops fields that may carry raw image payloads or full page
// bodies so log lines stay readable.
func filterFields(fields []zap.Field) []zap.Field {
	filtered := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if field.Key == "image" ||
			strings.Contains(field.Key, "image_data") ||
			strings.Contains(field.Key, "base64") ||
			field.Key == "raw_html" {
			continue
		}
		filtered = append(filtered, field)
	}
	return filtered
}

// LogInfo logs an info message.
func LogInfo(msg string, fields ...zap.Field) {
	if LogMode == "concise" {
		// Only request completion and server lifecycle messages pass through.
		if msg != "request completed" && msg != "starting server" && msg != "server exited" && msg != "shutting down server" {
			return
		}
	}
	Logger.Info(msg, filterFields(fields)...)
}

// LogError logs an error message.
func LogError(msg string, fields ...zap.Field) {
	Logger.Error(msg, filterFields(fields)...)
}

// LogWarn logs a warning message.
func LogWarn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, filterFields(fields)...)
}

// LogDebug logs a debug message.
func LogDebug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, filterFields(fields)...)
}

// LogFatal logs a fatal message and exits.
func LogFatal(msg string, fields ...zap.Field) {
	Logger.Fatal(msg, fields...)
}

// Sync flushes buffered log entries.
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// LogAICall records the outcome of a generative-model call.
func LogAICall(duration time.Duration, err error) {
	if err != nil {
		LogError("ai call failed",
			zap.Error(err),
			zap.Duration("duration", duration),
		)
		return
	}
	LogInfo("ai call succeeded",
		zap.Duration("duration", duration),
	)
}

// LogFetch records the outcome of a page fetch.
func LogFetch(url string, rendered bool, duration time.Duration, err error) {
	fields := []zap.Field{
		zap.String("url", url),
		zap.Bool("rendered", rendered),
		zap.Duration("duration", duration),
	}
	if err != nil {
		LogError("fetch failed", append(fields, zap.Error(err))...)
		return
	}
	LogInfo("fetch completed", fields...)
}
