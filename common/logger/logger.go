package logger

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger stays nil until InitLogger runs. Every helper below is a no-op
	// while it is nil, so packages with zero-value state may call them from
	// any point of program start-up.
	Logger *zap.Logger
)

type LogLevel int8

const (
	DebugLevel LogLevel = iota - 1
	InfoLevel
	WarnLevel
	ErrorLevel
)

// ParseLevel maps "debug", "info", "warn" and "error" to a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// Options configures InitLogger. An empty File disables the file core.
type Options struct {
	Level        LogLevel
	File         string
	SupportColor bool
	MaxSize      int // megabytes
	MaxBackups   int
	MaxAge       int // days
}

func newEncoder(supportColor bool) zapcore.Encoder {
	levelEncoder := zapcore.CapitalLevelEncoder
	if supportColor {
		levelEncoder = zapcore.CapitalColorLevelEncoder
	}
	encoderConfig := zapcore.EncoderConfig{
		MessageKey:       "message",
		LevelKey:         "level",
		TimeKey:          "time",
		CallerKey:        "caller",
		EncodeLevel:      levelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: " ",
	}

	return zapcore.NewConsoleEncoder(encoderConfig)
}

func newConsoleCore(encoder zapcore.Encoder, level zapcore.Level) zapcore.Core {
	return zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)
}

func newFileCore(encoder zapcore.Encoder, level zapcore.Level, opts Options) zapcore.Core {
	logFile := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAge,
		Compress:   false,
		LocalTime:  true,
	}

	return zapcore.NewCore(encoder, zapcore.AddSync(logFile), level)
}

func InitLogger(opts Options) {
	encoder := newEncoder(opts.SupportColor)
	level := zapcore.Level(opts.Level)

	core := newConsoleCore(encoder, level)
	if opts.File != "" {
		// the file never gets color escapes
		core = zapcore.NewTee(core, newFileCore(newEncoder(false), level, opts))
	}
	Logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// Use replaces the package logger, typically with zaptest or zap.NewNop in tests.
func Use(l *zap.Logger) {
	Logger = l
}

// Enabled reports whether a message at level would be written.
func Enabled(level LogLevel) bool {
	return Logger != nil && Logger.Core().Enabled(zapcore.Level(level))
}

func Sync() {
	if Logger != nil {
		err := Logger.Sync()
		if err != nil && !strings.Contains(err.Error(), "invalid argument") &&
			!strings.Contains(err.Error(), "inappropriate ioctl") {
			log.Printf("failed to sync logger: %v", err)
		}
	}
}

func Infof(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Sugar().Infof(format, args...)
	}
}

func Debugf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Sugar().Debugf(format, args...)
	}
}

func Warnf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Sugar().Warnf(format, args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Sugar().Errorf(format, args...)
	}
}

func Error(args ...interface{}) {
	if Logger != nil {
		Logger.Sugar().Error(args...)
	}
}

func Fatalf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if Logger != nil {
		Logger.Error(message)
		Logger.Sync()
	} else {
		log.Print(message)
	}
	os.Exit(1)
}
