// Package logx provides structured logging functionality
package logx

import (
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger to provide a consistent interface
type Logger struct {
	zap   *zap.Logger
	sugar *zap.SugaredLogger
	scope string
}

var (
	mu           sync.RWMutex
	globalLogger *Logger
	// scoped loggers are resolved lazily so GetScope can be used in package vars
	// before Init runs and still pick up the reconfigured core afterwards.
	scopes = map[string]*Logger{}
)

func init() {
	lvl := zapcore.InfoLevel
	if IsLocalDev(os.Getenv("APP_ENV")) {
		lvl = zapcore.DebugLevel
	}
	l, err := build(lvl, "console")
	if err != nil {
		panic(err)
	}
	globalLogger = l
}

// IsLocalDev checks if the environment is local development
func IsLocalDev(appEnv string) bool {
	return appEnv == "local" || appEnv == "dev" || appEnv == "development"
}

func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
}

func loggerConfig(format string) zap.Config {
	config := zap.NewProductionConfig()
	config.Development = false
	config.DisableCaller = false
	config.DisableStacktrace = false
	config.Sampling = nil

	config.EncoderConfig = zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     customTimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	switch strings.ToLower(format) {
	case "json":
		config.Encoding = "json"
		config.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	default:
		config.Encoding = "console"
	}
	return config
}

func build(lvl zapcore.Level, format string) (*Logger, error) {
	config := loggerConfig(format)
	config.Level = zap.NewAtomicLevelAt(lvl)
	zl, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{zap: zl, sugar: zl.Sugar()}, nil
}

// Init configures the global logger. Scoped loggers obtained earlier follow the new core.
func Init(level, format string) {
	l, err := build(parseLevel(level), format)
	if err != nil {
		panic(err)
	}
	mu.Lock()
	globalLogger = l
	for name, s := range scopes {
		named := l.zap.Named(name)
		s.zap, s.sugar = named, named.Sugar()
	}
	mu.Unlock()
}

// GetScope returns a named logger for a subsystem ("main", "cache", "httpx", ...).
func GetScope(name string) *Logger {
	mu.Lock()
	defer mu.Unlock()
	if s, ok := scopes[name]; ok {
		return s
	}
	named := globalLogger.zap.Named(name)
	s := &Logger{zap: named, sugar: named.Sugar(), scope: name}
	scopes[name] = s
	return s
}

// Nop returns a logger that discards everything. Handy in tests.
func Nop() *Logger {
	z := zap.NewNop()
	return &Logger{zap: z, sugar: z.Sugar(), scope: "nop"}
}

// L returns the global sugar logger
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger.sugar
}

// GetLogger returns the underlying zap logger for advanced usage
func GetLogger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger.zap
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
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

// Scope returns the scope name this logger was created with.
func (l *Logger) Scope() string { return l.scope }

// Close flushes any buffered log entries
func (l *Logger) Close() error {
	if l.zap != nil {
		return l.zap.Sync()
	}
	return nil
}

// Sugar returns the sugar logger for key-value style logging
func (l *Logger) Sugar() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return l.sugar
}

// Zap returns the underlying zap logger for structured logging
func (l *Logger) Zap() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return l.zap
}

// Debug logs a debug message with structured fields
func (l *Logger) Debug(msg string, fields ...zap.Field) { l.Zap().Debug(msg, fields...) }

// Info logs an info message with structured fields
func (l *Logger) Info(msg string, fields ...zap.Field) { l.Zap().Info(msg, fields...) }

// Warn logs a warning message with structured fields
func (l *Logger) Warn(msg string, fields ...zap.Field) { l.Zap().Warn(msg, fields...) }

// Error logs an error message with structured fields
func (l *Logger) Error(msg string, fields ...zap.Field) { l.Zap().Error(msg, fields...) }
