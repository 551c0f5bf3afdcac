package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig configures the ZapLogger.
type LoggerConfig struct {
	// OutputPath is a file to append log lines to. Empty
	// means stderr.
	OutputPath string

	// Level is the minimum level emitted.
	Level LogLevel

	// Format is "json" (default) or "console".
	Format string

	// Fields are attached to every entry.
	Fields map[string]any
}

// ZapLogger implements Logger on top of a zap.Logger.
type ZapLogger struct {
	z      *zap.Logger
	closer io.Closer
}

// NewZapLogger builds a ZapLogger from the given config.
func NewZapLogger(config LoggerConfig) (*ZapLogger, error) {
	var (
		sink   zapcore.WriteSyncer
		closer io.Closer
	)
	if config.OutputPath != "" {
		dir := filepath.Dir(config.OutputPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf(
				"failed to create log directory: %w", err,
			)
		}
		file, err := os.OpenFile(
			config.OutputPath,
			os.O_CREATE|os.O_WRONLY|os.O_APPEND,
			0o644,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to open log file: %w", err,
			)
		}
		sink = zapcore.AddSync(file)
		closer = file
	} else {
		sink = zapcore.Lock(os.Stderr)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if config.Format == "console" {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, sink, zapLevel(config.Level))
	z := zap.New(core)
	if len(config.Fields) > 0 {
		fs := make([]zap.Field, 0, len(config.Fields))
		for k, v := range config.Fields {
			fs = append(fs, zap.Any(k, v))
		}
		z = z.With(fs...)
	}
	return &ZapLogger{z: z, closer: closer}, nil
}

// NewZapLoggerFrom wraps an existing zap.Logger, e.g. one built
// by zaptest.
func NewZapLoggerFrom(z *zap.Logger) *ZapLogger {
	return &ZapLogger{z: z}
}

func zapLevel(l LogLevel) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func toZap(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = zap.Any(f.Key, f.Value)
	}
	return out
}

// Info logs an informational message.
func (l *ZapLogger) Info(msg string, fields ...Field) {
	l.z.Info(msg, toZap(fields)...)
}

// Warn logs a warning message.
func (l *ZapLogger) Warn(msg string, fields ...Field) {
	l.z.Warn(msg, toZap(fields)...)
}

// Error logs an error message.
func (l *ZapLogger) Error(msg string, fields ...Field) {
	l.z.Error(msg, toZap(fields)...)
}

// Debug logs a debug message.
func (l *ZapLogger) Debug(msg string, fields ...Field) {
	l.z.Debug(msg, toZap(fields)...)
}

// WithFields returns a child logger sharing the same core.
func (l *ZapLogger) WithFields(fields ...Field) Logger {
	return &ZapLogger{z: l.z.With(toZap(fields)...)}
}

// LogCommand logs a remote command at debug level, or at warn
// level when the command produced a channel error.
func (l *ZapLogger) LogCommand(entry CommandLog) {
	fs := []zap.Field{
		zap.String("host", entry.Host),
		zap.String("user", entry.User),
		zap.String("command", entry.Command),
		zap.Int("exit_status", entry.ExitStatus),
		zap.Duration("duration", entry.Duration),
	}
	if entry.Error != "" {
		l.z.Warn("remote command error",
			append(fs, zap.String("error", entry.Error))...,
		)
		return
	}
	l.z.Debug("remote command", fs...)
}

// Close flushes zap and closes the output file if one was
// opened.
func (l *ZapLogger) Close() error {
	// Sync on stderr returns EINVAL on some platforms.
	_ = l.z.Sync()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
