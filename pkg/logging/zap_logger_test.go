package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level zapcore.Level) (*ZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewZapLoggerFrom(zap.New(core)), logs
}

func TestZapLogger_LevelsAndFields(t *testing.T) {
	l, logs := observed(zapcore.DebugLevel)

	l.Info("run started", StringField("challenge", "web-01"))
	l.Warn("slow step", IntField("index", 2))
	l.Error("aborted", ErrorField(assert.AnError))
	l.Debug("detail")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "run started", entries[0].Message)
	assert.Equal(t,
		"web-01", entries[0].ContextMap()["challenge"],
	)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[3].Level)
}

func TestZapLogger_WithFields(t *testing.T) {
	l, logs := observed(zapcore.InfoLevel)

	child := l.WithFields(StringField("run", "abc"))
	child.Info("hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "abc", logs.All()[0].ContextMap()["run"])
}

func TestZapLogger_LogCommand(t *testing.T) {
	l, logs := observed(zapcore.DebugLevel)

	l.LogCommand(CommandLog{
		Host: "10.0.0.5", User: "student",
		Command: "id -u bob", ExitStatus: 1,
		Duration: 20 * time.Millisecond,
	})
	l.LogCommand(CommandLog{
		Host: "10.0.0.5", Command: "sleep 99",
		ExitStatus: -1, Error: "timeout",
	})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "id -u bob", entries[0].ContextMap()["command"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "timeout", entries[1].ContextMap()["error"])
}

func TestNewZapLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "engine.log")
	l, err := NewZapLogger(LoggerConfig{
		OutputPath: path,
		Level:      LevelInfo,
		Fields:     map[string]any{"component": "engine"},
	})
	require.NoError(t, err)

	l.Debug("dropped")
	l.Info("kept")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"kept"`)
	assert.Contains(t, string(data), `"component":"engine"`)
	assert.NotContains(t, string(data), "dropped")
}
