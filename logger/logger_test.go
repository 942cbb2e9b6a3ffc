package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetLevelFromEnv(t *testing.T) {
	t.Setenv("DBCACHE_LOG_LEVEL", "trace")
	assert.Equal(t, LevelTrace, GetLevelFromEnv())
	t.Setenv("DBCACHE_LOG_LEVEL", "ERROR")
	assert.Equal(t, LevelError, GetLevelFromEnv())
	t.Setenv("DBCACHE_LOG_LEVEL", "bogus")
	assert.Equal(t, LevelInfo, GetLevelFromEnv())
}

func TestConsoleLevelGating(t *testing.T) {
	l := NewConsoleLogger(LevelWarn)
	assert.False(t, l.IsLevelEnabled(LevelDebug))
	assert.False(t, l.IsLevelEnabled(LevelInfo))
	assert.True(t, l.IsLevelEnabled(LevelWarn))
	assert.True(t, l.IsLevelEnabled(LevelError))
}

func TestTestLoggerCapture(t *testing.T) {
	l := NewTestLogger()
	l.Info("hello %s", "world")
	l.Warn("careful")
	logs := l.Logs()
	assert.Len(t, logs, 2)
	assert.Equal(t, "INFO", logs[0].Severity)
	assert.Equal(t, "hello %s", logs[0].Message)
	assert.Equal(t, "WARN", logs[1].Severity)
}

func TestTestLoggerWithSharesEntries(t *testing.T) {
	l := NewTestLogger()
	child := l.With(map[string]interface{}{"cache": "PLUGINS"})
	child.Error("boom")
	assert.Len(t, l.Logs(), 1)
}
