package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetLevelFromEnv(t *testing.T) {
	t.Setenv("HASHCACHE_LOG_LEVEL", "debug")
	assert.Equal(t, LevelDebug, GetLevelFromEnv())
	t.Setenv("HASHCACHE_LOG_LEVEL", "ERROR")
	assert.Equal(t, LevelError, GetLevelFromEnv())
	t.Setenv("HASHCACHE_LOG_LEVEL", "bogus")
	assert.Equal(t, LevelWarn, GetLevelFromEnv())
	t.Setenv("HASHCACHE_LOG_LEVEL", "")
	assert.Equal(t, LevelWarn, GetLevelFromEnv())
}

func TestConsoleLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleWith(&buf, LevelWarn)
	log.Debug("hidden %d", 1)
	log.Info("also hidden")
	assert.Empty(t, buf.String())
	log.Warn("shown %s", "here")
	out := buf.String()
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "shown here")
}

func TestConsolePrefixAndMetadata(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleWith(&buf, LevelTrace).
		WithPrefix("[store]").
		With(map[string]interface{}{"dir": "/tmp/x"})
	log.Error("boom")
	out := buf.String()
	assert.Contains(t, out, "[ERROR]")
	assert.Contains(t, out, "[store]")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, `"dir":"/tmp/x"`)
}

func TestConsoleWithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewConsoleWith(&buf, LevelTrace)
	parent.With(map[string]interface{}{"child": true})
	parent.Info("plain")
	assert.NotContains(t, buf.String(), "child")
}

func TestIsLevelEnabled(t *testing.T) {
	log := NewConsoleWith(&bytes.Buffer{}, LevelInfo)
	assert.False(t, log.IsLevelEnabled(LevelDebug))
	assert.True(t, log.IsLevelEnabled(LevelInfo))
	assert.True(t, log.IsLevelEnabled(LevelError))
}

func TestTestLoggerCapturesEntries(t *testing.T) {
	log := NewTestLogger()
	log.Warn("record %s is corrupted", "/tmp/x.cache")
	log.Info("hello")
	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0].Severity)
	assert.Equal(t, "record %s is corrupted", entries[0].Message)
	assert.Equal(t, []interface{}{"/tmp/x.cache"}, entries[0].Arguments)
	assert.Equal(t, "INFO", entries[1].Severity)
}

func TestZapBridge(t *testing.T) {
	log := NewTestLogger()
	z := ToZap(log)
	z.Warn("from zap")
	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "WARN", entries[0].Severity)
	assert.Equal(t, "from zap", entries[0].Message)
}

func TestZapBridgeTypedFields(t *testing.T) {
	// zap.String and friends store their value in typed slots, not
	// Field.Interface; the bridge must resolve them. Arguments come
	// through as sorted key/value pairs.
	log := NewTestLogger()
	z := ToZap(log)
	z.Warn("corrupt record", zap.String("path", "/tmp/x.cache"), zap.Int("size", 3))
	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, []interface{}{"path", "/tmp/x.cache", "size", int64(3)}, entries[0].Arguments)
}

func TestZapBridgeHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	z := ToZap(NewConsoleWith(&buf, LevelError))
	z.Debug("hidden")
	z.Info("also hidden")
	assert.Empty(t, buf.String())
	z.Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestFromZapSatisfiesLogger(t *testing.T) {
	inner := NewTestLogger()
	round := FromZap(ToZap(inner))
	round.WithPrefix("[cache]").Warn("corrupt record at %s", "/tmp/y.cache")
	entries := inner.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "WARN", entries[0].Severity)
	assert.Contains(t, entries[0].Message, "/tmp/y.cache")
	assert.Contains(t, entries[0].Message, "[cache]")
}
