package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileLogger(t *testing.T, cfg Config) (*Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logs", "test.log")
	cfg.FilePath = path
	l, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l, path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("WARNING"))
	assert.Equal(t, ERROR, ParseLevel(" ERROR "))
	assert.Equal(t, INFO, ParseLevel("bogus"))
	assert.Equal(t, "WARN", WARN.String())
}

func TestLogger_WritesFieldsAndCaller(t *testing.T) {
	l, path := newFileLogger(t, Config{Level: INFO, MaxSize: 1 << 20})

	l.Info("user created", F("id", "42"), F("error", errors.New("boom")))

	out := readLog(t, path)
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, `msg="user created"`)
	assert.Contains(t, out, "id=42")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "caller=logger_test.go:")
}

func TestLogger_FiltersBelowLevel(t *testing.T) {
	l, path := newFileLogger(t, Config{Level: WARN, MaxSize: 1 << 20})

	l.Debug("hidden debug")
	l.Info("hidden info")
	l.Warn("shown warn")

	out := readLog(t, path)
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown warn")
}

func TestLogger_WithFieldsPresetsAttributes(t *testing.T) {
	l, path := newFileLogger(t, Config{Level: DEBUG, MaxSize: 1 << 20})

	l.WithFields(F("component", "sync")).Debug("fetched")

	assert.Contains(t, readLog(t, path), "component=sync")
}

func TestLogger_RotatesOnSize(t *testing.T) {
	l, path := newFileLogger(t, Config{Level: INFO, MaxSize: 200, MaxBackups: 2})

	for i := 0; i < 10; i++ {
		l.Info(strings.Repeat("x", 60))
	}

	_, err := os.Stat(path + ".1")
	assert.NoError(t, err, "expected first backup")
	_, err = os.Stat(path + ".3")
	assert.True(t, os.IsNotExist(err), "backups beyond MaxBackups must be pruned")
}

func TestGlobalFunctions_NoopBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() {
		Info("nothing configured")
		assert.Nil(t, WithFields(F("k", "v")))
		assert.NoError(t, Close())
	})
}
