package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name          string
		level         string
		expectedLevel string
	}{
		{"valid debug level", LevelDebug, LevelDebug},
		{"valid info level", LevelInfo, LevelInfo},
		{"lowercase is accepted", "warn", LevelWarn},
		{"valid error level", LevelError, LevelError},
		{"invalid level defaults to debug", "invalid", LevelDebug},
		{"empty level defaults to debug", "", LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := NewLogger(tt.level)
			require.NotNil(t, log)
			assert.Equal(t, tt.expectedLevel, log.Level())
			assert.Empty(t, log.dir)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: LevelWarn, Output: &buf})

	log.Debug("debug %d", 1)
	log.Info("info %d", 2)
	log.Warn("warn %d", 3)
	log.Error("error %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "debug 1")
	assert.NotContains(t, out, "info 2")
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "warn 3")
	assert.Contains(t, out, "[ERROR]")
	assert.Contains(t, out, "error 4")
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: LevelError, Output: &buf})

	log.SetLevel("bogus")
	assert.Equal(t, LevelError, log.Level())

	log.SetLevel("debug")
	log.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestQuietLogger(t *testing.T) {
	log := Discard()
	assert.Nil(t, log.out)
	log.Error("dropped")
}

func TestGetLogFilename(t *testing.T) {
	t1 := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	t2 := time.Date(2024, 1, 15, 23, 59, 59, 0, time.UTC)
	t3 := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "2024-01-15.log", getLogFilename(t1))
	assert.Equal(t, getLogFilename(t1), getLogFilename(t2))
	assert.NotEqual(t, getLogFilename(t1), getLogFilename(t3))
}

func TestGetDayKey(t *testing.T) {
	sameA := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	sameB := time.Date(2024, 6, 15, 23, 59, 59, 0, time.UTC)
	nextDay := time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)
	nextYear := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, getDayKey(sameA), getDayKey(sameB))
	assert.NotEqual(t, getDayKey(sameA), getDayKey(nextDay))
	assert.NotEqual(t, getDayKey(sameA), getDayKey(nextYear))
}

func TestFileLogging(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	log := New(Options{Level: LevelDebug, Dir: dir, Quiet: true})
	defer log.Close()

	log.Info("written to file")

	data, err := os.ReadFile(filepath.Join(dir, getLogFilename(time.Now())))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "written to file"))
}

func TestSetDirDisablesFileLogging(t *testing.T) {
	dir := t.TempDir()
	log := New(Options{Level: LevelDebug, Dir: dir, Quiet: true})
	log.Info("first")
	require.NoError(t, log.SetDir(""))
	log.Info("second")

	data, err := os.ReadFile(filepath.Join(dir, getLogFilename(time.Now())))
	require.NoError(t, err)
	assert.Contains(t, string(data), "first")
	assert.NotContains(t, string(data), "second")
}
