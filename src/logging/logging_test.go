package logging

import (
	"bytes"
	"os"
	"testing"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToWarn(t *testing.T) {
	t.Setenv(DebugEnv, "")
	var buf bytes.Buffer
	l, err := New(Options{Stderr: &buf})
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown")

	assert.Equal(t, logrus.WarnLevel, l.GetLevel())
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	require.Error(t, err)
}

func TestDebugWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	l, err := New(Options{Debug: true, LogDir: dir, Stderr: &buf})
	require.NoError(t, err)

	l.Debug("turn started")
	require.NotEmpty(t, l.Path())
	require.NoError(t, l.Close())

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "turn started")
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
}

func TestDebugEnv(t *testing.T) {
	t.Setenv(DebugEnv, "1")
	l, err := New(Options{Stderr: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
	assert.Equal(t, "EXPLICACI...", Truncate("EXPLICACIÓN", 10))
	assert.True(t, utf8.ValidString(Truncate("ñññ", 3)))
}

func TestCloseTwiceFallsBackToStderr(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Debug: true, LogDir: t.TempDir(), Stderr: &buf})
	require.NoError(t, err)

	done := make(chan error, 2)
	go func() { done <- l.Close() }()
	go func() { done <- l.Close() }()
	require.NoError(t, <-done)
	require.NoError(t, <-done)

	l.Warn("after close")
	assert.Contains(t, buf.String(), "after close")
}
