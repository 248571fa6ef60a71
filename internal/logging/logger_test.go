package logging

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

func TestPrintfAppendsTimestampedLines(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	logger, err := New(dir)
	require.NoError(t, err)
	logger.clock = func() time.Time { return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC) }
	var mirror bytes.Buffer
	logger.Mirror(&mirror)

	logger.Printf("metrics: recompute %s failed\n", "login")
	logger.Printf("second")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[2026-02-03T04:05:06Z] metrics: recompute login failed", lines[0])
	assert.Contains(t, mirror.String(), "nextai: second")
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Printf("ignored")
	logger.Mirror(nil)
	assert.NoError(t, logger.Close())
}
