//go:build unix

package lockfile

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "ledger.lock")
	first, err := Acquire(path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), strings.TrimSpace(string(data)))

	_, err = Acquire(path)
	assert.ErrorIs(t, err, ErrLockBusy)

	require.NoError(t, first.Release())
	again, err := Acquire(path)
	require.NoError(t, err, "acquire after release")
	require.NoError(t, again.Release())
}

func TestReleaseNilLock(t *testing.T) {
	var l *Lock
	assert.NoError(t, l.Release())
}
