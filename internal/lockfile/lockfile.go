// Package lockfile guards the ledger with an advisory file lock so that two
// nextai invocations in the same project do not interleave read-modify-write
// cycles. The engine itself stays lock-free; callers take the lock around a
// mutating command.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ErrLockBusy is returned when another process already holds the lock.
var ErrLockBusy = errors.New("lockfile: ledger lock is held by another nextai process")

// Lock is an acquired advisory lock.
type Lock struct {
	file *os.File
}

// Acquire takes an exclusive non-blocking lock on path, creating the file if
// needed. The holder's pid is written into the file for diagnostics.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("lockfile: ensure dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("lockfile: open %s: %w", path, err)
	}
	if err := flockExclusive(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.Truncate(0); err == nil {
		_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}
	return &Lock{file: f}, nil
}

// Release unlocks and closes the lock file. Safe on a nil lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := flockUnlock(l.file)
	closeErr := l.file.Close()
	l.file = nil
	return errors.Join(unlockErr, closeErr)
}
