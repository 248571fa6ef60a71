//go:build !unix

package lockfile

import "os"

// Non-unix builds run without advisory locking; the single-writer
// assumption still holds.
func flockExclusive(f *os.File) error {
	return nil
}

func flockUnlock(f *os.File) error {
	return nil
}
