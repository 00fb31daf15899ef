// Package filelock provides a cross-process advisory file lock used to
// serialize load-mutate-save sequences against a shared document path.
// It is the single-writer-per-process discipline the vault and the
// session store both rely on; it does not protect against two independent
// processes racing on unrelated files.
package filelock

import (
	"fmt"
	"os"
)

// Guard holds an open, locked lock file. Release closes it and drops the
// advisory lock.
type Guard struct {
	f *os.File
}

// Acquire opens (creating if needed) the lock file at path and blocks until
// an exclusive advisory lock is held.
func Acquire(path string) (*Guard, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("filelock: open %s: %w", path, err)
	}

	if err := Lock(f.Fd()); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("filelock: lock %s: %w", path, err)
	}

	return &Guard{f: f}, nil
}

// Release unlocks and closes the lock file.
func (g *Guard) Release() error {
	if g == nil || g.f == nil {
		return nil
	}
	_ = Unlock(g.f.Fd())
	return g.f.Close()
}
