package crypto

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
)

// wipePasses is the number of random overwrite passes performed before
// unlinking a file. Three passes is defense-in-depth, not a guarantee: on a
// copy-on-write filesystem the original blocks may survive regardless of
// how many times the logical file is overwritten.
const wipePasses = 3

// SecureWipeFile overwrites the file at path with wipePasses passes of
// cryptographically random bytes matching its current length, then unlinks
// it. Missing files are treated as already wiped (not an error).
func SecureWipeFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("crypto: stat %s: %w", path, err)
	}
	size := info.Size()

	if err := overwriteFile(path, size); err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("crypto: remove %s: %w", path, err)
	}
	return nil
}

func overwriteFile(path string, size int64) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("crypto: open %s for wipe: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, size)
	for pass := 0; pass < wipePasses; pass++ {
		if _, err := io.ReadFull(rand.Reader, buf); err != nil {
			return fmt.Errorf("crypto: fill wipe buffer: %w", err)
		}
		if _, err := f.WriteAt(buf, 0); err != nil {
			return fmt.Errorf("crypto: overwrite %s: %w", path, err)
		}
		if err := f.Sync(); err != nil {
			return fmt.Errorf("crypto: sync %s: %w", path, err)
		}
	}
	return nil
}

// Zero overwrites a byte slice with zero bytes in place. Callers that hold
// decrypted secrets or master-key material in a buffer should call Zero on
// it as soon as the buffer is no longer needed, rather than relying on
// garbage collection.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
