package session

import (
	"bytes"
	"compress/gzip"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vaultgate/vaultgate/internal/crypto"
	"github.com/vaultgate/vaultgate/internal/filelock"
	"github.com/vaultgate/vaultgate/internal/pack"
)

// Store implements the Closed -> Opening -> Open -> Flushing -> Open ...
// -> Closing -> Closed lifecycle for one (vault file, scratch directory)
// pair. Opening and Flushing are internal; callers only ever observe
// Closed, Open, and ClosedAfterError. A Store guards exactly one open at
// a time; a second concurrent Open is rejected rather than attempting
// rendezvous with the first.
type Store struct {
	key           []byte
	vaultPath     string
	flushInterval time.Duration

	mu         sync.Mutex
	state      State
	scratchDir string
	stopFlush  chan struct{}
	flushDone  chan struct{}
}

// New constructs a Store bound to vaultPath, starting Closed. flushInterval
// of zero disables the periodic flush timer; the store still flushes once
// on Close. The master key must be exactly crypto.KeySize bytes.
func New(key []byte, vaultPath string, flushInterval time.Duration) (*Store, error) {
	if len(key) != crypto.KeySize {
		return nil, crypto.ErrInvalidKeyLength
	}
	return &Store{
		key:           key,
		vaultPath:     vaultPath,
		flushInterval: flushInterval,
		state:         Closed,
	}, nil
}

// State returns the store's current externally visible lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open requires Closed. It allocates a private, owner-only scratch
// directory, imports the previous vault file's contents into it if one
// exists, starts the periodic flush timer, and returns the scratch
// directory's path.
func (s *Store) Open() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Closed {
		return "", ErrNotClosed
	}

	scratchDir := filepath.Join(os.TempDir(), "vaultgate-session-"+uuid.NewString())
	if err := os.Mkdir(scratchDir, 0o700); err != nil {
		return "", fmt.Errorf("session: create scratch dir: %w", err)
	}

	if err := s.importExistingLocked(scratchDir); err != nil {
		_ = os.RemoveAll(scratchDir)
		return "", err
	}

	s.scratchDir = scratchDir
	s.state = Open
	s.startFlushTimerLocked()

	return s.scratchDir, nil
}

// importExistingLocked reads and decrypts the vault file at s.vaultPath, if
// present, and unpacks it into scratchDir. A missing vault file is not an
// error: the scratch directory simply starts empty.
func (s *Store) importExistingLocked(scratchDir string) error {
	data, err := os.ReadFile(s.vaultPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("session: read %s: %w", s.vaultPath, err)
	}

	packed, err := decryptBlob(data, s.key)
	if err != nil {
		return err
	}

	if err := pack.ToDir(packed, scratchDir); err != nil {
		return fmt.Errorf("session: unpack into scratch dir: %w", err)
	}
	return nil
}

func (s *Store) startFlushTimerLocked() {
	if s.flushInterval <= 0 {
		return
	}

	s.stopFlush = make(chan struct{})
	s.flushDone = make(chan struct{})

	go func(stop chan struct{}, done chan struct{}, interval time.Duration) {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = s.Flush()
			}
		}
	}(s.stopFlush, s.flushDone, s.flushInterval)
}

// Flush requires Open. It packs a snapshot of the scratch directory,
// gzips, encrypts, and atomically writes the result to the vault path. It
// is safe to call repeatedly and safe against concurrent external
// modification of the scratch directory: the pack is a point-in-time read.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	if s.state != Open {
		return ErrNotOpen
	}

	packed, err := pack.Dir(s.scratchDir)
	if err != nil {
		return fmt.Errorf("session: pack scratch dir: %w", err)
	}

	blob, err := encryptBlob(packed, s.key)
	if err != nil {
		return err
	}

	return atomicWriteBlob(s.vaultPath, blob)
}

// Close requires Open. It stops the flush timer, performs a final flush,
// securely wipes every file in the scratch directory, removes it, and
// transitions to Closed. It is idempotent: calling Close while already
// Closed is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		return nil
	}
	if s.state != Open {
		s.mu.Unlock()
		return ErrNotOpen
	}
	stopCh, doneCh := s.stopFlush, s.flushDone
	s.mu.Unlock()

	// Stop the timer and wait for its goroutine to exit without holding
	// s.mu: the goroutine may be mid-Flush and needs the lock itself to
	// finish and observe the stop signal on its next loop iteration.
	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopFlush = nil
	s.flushDone = nil

	flushErr := s.flushLocked()
	wipeErr := wipeDir(s.scratchDir)

	s.scratchDir = ""

	if flushErr != nil || wipeErr != nil {
		s.state = ClosedAfterError
		if flushErr != nil {
			return fmt.Errorf("session: final flush: %w", flushErr)
		}
		return fmt.Errorf("session: wipe scratch dir: %w", wipeErr)
	}

	s.state = Closed
	return nil
}

// ImportPlaintext requires Closed. It packs a real plaintext directory,
// encrypts it, and writes the vault file, without opening the store. It is
// used by one-shot migration flows that never need a live scratch
// directory.
func (s *Store) ImportPlaintext(sourceDir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Closed {
		return ErrNotClosed
	}

	packed, err := pack.Dir(sourceDir)
	if err != nil {
		return fmt.Errorf("session: pack source dir: %w", err)
	}

	blob, err := encryptBlob(packed, s.key)
	if err != nil {
		return err
	}

	return atomicWriteBlob(s.vaultPath, blob)
}

func encryptBlob(packed []byte, key []byte) ([]byte, error) {
	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	if _, err := w.Write(packed); err != nil {
		return nil, fmt.Errorf("session: gzip: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("session: gzip close: %w", err)
	}

	iv, ciphertext, tag, err := crypto.EncryptParts(gz.Bytes(), key)
	if err != nil {
		return nil, fmt.Errorf("session: encrypt: %w", err)
	}

	doc := blobDocument{
		Version:    SchemaVersion,
		IV:         hex.EncodeToString(iv),
		Ciphertext: hex.EncodeToString(ciphertext),
		Tag:        hex.EncodeToString(tag),
	}
	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("session: marshal blob: %w", err)
	}
	return append(data, '\n'), nil
}

func decryptBlob(data []byte, key []byte) ([]byte, error) {
	var doc blobDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("session: parse blob: %w", err)
	}
	if doc.Version != SchemaVersion {
		return nil, ErrUnsupportedBlobVersion
	}

	iv, err := hex.DecodeString(doc.IV)
	if err != nil {
		return nil, fmt.Errorf("session: decode iv: %w", err)
	}
	ciphertext, err := hex.DecodeString(doc.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("session: decode ciphertext: %w", err)
	}
	tag, err := hex.DecodeString(doc.Tag)
	if err != nil {
		return nil, fmt.Errorf("session: decode tag: %w", err)
	}

	gzipped, err := crypto.DecryptParts(iv, ciphertext, tag, key)
	if err != nil {
		return nil, err
	}

	r, err := gzip.NewReader(bytes.NewReader(gzipped))
	if err != nil {
		return nil, fmt.Errorf("session: gzip reader: %w", err)
	}
	defer r.Close()

	packed, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("session: gunzip: %w", err)
	}
	return packed, nil
}

// atomicWriteBlob writes data to path via a same-directory temp file,
// fsync, and rename, guarded by a cross-process advisory lock.
func atomicWriteBlob(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("session: create vault dir: %w", err)
	}

	guard, err := filelock.Acquire(path + ".lock")
	if err != nil {
		return fmt.Errorf("session: acquire lock: %w", err)
	}
	defer func() { _ = guard.Release() }()

	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("session: create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("session: write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("session: fsync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("session: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("session: rename temp to vault: %w", err)
	}

	return os.Chmod(path, 0o600)
}

// WipeDir securely wipes every regular file directly inside dir, then
// removes dir itself. Exposed for callers (such as the session CLI
// commands) that manage a scratch directory's lifetime across separate
// process invocations rather than through a single Store's Open/Close.
func WipeDir(dir string) error {
	return wipeDir(dir)
}

// wipeDir securely wipes every regular file directly inside dir, then
// removes dir itself.
func wipeDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("session: read scratch dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := crypto.SecureWipeFile(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}

	return os.RemoveAll(dir)
}
