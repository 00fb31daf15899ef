// Package pack implements a flat, single-level archive format for bundling
// the small working files of a session directory into one byte stream:
// a sequence of [u32be name_len][name][u32be data_len][data] records, sorted
// by name. It carries no file mode or timestamp metadata and is not meant
// for arbitrary filesystem trees, only for the tens of small files a
// session scratch directory holds.
package pack

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MaxNameLength is the largest encodable file name, in bytes.
const MaxNameLength = 255

var (
	// ErrNameTooLong is returned by Dir/Pack when a file name exceeds
	// MaxNameLength.
	ErrNameTooLong = fmt.Errorf("pack: name exceeds %d bytes", MaxNameLength)
	// ErrNameHasSeparator is returned by Dir/Pack when a file name contains
	// a filesystem separator.
	ErrNameHasSeparator = fmt.Errorf("pack: name contains a path separator")
)

// Dir reads every non-directory entry directly inside dir (not recursively)
// and packs them, sorted by name, into a single buffer.
func Dir(dir string) ([]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("pack: read dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	files := make(map[string][]byte, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("pack: read %s: %w", name, err)
		}
		files[name] = data
	}

	return Pack(names, files)
}

// Pack writes a frame for each name in names (in the given order) using the
// bytes in files. Callers that want a stable archive should pass names
// already sorted, as Dir does.
func Pack(names []string, files map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	for _, name := range names {
		if err := validateOutgoingName(name); err != nil {
			return nil, err
		}
		data := files[name]

		if err := writeFrame(&buf, name, data); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func validateOutgoingName(name string) error {
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: %q", ErrNameTooLong, name)
	}
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, os.PathSeparator) {
		return fmt.Errorf("%w: %q", ErrNameHasSeparator, name)
	}
	return nil
}

func writeFrame(buf *bytes.Buffer, name string, data []byte) error {
	nameBytes := []byte(name)
	if err := binary.Write(buf, binary.BigEndian, uint32(len(nameBytes))); err != nil {
		return fmt.Errorf("pack: write name length: %w", err)
	}
	buf.Write(nameBytes)

	if err := binary.Write(buf, binary.BigEndian, uint32(len(data))); err != nil {
		return fmt.Errorf("pack: write data length: %w", err)
	}
	buf.Write(data)

	return nil
}

// Unpack decodes frames from data until the buffer is exhausted. Entries
// whose name contains a separator, starts with a dot, or exceeds
// MaxNameLength are skipped rather than rejected outright. A length field
// that would run past the end of the buffer truncates the read instead of
// panicking; the resulting partial frame is then subject to the same
// skip rules before being dropped.
func Unpack(data []byte) (map[string][]byte, error) {
	out := make(map[string][]byte)
	r := bytes.NewReader(data)

	for r.Len() > 0 {
		name, payload, ok := readFrame(r)
		if !ok {
			break
		}
		if !acceptableName(name) {
			continue
		}
		out[name] = payload
	}

	return out, nil
}

func acceptableName(name string) bool {
	if name == "" {
		return false
	}
	if len(name) > MaxNameLength {
		return false
	}
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, os.PathSeparator) {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	return true
}

// readFrame reads one [len][bytes][len][bytes] frame, truncating cleanly
// (ok=false) if the declared length runs past the remaining buffer.
func readFrame(r *bytes.Reader) (name string, data []byte, ok bool) {
	nameLen, ok := readLength(r)
	if !ok {
		return "", nil, false
	}
	nameBytes, ok := readN(r, nameLen)
	if !ok {
		return "", nil, false
	}

	dataLen, ok := readLength(r)
	if !ok {
		return "", nil, false
	}
	dataBytes, ok := readN(r, dataLen)
	if !ok {
		return "", nil, false
	}

	return string(nameBytes), dataBytes, true
}

func readLength(r *bytes.Reader) (uint32, bool) {
	var buf [4]byte
	n, err := r.Read(buf[:])
	if err != nil || n != 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(buf[:]), true
}

func readN(r *bytes.Reader, n uint32) ([]byte, bool) {
	if int64(n) > int64(r.Len()) {
		return nil, false
	}
	buf := make([]byte, n)
	read, err := r.Read(buf)
	if err != nil || uint32(read) != n {
		return nil, false
	}
	return buf, true
}

// ToDir writes every unpacked entry from data into dir, creating dir if
// needed with owner-only permissions. Unsafe entry names are skipped by
// Unpack before ToDir ever sees them.
func ToDir(data []byte, dir string) error {
	files, err := Unpack(data)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("pack: create dir %s: %w", dir, err)
	}

	for name, payload := range files {
		dest := filepath.Join(dir, name)
		if err := os.WriteFile(dest, payload, 0o600); err != nil {
			return fmt.Errorf("pack: write %s: %w", dest, err)
		}
	}

	return nil
}
