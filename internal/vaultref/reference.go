// Package vaultref allocates and parses opaque credential reference ids of
// the form cred_<service>_<type>_<4-hex>.
package vaultref

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Prefix is the literal leading component of every reference id.
const Prefix = "cred"

// ErrInvalidFormat is returned when a string does not parse as a reference id.
var ErrInvalidFormat = errors.New("vaultref: invalid reference id format")

// idPattern anchors on the leading "cred_" literal and the trailing 4-hex
// group, with everything between interpreted as "service_type". Service is
// alphanumeric; type may itself contain underscores (e.g. oauth_token), so
// the split between service and type happens after the regex match, not
// inside it.
var idPattern = regexp.MustCompile(`^cred_([a-zA-Z0-9]+)_(.+)_([0-9a-f]{4})$`)

// Reference is a parsed reference id.
type Reference struct {
	Service string
	Type    string
	Hash    string
}

// String reconstructs the canonical id string for a Reference.
func (r Reference) String() string {
	return fmt.Sprintf("%s_%s_%s_%s", Prefix, r.Service, r.Type, r.Hash)
}

// Generate allocates a new reference id for (service, type). The 4-hex
// suffix is derived from SHA-256(service || type || now || 8 random bytes),
// truncated to its first two bytes. The 8 random bytes are the first half
// of a freshly generated UUID, the same entropy source the rest of this
// module draws ids from. Generation never panics.
func Generate(service, typ string) (string, error) {
	ref, err := generate(service, typ)
	if err != nil {
		return "", err
	}
	return ref.String(), nil
}

func generate(service, typ string) (Reference, error) {
	id := uuid.New()
	entropy := id[:8]

	var buf strings.Builder
	buf.WriteString(service)
	buf.WriteByte(0)
	buf.WriteString(typ)
	buf.WriteByte(0)

	var tsBytes [8]byte
	binary.BigEndian.PutUint64(tsBytes[:], uint64(time.Now().UnixNano()))
	buf.Write(tsBytes[:])
	buf.Write(entropy)

	sum := sha256.Sum256([]byte(buf.String()))
	hash := hex.EncodeToString(sum[:2]) // 4 hex chars

	return Reference{Service: service, Type: typ, Hash: hash}, nil
}

// Parse splits a reference id string back into its (service, type, hash)
// components. It never panics; malformed input returns ErrInvalidFormat.
func Parse(id string) (Reference, error) {
	m := idPattern.FindStringSubmatch(id)
	if m == nil {
		return Reference{}, ErrInvalidFormat
	}
	return Reference{Service: m[1], Type: m[2], Hash: m[3]}, nil
}

// Valid reports whether id parses as a well-formed reference.
func Valid(id string) bool {
	_, err := Parse(id)
	return err == nil
}
