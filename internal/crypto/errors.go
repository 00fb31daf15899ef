// Package crypto implements the authenticated-encryption, key-derivation,
// and secure-wipe primitives shared by the vault and the session store.
//
// A single scheme (AES-256-GCM) is used everywhere so callers never have to
// reason about an encrypt-then-MAC versus MAC-then-encrypt footgun: the
// blob produced by Encrypt is self-framing and self-authenticating.
package crypto

import "errors"

// ErrInvalidKeyLength is returned when a key is not exactly KeySize bytes.
var ErrInvalidKeyLength = errors.New("crypto: key must be exactly 32 bytes")

// ErrCiphertextTooShort is returned when a blob is too small to contain an
// IV and an authentication tag.
var ErrCiphertextTooShort = errors.New("crypto: ciphertext shorter than iv+tag")

// ErrAuthenticationFailed is returned when the GCM tag does not verify.
// Never wraps or includes any byte of the rejected ciphertext.
var ErrAuthenticationFailed = errors.New("crypto: authentication failed")
