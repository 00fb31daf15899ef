package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

const (
	// KeySize is the required length of a master key, in bytes.
	KeySize = 32
	// ivSize is the GCM nonce length used throughout this package.
	ivSize = 12
	// tagSize is the GCM authentication tag length.
	tagSize = 16
)

// Encrypt authenticates and encrypts plaintext under key using AES-256-GCM.
// The returned string is the base64 encoding of IV(12) || tag(16) || ciphertext,
// matching the on-disk layout described for credential and session blobs.
// A fresh IV is drawn from crypto/rand on every call, so repeated calls with
// identical plaintext and key produce distinct ciphertexts.
func Encrypt(plaintext, key []byte) (string, error) {
	if len(key) != KeySize {
		return "", ErrInvalidKeyLength
	}

	iv, ciphertext, tag, err := EncryptParts(plaintext, key)
	if err != nil {
		return "", err
	}

	out := make([]byte, 0, len(iv)+len(tag)+len(ciphertext))
	out = append(out, iv...)
	out = append(out, tag...)
	out = append(out, ciphertext...)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. It fails with ErrCiphertextTooShort if blob
// decodes to fewer than ivSize+tagSize bytes, and with
// ErrAuthenticationFailed if the GCM tag does not verify under key. On any
// failure the returned plaintext is nil; no byte of the rejected buffer is
// included in the returned error.
func Decrypt(blob string, key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeyLength
	}

	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("crypto: decode blob: %w", err)
	}

	if len(raw) < ivSize+tagSize {
		return nil, ErrCiphertextTooShort
	}

	iv := raw[:ivSize]
	tag := raw[ivSize : ivSize+tagSize]
	ciphertext := raw[ivSize+tagSize:]

	return DecryptParts(iv, ciphertext, tag, key)
}

// EncryptParts is like Encrypt but returns the IV, ciphertext, and tag as
// separate byte slices rather than one concatenated base64 blob. It is used
// by callers that persist the on-disk `{iv, ciphertext, tag}` document shape
// (the session vault blob) instead of the single-field credential blob.
func EncryptParts(plaintext, key []byte) (iv, ciphertext, tag []byte, err error) {
	if len(key) != KeySize {
		return nil, nil, nil, ErrInvalidKeyLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("crypto: new cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("crypto: new gcm: %w", err)
	}

	iv = make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, nil, fmt.Errorf("crypto: read iv: %w", err)
	}

	sealed := gcm.Seal(nil, iv, plaintext, nil)
	split := len(sealed) - tagSize

	ciphertext = sealed[:split]
	tag = sealed[split:]

	return iv, ciphertext, tag, nil
}

// DecryptParts reverses EncryptParts.
func DecryptParts(iv, ciphertext, tag, key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeyLength
	}
	if len(iv) != ivSize || len(tag) != tagSize {
		return nil, ErrCiphertextTooShort
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: new cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: new gcm: %w", err)
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	return plaintext, nil
}
