package crypto

import (
	"bytes"
	"testing"
)

func mustKey(t *testing.T) []byte {
	t.Helper()
	key, err := RandomKey()
	if err != nil {
		t.Fatalf("RandomKey: %v", err)
	}
	return key
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := mustKey(t)
	plaintext := []byte("sk-test-key-12345")

	blob, err := Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	got, err := Decrypt(blob, key)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q want %q", got, plaintext)
	}
}

func TestDecryptWrongKeyFails(t *testing.T) {
	key1 := mustKey(t)
	key2 := mustKey(t)

	blob, err := Encrypt([]byte("secret"), key1)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, err := Decrypt(blob, key2); err != ErrAuthenticationFailed {
		t.Fatalf("Decrypt with wrong key: got %v, want ErrAuthenticationFailed", err)
	}
}

func TestEncryptRejectsBadKeyLength(t *testing.T) {
	if _, err := Encrypt([]byte("x"), []byte("short")); err != ErrInvalidKeyLength {
		t.Fatalf("got %v, want ErrInvalidKeyLength", err)
	}
}

func TestDecryptRejectsShortCiphertext(t *testing.T) {
	key := mustKey(t)
	// base64 of 10 raw bytes, well under ivSize+tagSize.
	if _, err := Decrypt("c2hvcnRieXRlcw==", key); err != ErrCiphertextTooShort {
		t.Fatalf("got %v, want ErrCiphertextTooShort", err)
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	key := mustKey(t)
	plaintext := []byte("same plaintext every time")

	seen := make(map[string]struct{})
	for i := 0; i < 8; i++ {
		blob, err := Encrypt(plaintext, key)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		seen[blob] = struct{}{}
	}
	if len(seen) != 8 {
		t.Fatalf("expected 8 distinct ciphertexts, got %d", len(seen))
	}
}

func TestEncryptPartsDecryptPartsRoundTrip(t *testing.T) {
	key := mustKey(t)
	plaintext := []byte("gzip(pack(scratch dir))")

	iv, ciphertext, tag, err := EncryptParts(plaintext, key)
	if err != nil {
		t.Fatalf("EncryptParts: %v", err)
	}

	got, err := DecryptParts(iv, ciphertext, tag, key)
	if err != nil {
		t.Fatalf("DecryptParts: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q want %q", got, plaintext)
	}
}

func TestDecryptPartsAuthenticationFailure(t *testing.T) {
	key := mustKey(t)
	iv, ciphertext, tag, err := EncryptParts([]byte("hello"), key)
	if err != nil {
		t.Fatalf("EncryptParts: %v", err)
	}
	tag[0] ^= 0xFF

	if _, err := DecryptParts(iv, ciphertext, tag, key); err != ErrAuthenticationFailed {
		t.Fatalf("got %v, want ErrAuthenticationFailed", err)
	}
}
