// Package aesutil provides AES-256-GCM authenticated encryption for
// callers that want to cache a transfer.Response body at rest (e.g. a
// disk-backed response cache) without storing it in the clear. The
// construction is random nonce, then ciphertext, then the GCM
// authentication tag, all in one buffer.
package aesutil

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// ErrInvalidKeySize is returned when a key is not exactly KeySize bytes.
var ErrInvalidKeySize = errors.New("aesutil: key must be 32 bytes for AES-256-GCM")

// Seal encrypts plaintext under key, authenticating aad (may be nil),
// and returns nonce||ciphertext||tag as a single buffer. The random
// nonce is prepended so Open needs no side channel for it.
func Seal(key, plaintext, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("aesutil: generating nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, aad)
	return sealed, nil
}

// Open reverses Seal: it splits the nonce back off sealed, verifies the
// authentication tag, and returns the recovered plaintext. A mismatched
// key, aad, or tampered ciphertext all surface as the same error.
func Open(key, sealed, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(sealed) < gcm.NonceSize() {
		return nil, errors.New("aesutil: sealed data shorter than nonce")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("aesutil: authentication failed: %w", err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
