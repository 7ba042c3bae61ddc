// Package secrets encrypts per-shop integration settings at rest.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const keyInfo = "dshop shop config v1"

var (
	// ErrEmptyMasterKey is returned when no encryption key is configured
	ErrEmptyMasterKey = errors.New("secrets: encryption key is empty")
	// ErrDecrypt is returned when a blob cannot be authenticated or decoded
	ErrDecrypt = errors.New("secrets: unable to decrypt config")
)

// Cipher seals values with AES-256-GCM under a key derived from the master key.
// Sealed values are base64(nonce || ciphertext).
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives the data key from masterKey with HKDF-SHA256
func NewCipher(masterKey string) (*Cipher, error) {
	if masterKey == "" {
		return nil, ErrEmptyMasterKey
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(masterKey), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("secrets: derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: gcm}, nil
}

// Seal encrypts plaintext bound to associatedData
func (c *Cipher) Seal(plaintext, associatedData []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("secrets: generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, plaintext, associatedData)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal with the same associatedData
func (c *Cipher) Open(encoded string, associatedData []byte) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	size := c.aead.NonceSize()
	if len(raw) < size {
		return nil, fmt.Errorf("%w: value too short", ErrDecrypt)
	}
	plaintext, err := c.aead.Open(nil, raw[:size], raw[size:], associatedData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return plaintext, nil
}
