package credential

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrDecryption indicates a credential blob could not be decrypted
// (corrupt blob or wrong key). Callers treat the credential as absent;
// this is never fatal to the process.
var ErrDecryption = errors.New("credential decryption failed")

// Cipher encrypts and decrypts credential secrets with AES-GCM under a
// process-wide key derived from configuration. Only ciphertext plus the
// nonce ever touches persistent storage.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives a 256-bit key from the configured secret and
// prepares an AES-GCM AEAD.
func NewCipher(key string) (*Cipher, error) {
	if key == "" {
		return nil, errors.New("encryption key must not be empty")
	}

	sum := sha256.Sum256([]byte(key))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals the plaintext and returns base64(nonce || ciphertext).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt. Any failure is reported as
// ErrDecryption.
func (c *Cipher) Decrypt(blob string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", fmt.Errorf("%w: blob too short", ErrDecryption)
	}

	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return string(plaintext), nil
}
