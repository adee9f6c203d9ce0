// Package security seals credential material, such as session keys, before
// it reaches a shared session store.
package security

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// Cipher seals and opens opaque values.
type Cipher interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

type Option func(*AppKeyCipher)

// AppKeyCipher encrypts with AES-GCM under a key derived from application key
// material.
type AppKeyCipher struct {
	key     []byte
	keyID   string
	version int
}

func WithKeyID(id string) Option {
	return func(c *AppKeyCipher) {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			c.keyID = trimmed
		}
	}
}

func WithVersion(version int) Option {
	return func(c *AppKeyCipher) {
		if version > 0 {
			c.version = version
		}
	}
}

func NewAppKeyCipher(keyMaterial []byte, opts ...Option) (*AppKeyCipher, error) {
	key := bytes.TrimSpace(keyMaterial)
	if len(key) == 0 {
		return nil, fmt.Errorf("security: key material is required")
	}
	c := &AppKeyCipher{
		key:     normalizeKey(key),
		keyID:   "app-key",
		version: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func NewAppKeyCipherFromString(key string, opts ...Option) (*AppKeyCipher, error) {
	return NewAppKeyCipher([]byte(key), opts...)
}

func (c *AppKeyCipher) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("security: cipher is nil")
	}
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("security: plaintext is required")
	}
	gcm, err := c.aead()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("security: nonce generation failed: %w", err)
	}
	return encodeEnvelope(envelope{
		KeyID:      c.keyID,
		Version:    c.version,
		Algorithm:  envelopeAlgorithm,
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(gcm.Seal(nil, nonce, plaintext, nil)),
	})
}

func (c *AppKeyCipher) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("security: cipher is nil")
	}
	parsed, err := decodeEnvelope(ciphertext)
	if err != nil {
		return nil, err
	}
	if parsed.KeyID != "" && parsed.KeyID != c.keyID {
		return nil, fmt.Errorf("security: key id mismatch: got %q want %q", parsed.KeyID, c.keyID)
	}
	if parsed.Version > 0 && parsed.Version != c.version {
		return nil, fmt.Errorf("security: key version mismatch: got %d want %d", parsed.Version, c.version)
	}
	if parsed.Algorithm != "" && parsed.Algorithm != envelopeAlgorithm {
		return nil, fmt.Errorf("security: unsupported algorithm %q", parsed.Algorithm)
	}

	nonce, err := decodePayload(parsed.Nonce, "nonce")
	if err != nil {
		return nil, err
	}
	sealed, err := decodePayload(parsed.Ciphertext, "ciphertext")
	if err != nil {
		return nil, err
	}
	gcm, err := c.aead()
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("security: invalid nonce size %d", len(nonce))
	}
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("security: decrypt payload: %w", err)
	}
	return plaintext, nil
}

func (c *AppKeyCipher) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

func (c *AppKeyCipher) Version() int {
	if c == nil {
		return 0
	}
	return c.version
}

func (c *AppKeyCipher) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("security: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("security: create gcm: %w", err)
	}
	return gcm, nil
}

// normalizeKey keeps AES sized keys and hashes anything else to 32 bytes.
func normalizeKey(value []byte) []byte {
	if len(value) == 16 || len(value) == 24 || len(value) == 32 {
		key := make([]byte, len(value))
		copy(key, value)
		return key
	}
	sum := sha256.Sum256(value)
	return sum[:]
}

var _ Cipher = (*AppKeyCipher)(nil)
