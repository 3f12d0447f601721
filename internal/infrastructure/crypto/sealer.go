// Package crypto seals secrets that are stored at rest.
package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	invoicingapp "github.com/invoicer/backend/internal/application/invoicing"
	"golang.org/x/crypto/chacha20poly1305"
)

const sealedPrefix = "v1."

// ErrUnsealable is returned when a sealed value is malformed, was sealed
// under another key, or belongs to another principal.
var ErrUnsealable = errors.New("sealed value cannot be opened")

// Sealer encrypts refresh tokens with XChaCha20-Poly1305. The owning
// principal id is bound as associated data, so a sealed token copied to
// another profile does not open.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer creates a sealer from a 32-byte key.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("sealing key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext for principalID.
func (s *Sealer) Seal(plaintext, principalID string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), []byte(principalID))
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal for the same principalID.
func (s *Sealer) Open(sealed, principalID string) (string, error) {
	encoded, ok := strings.CutPrefix(sealed, sealedPrefix)
	if !ok {
		return "", ErrUnsealable
	}
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrUnsealable
	}
	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize+s.aead.Overhead() {
		return "", ErrUnsealable
	}

	plaintext, err := s.aead.Open(nil, data[:nonceSize], data[nonceSize:], []byte(principalID))
	if err != nil {
		return "", ErrUnsealable
	}
	return string(plaintext), nil
}

var _ invoicingapp.TokenSealer = (*Sealer)(nil)
