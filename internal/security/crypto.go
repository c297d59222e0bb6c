package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"hdxpreview/pkg/spec"

	"golang.org/x/crypto/pbkdf2"
)

// ErrOpen is returned when a sealed frame fails authentication, which in
// practice means a wrong passphrase.
var ErrOpen = errors.New("security: frame authentication failed")

// DeriveKey stretches a passphrase into an AES-256 key.
func DeriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, spec.KeyRounds, spec.KeyLen, sha256.New)
}

// NewSalt returns n random bytes for DeriveKey.
func NewSalt(n int) ([]byte, error) {
	salt := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// Sealer seals and opens frames with one derived key. The AEAD is built once
// and reused for every frame.
type Sealer struct {
	gcm cipher.AEAD
}

func NewSealer(key []byte) (*Sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("security: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("security: %w", err)
	}
	return &Sealer{gcm: gcm}, nil
}

// Seal encrypts data with AES-GCM under a random nonce. The nonce is
// prefixed to the returned ciphertext.
func (s *Sealer) Seal(data []byte) ([]byte, error) {
	nonce := make([]byte, s.gcm.NonceSize(), s.gcm.NonceSize()+len(data)+s.gcm.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return s.gcm.Seal(nonce, nonce, data, nil), nil
}

// Open reverses Seal.
func (s *Sealer) Open(data []byte) ([]byte, error) {
	nonceSize := s.gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, io.ErrUnexpectedEOF
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	out, err := s.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrOpen
	}
	return out, nil
}

// Seal is a one-shot helper around Sealer.Seal.
func Seal(data, key []byte) ([]byte, error) {
	s, err := NewSealer(key)
	if err != nil {
		return nil, err
	}
	return s.Seal(data)
}

// Open is a one-shot helper around Sealer.Open.
func Open(data, key []byte) ([]byte, error) {
	s, err := NewSealer(key)
	if err != nil {
		return nil, err
	}
	return s.Open(data)
}
