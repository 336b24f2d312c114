package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"strings"
)

// sealedPrefix marks values produced by Sealer so plaintext written by older
// versions (or with encryption disabled) is still readable.
const sealedPrefix = "enc:v1:"

// Encrypt encrypts plaintext bytes using AES-256-GCM and returns a base64 string.
func Encrypt(plaintext, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts a base64 encoded AES-256-GCM payload.
func Decrypt(ciphertext string, key []byte) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	nonce, cipherBytes := data[:nonceSize], data[nonceSize:]
	return gcm.Open(nil, nonce, cipherBytes, nil)
}

// GenerateSalt returns length random bytes.
func GenerateSalt(length int) ([]byte, error) {
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return nil, err
	}
	return buffer, nil
}

// Sealer encrypts short secrets (cluster admin passwords) before they are persisted.
// A nil Sealer or one without a key passes values through unchanged.
type Sealer struct {
	key []byte
}

// NewSealer derives an AES key from passphrase and salt. An empty passphrase yields a
// pass-through sealer.
func NewSealer(passphrase string, salt []byte) (*Sealer, error) {
	if strings.TrimSpace(passphrase) == "" {
		return &Sealer{}, nil
	}
	key, err := DeriveKeyArgon2id([]byte(passphrase), salt, DefaultArgon2Params())
	if err != nil {
		return nil, err
	}
	return &Sealer{key: key}, nil
}

// Enabled reports whether values are encrypted.
func (s *Sealer) Enabled() bool {
	return s != nil && len(s.key) > 0
}

// Seal encrypts value. Empty values stay empty.
func (s *Sealer) Seal(value string) (string, error) {
	if value == "" || !s.Enabled() {
		return value, nil
	}
	encoded, err := Encrypt([]byte(value), s.key)
	if err != nil {
		return "", err
	}
	return sealedPrefix + encoded, nil
}

// Open reverses Seal. Values without the sealed prefix are returned as-is.
func (s *Sealer) Open(value string) (string, error) {
	if !strings.HasPrefix(value, sealedPrefix) {
		return value, nil
	}
	if !s.Enabled() {
		return "", errors.New("crypto: sealed value found but no passphrase configured")
	}
	plain, err := Decrypt(strings.TrimPrefix(value, sealedPrefix), s.key)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
