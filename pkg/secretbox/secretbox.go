// Package secretbox encrypts secret material (seed phrases, ephemeral
// private keys) for storage in a durablestore.Store, using AES-256-GCM
// with a key derived through HKDF.
package secretbox

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

const keyDerivationSalt = "delegation-wallet-secretbox-v1"

// DeriveKey derives a 32-byte AES-256 key from master key material and a
// context label using HKDF, so the same master secret can protect
// multiple independent fields without key reuse across them.
func DeriveKey(masterSecret []byte, context string) ([]byte, error) {
	reader := hkdf.New(sha256.New, masterSecret, []byte(keyDerivationSalt), []byte(context))
	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("secretbox: derive key: %w", err)
	}
	return key, nil
}

// Seal encrypts plaintext with AES-256-GCM under key, returning a
// base64-encoded nonce||ciphertext blob suitable for storage.
func Seal(plaintext string, key []byte) (string, error) {
	if len(key) != 32 {
		return "", errors.New("secretbox: key must be 32 bytes for AES-256")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("secretbox: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("secretbox: new gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secretbox: generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Open decrypts a blob produced by Seal.
func Open(sealed string, key []byte) (string, error) {
	if len(key) != 32 {
		return "", errors.New("secretbox: key must be 32 bytes for AES-256")
	}

	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("secretbox: decode base64: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("secretbox: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("secretbox: new gcm: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("secretbox: ciphertext too short")
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("secretbox: decrypt: %w", err)
	}
	return string(plaintext), nil
}
