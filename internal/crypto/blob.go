// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package crypto seals serialized vault state into an in-memory Blob.
//
// Each Seal generates a fresh AES-256-GCM key. The key is handed back as a
// *secret.SecretKey for the caller to register with a secret.KeyStore; the
// Blob itself carries only ciphertext, nonce and a logical expiry.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/MKhiriev/go-vault-broker/internal/secret"
)

const (
	// KeySize selects AES-256.
	KeySize = 32

	// paddingSize zero bytes are appended before sealing and stripped after
	// opening.
	paddingSize = 16
)

var (
	ErrCiphertextTooShort = errors.New("ciphertext too short")
	ErrDecrypt            = errors.New("decryption failed")
)

// Blob is one sealed vault. Expiry is logical: the cache refuses to hand
// out a blob past it, independently of the key's own TTL in the KeyStore.
type Blob struct {
	Ciphertext []byte
	Nonce      []byte
	Expiry     time.Time
}

// Expired reports whether now is at or past the blob's expiry.
func (b Blob) Expired(now time.Time) bool {
	return !now.Before(b.Expiry)
}

// Seal encrypts plaintext under a freshly generated key. plaintext is not
// modified; the padded working copy is wiped before returning.
func Seal(plaintext, aad []byte, expiry time.Time) (*secret.SecretKey, Blob, error) {
	material := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, material); err != nil {
		return nil, Blob{}, fmt.Errorf("generate key: %w", err)
	}
	key := secret.NewSecretKey(material)

	gcm, err := newGCM(key.Material())
	if err != nil {
		key.Wipe()
		return nil, Blob{}, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		key.Wipe()
		return nil, Blob{}, fmt.Errorf("generate nonce: %w", err)
	}

	padded := secret.NewBuffer(make([]byte, len(plaintext)+paddingSize))
	defer padded.Wipe()
	copy(padded.Bytes(), plaintext)

	blob := Blob{
		Ciphertext: gcm.Seal(nil, nonce, padded.Bytes(), aad),
		Nonce:      nonce,
		Expiry:     expiry,
	}

	return key, blob, nil
}

// Open decrypts the blob. The caller owns the returned buffer and must
// Wipe it once done.
func (b Blob) Open(key *secret.SecretKey, aad []byte) (*secret.Buffer, error) {
	gcm, err := newGCM(key.Material())
	if err != nil {
		return nil, err
	}
	if len(b.Nonce) != gcm.NonceSize() || len(b.Ciphertext) < gcm.Overhead()+paddingSize {
		return nil, ErrCiphertextTooShort
	}

	padded, err := gcm.Open(nil, b.Nonce, b.Ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}

	plaintext := secret.NewBuffer(padded[:len(padded)-paddingSize])
	secret.Zero(padded[len(padded)-paddingSize:])

	return plaintext, nil
}

// SealJSON marshals v to JSON and seals it. The serialized form is wiped
// before returning.
func SealJSON(v any, aad []byte, expiry time.Time) (*secret.SecretKey, Blob, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, Blob{}, fmt.Errorf("marshal data: %w", err)
	}
	serialized := secret.NewBuffer(data)
	defer serialized.Wipe()

	return Seal(serialized.Bytes(), aad, expiry)
}

// OpenJSON decrypts the blob into target, a non-nil pointer as required by
// json.Unmarshal.
func (b Blob) OpenJSON(key *secret.SecretKey, aad []byte, target any) error {
	plaintext, err := b.Open(key, aad)
	if err != nil {
		return err
	}
	defer plaintext.Wipe()

	if err = json.Unmarshal(plaintext.Bytes(), target); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}

	return nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
