// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package secret

import (
	"fmt"
	"io"

	"github.com/MKhiriev/go-vault-broker/internal/utils"
)

// KeyIDLength is the length of generated key ids.
const KeyIDLength = 16

// SecretKey pairs an opaque id with symmetric key material. Only the id is
// ever written to the session; the material stays in the KeyStore and in
// transient process memory.
type SecretKey struct {
	ID string

	material *Buffer
}

// NewSecretKey wraps material under a freshly generated random id. The key
// takes ownership of material.
func NewSecretKey(material []byte) *SecretKey {
	return &SecretKey{
		ID:       utils.GenerateToken(KeyIDLength),
		material: NewBuffer(material),
	}
}

func newSecretKeyWithID(id string, material []byte) *SecretKey {
	return &SecretKey{ID: id, material: NewBuffer(material)}
}

// Material exposes the raw key bytes. Nil-safe.
func (k *SecretKey) Material() []byte {
	if k == nil {
		return nil
	}
	return k.material.Bytes()
}

// Wipe zeroes the key material. The id stays readable so the key can still
// be revoked afterwards.
func (k *SecretKey) Wipe() {
	if k == nil {
		return
	}
	k.material.Wipe()
}

func (k *SecretKey) valid() bool {
	return k != nil && k.ID != "" && k.material.Len() > 0
}

func (k *SecretKey) Format(f fmt.State, _ rune) {
	if k == nil {
		_, _ = io.WriteString(f, "SecretKey(<nil>)")
		return
	}
	_, _ = io.WriteString(f, "SecretKey("+k.ID+")")
}
