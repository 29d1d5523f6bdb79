// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

//go:build !linux

package secret

import (
	"context"
	"time"
)

var _ KeyStore = (*KeyringStore)(nil)

// KeyringStore is unavailable outside Linux. NewKeyringStore always fails so
// callers fall back to MemoryStore.
type KeyringStore struct{}

func NewKeyringStore(string) (*KeyringStore, error) {
	return nil, ErrKeyringUnsupported
}

func (s *KeyringStore) Store(context.Context, *SecretKey, time.Duration) error {
	return ErrKeyringUnsupported
}

func (s *KeyringStore) Retrieve(context.Context, string, time.Duration) (*SecretKey, error) {
	return nil, ErrKeyringUnsupported
}

func (s *KeyringStore) Revoke(context.Context, string) error {
	return ErrKeyringUnsupported
}
