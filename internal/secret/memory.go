// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package secret

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/awnumar/memguard"
)

var _ KeyStore = (*MemoryStore)(nil)

type memoryKey struct {
	enclave   *memguard.Enclave
	expiresAt time.Time
	revoked   bool
}

// MemoryStore is the portable KeyStore. Material is sealed in memguard
// enclaves and only opened for the duration of a Retrieve. Expiry is
// enforced on access and by Sweep; revoked keys leave a tombstone until the
// next sweep so that Retrieve can report ErrKeyRevoked.
type MemoryStore struct {
	mu   sync.Mutex
	keys map[string]*memoryKey
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keys: make(map[string]*memoryKey),
		now:  time.Now,
	}
}

func (s *MemoryStore) Store(ctx context.Context, key *SecretKey, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !key.valid() {
		return ErrInvalidKey
	}

	// NewEnclave wipes its argument, so hand it a copy
	material := make([]byte, len(key.Material()))
	copy(material, key.Material())
	enclave := memguard.NewEnclave(material)
	if enclave == nil {
		return fmt.Errorf("%w: sealing key material", ErrInvalidKey)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys[key.ID] = &memoryKey{
		enclave:   enclave,
		expiresAt: s.now().Add(ttl),
	}

	return nil
}

func (s *MemoryStore) Retrieve(ctx context.Context, keyID string, ttl time.Duration) (*SecretKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.keys[keyID]
	switch {
	case !ok:
		return nil, ErrKeyNotFound
	case entry.revoked:
		return nil, ErrKeyRevoked
	}

	now := s.now()
	if !now.Before(entry.expiresAt) {
		delete(s.keys, keyID)
		return nil, ErrKeyExpired
	}

	locked, err := entry.enclave.Open()
	if err != nil {
		return nil, fmt.Errorf("opening key enclave: %w", err)
	}
	material := make([]byte, locked.Size())
	copy(material, locked.Bytes())
	locked.Destroy()

	entry.expiresAt = now.Add(ttl)

	return newSecretKeyWithID(keyID, material), nil
}

func (s *MemoryStore) Revoke(ctx context.Context, keyID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.keys[keyID]
	if !ok || entry.revoked {
		return nil
	}
	entry.enclave = nil
	entry.revoked = true

	return nil
}

// Sweep drops expired keys and revocation tombstones. Returns how many
// entries were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, entry := range s.keys {
		if entry.revoked || !now.Before(entry.expiresAt) {
			delete(s.keys, id)
			removed++
		}
	}

	return removed
}
